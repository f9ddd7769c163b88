// Package remote defines the cloud backend the portal syncs with and the
// row models it stores. Implementations live in the rest and sqlstore
// subpackages.
package remote

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
)

// Row limits applied when loading a user's data.
const (
	TradeLimit      = 1000
	WithdrawalLimit = 100
	GoalLimit       = 50
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("remote: not found")

type User struct {
	ID    string
	Email string
}

// Settings holds per-user values that are not part of any list.
type Settings struct {
	CurrentCash decimal.Decimal
}

// Backend is table-style storage keyed by an opaque user id. Every call is
// expected to honor ctx cancellation.
type Backend interface {
	// Ping performs a cheap read to check reachability.
	Ping(ctx context.Context) error

	// EnsureUser creates the user row if it does not exist.
	EnsureUser(ctx context.Context, u User) error

	ListTrades(ctx context.Context, userID string) ([]ledger.Trade, error)
	InsertTrades(ctx context.Context, userID string, trades []ledger.Trade) error

	ListWithdrawals(ctx context.Context, userID string) ([]ledger.Withdrawal, error)
	InsertWithdrawal(ctx context.Context, userID string, w ledger.Withdrawal) error

	ListGoals(ctx context.Context, userID string) (ledger.MonthlyGoals, error)
	UpsertGoal(ctx context.Context, userID, month string, amount decimal.Decimal) error
	DeleteGoal(ctx context.Context, userID, month string) error

	ListExpenses(ctx context.Context, userID string) ([]ledger.Expense, error)
	UpsertExpense(ctx context.Context, userID string, e ledger.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error

	ListIncomes(ctx context.Context, userID string) ([]ledger.Income, error)
	UpsertIncome(ctx context.Context, userID string, in ledger.Income) error
	DeleteIncome(ctx context.Context, userID, id string) error

	// GetSettings returns found=false when the user has never saved any.
	GetSettings(ctx context.Context, userID string) (Settings, bool, error)
	SaveSettings(ctx context.Context, userID string, s Settings) error
}
