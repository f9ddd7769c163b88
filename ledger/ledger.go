// Package ledger holds the trading and personal-finance state, the pure
// reducer that transitions it, and the metrics derived from it.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DayLayout is the calendar-day format used for trade, withdrawal,
	// expense and income dates.
	DayLayout = "2006-01-02"

	// MonthLayout is the label format for monthly goals, e.g. "March 2025".
	MonthLayout = "January 2006"

	StatusActive = "Active"
)

var (
	// StartingBalance is the fixed notional every account starts from.
	StartingBalance = decimal.NewFromInt(100000)

	// DrawdownBuffer is subtracted from the current balance to get the
	// available drawdown.
	DrawdownBuffer = decimal.NewFromInt(3000)

	// PADrawdownCap caps the available drawdown of funded (PA) accounts.
	PADrawdownCap = decimal.NewFromInt(100100)
)

type Side string

const (
	Long  Side = "Long"
	Short Side = "Short"
)

// Trade is a single closed trade imported from a broker export.
type Trade struct {
	ID        string          `json:"id"`
	Account   string          `json:"account"`
	Date      string          `json:"date"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  float64         `json:"quantity"`
	Price     float64         `json:"price"`
	Points    float64         `json:"points"`
	Profit    decimal.Decimal `json:"profit"`
	Timestamp time.Time       `json:"timestamp"`
}

// Account is derived from trades and withdrawals. It is never stored as the
// source of truth.
type Account struct {
	ID                string          `json:"id"`
	StartingBalance   decimal.Decimal `json:"startingBalance"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	TotalPL           decimal.Decimal `json:"totalPL"`
	Withdrawn         decimal.Decimal `json:"withdrawn"`
	Status            string          `json:"status"`
	AvailableDrawdown decimal.Decimal `json:"availableDrawdown"`
}

// IsPA reports whether the account is a funded ("PA") account.
func (a Account) IsPA() bool {
	return IsPAAccount(a.ID)
}

func IsPAAccount(name string) bool {
	return strings.Contains(name, "PA")
}

type Withdrawal struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

// MonthlyGoals maps a month label to its profit target.
type MonthlyGoals map[string]decimal.Decimal

type Expense struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate"`
	IsPaid      bool            `json:"isPaid"`
	IsRecurring bool            `json:"isRecurring"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Income mirrors Expense. IsPaid means the money has been received.
type Income struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	IsPaid      bool            `json:"isPaid"`
	IsRecurring bool            `json:"isRecurring"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// State is everything the store owns. Loading and Error are transient and
// never persisted.
type State struct {
	Trades       []Trade
	Accounts     map[string]Account
	Withdrawals  []Withdrawal
	MonthlyGoals MonthlyGoals
	Expenses     []Expense
	Incomes      []Income
	CurrentCash  decimal.Decimal

	Loading bool
	Error   string
}

// Snapshot is the persisted part of State.
type Snapshot struct {
	Trades       []Trade            `json:"trades"`
	Accounts     map[string]Account `json:"accounts"`
	Withdrawals  []Withdrawal       `json:"withdrawals"`
	MonthlyGoals MonthlyGoals       `json:"monthlyGoals"`
	Expenses     []Expense          `json:"expenses"`
	Incomes      []Income           `json:"incomes"`
	CurrentCash  decimal.Decimal    `json:"currentCash"`
}

// Empty returns the initial state.
func Empty() State {
	return State{
		Trades:       []Trade{},
		Accounts:     map[string]Account{},
		Withdrawals:  []Withdrawal{},
		MonthlyGoals: MonthlyGoals{},
		Expenses:     []Expense{},
		Incomes:      []Income{},
		CurrentCash:  decimal.Zero,
	}
}

// Snapshot returns a deep copy of the persisted fields.
func (s State) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		Trades:       c.Trades,
		Accounts:     c.Accounts,
		Withdrawals:  c.Withdrawals,
		MonthlyGoals: c.MonthlyGoals,
		Expenses:     c.Expenses,
		Incomes:      c.Incomes,
		CurrentCash:  c.CurrentCash,
	}
}

// Clone returns a copy of s that shares no slices or maps with it.
func (s State) Clone() State {
	out := s
	out.Trades = append([]Trade{}, s.Trades...)
	out.Withdrawals = append([]Withdrawal{}, s.Withdrawals...)
	out.Expenses = append([]Expense{}, s.Expenses...)
	out.Incomes = append([]Income{}, s.Incomes...)
	out.Accounts = make(map[string]Account, len(s.Accounts))
	for k, v := range s.Accounts {
		out.Accounts[k] = v
	}
	out.MonthlyGoals = make(MonthlyGoals, len(s.MonthlyGoals))
	for k, v := range s.MonthlyGoals {
		out.MonthlyGoals[k] = v
	}
	return out
}

// ParseDay parses a DayLayout date in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayLayout, day, loc)
}

// MonthLabel returns the goal label for t, e.g. "March 2025".
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseAmount coerces free-form user input to a decimal. Anything that does
// not parse becomes zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
