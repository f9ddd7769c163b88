package remote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
)

type UserRow struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email     string    `json:"email" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

func (UserRow) TableName() string { return "users" }

// TradeRow is keyed by user and trade. Money columns here and below use
// numeric(18,6) so sub-cent profits keep their precision.
type TradeRow struct {
	UserID         string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	TradeID        string          `json:"trade_id" gorm:"primaryKey;type:varchar(128)"`
	AccountName    string          `json:"account_name" gorm:"type:varchar(128);index"`
	Symbol         string          `json:"symbol" gorm:"type:varchar(32)"`
	Side           string          `json:"side" gorm:"type:varchar(8)"`
	Quantity       float64         `json:"quantity"`
	Price          float64         `json:"price"`
	Points         float64         `json:"points"`
	Profit         decimal.Decimal `json:"profit" gorm:"type:numeric(18,6);not null"`
	TradeDate      string          `json:"trade_date" gorm:"type:varchar(10);index"`
	TradeTimestamp time.Time       `json:"trade_timestamp"`
}

func (TradeRow) TableName() string { return "trades" }

type WithdrawalRow struct {
	UserID         string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	AccountName    string          `json:"account_name" gorm:"type:varchar(128)"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(18,6);not null"`
	WithdrawalDate string          `json:"withdrawal_date" gorm:"type:varchar(10)"`
	Description    string          `json:"description" gorm:"type:text"`
}

func (WithdrawalRow) TableName() string { return "withdrawals" }

type GoalRow struct {
	UserID     string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	Month      string          `json:"month" gorm:"primaryKey;type:varchar(32)"`
	GoalAmount decimal.Decimal `json:"goal_amount" gorm:"type:numeric(18,6);not null"`
}

func (GoalRow) TableName() string { return "monthly_goals" }

type ExpenseRow struct {
	UserID      string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Category    string          `json:"category" gorm:"type:varchar(64)"`
	Description string          `json:"description" gorm:"type:text"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(18,6);not null"`
	DueDate     string          `json:"due_date" gorm:"type:varchar(10)"`
	IsPaid      bool            `json:"is_paid"`
	IsRecurring bool            `json:"is_recurring"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (ExpenseRow) TableName() string { return "expenses" }

type IncomeRow struct {
	UserID      string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Category    string          `json:"category" gorm:"type:varchar(64)"`
	Description string          `json:"description" gorm:"type:text"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(18,6);not null"`
	IncomeDate  string          `json:"income_date" gorm:"type:varchar(10)"`
	IsPaid      bool            `json:"is_paid"`
	IsRecurring bool            `json:"is_recurring"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (IncomeRow) TableName() string { return "incomes" }

type SettingsRow struct {
	UserID      string          `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	CurrentCash decimal.Decimal `json:"current_cash" gorm:"type:numeric(18,6);not null"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (SettingsRow) TableName() string { return "user_settings" }

// Models lists every row type, in creation order.
func Models() []any {
	return []any{
		&UserRow{},
		&TradeRow{},
		&WithdrawalRow{},
		&GoalRow{},
		&ExpenseRow{},
		&IncomeRow{},
		&SettingsRow{},
	}
}

func TradeToRow(userID string, t ledger.Trade) TradeRow {
	return TradeRow{
		UserID:         userID,
		TradeID:        t.ID,
		AccountName:    t.Account,
		Symbol:         t.Symbol,
		Side:           string(t.Side),
		Quantity:       t.Quantity,
		Price:          t.Price,
		Points:         t.Points,
		Profit:         t.Profit,
		TradeDate:      t.Date,
		TradeTimestamp: t.Timestamp.UTC(),
	}
}

func (r TradeRow) Trade() ledger.Trade {
	return ledger.Trade{
		ID:        r.TradeID,
		Account:   r.AccountName,
		Date:      r.TradeDate,
		Symbol:    r.Symbol,
		Side:      ledger.Side(r.Side),
		Quantity:  r.Quantity,
		Price:     r.Price,
		Points:    r.Points,
		Profit:    r.Profit,
		Timestamp: r.TradeTimestamp,
	}
}

func WithdrawalToRow(userID string, w ledger.Withdrawal) WithdrawalRow {
	return WithdrawalRow{
		ID:             w.ID,
		UserID:         userID,
		AccountName:    w.Account,
		Amount:         w.Amount,
		WithdrawalDate: w.Date,
		Description:    w.Description,
	}
}

func (r WithdrawalRow) Withdrawal() ledger.Withdrawal {
	return ledger.Withdrawal{
		ID:          r.ID,
		Account:     r.AccountName,
		Amount:      r.Amount,
		Date:        r.WithdrawalDate,
		Description: r.Description,
	}
}

// GoalsFromRows folds goal rows into a month-keyed map. Later rows win.
func GoalsFromRows(rows []GoalRow) ledger.MonthlyGoals {
	out := make(ledger.MonthlyGoals, len(rows))
	for _, r := range rows {
		out[r.Month] = r.GoalAmount
	}
	return out
}

func ExpenseToRow(userID string, e ledger.Expense) ExpenseRow {
	return ExpenseRow{
		ID:          e.ID,
		UserID:      userID,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		DueDate:     e.DueDate,
		IsPaid:      e.IsPaid,
		IsRecurring: e.IsRecurring,
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

func (r ExpenseRow) Expense() ledger.Expense {
	return ledger.Expense{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		DueDate:     r.DueDate,
		IsPaid:      r.IsPaid,
		IsRecurring: r.IsRecurring,
		CreatedAt:   r.CreatedAt,
	}
}

func IncomeToRow(userID string, in ledger.Income) IncomeRow {
	return IncomeRow{
		ID:          in.ID,
		UserID:      userID,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		IncomeDate:  in.Date,
		IsPaid:      in.IsPaid,
		IsRecurring: in.IsRecurring,
		CreatedAt:   in.CreatedAt.UTC(),
	}
}

func (r IncomeRow) Income() ledger.Income {
	return ledger.Income{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.IncomeDate,
		IsPaid:      r.IsPaid,
		IsRecurring: r.IsRecurring,
		CreatedAt:   r.CreatedAt,
	}
}
