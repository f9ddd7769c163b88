package ledger

import "github.com/shopspring/decimal"

// Action is a state transition request understood by Reduce.
type Action interface {
	Kind() string
}

type (
	SetLoading struct{ Loading bool }
	SetError   struct{ Error string }

	LoadTrades      struct{ Trades []Trade }
	LoadWithdrawals struct{ Withdrawals []Withdrawal }
	LoadGoals       struct{ Goals MonthlyGoals }
	LoadExpenses    struct{ Expenses []Expense }
	LoadIncomes     struct{ Incomes []Income }
	LoadCash        struct{ Amount decimal.Decimal }
	LoadSnapshot    struct{ Snapshot Snapshot }

	ImportTrades  struct{ Trades []Trade }
	AddWithdrawal struct{ Withdrawal Withdrawal }

	SetMonthlyGoal struct {
		Month  string
		Amount decimal.Decimal
	}
	DeleteMonthlyGoal struct{ Month string }

	AddExpense    struct{ Expense Expense }
	UpdateExpense struct{ Expense Expense }
	DeleteExpense struct{ ID string }

	AddIncome    struct{ Income Income }
	UpdateIncome struct{ Income Income }
	DeleteIncome struct{ ID string }

	SetCurrentCash struct{ Amount decimal.Decimal }

	ClearData struct{}
)

func (SetLoading) Kind() string        { return "SET_LOADING" }
func (SetError) Kind() string          { return "SET_ERROR" }
func (LoadTrades) Kind() string        { return "LOAD_TRADES" }
func (LoadWithdrawals) Kind() string   { return "LOAD_WITHDRAWALS" }
func (LoadGoals) Kind() string         { return "LOAD_GOALS" }
func (LoadExpenses) Kind() string      { return "LOAD_EXPENSES" }
func (LoadIncomes) Kind() string       { return "LOAD_INCOMES" }
func (LoadCash) Kind() string          { return "LOAD_CASH" }
func (LoadSnapshot) Kind() string      { return "LOAD_LOCALSTORAGE" }
func (ImportTrades) Kind() string      { return "IMPORT_TRADES" }
func (AddWithdrawal) Kind() string     { return "ADD_WITHDRAWAL" }
func (SetMonthlyGoal) Kind() string    { return "SET_MONTHLY_GOAL" }
func (DeleteMonthlyGoal) Kind() string { return "DELETE_MONTHLY_GOAL" }
func (AddExpense) Kind() string        { return "ADD_EXPENSE" }
func (UpdateExpense) Kind() string     { return "UPDATE_EXPENSE" }
func (DeleteExpense) Kind() string     { return "DELETE_EXPENSE" }
func (AddIncome) Kind() string         { return "ADD_INCOME" }
func (UpdateIncome) Kind() string      { return "UPDATE_INCOME" }
func (DeleteIncome) Kind() string      { return "DELETE_INCOME" }
func (SetCurrentCash) Kind() string    { return "SET_CURRENT_CASH" }
func (ClearData) Kind() string         { return "CLEAR_DATA" }

// Persistent reports whether the result of a must be written to local
// storage. Loading and error changes are transient.
func Persistent(a Action) bool {
	switch a.(type) {
	case SetLoading, SetError:
		return false
	}
	return true
}
