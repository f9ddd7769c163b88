package ledger

import "github.com/shopspring/decimal"

// Reduce returns the state that results from applying a to s. It never
// modifies s. Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetLoading:
		s.Loading = act.Loading
		return s

	case SetError:
		s.Error = act.Error
		s.Loading = false
		return s
	}

	next := s.Clone()

	switch act := a.(type) {
	case LoadTrades:
		next.Trades = append([]Trade{}, act.Trades...)
		next.Accounts = BuildAccounts(next.Trades, next.Withdrawals)
		next.Loading = false
		next.Error = ""

	case LoadWithdrawals:
		next.Withdrawals = append([]Withdrawal{}, act.Withdrawals...)
		next.Accounts = BuildAccounts(next.Trades, next.Withdrawals)

	case LoadGoals:
		next.MonthlyGoals = copyGoals(act.Goals)

	case LoadExpenses:
		next.Expenses = append([]Expense{}, act.Expenses...)

	case LoadIncomes:
		next.Incomes = append([]Income{}, act.Incomes...)

	case LoadCash:
		next.CurrentCash = act.Amount

	case LoadSnapshot:
		snap := act.Snapshot
		next.Trades = append([]Trade{}, snap.Trades...)
		next.Withdrawals = append([]Withdrawal{}, snap.Withdrawals...)
		next.MonthlyGoals = copyGoals(snap.MonthlyGoals)
		next.Expenses = append([]Expense{}, snap.Expenses...)
		next.Incomes = append([]Income{}, snap.Incomes...)
		next.CurrentCash = snap.CurrentCash
		next.Accounts = BuildAccounts(next.Trades, next.Withdrawals)
		next.Loading = false
		next.Error = ""

	case ImportTrades:
		next.Trades = append(next.Trades, act.Trades...)
		next.Accounts = BuildAccounts(next.Trades, next.Withdrawals)
		next.Loading = false
		next.Error = ""

	case AddWithdrawal:
		next.Withdrawals = append(next.Withdrawals, act.Withdrawal)
		next.Accounts = BuildAccounts(next.Trades, next.Withdrawals)

	case SetMonthlyGoal:
		next.MonthlyGoals[act.Month] = act.Amount

	case DeleteMonthlyGoal:
		delete(next.MonthlyGoals, act.Month)

	case AddExpense:
		next.Expenses = append(next.Expenses, act.Expense)
		next.CurrentCash = next.CurrentCash.Sub(expenseEffect(act.Expense))

	case UpdateExpense:
		for i, e := range next.Expenses {
			if e.ID == act.Expense.ID {
				next.CurrentCash = next.CurrentCash.Add(expenseEffect(e)).Sub(expenseEffect(act.Expense))
				next.Expenses[i] = act.Expense
				break
			}
		}

	case DeleteExpense:
		kept := next.Expenses[:0]
		for _, e := range next.Expenses {
			if e.ID == act.ID {
				next.CurrentCash = next.CurrentCash.Add(expenseEffect(e))
				continue
			}
			kept = append(kept, e)
		}
		next.Expenses = kept

	case AddIncome:
		next.Incomes = append(next.Incomes, act.Income)
		next.CurrentCash = next.CurrentCash.Add(incomeEffect(act.Income))

	case UpdateIncome:
		for i, in := range next.Incomes {
			if in.ID == act.Income.ID {
				next.CurrentCash = next.CurrentCash.Sub(incomeEffect(in)).Add(incomeEffect(act.Income))
				next.Incomes[i] = act.Income
				break
			}
		}

	case DeleteIncome:
		kept := next.Incomes[:0]
		for _, in := range next.Incomes {
			if in.ID == act.ID {
				next.CurrentCash = next.CurrentCash.Sub(incomeEffect(in))
				continue
			}
			kept = append(kept, in)
		}
		next.Incomes = kept

	case SetCurrentCash:
		next.CurrentCash = act.Amount

	case ClearData:
		return Empty()

	default:
		return s
	}

	return next
}

// expenseEffect is how much a paid expense has taken out of cash.
func expenseEffect(e Expense) decimal.Decimal {
	if !e.IsPaid {
		return decimal.Zero
	}
	return e.Amount
}

func incomeEffect(in Income) decimal.Decimal {
	if !in.IsPaid {
		return decimal.Zero
	}
	return in.Amount
}

func copyGoals(g MonthlyGoals) MonthlyGoals {
	out := make(MonthlyGoals, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}
