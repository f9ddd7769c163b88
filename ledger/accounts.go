package ledger

import "github.com/shopspring/decimal"

// BuildAccounts folds trades and withdrawals into per-account aggregates.
// Withdrawals that reference an account with no trades are ignored.
func BuildAccounts(trades []Trade, withdrawals []Withdrawal) map[string]Account {
	accounts := make(map[string]Account)

	for _, t := range trades {
		a, ok := accounts[t.Account]
		if !ok {
			a = newAccount(t.Account)
		}
		a.TotalPL = a.TotalPL.Add(t.Profit)
		accounts[t.Account] = a
	}

	for _, w := range withdrawals {
		a, ok := accounts[w.Account]
		if !ok {
			continue
		}
		a.Withdrawn = a.Withdrawn.Add(w.Amount)
		accounts[w.Account] = a
	}

	for name, a := range accounts {
		accounts[name] = a.settle()
	}
	return accounts
}

func newAccount(name string) Account {
	return Account{
		ID:              name,
		StartingBalance: StartingBalance,
		CurrentBalance:  StartingBalance,
		TotalPL:         decimal.Zero,
		Withdrawn:       decimal.Zero,
		Status:          StatusActive,
	}
}

// settle recomputes the balance and drawdown from the running totals.
func (a Account) settle() Account {
	a.CurrentBalance = a.StartingBalance.Add(a.TotalPL).Sub(a.Withdrawn)
	a.AvailableDrawdown = AvailableDrawdown(a.ID, a.CurrentBalance)
	return a
}

// AvailableDrawdown is the current balance less the drawdown buffer, capped
// for PA accounts.
func AvailableDrawdown(name string, balance decimal.Decimal) decimal.Decimal {
	dd := balance.Sub(DrawdownBuffer)
	if IsPAAccount(name) && dd.GreaterThan(PADrawdownCap) {
		return PADrawdownCap
	}
	return dd
}
