package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the headline trading statistics.
type Summary struct {
	TotalPL          decimal.Decimal `json:"totalPL"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	TotalTrades      int             `json:"totalTrades"`
	WinningTrades    int             `json:"winningTrades"`
	LosingTrades     int             `json:"losingTrades"`
	WinRate          float64         `json:"winRate"`
	AvgWin           decimal.Decimal `json:"avgWin"`
	AvgLoss          decimal.Decimal `json:"avgLoss"`
	GrossProfit      decimal.Decimal `json:"grossProfit"`
	GrossLoss        decimal.Decimal `json:"grossLoss"`
	ProfitFactor     float64         `json:"profitFactor"`
	PayoffRatio      float64         `json:"payoffRatio"`
	Expectancy       decimal.Decimal `json:"expectancy"`
	ActiveAccounts   int             `json:"activeAccounts"`
}

// Summarize computes trade statistics. WinRate is a percentage. ProfitFactor
// is gross profit over gross loss and is zero when there are no losses.
func Summarize(s State) Summary {
	sum := Summary{
		TotalPL:          decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		AvgWin:           decimal.Zero,
		AvgLoss:          decimal.Zero,
		GrossProfit:      decimal.Zero,
		GrossLoss:        decimal.Zero,
		Expectancy:       decimal.Zero,
		TotalTrades:      len(s.Trades),
	}

	for _, t := range s.Trades {
		sum.TotalPL = sum.TotalPL.Add(t.Profit)
		switch {
		case t.Profit.IsPositive():
			sum.WinningTrades++
			sum.GrossProfit = sum.GrossProfit.Add(t.Profit)
		case t.Profit.IsNegative():
			sum.LosingTrades++
			sum.GrossLoss = sum.GrossLoss.Add(t.Profit)
		}
	}
	for _, w := range s.Withdrawals {
		sum.TotalWithdrawals = sum.TotalWithdrawals.Add(w.Amount)
	}
	for _, a := range s.Accounts {
		if a.Status == StatusActive {
			sum.ActiveAccounts++
		}
	}

	if sum.TotalTrades > 0 {
		sum.WinRate = float64(sum.WinningTrades) / float64(sum.TotalTrades) * 100
	}
	if sum.WinningTrades > 0 {
		sum.AvgWin = sum.GrossProfit.Div(decimal.NewFromInt(int64(sum.WinningTrades)))
	}
	if sum.LosingTrades > 0 {
		sum.AvgLoss = sum.GrossLoss.Div(decimal.NewFromInt(int64(sum.LosingTrades)))
		sum.ProfitFactor = sum.GrossProfit.Div(sum.GrossLoss.Abs()).InexactFloat64()
		sum.PayoffRatio = sum.AvgWin.Div(sum.AvgLoss).Abs().InexactFloat64()
	}

	rate := decimal.NewFromFloat(sum.WinRate).Div(decimal.NewFromInt(100))
	sum.Expectancy = rate.Mul(sum.AvgWin).Add(decimal.NewFromInt(1).Sub(rate).Mul(sum.AvgLoss))

	return sum
}

// NetWorth is cash on hand plus the value of every trading account.
// Withdrawals are already reflected in the account balances.
func NetWorth(s State) decimal.Decimal {
	total := s.CurrentCash
	for _, a := range s.Accounts {
		total = total.Add(a.CurrentBalance)
	}
	return total
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps user input to a Period. Unknown values mean month.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDay, PeriodWeek:
		return Period(s)
	}
	return PeriodMonth
}

// Window returns the half-open interval [start, end) that p covers around now.
// Weeks start on Sunday.
func (p Period) Window(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodDay:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1)
	case PeriodWeek:
		start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7)
	default:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}

type CashFlow struct {
	Period        Period          `json:"period"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Income        decimal.Decimal `json:"income"`
	Expenses      decimal.Decimal `json:"expenses"`
	NetCashFlow   decimal.Decimal `json:"netCashFlow"`
	ProjectedCash decimal.Decimal `json:"projectedCash"`
}

// ComputeCashFlow totals income (including trading withdrawals) and expenses
// dated inside the period. ProjectedCash only applies items that have not
// already moved CurrentCash, i.e. unpaid expenses and unreceived incomes.
func ComputeCashFlow(s State, p Period, now time.Time) CashFlow {
	start, end := p.Window(now)
	loc := now.Location()
	in := func(day string) bool {
		t, err := ParseDay(day, loc)
		if err != nil {
			return false
		}
		return !t.Before(start) && t.Before(end)
	}

	cf := CashFlow{
		Period:   p,
		Start:    start,
		End:      end,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
	pending := decimal.Zero

	for _, e := range s.Expenses {
		if !in(e.DueDate) {
			continue
		}
		cf.Expenses = cf.Expenses.Add(e.Amount)
		if !e.IsPaid {
			pending = pending.Sub(e.Amount)
		}
	}
	for _, inc := range s.Incomes {
		if !in(inc.Date) {
			continue
		}
		cf.Income = cf.Income.Add(inc.Amount)
		if !inc.IsPaid {
			pending = pending.Add(inc.Amount)
		}
	}
	for _, w := range s.Withdrawals {
		if !in(w.Date) {
			continue
		}
		cf.Income = cf.Income.Add(w.Amount)
		pending = pending.Add(w.Amount)
	}

	cf.NetCashFlow = cf.Income.Sub(cf.Expenses)
	cf.ProjectedCash = s.CurrentCash.Add(pending)
	return cf
}

// DayPL is one point of the cumulative performance curve.
type DayPL struct {
	Date       string          `json:"date"`
	PL         decimal.Decimal `json:"pl"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// DailyPL groups trade profit by date, oldest first.
func DailyPL(trades []Trade) []DayPL {
	byDay := map[string]decimal.Decimal{}
	for _, t := range trades {
		byDay[t.Date] = byDay[t.Date].Add(t.Profit)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DayPL, 0, len(days))
	cum := decimal.Zero
	for _, d := range days {
		cum = cum.Add(byDay[d])
		out = append(out, DayPL{Date: d, PL: byDay[d], Cumulative: cum})
	}
	return out
}

type SymbolStats struct {
	Symbol  string          `json:"symbol"`
	Trades  int             `json:"trades"`
	Wins    int             `json:"wins"`
	TotalPL decimal.Decimal `json:"totalPL"`
	Volume  float64         `json:"volume"`
	WinRate float64         `json:"winRate"`
	AvgPL   decimal.Decimal `json:"avgPL"`
}

// BySymbol breaks trades down per instrument, best performer first.
func BySymbol(trades []Trade) []SymbolStats {
	idx := map[string]*SymbolStats{}
	var order []string
	for _, t := range trades {
		st, ok := idx[t.Symbol]
		if !ok {
			st = &SymbolStats{Symbol: t.Symbol, TotalPL: decimal.Zero}
			idx[t.Symbol] = st
			order = append(order, t.Symbol)
		}
		st.Trades++
		st.TotalPL = st.TotalPL.Add(t.Profit)
		st.Volume += t.Quantity
		if t.Profit.IsPositive() {
			st.Wins++
		}
	}

	out := make([]SymbolStats, 0, len(order))
	for _, sym := range order {
		st := *idx[sym]
		st.WinRate = float64(st.Wins) / float64(st.Trades) * 100
		st.AvgPL = st.TotalPL.Div(decimal.NewFromInt(int64(st.Trades)))
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPL.GreaterThan(out[j].TotalPL)
	})
	return out
}
