package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Reduce(Empty(), ImportTrades{Trades: []Trade{
		trade("1", "EVAL-1", "2025-03-03", "300"),
		trade("2", "EVAL-1", "2025-03-03", "100"),
		trade("3", "PA-2", "2025-03-04", "-100"),
		trade("4", "PA-2", "2025-03-05", "-300"),
		trade("5", "PA-2", "2025-03-05", "200"),
	}})
	s = Reduce(s, AddWithdrawal{Withdrawal: Withdrawal{ID: "w", Account: "PA-2", Amount: d("50")}})

	sum := Summarize(s)
	assert.Equal(t, 5, sum.TotalTrades)
	assert.Equal(t, 3, sum.WinningTrades)
	assert.Equal(t, 2, sum.LosingTrades)
	assert.InDelta(t, 60.0, sum.WinRate, 1e-9)
	assertDec(t, "200", sum.TotalPL)
	assertDec(t, "50", sum.TotalWithdrawals)
	assertDec(t, "200", sum.AvgWin)
	assertDec(t, "-200", sum.AvgLoss)
	assert.InDelta(t, 1.5, sum.ProfitFactor, 1e-9)
	assert.InDelta(t, 1.0, sum.PayoffRatio, 1e-9)
	assertDec(t, "40", sum.Expectancy)
	assert.Equal(t, 2, sum.ActiveAccounts)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	sum := Summarize(Empty())
	assert.Zero(t, sum.TotalTrades)
	assert.Zero(t, sum.WinRate)
	assert.Zero(t, sum.ProfitFactor)
	assertDec(t, "0", sum.Expectancy)
}

func TestNetWorth(t *testing.T) {
	t.Parallel()

	s := Reduce(Empty(), ImportTrades{Trades: []Trade{
		trade("1", "EVAL-1", "2025-03-03", "500"),
		trade("2", "PA-2", "2025-03-03", "-200"),
	}})
	s = Reduce(s, AddWithdrawal{Withdrawal: Withdrawal{ID: "w", Account: "EVAL-1", Amount: d("100")}})
	s = Reduce(s, SetCurrentCash{Amount: d("2500")})

	assertDec(t, "202700", NetWorth(s))
}

func TestPeriodWindow(t *testing.T) {
	t.Parallel()

	// Wednesday
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	start, end := PeriodDay.Window(now)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), end)

	start, end = PeriodWeek.Window(now)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), end)

	start, end = PeriodMonth.Window(now)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), end)

	assert.Equal(t, PeriodWeek, ParsePeriod("week"))
	assert.Equal(t, PeriodMonth, ParsePeriod("fortnight"))
}

func TestComputeCashFlow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

	s := Empty()
	s = Reduce(s, SetCurrentCash{Amount: d("1000")})
	s = Reduce(s, AddExpense{Expense: Expense{ID: "rent", Amount: d("800"), DueDate: "2025-03-01", IsPaid: true}})
	s = Reduce(s, AddExpense{Expense: Expense{ID: "car", Amount: d("300"), DueDate: "2025-03-31"}})
	s = Reduce(s, AddExpense{Expense: Expense{ID: "april", Amount: d("999"), DueDate: "2025-04-01"}})
	s = Reduce(s, AddIncome{Income: Income{ID: "pay", Amount: d("2000"), Date: "2025-03-15"}})
	s = Reduce(s, AddIncome{Income: Income{ID: "bad", Amount: d("5"), Date: "someday"}})
	s = Reduce(s, AddWithdrawal{Withdrawal: Withdrawal{ID: "w", Account: "PA-1", Amount: d("500"), Date: "2025-03-20"}})

	cf := ComputeCashFlow(s, PeriodMonth, now)
	assertDec(t, "2500", cf.Income)
	assertDec(t, "1100", cf.Expenses)
	assertDec(t, "1400", cf.NetCashFlow)
	// 200 on hand after rent, plus pending pay and withdrawal, minus the car
	assertDec(t, "2400", cf.ProjectedCash)

	day := ComputeCashFlow(s, PeriodDay, now)
	assertDec(t, "0", day.Income)
	assertDec(t, "0", day.Expenses)
	assertDec(t, "200", day.ProjectedCash)
}

func TestDailyPL(t *testing.T) {
	t.Parallel()

	out := DailyPL([]Trade{
		trade("1", "A", "2025-03-04", "50"),
		trade("2", "A", "2025-03-03", "100"),
		trade("3", "B", "2025-03-04", "-20"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "2025-03-03", out[0].Date)
	assertDec(t, "100", out[0].Cumulative)
	assertDec(t, "30", out[1].PL)
	assertDec(t, "130", out[1].Cumulative)
}

func TestBySymbol(t *testing.T) {
	t.Parallel()

	es := trade("1", "A", "2025-03-03", "-40")
	es.Symbol = "ES"
	nq1 := trade("2", "A", "2025-03-03", "100")
	nq2 := trade("3", "A", "2025-03-03", "-20")
	nq2.Quantity = 3

	out := BySymbol([]Trade{es, nq1, nq2})
	require.Len(t, out, 2)
	assert.Equal(t, "NQ", out[0].Symbol)
	assert.Equal(t, 2, out[0].Trades)
	assert.Equal(t, 1, out[0].Wins)
	assert.InDelta(t, 4.0, out[0].Volume, 1e-9)
	assert.InDelta(t, 50.0, out[0].WinRate, 1e-9)
	assertDec(t, "40", out[0].AvgPL)
	assert.Equal(t, "ES", out[1].Symbol)
}

func TestGoalProgress(t *testing.T) {
	t.Parallel()

	trades := []Trade{
		trade("1", "A", "2025-03-03", "600"),
		trade("2", "A", "2025-03-20", "600"),
		trade("3", "A", "2025-04-02", "100"),
	}
	goals := MonthlyGoals{
		"April 2025": d("1000"),
		"March 2025": d("1000"),
		"May 2025":   d("0"),
	}

	progress := Progress(goals, trades)
	require.Len(t, progress, 3)
	assert.Equal(t, "March 2025", progress[0].Month)
	assert.True(t, progress[0].Achieved)
	assertDec(t, "200", progress[0].Difference)
	assert.InDelta(t, 120.0, progress[0].Percent, 1e-9)

	assert.Equal(t, "April 2025", progress[1].Month)
	assert.False(t, progress[1].Achieved)
	assert.InDelta(t, 10.0, progress[1].Percent, 1e-9)

	assert.Equal(t, "May 2025", progress[2].Month)
	assert.Zero(t, progress[2].Percent)

	st := Planner(goals, trades)
	assert.Equal(t, 3, st.TotalGoals)
	assert.Equal(t, 2, st.Achieved)
	assertDec(t, "2000", st.TotalTarget)
	assert.InDelta(t, 66.666, st.AchievementRate, 1e-2)
}
