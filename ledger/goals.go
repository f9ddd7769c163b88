package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyActuals sums trade profit per month label. Trades with an
// unparsable date fall back to their timestamp.
func MonthlyActuals(trades []Trade) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, t := range trades {
		when, err := ParseDay(t.Date, time.UTC)
		if err != nil {
			when = t.Timestamp
		}
		label := MonthLabel(when)
		out[label] = out[label].Add(t.Profit)
	}
	return out
}

type GoalProgress struct {
	Month      string          `json:"month"`
	Goal       decimal.Decimal `json:"goal"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Percent    float64         `json:"percent"`
	Achieved   bool            `json:"achieved"`
}

// Progress compares every goal against the month's actual profit, in
// calendar order. Labels that are not valid months sort last.
func Progress(goals MonthlyGoals, trades []Trade) []GoalProgress {
	actuals := MonthlyActuals(trades)

	out := make([]GoalProgress, 0, len(goals))
	for month, goal := range goals {
		actual := actuals[month]
		p := GoalProgress{
			Month:      month,
			Goal:       goal,
			Actual:     actual,
			Difference: actual.Sub(goal),
			Achieved:   actual.GreaterThanOrEqual(goal),
		}
		if goal.IsPositive() {
			p.Percent = actual.Div(goal).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		ti, ei := time.Parse(MonthLayout, out[i].Month)
		tj, ej := time.Parse(MonthLayout, out[j].Month)
		switch {
		case ei != nil && ej != nil:
			return out[i].Month < out[j].Month
		case ei != nil:
			return false
		case ej != nil:
			return true
		}
		return ti.Before(tj)
	})
	return out
}

type PlannerStats struct {
	TotalGoals      int             `json:"totalGoals"`
	TotalTarget     decimal.Decimal `json:"totalTarget"`
	Achieved        int             `json:"achieved"`
	AchievementRate float64         `json:"achievementRate"`
}

func Planner(goals MonthlyGoals, trades []Trade) PlannerStats {
	st := PlannerStats{TotalTarget: decimal.Zero}
	for _, p := range Progress(goals, trades) {
		st.TotalGoals++
		st.TotalTarget = st.TotalTarget.Add(p.Goal)
		if p.Achieved {
			st.Achieved++
		}
	}
	if st.TotalGoals > 0 {
		st.AchievementRate = float64(st.Achieved) / float64(st.TotalGoals) * 100
	}
	return st
}
