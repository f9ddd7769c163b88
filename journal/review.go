package journal

import (
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/rustyeddy/tradeportal/ledger"
)

// Review is the data behind a monthly Org-mode review page.
type Review struct {
	Month    string
	Created  time.Time
	Summary  ledger.Summary
	Goal     *ledger.GoalProgress
	Accounts []ledger.Account
	Symbols  []ledger.SymbolStats
	Days     []ledger.DayPL
}

// NewReview builds the review for the month label from s. Only trades in
// that month are counted.
func NewReview(s ledger.State, month string, now time.Time) Review {
	var trades []ledger.Trade
	for _, t := range s.Trades {
		if when, err := ledger.ParseDay(t.Date, time.UTC); err == nil && ledger.MonthLabel(when) == month {
			trades = append(trades, t)
		}
	}

	monthState := s.Clone()
	monthState.Trades = trades

	r := Review{
		Month:   month,
		Created: now,
		Summary: ledger.Summarize(monthState),
		Symbols: ledger.BySymbol(trades),
		Days:    ledger.DailyPL(trades),
	}
	for _, a := range s.Accounts {
		r.Accounts = append(r.Accounts, a)
	}
	sort.Slice(r.Accounts, func(i, j int) bool { return r.Accounts[i].ID < r.Accounts[j].ID })
	if goal, ok := s.MonthlyGoals[month]; ok {
		for _, p := range ledger.Progress(ledger.MonthlyGoals{month: goal}, trades) {
			p := p
			r.Goal = &p
		}
	}
	return r
}

var reviewFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var reviewTmpl = template.Must(template.New("review").Funcs(reviewFuncs).Parse(ReviewOrgTemplate))

// WriteReviewOrg renders r as an Org-mode document.
func WriteReviewOrg(w io.Writer, r Review) error {
	return reviewTmpl.Execute(w, r)
}

const ReviewOrgTemplate = `* REVIEW: {{.Month}}
:PROPERTIES:
:MONTH:       {{.Month}}
:NET_PL:      {{.Summary.TotalPL.StringFixed 2}}
:TRADES:      {{.Summary.TotalTrades}}
:WINS:        {{.Summary.WinningTrades}}
:LOSSES:      {{.Summary.LosingTrades}}
:WIN_RATE:    {{printf "%.2f" .Summary.WinRate}}
:PROFIT_FAC:  {{if ne .Summary.ProfitFactor 0.0}}{{printf "%.2f" .Summary.ProfitFactor}}{{else}}(no losses){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Goal
{{- if .Goal }}
- Target:   *{{.Goal.Goal.StringFixed 2}}*
- Actual:   *{{.Goal.Actual.StringFixed 2}}* ({{printf "%.1f" .Goal.Percent}}%)
- Status:   {{if .Goal.Achieved}}achieved{{else}}open{{end}}
{{- else }}
# no goal set for this month
{{- end }}

** Performance Summary
- Avg win:     *{{.Summary.AvgWin.StringFixed 2}}*
- Avg loss:    *{{.Summary.AvgLoss.StringFixed 2}}*
- Expectancy:  *{{.Summary.Expectancy.StringFixed 2}}*

** Accounts
| Account | Balance | P/L | Drawdown |
|---------+---------+-----+----------|
{{- range .Accounts }}
| {{.ID}} | {{.CurrentBalance.StringFixed 2}} | {{.TotalPL.StringFixed 2}} | {{.AvailableDrawdown.StringFixed 2}} |
{{- end }}

** Instruments
| Symbol | Trades | Win % | P/L |
|--------+--------+-------+-----|
{{- range .Symbols }}
| {{.Symbol}} | {{.Trades}} | {{printf "%.1f" .WinRate}} | {{.TotalPL.StringFixed 2}} |
{{- end }}

** Daily
{{- range .Days }}
- {{.Date}}: {{.PL.StringFixed 2}} (cum {{.Cumulative.StringFixed 2}})
{{- end }}
`
