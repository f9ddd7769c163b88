package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradeportal/ledger"
)

// FormatTradeOrg renders a trade as an Org-mode entry. Facts go in the
// PROPERTIES drawer; the narrative headings are left for the trader.
func FormatTradeOrg(t ledger.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Symbol, t.Side, shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":ACCOUNT: %s\n", t.Account)
	fmt.Fprintf(&b, ":DATE: %s\n", t.Date)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":QUANTITY: %g\n", t.Quantity)
	fmt.Fprintf(&b, ":PRICE: %.2f\n", t.Price)
	fmt.Fprintf(&b, ":POINTS: %.2f\n", t.Points)
	fmt.Fprintf(&b, ":PROFIT: %s\n", t.Profit.StringFixed(2))
	fmt.Fprintf(&b, ":TIMESTAMP: %s\n", t.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []ledger.Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// TradesOn returns the trades dated day, in import order.
func TradesOn(trades []ledger.Trade, day string) []ledger.Trade {
	var out []ledger.Trade
	for _, t := range trades {
		if t.Date == day {
			out = append(out, t)
		}
	}
	return out
}

func FindTrade(trades []ledger.Trade, id string) (ledger.Trade, error) {
	for _, t := range trades {
		if t.ID == id {
			return t, nil
		}
	}
	return ledger.Trade{}, fmt.Errorf("trade %q not found", id)
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
