package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func trade(id, account, day, profit string) Trade {
	ts, _ := time.Parse(DayLayout, day)
	return Trade{
		ID:        id,
		Account:   account,
		Date:      day,
		Symbol:    "NQ",
		Side:      Long,
		Quantity:  1,
		Price:     18000,
		Points:    10,
		Profit:    d(profit),
		Timestamp: ts.Add(14 * time.Hour),
	}
}
