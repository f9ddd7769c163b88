package importer

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/tradeportal/ledger"
)

// Write emits trades in the import layout so an export can be re-imported.
func Write(w io.Writer, trades []ledger.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, t := range trades {
		movType := "-1"
		if t.Side == ledger.Long {
			movType = "1"
		}
		err := cw.Write([]string{
			t.Account,
			t.ID,
			t.Symbol,
			t.Timestamp.Format(time.RFC3339Nano),
			movType,
			f(t.Quantity),
			f(t.Price),
			f(t.Points),
			t.Profit.String(),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
