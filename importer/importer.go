// Package importer turns broker CSV exports into ledger trades and writes
// trades back out in the same layout.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeportal/ledger"
)

// Columns is the export layout, in the order Write emits it.
var Columns = []string{"name", "order_id", "symbol", "mov_time", "mov_type", "exec_qty", "price_done", "points", "profit"}

const DefaultAccount = "Default Account"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"2006-01-02",
	"01/02/2006",
}

// Row is one CSV record keyed by lower-cased column name.
type Row map[string]string

func (r Row) get(col string) string {
	return strings.TrimSpace(r[col])
}

// ReadRows reads a header line followed by records. Column order is free
// and unknown columns are kept as-is.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row := make(Row, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Convert maps rows to trades. Rows whose profit is missing, unparsable or
// zero are dropped. Times without a zone are read in now's location.
func Convert(rows []Row, now time.Time) []ledger.Trade {
	trades := make([]ledger.Trade, 0, len(rows))
	for _, row := range rows {
		profit, err := decimal.NewFromString(row.get("profit"))
		if err != nil || profit.IsZero() {
			continue
		}

		ts, ok := parseTime(row.get("mov_time"), now.Location())
		if !ok {
			ts = now
		}

		id := row.get("order_id")
		if id == "" {
			id = fmt.Sprintf("trade_%d_%d", now.UnixNano(), len(trades))
		}
		account := row.get("name")
		if account == "" {
			account = DefaultAccount
		}
		side := ledger.Short
		if num(row.get("mov_type")) > 0 {
			side = ledger.Long
		}

		trades = append(trades, ledger.Trade{
			ID:        id,
			Account:   account,
			Date:      ts.Format(ledger.DayLayout),
			Symbol:    row.get("symbol"),
			Side:      side,
			Quantity:  math.Abs(num(row.get("exec_qty"))),
			Price:     num(row.get("price_done")),
			Points:    num(row.get("points")),
			Profit:    profit,
			Timestamp: ts,
		})
	}
	return trades
}

// Parse reads a CSV export and returns the trades it contains.
func Parse(r io.Reader, now time.Time) ([]ledger.Trade, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return Convert(rows, now), nil
}

func parseTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// num parses a float, treating blanks and garbage as zero.
func num(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
