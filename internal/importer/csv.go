// Package importer parses raw brokerage export files into RawRecords.
// Parsing is deliberately tolerant: real exports carry currency symbols,
// thousands separators, European decimal commas and parenthesized negatives.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
)

var one = decimal.NewFromInt(1)

// ReadCSV parses a combined-transactions export. Rows that cannot be parsed
// are reported per line and never abort the batch. Parsed records come back
// oldest first so ingestion replays history in order.
func ReadCSV(r io.Reader) ([]model.RawRecord, []model.ImportFailure, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "platform", "type", "ticker", "quantity", "price_per_share"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []model.RawRecord
	var failures []model.ImportFailure

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, model.ImportFailure{Line: line, Reason: fmt.Sprintf("malformed row: %s", err)})
			continue
		}

		rec, err := parseRow(row, line, field)
		if err != nil {
			failures = append(failures, model.ImportFailure{Line: line, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, failures, nil
}

func parseRow(row []string, line int, field func([]string, string) string) (model.RawRecord, error) {
	date, err := ParseDate(field(row, "timestamp"))
	if err != nil {
		return model.RawRecord{}, fmt.Errorf("bad timestamp %q", field(row, "timestamp"))
	}

	quantity, err := ParseDecimal(field(row, "quantity"))
	if err != nil {
		return model.RawRecord{}, fmt.Errorf("bad quantity %q", field(row, "quantity"))
	}

	price, err := ParseDecimal(field(row, "price_per_share"))
	if err != nil {
		return model.RawRecord{}, fmt.Errorf("bad price_per_share %q", field(row, "price_per_share"))
	}

	total := decimal.Zero
	if s := field(row, "total_amount"); s != "" {
		if total, err = ParseDecimal(s); err != nil {
			return model.RawRecord{}, fmt.Errorf("bad total_amount %q", s)
		}
	}

	fxRate := one
	if s := field(row, "fx_rate"); s != "" {
		if fxRate, err = ParseDecimal(s); err != nil {
			return model.RawRecord{}, fmt.Errorf("bad fx_rate %q", s)
		}
	}

	taxWithheld := decimal.Zero
	if s := field(row, "withholding_tax"); s != "" {
		if taxWithheld, err = ParseDecimal(s); err != nil {
			return model.RawRecord{}, fmt.Errorf("bad withholding_tax %q", s)
		}
	}

	return model.RawRecord{
		Line:               line,
		Date:               date,
		Platform:           field(row, "platform"),
		Type:               strings.ToUpper(field(row, "type")),
		Ticker:             field(row, "ticker"),
		ISIN:               field(row, "isin"),
		Quantity:           quantity,
		Price:              price,
		TotalAmount:        total,
		Currency:           strings.ToUpper(field(row, "currency")),
		InstrumentCurrency: strings.ToUpper(field(row, "instrument_currency")),
		FxRate:             fxRate,
		TaxWithheld:        taxWithheld,
	}, nil
}

// ParseDate accepts the DD/MM/YYYY layout of broker exports plus ISO dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range []string{"02/01/2006", "2006-01-02", "02/01/2006 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			// Time of day never matters for ledger ordering.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseDecimal normalizes a messy numeric cell into an exact decimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, symbol := range []string{"£", "$", "€", "¥", " ", " "} {
		s = strings.ReplaceAll(s, symbol, "")
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	switch {
	case strings.Count(s, ",") == 1 && strings.Contains(s, ".") && strings.LastIndex(s, ".") < strings.LastIndex(s, ","):
		// European style: 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	if s == "" || s == "-" || s == "." {
		return decimal.Decimal{}, fmt.Errorf("empty numeric value")
	}

	return decimal.NewFromString(s)
}
