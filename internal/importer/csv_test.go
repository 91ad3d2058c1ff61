package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const csvHeader = "timestamp,platform,type,ticker,isin,quantity,price_per_share,total_amount,currency,instrument_currency,fx_rate\n"

func TestReadCSV(t *testing.T) {
	input := csvHeader +
		"15/03/2024,Trading212_ISA,BUY,VWRL.L,GB00B3X7QG63,10,99.50,995.00,GBP,GBP,1\n" +
		"02/01/2024,Trading 212_ISA,buy,AAPL,,5,\"£1,234.56\",6172.80,GBP,USD,1.27\n"

	records, failures, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, records, 2)

	// Oldest first.
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
	require.Equal(t, "AAPL", records[0].Ticker)
	require.Equal(t, "BUY", records[0].Type)
	require.True(t, records[0].Price.Equal(dec("1234.56")))
	require.True(t, records[0].FxRate.Equal(dec("1.27")))

	require.Equal(t, "GB00B3X7QG63", records[1].ISIN)
	require.True(t, records[1].Quantity.Equal(dec("10")))
}

func TestReadCSVCollectsRowFailures(t *testing.T) {
	input := csvHeader +
		"not-a-date,Trading212_ISA,BUY,VWRL.L,,10,99.50,995.00,GBP,GBP,1\n" +
		"15/03/2024,Trading212_ISA,BUY,VWRL.L,,abc,99.50,995.00,GBP,GBP,1\n" +
		"16/03/2024,Trading212_ISA,SELL,VWRL.L,,5,100,500,GBP,GBP,1\n"

	records, failures, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err, "bad rows must not abort the batch")
	require.Len(t, records, 1)
	require.Len(t, failures, 2)
	require.Equal(t, 2, failures[0].Line)
	require.Contains(t, failures[0].Reason, "bad timestamp")
	require.Equal(t, 3, failures[1].Line)
	require.Contains(t, failures[1].Reason, "bad quantity")
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("timestamp,platform,type\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "required column")
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"99.50", "99.5"},
		{"£1,234.56", "1234.56"},
		{"$ 42", "42"},
		{"1.234,56", "1234.56"},
		{"1,5", "1.5"},
		{"(12.50)", "-12.5"},
		{" 100", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			require.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}

	for _, bad := range []string{"", "-", ".", "abc", "£"} {
		_, err := ParseDecimal(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("15/03/2024")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2024-03-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("03/15/2024") // month 15 does not exist
	require.Error(t, err)
}

func TestInferExchange(t *testing.T) {
	require.Equal(t, "LSE", InferExchange("GB00B3X7QG63"))
	require.Equal(t, "LSE", InferExchange("VWRL.L"))
	require.Equal(t, "LSE", InferExchange("IE00B4L5Y983"))
	require.Equal(t, "NASDAQ", InferExchange("AAPL"))
	require.Equal(t, "", InferExchange(""))
}

func TestYahooSymbol(t *testing.T) {
	require.Equal(t, "VWRL.L", YahooSymbol("VWRL", "LSE"))
	require.Equal(t, "VWRL.L", YahooSymbol("VWRL.L", "LSE"))
	require.Equal(t, "", YahooSymbol("GB00B3X7QG63", "LSE"), "ISIN-only rows cannot be mapped")
	require.Equal(t, "AAPL", YahooSymbol("AAPL", "NASDAQ"))
}
