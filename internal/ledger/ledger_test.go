package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFingerprintDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	a := Fingerprint("TRADING212_ISA", "isin:GB00B3X7QG63", date, model.TransactionBuy, dec("10"), dec("99.5"))
	b := Fingerprint("TRADING212_ISA", "isin:GB00B3X7QG63", date, model.TransactionBuy, dec("10"), dec("99.5"))

	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestFingerprintIgnoresTrailingZeros(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	a := Fingerprint("K", "S", date, model.TransactionBuy, dec("10"), dec("99.50"))
	b := Fingerprint("K", "S", date, model.TransactionBuy, dec("10.0"), dec("99.5"))

	require.Equal(t, a, b)
}

func TestFingerprintSensitiveToEachField(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	base := Fingerprint("K", "S", date, model.TransactionBuy, dec("10"), dec("99.5"))

	require.NotEqual(t, base, Fingerprint("K2", "S", date, model.TransactionBuy, dec("10"), dec("99.5")))
	require.NotEqual(t, base, Fingerprint("K", "S2", date, model.TransactionBuy, dec("10"), dec("99.5")))
	require.NotEqual(t, base, Fingerprint("K", "S", date.AddDate(0, 0, 1), model.TransactionBuy, dec("10"), dec("99.5")))
	require.NotEqual(t, base, Fingerprint("K", "S", date, model.TransactionSell, dec("10"), dec("99.5")))
	require.NotEqual(t, base, Fingerprint("K", "S", date, model.TransactionBuy, dec("11"), dec("99.5")))
	require.NotEqual(t, base, Fingerprint("K", "S", date, model.TransactionBuy, dec("10"), dec("99.6")))
}

func TestFingerprintTimeOfDayIrrelevant(t *testing.T) {
	morning := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)

	require.Equal(t,
		Fingerprint("K", "S", morning, model.TransactionBuy, dec("10"), dec("99.5")),
		Fingerprint("K", "S", evening, model.TransactionBuy, dec("10"), dec("99.5")),
	)
}

func validRecord() model.RawRecord {
	return model.RawRecord{
		Date:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Platform: "Trading212_ISA",
		Type:     "BUY",
		Ticker:   "VWRL.L",
		Quantity: dec("10"),
		Price:    dec("99.5"),
		Currency: "GBP",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.RawRecord)
		wantErr string
	}{
		{"valid buy", func(r *model.RawRecord) {}, ""},
		{"valid lowercase type", func(r *model.RawRecord) { r.Type = "sell" }, ""},
		{"missing date", func(r *model.RawRecord) { r.Date = time.Time{} }, "missing transaction date"},
		{"missing platform", func(r *model.RawRecord) { r.Platform = "  " }, "missing platform"},
		{"missing ticker", func(r *model.RawRecord) { r.Ticker = "" }, "missing ticker"},
		{"unknown type", func(r *model.RawRecord) { r.Type = "TRANSFER" }, "unknown transaction type"},
		{"zero quantity", func(r *model.RawRecord) { r.Quantity = decimal.Zero }, "zero quantity"},
		{"zero price", func(r *model.RawRecord) { r.Price = decimal.Zero }, "non-positive price"},
		{"negative price", func(r *model.RawRecord) { r.Price = dec("-5") }, "non-positive price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			err := Validate(rec)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Contains(t, vErr.Reason, tt.wantErr)
		})
	}
}
