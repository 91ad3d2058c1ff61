package lot

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

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func buy(id int64, d time.Time, qty, price string) model.Transaction {
	return model.Transaction{
		TransactionID: id,
		PlatformID:    1,
		SecurityID:    1,
		Type:          model.TransactionBuy,
		TradeDate:     d,
		Quantity:      dec(qty),
		Price:         dec(price),
	}
}

func sell(id int64, d time.Time, qty, price string) model.Transaction {
	return model.Transaction{
		TransactionID: id,
		PlatformID:    1,
		SecurityID:    1,
		Type:          model.TransactionSell,
		TradeDate:     d,
		Quantity:      dec(qty).Neg(),
		Price:         dec(price),
	}
}

func TestFoldTwoBuysAveragesCost(t *testing.T) {
	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "10", "120"),
	})

	require.True(t, state.Quantity.Equal(dec("20")))
	require.True(t, state.AverageCost.Valid)
	require.True(t, state.AverageCost.Decimal.Equal(dec("110")))
	require.True(t, state.RealizedGainLoss.IsZero())
	require.Equal(t, day(2), state.LastTransactionDate)
}

func TestFoldSellRealizesGainAndKeepsAverage(t *testing.T) {
	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "10", "120"),
		sell(3, day(3), "5", "130"),
	})

	require.True(t, state.Quantity.Equal(dec("15")))
	require.True(t, state.AverageCost.Decimal.Equal(dec("110")), "selling must not move the average")
	require.True(t, state.RealizedGainLoss.Equal(dec("100")), "5 x (130 - 110)")
	require.False(t, state.NeedsReview)
}

func TestFoldOversellMarksNeedsReview(t *testing.T) {
	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "10", "120"),
		sell(3, day(3), "5", "130"),
		sell(4, day(4), "30", "140"),
	})

	require.True(t, state.NeedsReview)
	require.True(t, state.Quantity.Equal(dec("15")), "anomalous sell must not be applied")
	require.True(t, state.AverageCost.Decimal.Equal(dec("110")))
	require.True(t, state.RealizedGainLoss.Equal(dec("100")))
}

func TestFoldSellWithoutPositionMarksNeedsReview(t *testing.T) {
	state := Fold([]model.Transaction{
		sell(1, day(1), "5", "100"),
	})

	require.True(t, state.NeedsReview)
	require.True(t, state.Quantity.IsZero())
	require.False(t, state.AverageCost.Valid)
}

func TestFoldBuyFeesCapitalized(t *testing.T) {
	txn := buy(1, day(1), "10", "100")
	txn.TradingFees = dec("5")
	txn.StampDuty = dec("5")

	state := Fold([]model.Transaction{txn})

	// (10*100 + 10) / 10
	require.True(t, state.AverageCost.Decimal.Equal(dec("101")))
}

func TestFoldSellFeesReduceProceeds(t *testing.T) {
	s := sell(2, day(2), "5", "130")
	s.TradingFees = dec("10")

	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "110"),
		s,
	})

	require.True(t, state.RealizedGainLoss.Equal(dec("90")), "5 x (130 - 110) - 10")
}

func TestFoldDividendAccumulatesIncomeOnly(t *testing.T) {
	div := model.Transaction{
		TransactionID: 2,
		PlatformID:    1,
		SecurityID:    1,
		Type:          model.TransactionDividend,
		TradeDate:     day(2),
		Quantity:      dec("10"),
		Price:         dec("0.5"),
		TaxWithheld:   dec("1"),
	}

	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		div,
	})

	require.True(t, state.Quantity.Equal(dec("10")))
	require.True(t, state.AverageCost.Decimal.Equal(dec("100")))
	require.True(t, state.DividendIncome.Equal(dec("4")), "10 x 0.5 - 1 withheld")
}

func TestFoldClosingPositionClearsAverageCost(t *testing.T) {
	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		sell(2, day(2), "10", "120"),
	})

	require.True(t, state.Quantity.IsZero())
	require.False(t, state.AverageCost.Valid, "average cost is undefined at zero quantity")
	require.True(t, state.RealizedGainLoss.Equal(dec("200")))
}

func TestFoldOrderIsByDateThenSequence(t *testing.T) {
	// Fed in shuffled; the sell lands between the buys by date.
	state := Fold([]model.Transaction{
		buy(3, day(3), "10", "120"),
		sell(2, day(2), "5", "130"),
		buy(1, day(1), "10", "100"),
	})

	require.False(t, state.NeedsReview)
	require.True(t, state.Quantity.Equal(dec("15")))
	require.True(t, state.RealizedGainLoss.Equal(dec("150")), "5 x (130 - 100)")
}

func TestFoldSameDayTieBreaksOnSequence(t *testing.T) {
	state := Fold([]model.Transaction{
		sell(2, day(1), "5", "110"),
		buy(1, day(1), "5", "100"),
	})

	require.False(t, state.NeedsReview)
	require.True(t, state.Quantity.IsZero())
}

func TestFoldPurity(t *testing.T) {
	txns := []model.Transaction{
		buy(1, day(1), "3", "17.35"),
		buy(2, day(2), "7", "18.01"),
		sell(3, day(3), "4", "19.99"),
		buy(4, day(5), "11", "16.5"),
	}

	first := Fold(txns)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Fold(txns), "re-running the fold must not drift")
	}
}

func TestFoldBuyAverageBetweenOldAndPrice(t *testing.T) {
	state := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
	})
	next := Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "4", "150"),
	})

	old := state.AverageCost.Decimal
	avg := next.AverageCost.Decimal
	require.True(t, avg.GreaterThanOrEqual(old))
	require.True(t, avg.LessThanOrEqual(dec("150")))
}

func TestHistorySnapshotsEveryStep(t *testing.T) {
	history := History([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "10", "120"),
		sell(3, day(3), "5", "130"),
	})

	require.Len(t, history, 3)
	require.True(t, history[0].Quantity.Equal(dec("10")))
	require.True(t, history[1].AverageCost.Decimal.Equal(dec("110")))
	require.True(t, history[2].Quantity.Equal(dec("15")))
	require.Equal(t, history[2], Fold([]model.Transaction{
		buy(1, day(1), "10", "100"),
		buy(2, day(2), "10", "120"),
		sell(3, day(3), "5", "130"),
	}))
}
