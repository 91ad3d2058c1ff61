package lot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/stretchr/testify/require"
)

func openState(qty, avg string) model.LotState {
	return model.LotState{
		PlatformID:  1,
		SecurityID:  1,
		Quantity:    dec(qty),
		AverageCost: decimal.NewNullDecimal(dec(avg)),
	}
}

func TestProjectWithQuote(t *testing.T) {
	quote := &model.Quote{
		Ticker: "VWRL.L",
		Price:  dec("120"),
		AsOf:   time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	view := Project(model.Platform{Name: "Trading212"}, model.Security{Ticker: "VWRL.L"}, openState("15", "110"), quote)

	require.True(t, view.MarketValue.Valid)
	require.True(t, view.MarketValue.Decimal.Equal(dec("1800")))
	require.True(t, view.UnrealizedGainLoss.Decimal.Equal(dec("150")))
	require.True(t, view.UnrealizedGainLossPct.Valid)
	// 150 / 1650 * 100
	require.True(t, view.UnrealizedGainLossPct.Decimal.Round(4).Equal(dec("9.0909")))
	require.Equal(t, quote.AsOf, view.PriceAsOf)
}

func TestProjectWithoutQuoteLeavesMarketValueNull(t *testing.T) {
	view := Project(model.Platform{}, model.Security{}, openState("15", "110"), nil)

	require.True(t, view.Quantity.Equal(dec("15")), "position must still be visible")
	require.False(t, view.CurrentPrice.Valid)
	require.False(t, view.MarketValue.Valid, "unknown price is not zero and not cost")
	require.False(t, view.UnrealizedGainLoss.Valid)
}

func TestProjectClosedPosition(t *testing.T) {
	state := model.LotState{
		Quantity:         decimal.Zero,
		RealizedGainLoss: dec("200"),
	}

	view := Project(model.Platform{}, model.Security{}, state, &model.Quote{Price: dec("50")})

	require.True(t, view.Quantity.IsZero())
	require.False(t, view.AverageCost.Valid)
	require.True(t, view.RealizedGainLoss.Equal(dec("200")), "realized figures survive the close")
	require.False(t, view.UnrealizedGainLoss.Valid)
}

func TestSummarize(t *testing.T) {
	priced := Project(model.Platform{}, model.Security{}, openState("10", "100"), &model.Quote{Price: dec("110")})
	unpriced := Project(model.Platform{}, model.Security{}, openState("5", "50"), nil)
	closed := Project(model.Platform{}, model.Security{}, model.LotState{}, nil)

	summary := Summarize([]model.HoldingView{priced, unpriced, closed})

	require.True(t, summary.TotalValue.Equal(dec("1100")))
	require.True(t, summary.TotalCost.Equal(dec("1000")))
	require.True(t, summary.TotalGainLoss.Equal(dec("100")))
	require.True(t, summary.TotalGainLossPct.Equal(dec("10")))
	require.Equal(t, 1, summary.UnpricedHoldings)
}
