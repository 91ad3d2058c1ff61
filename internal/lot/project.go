package lot

import (
	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Project joins a lot state with the current quote. A nil quote means the
// price oracle had nothing usable; market figures stay null so callers can
// tell "position exists, price unknown" apart from "no position".
func Project(platform model.Platform, security model.Security, state model.LotState, quote *model.Quote) model.HoldingView {
	view := model.HoldingView{
		Platform:         platform,
		Security:         security,
		Quantity:         state.Quantity,
		AverageCost:      state.AverageCost,
		RealizedGainLoss: state.RealizedGainLoss,
		DividendIncome:   state.DividendIncome,
		NeedsReview:      state.NeedsReview,
	}

	if quote == nil {
		return view
	}

	view.CurrentPrice = decimal.NewNullDecimal(quote.Price)
	view.PriceAsOf = quote.AsOf
	view.MarketValue = decimal.NewNullDecimal(state.Quantity.Mul(quote.Price))

	if !state.AverageCost.Valid {
		return view
	}

	cost := state.Quantity.Mul(state.AverageCost.Decimal)
	gain := view.MarketValue.Decimal.Sub(cost)
	view.UnrealizedGainLoss = decimal.NewNullDecimal(gain)
	if cost.IsPositive() {
		view.UnrealizedGainLossPct = decimal.NewNullDecimal(gain.Div(cost).Mul(hundred))
	}

	return view
}

// Summarize aggregates priced holdings into portfolio totals. Holdings
// without a quote are counted instead of silently valued at zero.
func Summarize(views []model.HoldingView) model.PortfolioSummary {
	var summary model.PortfolioSummary

	for _, v := range views {
		if !v.Quantity.IsPositive() {
			continue
		}
		if !v.MarketValue.Valid || !v.AverageCost.Valid {
			summary.UnpricedHoldings++
			continue
		}
		summary.TotalValue = summary.TotalValue.Add(v.MarketValue.Decimal)
		summary.TotalCost = summary.TotalCost.Add(v.Quantity.Mul(v.AverageCost.Decimal))
	}

	summary.TotalGainLoss = summary.TotalValue.Sub(summary.TotalCost)
	if summary.TotalCost.IsPositive() {
		summary.TotalGainLossPct = summary.TotalGainLoss.Div(summary.TotalCost).Mul(hundred)
	}

	return summary
}
