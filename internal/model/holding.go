package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotState is the terminal state of the cost-basis fold for one
// (platform, security) key. It is derived, never authored: replaying the
// ledger for the key must reproduce it exactly.
type LotState struct {
	PlatformID          int64
	SecurityID          int64
	Quantity            decimal.Decimal
	AverageCost         decimal.NullDecimal // undefined while quantity is zero
	RealizedGainLoss    decimal.Decimal
	DividendIncome      decimal.Decimal
	LastTransactionDate time.Time
	NeedsReview         bool
}

// Open reports whether the lot still holds units.
func (s LotState) Open() bool {
	return s.Quantity.IsPositive()
}

// HoldingView joins a LotState with the current quote. Market figures are
// null when the price oracle had no usable quote, which is distinct from a
// closed position.
type HoldingView struct {
	Platform              Platform
	Security              Security
	Quantity              decimal.Decimal
	AverageCost           decimal.NullDecimal
	RealizedGainLoss      decimal.Decimal
	DividendIncome        decimal.Decimal
	CurrentPrice          decimal.NullDecimal
	PriceAsOf             time.Time
	MarketValue           decimal.NullDecimal
	UnrealizedGainLoss    decimal.NullDecimal
	UnrealizedGainLossPct decimal.NullDecimal
	NeedsReview           bool
}

// PortfolioSummary aggregates priced holdings for reporting.
type PortfolioSummary struct {
	TotalValue       decimal.Decimal
	TotalCost        decimal.Decimal
	TotalGainLoss    decimal.Decimal
	TotalGainLossPct decimal.Decimal
	UnpricedHoldings int
}
