package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform is a brokerage/account combination. Two account types on the same
// broker are distinct platforms.
type Platform struct {
	PlatformID      int64
	Name            string
	AccountType     string
	Currency        string
	TradingFeePct   decimal.Decimal
	TradingFeeFixed decimal.Decimal
	FxFeePct        decimal.Decimal
	StampDuty       bool
	CreatedAt       time.Time
}

type Security struct {
	SecurityID     int64
	Ticker         string
	Exchange       string
	ISIN           string
	Currency       string
	InstrumentType string
	CreatedAt      time.Time
}
