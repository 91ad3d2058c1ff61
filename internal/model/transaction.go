package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionBuy      TransactionType = "BUY"
	TransactionSell     TransactionType = "SELL"
	TransactionDividend TransactionType = "DIVIDEND"
)

// RawRecord is one row of a bulk import before normalization and validation.
type RawRecord struct {
	Line               int
	Date               time.Time
	Platform           string
	Type               string
	Ticker             string
	ISIN               string
	Quantity           decimal.Decimal
	Price              decimal.Decimal
	TotalAmount        decimal.Decimal
	Currency           string
	InstrumentCurrency string
	FxRate             decimal.Decimal
	TaxWithheld        decimal.Decimal
}

// Transaction is an immutable economic event in the ledger. Quantity is
// signed: positive for BUY and reinvested DIVIDEND, negative for SELL.
type Transaction struct {
	TransactionID int64
	PlatformID    int64
	SecurityID    int64
	Type          TransactionType
	TradeDate     time.Time
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	TradingFees   decimal.Decimal
	FxFees        decimal.Decimal
	StampDuty     decimal.Decimal
	TaxWithheld   decimal.Decimal
	Currency      string
	FxRate        decimal.Decimal
	Fingerprint   string
	CreatedAt     time.Time
}

// Fees is the total cost loading of the event: capitalized on a BUY,
// subtracted from proceeds on a SELL.
func (t Transaction) Fees() decimal.Decimal {
	return t.TradingFees.Add(t.FxFees).Add(t.StampDuty)
}
