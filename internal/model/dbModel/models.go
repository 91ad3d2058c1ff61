package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Platform struct {
	PlatformID      int64           `db:"platform_id"`
	PlatformKey     string          `db:"platform_key"`
	Name            string          `db:"name"`
	AccountType     string          `db:"account_type"`
	Currency        string          `db:"currency"`
	TradingFeePct   decimal.Decimal `db:"trading_fee_pct"`
	TradingFeeFixed decimal.Decimal `db:"trading_fee_fixed"`
	FxFeePct        decimal.Decimal `db:"fx_fee_pct"`
	StampDuty       bool            `db:"stamp_duty"`
	CreatedAt       time.Time       `db:"dt_create"`
}

type Security struct {
	SecurityID     int64     `db:"security_id"`
	SecurityKey    string    `db:"security_key"`
	Ticker         string    `db:"ticker"`
	Exchange       string    `db:"exchange"`
	ISIN           string    `db:"isin"`
	Currency       string    `db:"currency"`
	InstrumentType string    `db:"instrument_type"`
	YahooSymbol    string    `db:"yahoo_symbol"`
	CreatedAt      time.Time `db:"dt_create"`
}

type Transaction struct {
	TransactionID int64           `db:"transaction_id"`
	PlatformID    int64           `db:"platform_id"`
	SecurityID    int64           `db:"security_id"`
	Type          string          `db:"txn_type"`
	TradeDate     time.Time       `db:"trade_date"`
	Quantity      decimal.Decimal `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	TradingFees   decimal.Decimal `db:"trading_fees"`
	FxFees        decimal.Decimal `db:"fx_fees"`
	StampDuty     decimal.Decimal `db:"stamp_duty"`
	TaxWithheld   decimal.Decimal `db:"tax_withheld"`
	Currency      string          `db:"currency"`
	FxRate        decimal.Decimal `db:"fx_rate"`
	Fingerprint   string          `db:"fingerprint"`
	CreatedAt     time.Time       `db:"dt_create"`
}

// KeyPair identifies one holdings lot: a platform/security combination.
type KeyPair struct {
	PlatformID int64 `db:"platform_id"`
	SecurityID int64 `db:"security_id"`
}

type Holding struct {
	PlatformID          int64               `db:"platform_id"`
	SecurityID          int64               `db:"security_id"`
	Quantity            decimal.Decimal     `db:"quantity"`
	AverageCost         decimal.NullDecimal `db:"average_cost"`
	RealizedGainLoss    decimal.Decimal     `db:"realized_gain_loss"`
	DividendIncome      decimal.Decimal     `db:"dividend_income"`
	LastTransactionDate sql.NullTime        `db:"last_txn_date"`
	NeedsReview         bool                `db:"needs_review"`
	UpdatedAt           time.Time           `db:"dt_update"`
}
