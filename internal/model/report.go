package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportSummary reports the outcome of one bulk import batch.
type ImportSummary struct {
	Accepted   int
	Duplicates int
	Failed     int
	Failures   []ImportFailure
}

type ImportFailure struct {
	Line   int
	Reason string
}

// MergeReport is the result of one reconciliation run.
type MergeReport struct {
	PlatformsMerged       int
	SecuritiesMerged      int
	TransactionsRepointed int
	SkippedGroups         []SkippedGroup
	StartedAt             time.Time
	FinishedAt            time.Time
}

// SkippedGroup names a duplicate group that could not be merged safely.
type SkippedGroup struct {
	Key    string
	Kind   string // "platform" or "security"
	Reason string
}

type Quote struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"asOf"`
}
