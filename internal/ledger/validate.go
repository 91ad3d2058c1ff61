package ledger

import (
	"fmt"
	"strings"

	"github.com/shubhamharia/investment-tracker/internal/model"
)

// ValidationError rejects a single malformed row; the rest of the batch
// continues.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NormalizeType maps raw input to the canonical upper-case transaction
// type. The result is only meaningful for records that pass Validate.
func NormalizeType(raw string) model.TransactionType {
	return model.TransactionType(strings.ToUpper(strings.TrimSpace(raw)))
}

// Validate checks one raw record before ingestion. A failing record is
// rejected with a reason and never partially applied.
func Validate(rec model.RawRecord) error {
	if rec.Date.IsZero() {
		return invalid("missing transaction date")
	}
	if strings.TrimSpace(rec.Platform) == "" {
		return invalid("missing platform")
	}
	if strings.TrimSpace(rec.Ticker) == "" {
		return invalid("missing ticker")
	}

	switch NormalizeType(rec.Type) {
	case model.TransactionBuy, model.TransactionSell, model.TransactionDividend:
	default:
		return invalid("unknown transaction type %q", rec.Type)
	}

	if rec.Quantity.IsZero() {
		return invalid("zero quantity")
	}
	if !rec.Price.IsPositive() {
		return invalid("non-positive price %s", rec.Price)
	}

	return nil
}
