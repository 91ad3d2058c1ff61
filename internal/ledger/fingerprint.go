// Package ledger holds the pure pieces of the transaction ledger: the
// de-duplication fingerprint and per-row validation. Uniqueness itself is
// enforced by the storage layer's constraint on the fingerprint column, so
// no in-memory seen-set is ever needed.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
)

// Fingerprint derives the deterministic de-dup key of a transaction from its
// defining fields. Re-importing the same source row always produces the same
// fingerprint regardless of platform/security spelling, because the inputs
// are the normalized identity keys.
func Fingerprint(platformKey, securityKey string, date time.Time, txnType model.TransactionType, quantity, price decimal.Decimal) string {
	parts := []string{
		platformKey,
		securityKey,
		date.Format("2006-01-02"),
		string(txnType),
		canonical(quantity),
		canonical(price),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// canonical strips insignificant trailing zeros so "10", "10.0" and "10.00"
// fingerprint identically.
func canonical(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
