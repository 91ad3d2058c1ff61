// Package normalizer canonicalizes free-text platform and security
// identifiers into stable keys. Normalization is closed-world: variants
// absent from the alias table pass through unchanged rather than erroring.
package normalizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// accountTypeSep splits the broker name from the account-type tag, e.g.
// "Trading212_ISA".
const accountTypeSep = "_"

// defaultAliases maps whitespace-stripped, case-folded variants to the
// canonical broker name. Mirrors the booking variants seen in real exports.
var defaultAliases = map[string]string{
	"TRADING212":         "Trading212",
	"T212":               "Trading212",
	"FREETRADE":          "Freetrade",
	"HL":                 "HL",
	"HARGREAVESLANSDOWN": "HL",
	"AJBELL":             "AJBELL",
}

// AliasTable is the versioned lookup table loaded at startup.
type AliasTable struct {
	Version   int               `json:"version"`
	Platforms map[string]string `json:"platforms"`
}

// LoadAliasFile reads an alias table from a JSON file. The returned table is
// merged over the built-in defaults by New.
func LoadAliasFile(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AliasTable{}, fmt.Errorf("read alias file: %w", err)
	}

	var table AliasTable
	if err := json.Unmarshal(data, &table); err != nil {
		return AliasTable{}, fmt.Errorf("parse alias file: %w", err)
	}

	return table, nil
}

type Normalizer struct {
	aliases map[string]string
}

// New builds a Normalizer from the built-in defaults plus the given table;
// entries in the table win over defaults.
func New(table AliasTable) *Normalizer {
	aliases := make(map[string]string, len(defaultAliases)+len(table.Platforms))
	for variant, canonical := range defaultAliases {
		aliases[variant] = canonical
	}
	for variant, canonical := range table.Platforms {
		aliases[foldName(variant)] = canonical
	}
	return &Normalizer{aliases: aliases}
}

// PlatformIdentity is the parsed, canonicalized form of a raw platform label.
type PlatformIdentity struct {
	Key         string // stable lookup key: folded name + folded account type
	Name        string // canonical display name
	AccountType string // case-folded, empty when the label carries none
}

// Platform canonicalizes a raw platform label such as "Trading 212_ISA".
// The segment after the first separator is the account-type tag and stays
// part of the identity: two account types on one broker are two platforms.
func (n *Normalizer) Platform(raw string) PlatformIdentity {
	name := raw
	accountType := ""
	if idx := strings.Index(raw, accountTypeSep); idx >= 0 {
		name = raw[:idx]
		accountType = strings.ToUpper(strings.TrimSpace(raw[idx+1:]))
	}

	folded := foldName(name)
	canonical, ok := n.aliases[folded]
	if !ok {
		canonical = stripWhitespace(strings.TrimSpace(name))
	}

	key := foldName(canonical)
	if accountType != "" {
		key += accountTypeSep + accountType
	}

	return PlatformIdentity{Key: key, Name: canonical, AccountType: accountType}
}

// Security returns the merge key for an instrument. A non-empty ISIN
// identifies the instrument globally; otherwise the (ticker, exchange) pair
// does, case-folded.
func (n *Normalizer) Security(ticker, exchange, isin string) string {
	if s := strings.ToUpper(strings.TrimSpace(isin)); s != "" {
		return "isin:" + s
	}
	return "sym:" + strings.ToUpper(strings.TrimSpace(ticker)) + ":" + strings.ToUpper(strings.TrimSpace(exchange))
}

func foldName(s string) string {
	return strings.ToUpper(stripWhitespace(s))
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
