package normalizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlatform(t *testing.T) {
	n := New(AliasTable{})

	tests := []struct {
		name        string
		raw         string
		wantKey     string
		wantName    string
		wantAccount string
	}{
		{
			name:        "plain label",
			raw:         "Trading212_ISA",
			wantKey:     "TRADING212_ISA",
			wantName:    "Trading212",
			wantAccount: "ISA",
		},
		{
			name:        "stray space collapses to the same key",
			raw:         "Trading 212_ISA",
			wantKey:     "TRADING212_ISA",
			wantName:    "Trading212",
			wantAccount: "ISA",
		},
		{
			name:        "case variants collapse",
			raw:         "TRADING212_isa",
			wantKey:     "TRADING212_ISA",
			wantName:    "Trading212",
			wantAccount: "ISA",
		},
		{
			name:        "account types are distinct identities",
			raw:         "Trading212_SIPP",
			wantKey:     "TRADING212_SIPP",
			wantName:    "Trading212",
			wantAccount: "SIPP",
		},
		{
			name:     "no account type",
			raw:      "Freetrade",
			wantKey:  "FREETRADE",
			wantName: "Freetrade",
		},
		{
			name:        "unknown broker passes through",
			raw:         "Some Broker_GIA",
			wantKey:     "SOMEBROKER_GIA",
			wantName:    "SomeBroker",
			wantAccount: "GIA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Platform(tt.raw)
			require.Equal(t, tt.wantKey, got.Key)
			require.Equal(t, tt.wantName, got.Name)
			require.Equal(t, tt.wantAccount, got.AccountType)
		})
	}
}

func TestPlatformSameEntityNeverSplits(t *testing.T) {
	n := New(AliasTable{})

	variants := []string{"Trading212_ISA", "Trading 212_ISA", "trading212_isa", "T212_ISA"}
	first := n.Platform(variants[0]).Key
	for _, v := range variants[1:] {
		require.Equal(t, first, n.Platform(v).Key, "variant %q", v)
	}
}

func TestSecurity(t *testing.T) {
	n := New(AliasTable{})

	t.Run("isin wins over symbol", func(t *testing.T) {
		require.Equal(t, "isin:GB00B3X7QG63", n.Security("VWRL.L", "LSE", "gb00b3x7qg63"))
		require.Equal(t, n.Security("VWRL", "LSE", "GB00B3X7QG63"), n.Security("VWRL.L", "AMS", "GB00B3X7QG63"))
	})

	t.Run("fallback to ticker and exchange", func(t *testing.T) {
		require.Equal(t, "sym:AAPL:NASDAQ", n.Security("aapl", "nasdaq", ""))
		require.NotEqual(t, n.Security("AAPL", "NASDAQ", ""), n.Security("AAPL", "LSE", ""))
	})

	t.Run("blank isin is not an identity", func(t *testing.T) {
		require.Equal(t, "sym:AAPL:NASDAQ", n.Security("AAPL", "NASDAQ", "   "))
	})
}

func TestAliasFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	table := AliasTable{Version: 2, Platforms: map[string]string{
		"inter active investor": "II",
		"Trading212":            "T212Official",
	}}
	data, err := json.Marshal(table)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadAliasFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Version)

	n := New(loaded)
	require.Equal(t, "II", n.Platform("Inter Active Investor_ISA").Name)
	require.Equal(t, "T212Official", n.Platform("Trading 212").Name)
}

func TestLoadAliasFileMissing(t *testing.T) {
	_, err := LoadAliasFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
