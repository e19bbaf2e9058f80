package tokenlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestNormalize(t *testing.T) {
	raw := RawToken{
		Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		ChainID:  1,
		Decimals: 6,
		Name:     "USD Coin",
		Symbol:   "USDC",
		Extensions: map[string]interface{}{
			ExtensionCurated:  true,
			ExtensionVerified: true,
			ExtensionColor:    "#2775CA",
			"name":            "USD Coin (PoS)",
			"decimals":        float64(8),
			"coingeckoId":     "usd-coin",
		},
	}

	token := Normalize(raw)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", token.Address)
	assert.Equal(t, token.Address, token.UniqueID)
	assert.Equal(t, "USD Coin (PoS)", token.Name, "extension wins over base field")
	assert.Equal(t, 8, token.Decimals, "extension wins over base field")
	assert.Equal(t, "USDC", token.Symbol)
	assert.True(t, token.IsRainbowCurated)
	assert.True(t, token.IsVerified)
	assert.Equal(t, "#2775CA", token.Color)
	assert.Equal(t, map[string]interface{}{"coingeckoId": "usd-coin"}, token.Extra)
}

func TestNormalize_MismatchedExtensionTypeKeptVerbatim(t *testing.T) {
	token := Normalize(RawToken{
		Address:    "0xAB",
		Extensions: map[string]interface{}{ExtensionCurated: "yes"},
	})

	assert.False(t, token.IsRainbowCurated)
	assert.Equal(t, "yes", token.Extra[ExtensionCurated])
}

func TestNormalize_AddressExtensionIsLowercased(t *testing.T) {
	token := Normalize(RawToken{
		Address:    "0xAB",
		Extensions: map[string]interface{}{"address": "0xCD"},
	})

	assert.Equal(t, "0xcd", token.Address)
	assert.Equal(t, "0xcd", token.UniqueID)
}

func TestToken_MarshalJSON(t *testing.T) {
	token := Normalize(RawToken{
		Address:  "0xAB",
		Decimals: 18,
		Name:     "Token",
		Symbol:   "TKN",
		Extensions: map[string]interface{}{
			ExtensionCurated: true,
			"website":        "https://example.org",
		},
	})

	data, err := json.Marshal(token)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"address": "0xab",
		"uniqueId": "0xab",
		"decimals": 18,
		"name": "Token",
		"symbol": "TKN",
		"isRainbowCurated": true,
		"website": "https://example.org"
	}`, string(data))

	data, err = json.Marshal(NativeToken())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"address": "eth",
		"uniqueId": "eth",
		"chainId": 1,
		"decimals": 18,
		"name": "Ethereum",
		"symbol": "ETH",
		"isRainbowCurated": true,
		"isVerified": true
	}`, string(data))
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name      string
		candidate *time.Time
		accepted  *time.Time
		want      bool
	}{
		{"both absent", nil, nil, false},
		{"candidate absent", nil, ts("2024-01-01T00:00:00Z"), false},
		{"accepted absent", ts("2024-01-01T00:00:00Z"), nil, true},
		{"newer", ts("2024-01-02T00:00:00Z"), ts("2024-01-01T00:00:00Z"), true},
		{"equal", ts("2024-01-01T00:00:00Z"), ts("2024-01-01T00:00:00Z"), false},
		{"older", ts("2023-12-31T00:00:00Z"), ts("2024-01-01T00:00:00Z"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNewer(tt.candidate, tt.accepted))
		})
	}
}

func TestDocument_TimestampWireFormat(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":"2024-05-01T10:00:00.000Z","tokens":[]}`), &doc))
	require.NotNil(t, doc.Timestamp)
	assert.True(t, doc.Timestamp.Equal(*ts("2024-05-01T10:00:00Z")))

	require.NoError(t, json.Unmarshal([]byte(`{"tokens":[]}`), &doc))
	assert.Nil(t, doc.Timestamp)
	assert.NoError(t, doc.validate())

	var missing Document
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &missing))
	assert.Error(t, missing.validate())
}

func TestLoadBaseline(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		doc, err := LoadBaseline("")
		require.NoError(t, err)
		require.NotNil(t, doc.Timestamp)
		assert.NotEmpty(t, doc.Tokens)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "baseline.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"timestamp":"2020-01-01T00:00:00Z","tokens":[{"address":"0xAA","decimals":18,"name":"A","symbol":"A"}]}`), 0o644))

		doc, err := LoadBaseline(path)
		require.NoError(t, err)
		assert.Len(t, doc.Tokens, 1)
		assert.True(t, doc.Timestamp.Equal(*ts("2020-01-01T00:00:00Z")))
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "baseline.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

		_, err := LoadBaseline(path)
		assert.Error(t, err)
	})

	t.Run("missing tokens", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "baseline.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"empty"}`), 0o644))

		_, err := LoadBaseline(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}
