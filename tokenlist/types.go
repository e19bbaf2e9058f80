package tokenlist

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Extension keys with a dedicated Token field
const (
	ExtensionCurated     = "isRainbowCurated"
	ExtensionVerified    = "isVerified"
	ExtensionColor       = "color"
	ExtensionShadowColor = "shadowColor"
)

// Native asset pseudo-token
const (
	NativeAddress  = "eth"
	NativeSymbol   = "ETH"
	NativeName     = "Ethereum"
	NativeDecimals = 18
	NativeChainID  = 1
)

// Version is the semantic version of a token list
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// Document is a versioned token list as served by the remote source and stored in the cache.
// Timestamp orders documents; a nil Timestamp is older than every other document.
type Document struct {
	Name      string     `json:"name,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Version   *Version   `json:"version,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	LogoURI   string     `json:"logoURI,omitempty"`
	Tokens    []RawToken `json:"tokens"`
}

// RawToken is a token entry exactly as it appears in a Document
type RawToken struct {
	Address    string                 `json:"address"`
	ChainID    int                    `json:"chainId,omitempty"`
	Decimals   int                    `json:"decimals"`
	Name       string                 `json:"name"`
	Symbol     string                 `json:"symbol"`
	LogoURI    string                 `json:"logoURI,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Token is the normalized form of a RawToken.
// Extensions without a dedicated field are kept in Extra and marshalled inline.
type Token struct {
	Address          string                 `json:"address"`
	UniqueID         string                 `json:"uniqueId"`
	ChainID          int                    `json:"chainId,omitempty"`
	Decimals         int                    `json:"decimals"`
	Name             string                 `json:"name"`
	Symbol           string                 `json:"symbol"`
	LogoURI          string                 `json:"logoURI,omitempty"`
	IsRainbowCurated bool                   `json:"isRainbowCurated,omitempty"`
	IsVerified       bool                   `json:"isVerified,omitempty"`
	Color            string                 `json:"color,omitempty"`
	ShadowColor      string                 `json:"shadowColor,omitempty"`
	Extra            map[string]interface{} `json:"-"`
}

// validate checks the structural shape of a document
func (d *Document) validate() error {
	if d == nil {
		return errors.New("document is nil")
	}
	if d.Tokens == nil {
		return errors.New("document has no tokens field")
	}
	return nil
}

// IsNewer reports whether candidate is strictly newer than accepted.
// A candidate without a timestamp is never newer. A candidate with a
// timestamp is newer than an accepted document without one.
func IsNewer(candidate, accepted *time.Time) bool {
	if candidate == nil {
		return false
	}
	if accepted == nil {
		return true
	}
	return candidate.After(*accepted)
}

// NativeToken returns the native asset pseudo-token
func NativeToken() Token {
	return Token{
		Address:          NativeAddress,
		UniqueID:         NativeAddress,
		ChainID:          NativeChainID,
		Decimals:         NativeDecimals,
		Name:             NativeName,
		Symbol:           NativeSymbol,
		IsRainbowCurated: true,
		IsVerified:       true,
	}
}

// Normalize converts a raw token: the address is lowercased, UniqueID mirrors it
// and extension values override the base fields they name.
func Normalize(raw RawToken) Token {
	token := Token{
		Address:  strings.ToLower(raw.Address),
		ChainID:  raw.ChainID,
		Decimals: raw.Decimals,
		Name:     raw.Name,
		Symbol:   raw.Symbol,
		LogoURI:  raw.LogoURI,
	}
	token.UniqueID = token.Address

	for key, value := range raw.Extensions {
		if !token.applyExtension(key, value) {
			if token.Extra == nil {
				token.Extra = make(map[string]interface{})
			}
			token.Extra[key] = value
		}
	}

	return token
}

// applyExtension sets the field named by key. Returns false when key has no
// dedicated field or value has an unexpected type.
func (t *Token) applyExtension(key string, value interface{}) bool {
	switch key {
	case ExtensionCurated:
		return setBool(&t.IsRainbowCurated, value)
	case ExtensionVerified:
		return setBool(&t.IsVerified, value)
	case ExtensionColor:
		return setString(&t.Color, value)
	case ExtensionShadowColor:
		return setString(&t.ShadowColor, value)
	case "name":
		return setString(&t.Name, value)
	case "symbol":
		return setString(&t.Symbol, value)
	case "logoURI":
		return setString(&t.LogoURI, value)
	case "decimals":
		return setInt(&t.Decimals, value)
	case "chainId":
		return setInt(&t.ChainID, value)
	case "address":
		var address string
		if !setString(&address, value) {
			return false
		}
		t.Address = strings.ToLower(address)
		t.UniqueID = t.Address
		return true
	case "uniqueId":
		return setString(&t.UniqueID, value)
	}
	return false
}

func setBool(dst *bool, value interface{}) bool {
	v, ok := value.(bool)
	if ok {
		*dst = v
	}
	return ok
}

func setString(dst *string, value interface{}) bool {
	v, ok := value.(string)
	if ok {
		*dst = v
	}
	return ok
}

func setInt(dst *int, value interface{}) bool {
	switch v := value.(type) {
	case float64:
		*dst = int(v)
	case int:
		*dst = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return false
		}
		*dst = int(n)
	default:
		return false
	}
	return true
}

// MarshalJSON writes Extra entries inline next to the known fields
func (t Token) MarshalJSON() ([]byte, error) {
	type plain Token
	base, err := json.Marshal(plain(t))
	if err != nil || len(t.Extra) == 0 {
		return base, err
	}

	merged := make(map[string]interface{}, len(t.Extra)+12)
	for key, value := range t.Extra {
		merged[key] = value
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return json.Marshal(merged)
}
