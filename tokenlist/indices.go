package tokenlist

import (
	"strconv"
	"strings"
	"time"
)

// Indices is an immutable snapshot of a Document and the lookups derived from it.
// Maps and slices are shared between readers and must not be modified.
type Indices struct {
	// Document the indices were built from
	Document *Document
	// Tokens is the native token followed by every normalized token in document order
	Tokens []Token
	// List holds one entry per address, in order of first appearance
	List []Token
	// Full maps address to token for every token including the native one
	Full map[string]Token
	// Curated maps address to token for curated tokens only
	Curated map[string]Token
	// SafeNames maps a lowercased curated name or symbol to its original spelling
	SafeNames map[string]string
}

// BuildIndices derives every lookup from doc. On an address collision the
// later token wins in Full, and the later curated token wins in Curated.
// SafeNames takes names and symbols of the tokens kept in Curated, in document
// order, so the later spelling wins. Empty names and symbols are not indexed.
func BuildIndices(doc *Document) *Indices {
	var raw []RawToken
	if doc != nil {
		raw = doc.Tokens
	}

	tokens := make([]Token, 0, len(raw)+1)
	tokens = append(tokens, NativeToken())
	for _, r := range raw {
		tokens = append(tokens, Normalize(r))
	}

	full := make(map[string]Token, len(tokens))
	curated := make(map[string]Token)
	curatedAt := make(map[string]int)
	order := make([]string, 0, len(tokens))
	for i, token := range tokens {
		if _, seen := full[token.Address]; !seen {
			order = append(order, token.Address)
		}
		full[token.Address] = token
		if token.IsRainbowCurated {
			curated[token.Address] = token
			curatedAt[token.Address] = i
		}
	}

	list := make([]Token, 0, len(order))
	for _, address := range order {
		list = append(list, full[address])
	}

	// document order, so a later curated token wins a name collision
	safeNames := make(map[string]string, len(curated)*2)
	for i, token := range tokens {
		if at, ok := curatedAt[token.Address]; !ok || at != i {
			continue
		}
		for _, name := range []string{token.Name, token.Symbol} {
			if name == "" {
				continue
			}
			safeNames[strings.ToLower(name)] = name
		}
	}

	return &Indices{
		Document:  doc,
		Tokens:    tokens,
		List:      list,
		Full:      full,
		Curated:   curated,
		SafeNames: safeNames,
	}
}

// Timestamp returns the timestamp of the source document, nil if absent
func (i *Indices) Timestamp() *time.Time {
	if i == nil || i.Document == nil {
		return nil
	}
	return i.Document.Timestamp
}

// Version identifies the snapshot; it changes with every adopted document
func (i *Indices) Version() string {
	ts := i.Timestamp()
	if ts == nil {
		return "0"
	}
	return strconv.FormatInt(ts.UnixNano(), 10)
}

// Lookup returns the token for address, matched case-insensitively
func (i *Indices) Lookup(address string) (Token, bool) {
	token, ok := i.Full[strings.ToLower(address)]
	return token, ok
}

// IsCurated reports whether address belongs to a curated token
func (i *Indices) IsCurated(address string) bool {
	_, ok := i.Curated[strings.ToLower(address)]
	return ok
}

// SafeName returns the original spelling of a curated name or symbol
func (i *Indices) SafeName(name string) (string, bool) {
	original, ok := i.SafeNames[strings.ToLower(name)]
	return original, ok
}
