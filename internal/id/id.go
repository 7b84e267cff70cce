package id

import (
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
)

// Asset is one member of the fixed asset set the agent understands. The
// asset identifier doubles as the chain slug: each asset in scope is priced
// on its own native chain.
type Asset struct {
	ID     string
	Name   string
	Symbol string
}

var (
	Zcash    = Asset{ID: "zcash", Name: "Zcash", Symbol: "ZEC"}
	Ethereum = Asset{ID: "ethereum", Name: "Ethereum", Symbol: "ETH"}
	Solana   = Asset{ID: "solana", Name: "Solana", Symbol: "SOL"}
)

// assetByAlias maps every recognized spelling to its canonical asset.
// Symbol and full name are aliases of the same asset, never two assets.
var assetByAlias = map[string]Asset{
	"zcash":    Zcash,
	"zec":      Zcash,
	"ethereum": Ethereum,
	"eth":      Ethereum,
	"solana":   Solana,
	"sol":      Solana,
}

// All returns the fixed asset set in a stable order.
func All() []Asset {
	return []Asset{Zcash, Ethereum, Solana}
}

// Parse resolves a single asset identifier, symbol, or name.
func Parse(input string) (Asset, error) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if asset, ok := assetByAlias[norm]; ok {
		return asset, nil
	}
	return Asset{}, clierr.New(clierr.CodeUsage, "unknown asset: "+input)
}

// ResolveMentions returns the distinct assets whose alias appears as a
// substring of text, in stable order. Matching is case-insensitive and
// positional context is ignored ("not ETH" still matches ETH); the policy
// lives here so call sites never depend on it directly.
func ResolveMentions(text string) []Asset {
	lower := strings.ToLower(text)
	seen := map[string]Asset{}
	for alias, asset := range assetByAlias {
		if strings.Contains(lower, alias) {
			seen[asset.ID] = asset
		}
	}
	out := make([]Asset, 0, len(seen))
	for _, asset := range seen {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mentions reports whether text mentions the given asset under any alias.
func Mentions(text string, asset Asset) bool {
	lower := strings.ToLower(text)
	for alias, candidate := range assetByAlias {
		if candidate.ID == asset.ID && strings.Contains(lower, alias) {
			return true
		}
	}
	return false
}
