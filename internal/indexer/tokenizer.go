package indexer

import (
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// Tokenize splits s into lowercase words the way identifiers are split
// (separators, case changes), dropping one-letter words. "/userProfiles?pageSize=2"
// yields [user profiles page size].
func Tokenize(s string) []string {
	words := ident.Words(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= 2 {
			out = append(out, w)
		}
	}
	return out
}

// TokenizeExchange returns the distinct tokens of the host, the path and the
// query keys of an exchange, in first-seen order. Query values are left out:
// they are data, not vocabulary.
func TokenizeExchange(ex *exchange.Exchange) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		for _, t := range Tokenize(s) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	add(ex.Host)
	add(ex.Path)
	for _, k := range ex.Query.Keys() {
		add(k)
	}
	return out
}
