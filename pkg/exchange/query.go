package exchange

import (
	"net/url"
	"strings"
)

// QueryParam is one key/value occurrence from a query string.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Query is an ordered multimap of query parameters.
type Query []QueryParam

// ParseQuery parses a raw query string keeping order and repeated keys.
// Undecodable escapes are kept verbatim.
func ParseQuery(raw string) Query {
	if raw == "" {
		return nil
	}
	var q Query
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		q = append(q, QueryParam{Key: unescape(k), Value: unescape(v)})
	}
	return q
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// Get returns the first value for key.
func (q Query) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Values returns every value for key in order.
func (q Query) Values(key string) []string {
	var out []string
	for _, p := range q {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Keys returns distinct keys in first-seen order.
func (q Query) Keys() []string {
	seen := make(map[string]bool, len(q))
	var keys []string
	for _, p := range q {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Encode renders the query back into a raw query string, keeping order.
func (q Query) Encode() string {
	parts := make([]string, len(q))
	for i, p := range q {
		parts[i] = url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value)
	}
	return strings.Join(parts, "&")
}
