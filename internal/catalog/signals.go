package catalog

import (
	"sort"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// apiKeyHeaders are header names that carry API keys.
var apiKeyHeaders = map[string]bool{
	"x-api-key":      true,
	"api-key":        true,
	"apikey":         true,
	"x-apikey":       true,
	"x-auth-token":   true,
	"x-access-token": true,
}

// apiKeyQueryKeys are query keys that carry API keys.
var apiKeyQueryKeys = map[string]bool{
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"access_token": true,
}

func isAPIKeyHeader(name string) bool {
	n := strings.ToLower(name)
	return apiKeyHeaders[n] || strings.Contains(n, "api-key") || strings.Contains(n, "api_key") || strings.Contains(n, "apikey")
}

// IsAuthQueryKey reports whether a query key carries a credential.
func IsAuthQueryKey(key string) bool {
	return apiKeyQueryKeys[strings.ToLower(key)]
}

var authPriority = map[apimodel.AuthScheme]int{
	apimodel.AuthBearer: 3,
	apimodel.AuthBasic:  2,
	apimodel.AuthAPIKey: 1,
}

// authOf extracts the auth signal of one exchange. Only where a credential
// travels is recorded, never its value.
func authOf(ex *exchange.Exchange) apimodel.Auth {
	if v := strings.TrimSpace(ex.RequestHeaders.Get("Authorization")); v != "" {
		lower := strings.ToLower(v)
		switch {
		case strings.HasPrefix(lower, "bearer "):
			return apimodel.Auth{Scheme: apimodel.AuthBearer}
		case strings.HasPrefix(lower, "basic "):
			return apimodel.Auth{Scheme: apimodel.AuthBasic}
		default:
			return apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: "authorization"}
		}
	}
	for _, name := range ex.RequestHeaders.Names() {
		if isAPIKeyHeader(name) {
			return apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: name}
		}
	}
	for _, key := range ex.Query.Keys() {
		if IsAuthQueryKey(key) {
			return apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "query", Name: key}
		}
	}
	return apimodel.Auth{Scheme: apimodel.AuthNone}
}

// DetectAuth picks the most frequent auth signal among the exchanges.
// Exchanges without credentials do not vote; ties prefer bearer, then
// basic, then api-key, then the lexically smaller location.
func DetectAuth(members []*exchange.Exchange) apimodel.Auth {
	counts := make(map[apimodel.Auth]int)
	for _, ex := range members {
		if a := authOf(ex); a.Scheme != apimodel.AuthNone {
			counts[a]++
		}
	}
	return PickAuth(counts)
}

// PickAuth returns the winning signal of a vote, or AuthNone.
func PickAuth(counts map[apimodel.Auth]int) apimodel.Auth {
	best := apimodel.Auth{Scheme: apimodel.AuthNone}
	bestCount := 0
	for a, n := range counts {
		if a.Scheme == apimodel.AuthNone || n == 0 {
			continue
		}
		if bestCount == 0 || n > bestCount || (n == bestCount && authLess(a, best)) {
			best, bestCount = a, n
		}
	}
	return best
}

func authLess(a, b apimodel.Auth) bool {
	if authPriority[a.Scheme] != authPriority[b.Scheme] {
		return authPriority[a.Scheme] > authPriority[b.Scheme]
	}
	if a.In != b.In {
		return a.In < b.In
	}
	return a.Name < b.Name
}

var rateLimitPrefixes = []string{"x-ratelimit-", "x-rate-limit-", "ratelimit-"}

func isRateLimitHeader(name string) bool {
	if name == "retry-after" || name == "ratelimit" {
		return true
	}
	for _, p := range rateLimitPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// DetectRateLimitHeaders returns the lowercase rate-limit header names seen
// in any response, sorted and unique.
func DetectRateLimitHeaders(members []*exchange.Exchange) []string {
	seen := make(map[string]bool)
	for _, ex := range members {
		for _, name := range ex.ResponseHeaders.Names() {
			if isRateLimitHeader(name) {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// QueryKey summarizes one query key across a group.
type QueryKey struct {
	Name string
	// Values holds every observed value in member order.
	Values   []string
	Present  int
	Distinct int
	Repeated bool
	Volatile bool
}

// volatileKeys are cache busters and request-time stamps.
var volatileKeys = map[string]bool{
	"_": true, "_t": true, "_ts": true, "t": true, "ts": true, "timestamp": true,
	"time": true, "nonce": true, "rand": true, "random": true, "cb": true,
	"cachebuster": true, "cache_buster": true, "cachebust": true,
}

const (
	minSamplesForVolatility = 5
	volatileUniqueRatio     = 0.8
)

// AnalyzeQuery summarizes query keys, sorted by name. Credential keys are
// skipped.
func AnalyzeQuery(members []*exchange.Exchange) []QueryKey {
	byName := make(map[string]*QueryKey)
	distinct := make(map[string]map[string]bool)
	for _, ex := range members {
		for _, key := range ex.Query.Keys() {
			if IsAuthQueryKey(key) {
				continue
			}
			qk, ok := byName[key]
			if !ok {
				qk = &QueryKey{Name: key}
				byName[key] = qk
				distinct[key] = make(map[string]bool)
			}
			values := ex.Query.Values(key)
			qk.Present++
			if len(values) > 1 {
				qk.Repeated = true
			}
			for _, v := range values {
				qk.Values = append(qk.Values, v)
				distinct[key][v] = true
			}
		}
	}

	out := make([]QueryKey, 0, len(byName))
	for name, qk := range byName {
		qk.Distinct = len(distinct[name])
		qk.Volatile = isVolatile(qk)
		out = append(out, *qk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isVolatile(qk *QueryKey) bool {
	if volatileKeys[strings.ToLower(qk.Name)] {
		return true
	}
	if qk.Present < minSamplesForVolatility {
		return false
	}
	if float64(qk.Distinct)/float64(len(qk.Values)) <= volatileUniqueRatio {
		return false
	}
	// Unique on nearly every request and shaped like an epoch timestamp.
	for _, v := range qk.Values {
		if len(v) < 10 || !numericPattern.MatchString(v) {
			return false
		}
	}
	return true
}
