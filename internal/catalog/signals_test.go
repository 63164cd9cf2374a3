package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

func withHeaders(url string, req, resp exchange.Headers) *exchange.Exchange {
	return exchange.New(exchange.Params{Method: "GET", URL: url, RequestHeaders: req, ResponseHeaders: resp, Status: 200})
}

func hdr(pairs ...string) exchange.Headers {
	var h exchange.Headers
	for i := 0; i+1 < len(pairs); i += 2 {
		h = append(h, exchange.Header{Name: pairs[i], Value: pairs[i+1]})
	}
	return h
}

func TestDetectAuth(t *testing.T) {
	tests := []struct {
		name    string
		members []*exchange.Exchange
		want    apimodel.Auth
	}{
		{
			name:    "none",
			members: []*exchange.Exchange{withHeaders("/a", hdr("Accept", "*/*"), nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthNone},
		},
		{
			name:    "bearer",
			members: []*exchange.Exchange{withHeaders("/a", hdr("Authorization", "Bearer abc.def"), nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthBearer},
		},
		{
			name:    "basic",
			members: []*exchange.Exchange{withHeaders("/a", hdr("authorization", "Basic dXNlcjpwYXNz"), nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthBasic},
		},
		{
			name:    "api key header",
			members: []*exchange.Exchange{withHeaders("/a", hdr("X-API-Key", "k"), nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: "x-api-key"},
		},
		{
			name:    "custom api key header",
			members: []*exchange.Exchange{withHeaders("/a", hdr("X-Shop-Api-Key", "k"), nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: "x-shop-api-key"},
		},
		{
			name:    "api key query",
			members: []*exchange.Exchange{withHeaders("/a?api_key=k&page=1", nil, nil)},
			want:    apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "query", Name: "api_key"},
		},
		{
			name: "majority wins",
			members: []*exchange.Exchange{
				withHeaders("/a", hdr("X-API-Key", "k"), nil),
				withHeaders("/a", hdr("X-API-Key", "k"), nil),
				withHeaders("/a", hdr("Authorization", "Bearer t"), nil),
			},
			want: apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: "x-api-key"},
		},
		{
			name: "tie prefers bearer",
			members: []*exchange.Exchange{
				withHeaders("/a", hdr("X-API-Key", "k"), nil),
				withHeaders("/a", hdr("Authorization", "Bearer t"), nil),
			},
			want: apimodel.Auth{Scheme: apimodel.AuthBearer},
		},
		{
			name: "unauthenticated samples do not vote",
			members: []*exchange.Exchange{
				withHeaders("/a", nil, nil),
				withHeaders("/a", nil, nil),
				withHeaders("/a", hdr("Authorization", "Bearer t"), nil),
			},
			want: apimodel.Auth{Scheme: apimodel.AuthBearer},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectAuth(tt.members))
		})
	}
}

func TestDetectRateLimitHeaders(t *testing.T) {
	members := []*exchange.Exchange{
		withHeaders("/a", nil, hdr("X-RateLimit-Limit", "100", "X-RateLimit-Remaining", "99", "Content-Type", "application/json")),
		withHeaders("/a", nil, hdr("Retry-After", "30", "x-ratelimit-limit", "100")),
		withHeaders("/a", nil, hdr("RateLimit-Policy", "100;w=60")),
	}
	assert.Equal(t, []string{"ratelimit-policy", "retry-after", "x-ratelimit-limit", "x-ratelimit-remaining"}, DetectRateLimitHeaders(members))
	assert.Empty(t, DetectRateLimitHeaders([]*exchange.Exchange{withHeaders("/a", nil, hdr("Server", "x"))}))
}

func TestAnalyzeQuery(t *testing.T) {
	var members []*exchange.Exchange
	for i := 0; i < 6; i++ {
		members = append(members, withHeaders(fmt.Sprintf("/s?q=shoes&page=%d&_=%d&since=17000000%02d&api_key=x", i%2, i, i), nil, nil))
	}
	members = append(members, withHeaders("/s?tag=a&tag=b", nil, nil))

	keys := AnalyzeQuery(members)
	byName := map[string]QueryKey{}
	for _, k := range keys {
		byName[k.Name] = k
	}

	require.NotContains(t, byName, "api_key")
	assert.Equal(t, []string{"_", "page", "q", "since", "tag"}, func() []string {
		var n []string
		for _, k := range keys {
			n = append(n, k.Name)
		}
		return n
	}())

	assert.True(t, byName["_"].Volatile)
	assert.True(t, byName["since"].Volatile)
	assert.False(t, byName["page"].Volatile)
	assert.False(t, byName["q"].Volatile)
	assert.Equal(t, 6, byName["q"].Present)
	assert.Equal(t, 1, byName["q"].Distinct)
	assert.True(t, byName["tag"].Repeated)
	assert.Equal(t, []string{"a", "b"}, byName["tag"].Values)
}
