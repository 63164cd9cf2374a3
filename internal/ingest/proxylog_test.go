package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

func TestParseProxyLog_Array(t *testing.T) {
	in := `[
	  {"id":"r1","request":{"method":"get","url":"https://api.test/items?page=1","headers":{"Accept":"application/json","X-Tag":["a","b"]}},
	   "response":{"status":200,"headers":[["Content-Type","application/json"]],"body":{"items":[1,2]}},
	   "timestamp":"2024-01-02T03:04:05Z"},
	  {"request":{"url":"https://api.test/ping","body":"hello"},"response":{"status":204,"headers":[{"name":"X-Request-Id","value":"9"}]},"timestamp":1704164645000},
	  {"request":{"method":"GET","url":"https://api.test/pending"}}
	]`

	exs, err := ParseProxyLog(strings.NewReader(in), "traffic.json")
	require.NoError(t, err)
	require.Len(t, exs, 2)

	a := exs[0]
	assert.Equal(t, "r1", a.ID)
	assert.Equal(t, "GET", a.Method)
	assert.Equal(t, exchange.Headers{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Tag", Value: "a"},
		{Name: "X-Tag", Value: "b"},
	}, a.RequestHeaders, "object order is kept")
	assert.Equal(t, `{"items":[1,2]}`, string(a.ResponseBody.Raw))
	assert.True(t, a.ResponseBody.HasJSON)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), a.Timestamp)

	b := exs[1]
	assert.Equal(t, "traffic.json#1", b.ID)
	assert.Equal(t, "GET", b.Method, "method defaults to GET")
	assert.Equal(t, "hello", string(b.RequestBody.Raw))
	assert.Equal(t, "9", b.ResponseHeaders.Get("x-request-id"))
	assert.Equal(t, time.UnixMilli(1704164645000).UTC(), b.Timestamp)
}

func TestParseProxyLog_JSONLines(t *testing.T) {
	in := "\n{\"request\":{\"method\":\"GET\",\"url\":\"https://api.test/a\"},\"response\":{\"status\":200,\"body\":\"[1]\"},\"timestamp\":1704164645.5}\n" +
		"{\"request\":{\"method\":\"GET\",\"url\":\"https://api.test/b\"},\"response\":{\"status\":404}}\n"

	exs, err := ParseProxyLog(strings.NewReader(in), "log.jsonl")
	require.NoError(t, err)
	require.Len(t, exs, 2)
	assert.Equal(t, "/a", exs[0].Path)
	assert.Equal(t, int64(1704164645500), exs[0].Timestamp.UnixMilli())
	assert.Equal(t, 404, exs[1].Status)
}

func TestParseProxyLog_Empty(t *testing.T) {
	exs, err := ParseProxyLog(strings.NewReader("  \n"), "empty.jsonl")
	require.NoError(t, err)
	assert.Empty(t, exs)
}

func TestParseProxyLog_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bad array", `[{"request":`, "log.json: invalid JSON"},
		{"bad line", "{\"request\":{\"url\":\"https://a.test\"},\"response\":{\"status\":200}}\n{oops}", "log.json: record 1: invalid JSON"},
		{"no request", `[{"response":{"status":200}}]`, "log.json: record 0: request: missing"},
		{"no url", `[{"request":{"method":"GET"},"response":{"status":200}}]`, "log.json: record 0: request.url: missing"},
		{"no status", `[{"request":{"url":"https://a.test"},"response":{}}]`, "log.json: record 0: response.status: missing"},
		{"bad headers", `[{"request":{"url":"https://a.test","headers":42},"response":{"status":200}}]`, "log.json: record 0: request.headers"},
		{"bad timestamp", `[{"request":{"url":"https://a.test"},"response":{"status":200},"timestamp":"soon"}]`, "log.json: record 0: timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProxyLog(strings.NewReader(tt.in), "log.json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteProxyLog_RoundTrip(t *testing.T) {
	orig := []*exchange.Exchange{
		exchange.New(exchange.Params{
			ID:              "e1",
			Method:          "POST",
			URL:             "https://api.test/users?tag=a&tag=b",
			RequestHeaders:  exchange.Headers{{Name: "Content-Type", Value: "application/json"}},
			RequestBody:     []byte(`{"name":"x"}`),
			Status:          201,
			ResponseHeaders: exchange.Headers{{Name: "Content-Type", Value: "text/plain"}},
			ResponseBody:    []byte("created"),
			Timestamp:       time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProxyLog(&buf, orig))

	got, err := ParseProxyLog(&buf, "roundtrip")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, orig[0].ID, got[0].ID)
	assert.Equal(t, orig[0].Query, got[0].Query)
	assert.Equal(t, orig[0].RequestHeaders, got[0].RequestHeaders)
	assert.Equal(t, string(orig[0].RequestBody.Raw), string(got[0].RequestBody.Raw))
	assert.Equal(t, "created", string(got[0].ResponseBody.Raw))
	assert.Equal(t, orig[0].Timestamp, got[0].Timestamp)
}
