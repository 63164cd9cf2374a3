package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

func newExchange(id, method, url string, status int, body string) *exchange.Exchange {
	return exchange.New(exchange.Params{
		ID:     id,
		Method: method,
		URL:    url,
		RequestHeaders: exchange.Headers{
			{Name: "Authorization", Value: "Bearer t"},
			{Name: "Accept", Value: "application/json"},
		},
		Status:          status,
		ResponseHeaders: exchange.Headers{{Name: "Content-Type", Value: "application/json"}},
		ResponseBody:    []byte(body),
		Timestamp:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(".status ==")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")

	_, err = Compile("undefined_fn(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}

func TestFilter_Match(t *testing.T) {
	ex := newExchange("e1", "get", "https://api.test/v1/users?page=2&tag=a&tag=b", 200, `{"items":[{"id":1},{"id":2}],"total":2}`)

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"method", `.method == "GET"`, true},
		{"status range", `.status >= 200 and .status < 300`, true},
		{"path prefix", `.path | startswith("/v1")`, true},
		{"host", `.host == "other.test"`, false},
		{"repeated query", `.query.tag == ["a","b"]`, true},
		{"header lowercased", `.request.headers.authorization[0] | startswith("Bearer ")`, true},
		{"body numbers are ints", `.response.body.total == 2`, true},
		{"body traversal", `[.response.body.items[].id] | length == 2`, true},
		{"null output", `.response.body.missing`, false},
		{"any output truthy", `.response.body.items[] | .id == 2`, true},
		{"timestamp", `.timestamp == "2024-01-02T03:04:05Z"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := f.Match(ex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Select(t *testing.T) {
	exs := []*exchange.Exchange{
		newExchange("a", "GET", "https://api.test/users", 200, `[{"id":1}]`),
		newExchange("b", "GET", "https://api.test/users/1", 404, `{"error":"x"}`),
		newExchange("c", "POST", "https://api.test/users", 201, `{"id":2}`),
	}

	f, err := Compile(`.status < 400`)
	require.NoError(t, err)
	got, errs := f.Select(exs)
	assert.Empty(t, errs)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestFilter_SelectErrorsAreReported(t *testing.T) {
	exs := []*exchange.Exchange{
		newExchange("a", "GET", "https://api.test/users", 200, `[{"id":1}]`),
		newExchange("b", "GET", "https://api.test/users/1", 200, `{"id":1}`),
	}

	f, err := Compile(`.response.body.id == 1`)
	require.NoError(t, err)
	got, errs := f.Select(exs)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "a: ")
}

func TestDocument_Bodies(t *testing.T) {
	text := exchange.New(exchange.Params{
		Method:          "GET",
		URL:             "https://api.test/page",
		Status:          200,
		ResponseHeaders: exchange.Headers{{Name: "Content-Type", Value: "text/html"}},
		ResponseBody:    []byte("<p>hi</p>"),
	})
	doc := Document(text)
	resp := doc["response"].(map[string]any)
	assert.Equal(t, "<p>hi</p>", resp["body"])
	assert.Equal(t, "text/html", resp["content_type"])
	assert.NotContains(t, doc, "timestamp")

	req := doc["request"].(map[string]any)
	assert.Nil(t, req["body"])
}

func TestFormatJQError(t *testing.T) {
	f, err := Compile(`.response.body[]`)
	require.NoError(t, err)
	_, err = f.Match(newExchange("x", "GET", "https://api.test/a", 200, ``))
	require.Error(t, err)
	assert.Contains(t, formatJQError("x", err), "(the path may not exist in this exchange)")
}
