package builder

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

var jsonHeaders = exchange.Headers{{Name: "Content-Type", Value: "application/json"}}

type sample struct {
	method string
	url    string
	req    string
	status int
	resp   string
	hdrs   exchange.Headers
}

func (s sample) exchange(i int) *exchange.Exchange {
	status := s.status
	if status == 0 {
		status = 200
	}
	var reqHeaders exchange.Headers
	if s.req != "" {
		reqHeaders = append(reqHeaders, jsonHeaders...)
	}
	reqHeaders = append(reqHeaders, s.hdrs...)
	return exchange.New(exchange.Params{
		ID:              fmt.Sprintf("ex-%d", i),
		Method:          s.method,
		URL:             s.url,
		RequestHeaders:  reqHeaders,
		RequestBody:     []byte(s.req),
		Status:          status,
		ResponseHeaders: jsonHeaders,
		ResponseBody:    []byte(s.resp),
		Timestamp:       time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
	})
}

func exchanges(samples ...sample) []*exchange.Exchange {
	out := make([]*exchange.Exchange, len(samples))
	for i, s := range samples {
		out[i] = s.exchange(i)
	}
	return out
}

func buildOne(t *testing.T, samples ...sample) apimodel.Endpoint {
	t.Helper()
	groups := catalog.NewDetector(catalog.DetectOptions{}).Detect(exchanges(samples...))
	require.Len(t, groups, 1)
	return New(nil).BuildEndpoint(groups[0])
}

func TestBuildEndpoint_RequiredField(t *testing.T) {
	ep := buildOne(t,
		sample{method: "GET", url: "https://api.test/items", resp: `{"a":1,"b":2}`},
		sample{method: "GET", url: "https://api.test/items", resp: `{"a":1}`},
	)
	require.Len(t, ep.Responses, 1)
	body := ep.Responses[0].Body

	a, ok := body.Field("a")
	require.True(t, ok)
	assert.True(t, a.Required)
	b, ok := body.Field("b")
	require.True(t, ok)
	assert.False(t, b.Required)
	assert.False(t, b.Nullable())
}

func TestBuildEndpoint_Nullability(t *testing.T) {
	ep := buildOne(t,
		sample{method: "GET", url: "/items", resp: `{"a":1}`},
		sample{method: "GET", url: "/items", resp: `{"a":null}`},
	)
	a, ok := ep.Responses[0].Body.Field("a")
	require.True(t, ok)
	assert.True(t, a.Required)
	assert.True(t, a.Nullable())
	assert.Equal(t, typenode.KindInteger, a.Type.Kind())
}

func TestBuildEndpoint_StatusIsolation(t *testing.T) {
	ep := buildOne(t,
		sample{method: "GET", url: "/users/1", resp: `{"id":1}`},
		sample{method: "GET", url: "/users/2", status: 404, resp: `{"error":"x"}`},
		sample{method: "GET", url: "/users/3", resp: `{"id":3}`},
	)
	require.Len(t, ep.Responses, 2)
	assert.Equal(t, 200, ep.Responses[0].Status)
	assert.Equal(t, 2, ep.Responses[0].SampleCount)
	assert.Equal(t, "object{id:integer}", ep.Responses[0].Body.String())
	assert.Equal(t, 404, ep.Responses[1].Status)
	assert.Equal(t, "object{error:string}", ep.Responses[1].Body.String())
}

func TestBuildEndpoint_DriftWarnsAndKeepsBothBranches(t *testing.T) {
	ep := buildOne(t,
		sample{method: "GET", url: "/items", resp: `{"a":1}`},
		sample{method: "GET", url: "/items", resp: `{"a":"x"}`},
	)
	a, _ := ep.Responses[0].Body.Field("a")
	assert.Equal(t, typenode.KindUnion, a.Type.Kind())
	assert.Equal(t, "integer|string", a.Type.String())
	assert.Contains(t, ep.Warnings, "response 200: schema drift at $.a, samples disagree on type")
}

func TestBuildEndpoint_RequestBody(t *testing.T) {
	t.Run("absent everywhere", func(t *testing.T) {
		ep := buildOne(t, sample{method: "GET", url: "/items", resp: `[]`})
		assert.Nil(t, ep.RequestBody)
		assert.False(t, ep.RequestBodyRequired)
	})

	t.Run("present in every sample", func(t *testing.T) {
		ep := buildOne(t,
			sample{method: "POST", url: "/items", req: `{"name":"a"}`, status: 201, resp: `{"id":1}`},
			sample{method: "POST", url: "/items", req: `{"name":"b","tags":["x"]}`, status: 201, resp: `{"id":2}`},
		)
		require.NotNil(t, ep.RequestBody)
		assert.True(t, ep.RequestBodyRequired)
		assert.Equal(t, "application/json", ep.RequestContentType)
		assert.Equal(t, "object{name:string,tags?:array<string>}", ep.RequestBody.String())
	})

	t.Run("form body", func(t *testing.T) {
		ex := exchange.New(exchange.Params{
			Method:         "POST",
			URL:            "/login",
			RequestHeaders: exchange.Headers{{Name: "Content-Type", Value: "application/x-www-form-urlencoded"}},
			RequestBody:    []byte("user=bob&remember=true&age=3"),
			Status:         204,
		})
		groups := catalog.NewDetector(catalog.DetectOptions{}).Detect([]*exchange.Exchange{ex})
		ep := New(nil).BuildEndpoint(groups[0])
		require.NotNil(t, ep.RequestBody)
		assert.Equal(t, "object{age:integer,remember:boolean,user:string}", ep.RequestBody.String())
		assert.Nil(t, ep.Responses[0].Body)
	})
}

func TestBuildEndpoint_AnomaliesDegrade(t *testing.T) {
	ep := buildOne(t,
		sample{method: "GET", url: "/items", resp: `{"a":1}`},
		sample{method: "GET", url: "/items", resp: `{"a":`},
	)
	require.Len(t, ep.Responses, 1)
	assert.Equal(t, "object{a:integer}", ep.Responses[0].Body.String())
	require.Len(t, ep.Warnings, 1)
	assert.Contains(t, ep.Warnings[0], "unparsable JSON body")
}

func TestBuildEndpoint_Signals(t *testing.T) {
	auth := exchange.Headers{{Name: "Authorization", Value: "Bearer secret-token"}}
	ep := buildOne(t,
		sample{method: "GET", url: "/search?q=a&page=1&_=1700000001", resp: `[]`, hdrs: auth},
		sample{method: "GET", url: "/search?q=b&page=2", resp: `[]`, hdrs: auth},
	)
	assert.Equal(t, apimodel.Auth{Scheme: apimodel.AuthBearer}, ep.Auth)

	require.Len(t, ep.QueryParams, 3)
	assert.Equal(t, "_", ep.QueryParams[0].Name)
	assert.True(t, ep.QueryParams[0].Volatile)
	assert.Equal(t, "page", ep.QueryParams[1].Name)
	assert.Equal(t, typenode.KindInteger, ep.QueryParams[1].Type.Kind())
	assert.True(t, ep.QueryParams[1].Required)
	assert.Equal(t, "q", ep.QueryParams[2].Name)
	assert.Equal(t, typenode.KindString, ep.QueryParams[2].Type.Kind())

	data, err := (&apimodel.Model{Endpoints: []apimodel.Endpoint{ep}}).Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-token")
}

func TestInferScalar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "integer"},
		{"007", "string"},
		{"-3", "integer"},
		{"1.5", "number"},
		{"true", "boolean"},
		{"inf", "string"},
		{"NaN", "string"},
		{"2026-01-02T03:04:05Z", "string(date-time)"},
		{"bob", "string"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InferScalar(tt.in).String())
		})
	}
}

func analyzeModel(t *testing.T, exs []*exchange.Exchange) []byte {
	t.Helper()
	groups := catalog.NewDetector(catalog.DetectOptions{}).Detect(exs)
	b := New(nil)
	var eps []apimodel.Endpoint
	for _, g := range groups {
		eps = append(eps, b.BuildEndpoint(g))
	}
	model := Assemble(eps, Meta{Title: "Shop", Observed: BaseURLs(exs)})
	data, err := model.Marshal()
	require.NoError(t, err)
	return data
}

func TestPipelineDeterminism(t *testing.T) {
	exs := exchanges(
		sample{method: "GET", url: "https://api.shop.test/users", resp: `[{"id":1,"email":"a@b.co"}]`},
		sample{method: "GET", url: "https://api.shop.test/users/1", resp: `{"id":1,"tags":[]}`},
		sample{method: "GET", url: "https://api.shop.test/users/2", resp: `{"id":2,"tags":["a"],"nick":null}`},
		sample{method: "POST", url: "https://api.shop.test/users", req: `{"email":"c@d.co"}`, status: 201, resp: `{"id":3}`},
		sample{method: "DELETE", url: "https://api.shop.test/users/3", status: 204},
		sample{method: "GET", url: "https://cdn.shop.test/app.js"},
	)
	want := analyzeModel(t, exs)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]*exchange.Exchange(nil), exs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, string(want), string(analyzeModel(t, shuffled)))
	}
}
