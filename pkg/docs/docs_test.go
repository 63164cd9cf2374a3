package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

func fixture() *apimodel.Model {
	user := typenode.Object(
		typenode.Field{Name: "id", Type: typenode.Int(), Required: true},
		typenode.Field{Name: "email", Type: typenode.String(typenode.FormatEmail)},
	)
	bearer := apimodel.Auth{Scheme: apimodel.AuthBearer}
	return &apimodel.Model{
		Version:  apimodel.Version,
		Title:    "Shop API",
		BaseURLs: []string{"https://api.shop.test"},
		Auth:     bearer,
		Endpoints: []apimodel.Endpoint{
			{
				ID:            "a1",
				OperationName: "list_users",
				Method:        "GET",
				PathTemplate:  "/users",
				QueryParams: []apimodel.QueryParam{
					{Name: "page", Type: typenode.Int(), Required: true},
					{Name: "tag", Type: typenode.String(""), Repeated: true},
					{Name: "_", Type: typenode.Int(), Volatile: true},
				},
				Responses: []apimodel.Response{
					{Status: 200, ContentType: "application/json", Body: typenode.Array(user), SampleCount: 3},
				},
				Auth:             bearer,
				RateLimitHeaders: []string{"x-ratelimit-remaining"},
				SampleCount:      3,
				ResponseFields: []typenode.FieldStat{
					{Path: "[].id", Type: "integer", Frequency: 1, Required: true, Examples: []any{1, 2}},
				},
			},
			{
				ID:                  "b2",
				OperationName:       "create_user",
				Method:              "POST",
				PathTemplate:        "/users",
				RequestBody:         typenode.Object(typenode.Field{Name: "email", Type: typenode.String(""), Required: true}),
				RequestBodyRequired: true,
				RequestContentType:  "application/json",
				Responses: []apimodel.Response{
					{Status: 201, Body: user, SampleCount: 1},
					{Status: 422, Body: typenode.Object(typenode.Field{Name: "error", Type: typenode.String(""), Required: true}), SampleCount: 1},
				},
				Auth:        bearer,
				SampleCount: 2,
				Warnings:    []string{"response 201: schema drift at $.id, samples disagree on type"},
			},
			{
				ID:            "c3",
				OperationName: "get_user",
				Method:        "GET",
				PathTemplate:  "/users/{id}",
				PathParams:    []apimodel.PathParam{{Name: "id", Kind: apimodel.ParamInteger, Position: 1}},
				Responses:     []apimodel.Response{{Status: 200, Body: user, SampleCount: 2}},
				Auth:          apimodel.Auth{Scheme: apimodel.AuthNone},
				SampleCount:   2,
			},
			{
				ID:            "d4",
				OperationName: "get_status",
				Method:        "GET",
				PathTemplate:  "/status",
				Auth:          apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "header", Name: "x-api-key"},
				SampleCount:   1,
			},
		},
	}
}

func decodeDoc(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	data, err := doc.JSON()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func dig(t *testing.T, v any, keys ...string) any {
	t.Helper()
	for _, k := range keys {
		m, ok := v.(map[string]any)
		require.True(t, ok, "expected object at %q", k)
		v, ok = m[k]
		require.True(t, ok, "missing key %q", k)
	}
	return v
}

func TestOpenAPI(t *testing.T) {
	doc := OpenAPI(fixture())

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Shop API", doc.Info.Title)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.shop.test", doc.Servers[0].URL)
	require.Len(t, doc.Paths, 3)

	users := doc.Paths["/users"]
	require.NotNil(t, users.Get)
	require.NotNil(t, users.Post)
	assert.Equal(t, "list_users", users.Get.OperationID)
	assert.Nil(t, users.Get.Security, "global scheme applies")

	params := users.Get.Parameters
	require.Len(t, params, 3)
	assert.Equal(t, "page", params[0].Name)
	assert.True(t, params[0].Required)
	assert.Equal(t, "array", params[1].Schema.Type)
	assert.Equal(t, "string", params[1].Schema.Items.Type)
	assert.NotEmpty(t, params[2].Description)

	ok := users.Get.Responses["200"]
	require.NotNil(t, ok)
	assert.Equal(t, "OK", ok.Description)
	assert.Contains(t, ok.Headers, "x-ratelimit-remaining")
	assert.Equal(t, "array", ok.Content["application/json"].Schema.Type)

	post := users.Post
	require.NotNil(t, post.RequestBody)
	assert.True(t, post.RequestBody.Required)
	assert.Contains(t, post.Responses, "201")
	assert.Contains(t, post.Responses, "422")
	assert.Contains(t, post.Description, "Note: response 201: schema drift")

	get := doc.Paths["/users/{id}"].Get
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "path", get.Parameters[0].In)
	assert.Equal(t, "integer", get.Parameters[0].Schema.Type)
	assert.Equal(t, []SecurityRequirement{{}}, get.Security, "unauthenticated endpoint opts out")

	status := doc.Paths["/status"].Get
	assert.Contains(t, status.Responses, "default")
	require.Len(t, status.Security, 1)
	assert.Contains(t, status.Security[0], "apiKeyHeaderXApiKey")

	require.NotNil(t, doc.Components)
	assert.Equal(t, &SecurityScheme{Type: "http", Scheme: "bearer"}, doc.Components.SecuritySchemes["bearerAuth"])
	assert.Equal(t, &SecurityScheme{Type: "apiKey", Name: "x-api-key", In: "header"}, doc.Components.SecuritySchemes["apiKeyHeaderXApiKey"])
}

func TestOpenAPI_JSON(t *testing.T) {
	out := decodeDoc(t, OpenAPI(fixture()))

	assert.Equal(t, "3.1.0", out["openapi"])
	schema := dig(t, out, "paths", "/users/{id}", "get", "responses", "200", "content", "application/json", "schema")
	assert.Equal(t, []any{"id"}, dig(t, schema, "required"))
	assert.Equal(t, "email", dig(t, schema, "properties", "email", "format"))
	assert.Equal(t, []any{map[string]any{"bearerAuth": []any{}}}, out["security"])
}

func TestOpenAPI_Deterministic(t *testing.T) {
	a, err := OpenAPI(fixture()).JSON()
	require.NoError(t, err)
	b, err := OpenAPI(fixture()).JSON()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestDocument_YAML(t *testing.T) {
	doc := OpenAPI(fixture())
	data, err := doc.YAML()
	require.NoError(t, err)

	assert.Contains(t, string(data), "openapi: 3.1.0")

	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))

	// Status keys stay strings and the document survives the round trip.
	responses := dig(t, fromYAML, "paths", "/users", "post", "responses")
	assert.Contains(t, responses, "201")

	jsonData, err := doc.JSON()
	require.NoError(t, err)
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jsonData, &fromJSON))
	assert.Equal(t, dig(t, fromJSON, "info", "title"), dig(t, fromYAML, "info", "title"))
	assert.Equal(t, dig(t, fromJSON, "openapi"), dig(t, fromYAML, "openapi"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(fixture())

	for _, want := range []string{
		"# Shop API",
		"- `https://api.shop.test`",
		"Bearer token in the `Authorization` header.",
		"| `list_users` | GET | `/users` | 3 |",
		"### create_user",
		"`POST /users`",
		"**Request body** (application/json, required)",
		"object{email:string}",
		"- `422` Unprocessable Entity, 1 samples: `object{error:string}`",
		"| `page` | query | integer | yes |",
		"| `tag` | query | array<string> | no |",
		"| `_` | query | integer (volatile) | no |",
		"| `id` | path | integer-id | yes |",
		"| `[].id` | integer | yes | no | 100% | `1`, `2` |",
		"**Rate limiting**: `x-ratelimit-remaining`",
		"- response 201: schema drift at $.id, samples disagree on type",
		"Observed in 2 captured exchanges. No authentication observed.",
		"API key in the `x-api-key` header.",
	} {
		assert.Contains(t, md, want)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	md := Markdown(&apimodel.Model{})
	assert.Contains(t, md, "# API")
	assert.Contains(t, md, "No authentication observed.")
	assert.Contains(t, md, "No endpoints were detected.")
}
