package typescript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

func emit(t *testing.T, m *apimodel.Model) (map[string]string, []string) {
	t.Helper()
	out, err := New().Emit(m, emitter.Options{})
	require.NoError(t, err)
	files := make(map[string]string)
	for _, f := range out.Files {
		files[f.Path] = string(f.Content)
	}
	return files, out.Warnings
}

func TestEmit(t *testing.T) {
	m := &apimodel.Model{
		Title:    "Shop API",
		BaseURLs: []string{"https://api.shop.test"},
		Auth:     apimodel.Auth{Scheme: apimodel.AuthAPIKey, In: "query", Name: "api_key"},
		Endpoints: []apimodel.Endpoint{
			{
				OperationName: "search_products", Method: "GET", PathTemplate: "/products",
				QueryParams: []apimodel.QueryParam{{Name: "q", Type: typenode.String(typenode.FormatNone), Required: true}},
				Responses: []apimodel.Response{{Status: 200, Body: typenode.Array(typenode.Object(
					typenode.Field{Name: "sku", Type: typenode.Union(typenode.Int(), typenode.String(typenode.FormatNone)), Required: true},
					typenode.Field{Name: "x-price", Type: typenode.Num(), Required: false},
				))}},
			},
			{
				OperationName: "delete_product", Method: "DELETE", PathTemplate: "/products/{id}",
				PathParams: []apimodel.PathParam{{Name: "id", Kind: apimodel.ParamInteger, Position: 1}},
				Responses:  []apimodel.Response{{Status: 204}},
			},
		},
	}
	files, _ := emit(t, m)

	client := files["src/client.ts"]
	assert.Contains(t, client, "async searchProducts(query: { q: string }): Promise<SearchProductsResponseItem[]> {")
	assert.Contains(t, client, "return this.request<SearchProductsResponseItem[]>(\"GET\", `/products`, { q: query.q });")
	assert.Contains(t, client, "async deleteProduct(id: number): Promise<void> {")
	assert.Contains(t, client, "`/products/${encodeURIComponent(String(id))}`")
	assert.Contains(t, client, `this.authQuery["api_key"] = key;`)

	models := files["src/models.ts"]
	assert.Contains(t, models, "export interface SearchProductsResponseItem {")
	assert.Contains(t, models, "sku: number | string;")
	assert.Contains(t, models, `"x-price"?: number;`)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(files["package.json"]), &manifest))
	assert.Equal(t, "shop-api", manifest["name"])
}

func TestEmit_OptionalBodyBeforeRequiredQuery(t *testing.T) {
	m := &apimodel.Model{
		Title: "X",
		Endpoints: []apimodel.Endpoint{{
			OperationName: "create_note", Method: "POST", PathTemplate: "/notes",
			QueryParams: []apimodel.QueryParam{{Name: "folder", Type: typenode.String(typenode.FormatNone), Required: true}},
			RequestBody: typenode.Object(typenode.Field{Name: "text", Type: typenode.String(typenode.FormatNone), Required: true}),
			Responses:   []apimodel.Response{{Status: 201}},
		}},
	}
	files, _ := emit(t, m)
	assert.Contains(t, files["src/client.ts"], "async createNote(body: CreateNoteRequest | undefined, query: { folder: string }): Promise<void> {")
}

func TestEmit_KeywordParam(t *testing.T) {
	m := &apimodel.Model{
		Title: "X",
		Endpoints: []apimodel.Endpoint{{
			OperationName: "get_thing", Method: "GET", PathTemplate: "/things",
			QueryParams: []apimodel.QueryParam{{Name: "default", Type: typenode.Bool()}},
			Responses:   []apimodel.Response{{Status: 200}},
		}},
	}
	files, warnings := emit(t, m)
	client := files["src/client.ts"]
	assert.Contains(t, client, `query: { default?: boolean } = {}`)
	assert.Contains(t, client, `{ default: query.default }`)
	assert.Empty(t, warnings, "keywords are valid property names")

	m.Endpoints[0].PathTemplate = "/things/{default}"
	m.Endpoints[0].PathParams = []apimodel.PathParam{{Name: "default", Kind: apimodel.ParamToken, Position: 1}}
	files, warnings = emit(t, m)
	assert.Contains(t, files["src/client.ts"], "encodeURIComponent(String(default_))")
	assert.Equal(t, []string{`parameter "default" is a reserved word, renamed to "default_"`}, warnings)
}
