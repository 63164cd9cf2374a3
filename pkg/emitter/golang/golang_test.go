package golang

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

func fixture() *apimodel.Model {
	user := typenode.Object(
		typenode.Field{Name: "id", Type: typenode.Int(), Required: true},
		typenode.Field{Name: "email", Type: typenode.String(typenode.FormatEmail), Required: true},
		typenode.Field{Name: "nick", Type: typenode.String(typenode.FormatNone).WithNullable(true), Required: true},
		typenode.Field{Name: "tags", Type: typenode.Array(typenode.String(typenode.FormatNone)), Required: false},
	)
	return &apimodel.Model{
		Version:  apimodel.Version,
		Title:    "Shop API",
		BaseURLs: []string{"https://api.shop.test"},
		Auth:     apimodel.Auth{Scheme: apimodel.AuthBearer},
		Endpoints: []apimodel.Endpoint{
			{
				OperationName: "list_users", Method: "GET", PathTemplate: "/users",
				QueryParams: []apimodel.QueryParam{
					{Name: "page", Type: typenode.Int()},
					{Name: "tag", Type: typenode.String(typenode.FormatNone), Repeated: true},
					{Name: "_", Type: typenode.Int(), Volatile: true},
				},
				Responses: []apimodel.Response{{Status: 200, Body: typenode.Array(user)}},
			},
			{
				OperationName: "create_user", Method: "POST", PathTemplate: "/users",
				RequestBody:         typenode.Object(typenode.Field{Name: "email", Type: typenode.String(typenode.FormatEmail), Required: true}),
				RequestBodyRequired: true,
				Responses:           []apimodel.Response{{Status: 201, Body: user}},
			},
			{
				OperationName: "get_user", Method: "GET", PathTemplate: "/users/{id}",
				PathParams: []apimodel.PathParam{{Name: "id", Kind: apimodel.ParamInteger, Position: 1}},
				Responses:  []apimodel.Response{{Status: 200, Body: user}, {Status: 404, Body: typenode.Object(typenode.Field{Name: "error", Type: typenode.String(typenode.FormatNone), Required: true})}},
			},
			{
				OperationName: "delete_user", Method: "DELETE", PathTemplate: "/users/{id}",
				PathParams: []apimodel.PathParam{{Name: "id", Kind: apimodel.ParamInteger, Position: 1}},
				Responses:  []apimodel.Response{{Status: 204}},
			},
		},
	}
}

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

func TestEmit_Files(t *testing.T) {
	files, _ := emit(t, fixture())

	require.Contains(t, files, "client.go")
	require.Contains(t, files, "models.go")
	assert.Equal(t, "module shopapi\n\ngo 1.21\n", files["go.mod"])
	assert.Contains(t, files["README.md"], "shopapi.WithBearerToken(token)")

	fset := token.NewFileSet()
	for _, name := range []string{"client.go", "models.go"} {
		_, err := parser.ParseFile(fset, name, files[name], parser.AllErrors)
		assert.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(files[name], "// Code generated by powhttp-sdkgen. DO NOT EDIT."))
	}
}

func TestEmit_Operations(t *testing.T) {
	files, _ := emit(t, fixture())
	client := files["client.go"]

	assert.Contains(t, client, "func (c *Client) ListUsers(ctx context.Context, params *ListUsersParams) ([]ListUsersResponseItem, error) {")
	assert.Contains(t, client, "func (c *Client) CreateUser(ctx context.Context, body *CreateUserRequest) (*CreateUserResponse, error) {")
	assert.Contains(t, client, "func (c *Client) GetUser(ctx context.Context, id int64) (*GetUserResponse, error) {")
	assert.Contains(t, client, "func (c *Client) DeleteUser(ctx context.Context, id int64) error {")
	assert.Contains(t, client, `"/users/"+url.PathEscape(fmt.Sprint(id))`)
	assert.Contains(t, client, `v.Add("tag", fmt.Sprint(x))`)
	assert.NotContains(t, client, `"_"`, "volatile query keys are not client parameters")
	assert.Contains(t, client, "func WithBearerToken(token string) Option")
	assert.Contains(t, client, `const DefaultBaseURL = "https://api.shop.test"`)
}

func TestEmit_Models(t *testing.T) {
	files, _ := emit(t, fixture())
	models := files["models.go"]

	assert.Contains(t, models, "type GetUserResponse struct {")
	assert.Regexp(t, `ID\s+int64\s+`+"`json:\"id\"`", models)
	assert.Regexp(t, `Nick\s+\*string\s+`+"`json:\"nick\"`", models)
	assert.Regexp(t, `Tags\s+\[\]string\s+`+"`json:\"tags,omitempty\"`", models)
	assert.NotContains(t, models, "type GetUserResponse2", "404 schema does not leak into the success type")
}

func TestEmit_UntaggableFieldsKept(t *testing.T) {
	m := &apimodel.Model{
		Title: "Odd",
		Endpoints: []apimodel.Endpoint{{
			OperationName: "get_stats", Method: "GET", PathTemplate: "/stats",
			Responses: []apimodel.Response{{Status: 200, Body: typenode.Object(
				typenode.Field{Name: "a,b", Type: typenode.Int(), Required: true},
				typenode.Field{Name: `say "hi"`, Type: typenode.String(typenode.FormatNone)},
				typenode.Field{Name: "plain", Type: typenode.Bool(), Required: true},
			)}},
		}},
	}
	files, warnings := emit(t, m)
	models := files["models.go"]

	assert.Contains(t, models, `import "encoding/json"`)
	assert.Regexp(t, `AB\s+int64\s+`+"`json:\"-\"`", models)
	assert.Regexp(t, `SayHi\s+\*string\s+`+"`json:\"-\"`", models)
	assert.Regexp(t, `Plain\s+bool\s+`+"`json:\"plain\"`", models)
	assert.Contains(t, models, "func (v GetStatsResponse) MarshalJSON() ([]byte, error) {")
	assert.Contains(t, models, "func (v *GetStatsResponse) UnmarshalJSON(data []byte) error {")
	assert.Contains(t, models, `m["a,b"] = raw`)
	assert.Contains(t, models, `if raw, ok := m["say \"hi\""]; ok {`)
	assert.Contains(t, models, "if v.SayHi != nil {")
	assert.Equal(t, []string{"type GetStatsResponse maps 2 field(s) through custom JSON methods"}, warnings)
}

func TestEmit_ModelsWithoutImports(t *testing.T) {
	files, _ := emit(t, fixture())
	assert.NotContains(t, files["models.go"], "import")
}

func TestEmit_KeywordParamsEscaped(t *testing.T) {
	m := &apimodel.Model{
		Title: "Docs",
		Endpoints: []apimodel.Endpoint{{
			OperationName: "get_thing", Method: "GET", PathTemplate: "/things/{type}",
			PathParams: []apimodel.PathParam{{Name: "type", Kind: apimodel.ParamToken, Position: 1}},
			Responses:  []apimodel.Response{{Status: 200}},
		}},
	}
	files, warnings := emit(t, m)

	assert.Contains(t, files["client.go"], "func (c *Client) GetThing(ctx context.Context, type_ string) error {")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"type" is a reserved word`)
}

func TestEmit_Deterministic(t *testing.T) {
	a, _ := emit(t, fixture())
	b, _ := emit(t, fixture())
	assert.Equal(t, a, b)
}
