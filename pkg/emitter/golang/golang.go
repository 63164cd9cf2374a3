// Package golang emits a Go client library: a Client with one method per
// endpoint, model structs and a go.mod.
package golang

import (
	"fmt"
	"go/format"
	"slices"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// Language is the registry key of this backend.
const Language = "go"

var keywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	// Predeclared identifiers the generated code relies on.
	"any": true, "error": true, "string": true, "nil": true, "true": true, "false": true,
	"fmt": true, "url": true, "http": true, "json": true, "bytes": true, "io": true, "strings": true, "context": true,
}

// runtimeNames are declared by the generated client itself.
var runtimeNames = []string{
	"Client", "Option", "APIError", "NewClient", "DefaultBaseURL",
	"WithBaseURL", "WithHTTPClient", "WithHeader", "WithBearerToken", "WithBasicAuth", "WithAPIKey",
}

// Naming returns the Go identifier rules.
func Naming() emitter.Naming {
	return emitter.Naming{
		Type:           ident.GoPascal,
		Member:         ident.GoPascal,
		Method:         ident.GoPascal,
		Param:          goCamel,
		Keywords:       keywords,
		ReservedTypes:  runtimeNames,
		ReservedParams: []string{"c", "ctx", "params", "body", "form", "out", "payload", "err"},
	}
}

func goCamel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[0] + ident.GoPascal(words[1:])
}

// Emitter renders Go clients.
type Emitter struct{}

// New creates the Go emitter.
func New() *Emitter { return &Emitter{} }

// Language implements emitter.Emitter.
func (*Emitter) Language() string { return Language }

// Emit implements emitter.Emitter.
func (*Emitter) Emit(m *apimodel.Model, opts emitter.Options) (*emitter.Output, error) {
	pkg := opts.PackageName
	if pkg == "" {
		pkg = emitter.PackageName(m.Title, "")
	}
	pkg = strings.ToLower(strings.NewReplacer("-", "", "_", "", ".", "").Replace(pkg))
	if keywords[pkg] || pkg == "" {
		pkg += "client"
	}
	modulePath := opts.ModulePath
	if modulePath == "" {
		modulePath = pkg
	}

	plan, warnings := emitter.Plan(m, Naming())
	r := &renderer{plan: plan, pkg: pkg}

	client, err := format.Source(r.client())
	if err != nil {
		return nil, fmt.Errorf("formatting client.go: %w", err)
	}
	models, err := format.Source(r.models())
	if err != nil {
		return nil, fmt.Errorf("formatting models.go: %w", err)
	}

	return &emitter.Output{
		Files: []emitter.File{
			{Path: "go.mod", Content: []byte(fmt.Sprintf("module %s\n\ngo 1.21\n", modulePath))},
			{Path: "client.go", Content: client},
			{Path: "models.go", Content: models},
			{Path: "README.md", Content: r.readme(modulePath)},
		},
		Warnings: append(warnings, r.warnings...),
	}, nil
}

type renderer struct {
	plan     *emitter.ClientPlan
	pkg      string
	warnings []string
}

// goType renders a type expression. Nullable values become pointers unless
// the type is already nilable.
func goType(t *emitter.TypeRef) string {
	var s string
	switch t.Kind {
	case emitter.RefBool:
		s = "bool"
	case emitter.RefInt:
		s = "int64"
	case emitter.RefNumber:
		s = "float64"
	case emitter.RefString:
		s = "string"
	case emitter.RefNamed:
		s = t.Name
	case emitter.RefArray:
		return "[]" + goType(t.Elem)
	case emitter.RefMap:
		return "map[string]any"
	default:
		return "any"
	}
	if t.Nullable {
		return "*" + s
	}
	return s
}

func nilable(goT string) bool {
	return goT == "any" || strings.HasPrefix(goT, "*") || strings.HasPrefix(goT, "[]") || strings.HasPrefix(goT, "map[")
}

// optional makes a type nilable so absence is distinguishable from zero.
func optional(goT string) string {
	if nilable(goT) {
		return goT
	}
	return "*" + goT
}

func (r *renderer) models() []byte {
	p := emitter.NewPrinter("\t")
	p.Line("// " + emitter.GeneratedHeader())
	p.Blank()
	p.Linef("package %s", r.pkg)
	untaggable := func(f emitter.FieldDecl) bool { return strings.ContainsAny(f.JSONName, "\",`") }
	for _, t := range r.plan.Types {
		if slices.ContainsFunc(t.Fields, untaggable) {
			p.Blank()
			p.Line(`import "encoding/json"`)
			break
		}
	}
	for _, t := range r.plan.Types {
		p.Blank()
		p.Linef("type %s struct {", t.Name)
		p.In()
		var odd []emitter.FieldDecl
		for _, f := range t.Fields {
			typ := goType(f.Type)
			tag := f.JSONName
			if !f.Required {
				typ = optional(typ)
				tag += ",omitempty"
			}
			if untaggable(f) {
				odd = append(odd, f)
				p.Linef("%s %s `json:\"-\"` // wire name %s", f.Name, typ, strconv.Quote(f.JSONName))
				continue
			}
			p.Linef("%s %s `json:\"%s\"`", f.Name, typ, tag)
		}
		p.Out()
		p.Line("}")
		if len(odd) > 0 {
			r.oddFields(p, t.Name, odd)
		}
	}
	return p.Bytes()
}

// oddFields writes MarshalJSON and UnmarshalJSON for a struct whose wire
// names cannot be spelled in a struct tag. The tagged fields go through the
// default encoding; the rest are read and written by key.
func (r *renderer) oddFields(p *emitter.Printer, typ string, fields []emitter.FieldDecl) {
	r.warnings = append(r.warnings, fmt.Sprintf("type %s maps %d field(s) through custom JSON methods", typ, len(fields)))

	p.Blank()
	p.Linef("func (v %s) MarshalJSON() ([]byte, error) {", typ)
	p.In()
	p.Linef("type plain %s", typ)
	p.Line("data, err := json.Marshal(plain(v))")
	p.Line("if err != nil {")
	p.Line("\treturn nil, err")
	p.Line("}")
	p.Line("var m map[string]json.RawMessage")
	p.Line("if err := json.Unmarshal(data, &m); err != nil {")
	p.Line("\treturn nil, err")
	p.Line("}")
	for _, f := range fields {
		if f.Required {
			p.Line("{")
		} else {
			p.Linef("if v.%s != nil {", f.Name)
		}
		p.In()
		p.Linef("raw, err := json.Marshal(v.%s)", f.Name)
		p.Line("if err != nil {")
		p.Line("\treturn nil, err")
		p.Line("}")
		p.Linef("m[%s] = raw", strconv.Quote(f.JSONName))
		p.Out()
		p.Line("}")
	}
	p.Line("return json.Marshal(m)")
	p.Out()
	p.Line("}")

	p.Blank()
	p.Linef("func (v *%s) UnmarshalJSON(data []byte) error {", typ)
	p.In()
	p.Linef("type plain %s", typ)
	p.Line("if err := json.Unmarshal(data, (*plain)(v)); err != nil {")
	p.Line("\treturn err")
	p.Line("}")
	p.Line("var m map[string]json.RawMessage")
	p.Line("if err := json.Unmarshal(data, &m); err != nil {")
	p.Line("\treturn err")
	p.Line("}")
	for _, f := range fields {
		p.Linef("if raw, ok := m[%s]; ok {", strconv.Quote(f.JSONName))
		p.In()
		p.Linef("if err := json.Unmarshal(raw, &v.%s); err != nil {", f.Name)
		p.Line("\treturn err")
		p.Line("}")
		p.Out()
		p.Line("}")
	}
	p.Line("return nil")
	p.Out()
	p.Line("}")
}

func (r *renderer) client() []byte {
	p := emitter.NewPrinter("\t")
	p.Line("// " + emitter.GeneratedHeader())
	p.Blank()
	if r.plan.Title != "" {
		p.Linef("// Package %s is a client for %s.", r.pkg, r.plan.Title)
	}
	p.Linef("package %s", r.pkg)
	p.Blank()
	p.Line("import (")
	p.In()
	for _, imp := range []string{"bytes", "context", "encoding/json", "fmt", "io", "net/http", "net/url", "strings"} {
		p.Linef("%q", imp)
	}
	p.Out()
	p.Line(")")
	p.Blank()
	p.Line("// DefaultBaseURL is the base URL the traffic was captured from.")
	p.Linef("const DefaultBaseURL = %s", strconv.Quote(r.plan.BaseURL))
	p.Blank()

	r.clientType(p)
	r.doMethod(p)
	for _, op := range r.plan.Operations {
		r.operation(p, op)
	}
	return p.Bytes()
}

func (r *renderer) clientType(p *emitter.Printer) {
	auth := r.plan.Auth
	p.Line("// Client calls the API. Create one with NewClient.")
	p.Line("type Client struct {")
	p.In()
	p.Line("BaseURL    string")
	p.Line("HTTPClient *http.Client")
	p.Line("// Headers are sent with every request.")
	p.Line("Headers http.Header")
	switch auth.Scheme {
	case apimodel.AuthBearer:
		p.Line("token string")
	case apimodel.AuthBasic:
		p.Line("username, password string")
	case apimodel.AuthAPIKey:
		p.Line("apiKey string")
	}
	p.Out()
	p.Line("}")
	p.Blank()
	p.Line("// Option configures a Client.")
	p.Line("type Option func(*Client)")
	p.Blank()
	p.Line("// WithBaseURL overrides DefaultBaseURL.")
	p.Line("func WithBaseURL(u string) Option { return func(c *Client) { c.BaseURL = u } }")
	p.Blank()
	p.Line("// WithHTTPClient sets the underlying HTTP client.")
	p.Line("func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTPClient = h } }")
	p.Blank()
	p.Line("// WithHeader adds a header sent with every request.")
	p.Line("func WithHeader(key, value string) Option { return func(c *Client) { c.Headers.Add(key, value) } }")
	p.Blank()
	switch auth.Scheme {
	case apimodel.AuthBearer:
		p.Line("// WithBearerToken authenticates requests with a bearer token.")
		p.Line("func WithBearerToken(token string) Option { return func(c *Client) { c.token = token } }")
		p.Blank()
	case apimodel.AuthBasic:
		p.Line("// WithBasicAuth authenticates requests with HTTP basic auth.")
		p.Line("func WithBasicAuth(username, password string) Option {")
		p.Line("return func(c *Client) { c.username, c.password = username, password }")
		p.Line("}")
		p.Blank()
	case apimodel.AuthAPIKey:
		p.Linef("// WithAPIKey authenticates requests with an API key sent in the %s %s.", auth.Name, auth.In)
		p.Line("func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }")
		p.Blank()
	}
	p.Line("// NewClient creates a Client for DefaultBaseURL.")
	p.Line("func NewClient(opts ...Option) *Client {")
	p.Line("c := &Client{BaseURL: DefaultBaseURL, HTTPClient: http.DefaultClient, Headers: make(http.Header)}")
	p.Line("for _, opt := range opts {")
	p.Line("opt(c)")
	p.Line("}")
	p.Line("return c")
	p.Line("}")
	p.Blank()
	p.Line("// APIError is returned for responses with a status of 400 or above.")
	p.Line("type APIError struct {")
	p.Line("StatusCode int")
	p.Line("Body       []byte")
	p.Line("}")
	p.Blank()
	p.Line("func (e *APIError) Error() string {")
	p.Line("body := string(e.Body)")
	p.Line("if len(body) > 200 {")
	p.Line("body = body[:200]")
	p.Line("}")
	p.Line("return fmt.Sprintf(\"http %d: %s\", e.StatusCode, body)")
	p.Line("}")
	p.Blank()
}

func (r *renderer) doMethod(p *emitter.Printer) {
	auth := r.plan.Auth
	p.Line("func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {")
	if auth.Scheme == apimodel.AuthAPIKey && auth.In == "query" {
		p.Line("if c.apiKey != \"\" {")
		p.Line("if query == nil {")
		p.Line("query = url.Values{}")
		p.Line("}")
		p.Linef("query.Set(%q, c.apiKey)", auth.Name)
		p.Line("}")
	}
	p.Line("u := strings.TrimRight(c.BaseURL, \"/\") + path")
	p.Line("if len(query) > 0 {")
	p.Line("u += \"?\" + query.Encode()")
	p.Line("}")
	p.Blank()
	p.Line("var reader io.Reader")
	p.Line("contentType := \"\"")
	p.Line("switch b := body.(type) {")
	p.Line("case nil:")
	p.Line("case url.Values:")
	p.Line("reader = strings.NewReader(b.Encode())")
	p.Line("contentType = \"application/x-www-form-urlencoded\"")
	p.Line("default:")
	p.Line("data, err := json.Marshal(b)")
	p.Line("if err != nil {")
	p.Line("return fmt.Errorf(\"encoding request body: %w\", err)")
	p.Line("}")
	p.Line("reader = bytes.NewReader(data)")
	p.Line("contentType = \"application/json\"")
	p.Line("}")
	p.Blank()
	p.Line("req, err := http.NewRequestWithContext(ctx, method, u, reader)")
	p.Line("if err != nil {")
	p.Line("return err")
	p.Line("}")
	p.Line("req.Header.Set(\"Accept\", \"application/json\")")
	p.Line("if contentType != \"\" {")
	p.Line("req.Header.Set(\"Content-Type\", contentType)")
	p.Line("}")
	p.Line("for k, vs := range c.Headers {")
	p.Line("req.Header[k] = append([]string(nil), vs...)")
	p.Line("}")
	switch {
	case auth.Scheme == apimodel.AuthBearer:
		p.Line("if c.token != \"\" {")
		p.Line("req.Header.Set(\"Authorization\", \"Bearer \"+c.token)")
		p.Line("}")
	case auth.Scheme == apimodel.AuthBasic:
		p.Line("if c.username != \"\" {")
		p.Line("req.SetBasicAuth(c.username, c.password)")
		p.Line("}")
	case auth.Scheme == apimodel.AuthAPIKey && auth.In == "header":
		p.Line("if c.apiKey != \"\" {")
		p.Linef("req.Header.Set(%q, c.apiKey)", auth.Name)
		p.Line("}")
	}
	p.Blank()
	p.Line("resp, err := c.HTTPClient.Do(req)")
	p.Line("if err != nil {")
	p.Line("return err")
	p.Line("}")
	p.Line("defer resp.Body.Close()")
	p.Blank()
	p.Line("data, err := io.ReadAll(resp.Body)")
	p.Line("if err != nil {")
	p.Line("return fmt.Errorf(\"reading response: %w\", err)")
	p.Line("}")
	p.Line("if resp.StatusCode >= 400 {")
	p.Line("return &APIError{StatusCode: resp.StatusCode, Body: data}")
	p.Line("}")
	p.Line("if out == nil || len(bytes.TrimSpace(data)) == 0 {")
	p.Line("return nil")
	p.Line("}")
	p.Line("if err := json.Unmarshal(data, out); err != nil {")
	p.Line("return fmt.Errorf(\"decoding response: %w\", err)")
	p.Line("}")
	p.Line("return nil")
	p.Line("}")
}

// queryField returns the struct field type of a query parameter.
func queryField(q *emitter.ParamDecl) string {
	t := goType(q.Type)
	if q.Repeated || q.Required {
		return t
	}
	return optional(t)
}

func (r *renderer) operation(p *emitter.Printer, op *emitter.Operation) {
	if op.QueryType != "" {
		p.Blank()
		p.Linef("// %s holds the query parameters of %s.", op.QueryType, op.Name)
		p.Linef("type %s struct {", op.QueryType)
		for _, q := range op.Query {
			p.Linef("%s %s", q.Member, queryField(q))
		}
		p.Line("}")
		p.Blank()
		p.Linef("func (p *%s) values() url.Values {", op.QueryType)
		p.Line("v := url.Values{}")
		p.Line("if p == nil {")
		p.Line("return v")
		p.Line("}")
		for _, q := range op.Query {
			t := queryField(q)
			switch {
			case q.Repeated:
				p.Linef("for _, x := range p.%s {", q.Member)
				p.Linef("v.Add(%q, fmt.Sprint(x))", q.Wire)
				p.Line("}")
			case strings.HasPrefix(t, "*"):
				p.Linef("if p.%s != nil {", q.Member)
				p.Linef("v.Set(%q, fmt.Sprint(*p.%s))", q.Wire, q.Member)
				p.Line("}")
			case nilable(t):
				p.Linef("if p.%s != nil {", q.Member)
				p.Linef("v.Set(%q, fmt.Sprint(p.%s))", q.Wire, q.Member)
				p.Line("}")
			default:
				p.Linef("v.Set(%q, fmt.Sprint(p.%s))", q.Wire, q.Member)
			}
		}
		p.Line("return v")
		p.Line("}")
	}

	args := []string{"ctx context.Context"}
	for _, pp := range op.PathParams {
		args = append(args, pp.Name+" "+goType(pp.Type))
	}
	if op.QueryType != "" {
		args = append(args, "params *"+op.QueryType)
	}
	bodyArg := ""
	if op.Body != nil {
		if op.BodyForm {
			bodyArg = "form"
			args = append(args, "form url.Values")
		} else {
			bodyArg = "body"
			t := goType(op.Body)
			if op.Body.Kind == emitter.RefNamed {
				t = optional(t)
			}
			args = append(args, "body "+t)
		}
	}

	var path []string
	for _, part := range op.PathParts {
		if part.Param != nil {
			path = append(path, fmt.Sprintf("url.PathEscape(fmt.Sprint(%s))", part.Param.Name))
			continue
		}
		path = append(path, strconv.Quote(part.Literal))
	}
	query := "nil"
	if op.QueryType != "" {
		query = "params.values()"
	}
	payload := "nil"
	if bodyArg != "" {
		payload = "payload"
	}
	call := func(out string) string {
		return fmt.Sprintf("c.do(ctx, %q, %s, %s, %s, %s)", op.Method, strings.Join(path, "+"), query, payload, out)
	}

	p.Blank()
	p.Linef("// %s calls %s.", op.Name, op.Doc[0])
	for _, d := range op.Doc[1:] {
		p.Line("//")
		p.Linef("// %s", d)
	}
	result := ""
	if op.Result != nil {
		result = goType(op.Result)
		if op.Result.Kind == emitter.RefNamed {
			result = optional(result)
		}
		p.Linef("func (c *Client) %s(%s) (%s, error) {", op.Name, strings.Join(args, ", "), result)
	} else {
		p.Linef("func (c *Client) %s(%s) error {", op.Name, strings.Join(args, ", "))
	}
	if bodyArg != "" {
		p.Line("var payload any")
		if t := goType(op.Body); op.BodyForm || nilable(t) || op.Body.Kind == emitter.RefNamed {
			p.Linef("if %s != nil {", bodyArg)
			p.Linef("payload = %s", bodyArg)
			p.Line("}")
		} else {
			p.Linef("payload = %s", bodyArg)
		}
	}
	if result == "" {
		p.Line("return " + call("nil"))
	} else {
		p.Linef("var out %s", result)
		p.Line("err := " + call("&out"))
		p.Line("return out, err")
	}
	p.Line("}")
}

func (r *renderer) readme(modulePath string) []byte {
	p := emitter.NewPrinter("")
	title := r.plan.Title
	p.Linef("# %s Go client", title)
	p.Blank()
	p.Linef("Generated by %s from captured traffic.", emitter.GeneratorName)
	p.Blank()
	p.Line("```go")
	p.Linef("import %s %q", r.pkg, modulePath)
	p.Blank()
	switch r.plan.Auth.Scheme {
	case apimodel.AuthBearer:
		p.Linef("c := %s.NewClient(%s.WithBearerToken(token))", r.pkg, r.pkg)
	case apimodel.AuthBasic:
		p.Linef("c := %s.NewClient(%s.WithBasicAuth(user, password))", r.pkg, r.pkg)
	case apimodel.AuthAPIKey:
		p.Linef("c := %s.NewClient(%s.WithAPIKey(key))", r.pkg, r.pkg)
	default:
		p.Linef("c := %s.NewClient()", r.pkg)
	}
	p.Line("```")
	p.Blank()
	p.Line("## Operations")
	p.Blank()
	p.Line("| Method | Request |")
	p.Line("|---|---|")
	for _, op := range r.plan.Operations {
		p.Linef("| `%s` | `%s` |", op.Name, op.Doc[0])
	}
	return p.Bytes()
}
