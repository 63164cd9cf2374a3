// Package docs renders the API model as documentation: an OpenAPI 3.1
// document and a Markdown reference.
package docs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
	pjs "github.com/usestring/powhttp-sdkgen/pkg/jsonschema"
)

// OpenAPIVersion is the version written to the openapi field.
const OpenAPIVersion = "3.1.0"

// Document is the root of an OpenAPI 3.1 description.
//
// See: https://spec.openapis.org/oas/v3.1.0#openapi-object
type Document struct {
	OpenAPI           string                `json:"openapi"`
	Info              Info                  `json:"info"`
	JSONSchemaDialect string                `json:"jsonSchemaDialect,omitempty"`
	Servers           []Server              `json:"servers,omitempty"`
	Paths             map[string]*PathItem  `json:"paths"`
	Components        *Components           `json:"components,omitempty"`
	Security          []SecurityRequirement `json:"security,omitempty"`
}

// Info carries the document metadata.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Server is one base URL the API was observed on.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem holds the operations of one path template.
type PathItem struct {
	Get     *Operation `json:"get,omitempty"`
	Put     *Operation `json:"put,omitempty"`
	Post    *Operation `json:"post,omitempty"`
	Delete  *Operation `json:"delete,omitempty"`
	Options *Operation `json:"options,omitempty"`
	Head    *Operation `json:"head,omitempty"`
	Patch   *Operation `json:"patch,omitempty"`
	Trace   *Operation `json:"trace,omitempty"`
}

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId,omitempty"`
	Parameters  []*Parameter          `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]*Response  `json:"responses"`
	Security    []SecurityRequirement `json:"security,omitempty"`
}

// Parameter is a path or query parameter.
type Parameter struct {
	Name        string             `json:"name"`
	In          string             `json:"in"`
	Description string             `json:"description,omitempty"`
	Required    bool               `json:"required,omitempty"`
	Schema      *jsonschema.Schema `json:"schema,omitempty"`
}

// RequestBody describes the body sent with an operation.
type RequestBody struct {
	Required bool                  `json:"required,omitempty"`
	Content  map[string]*MediaType `json:"content"`
}

// Response describes one observed status code.
type Response struct {
	Description string                `json:"description"`
	Headers     map[string]*Header    `json:"headers,omitempty"`
	Content     map[string]*MediaType `json:"content,omitempty"`
}

// MediaType pairs a content type with its schema.
type MediaType struct {
	Schema *jsonschema.Schema `json:"schema,omitempty"`
}

// Header describes a response header.
type Header struct {
	Description string             `json:"description,omitempty"`
	Schema      *jsonschema.Schema `json:"schema,omitempty"`
}

// Components holds reusable objects. Only security schemes are emitted;
// body schemas are inlined per operation.
type Components struct {
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme describes how requests authenticate.
type SecurityScheme struct {
	Type   string `json:"type"`
	Scheme string `json:"scheme,omitempty"`
	Name   string `json:"name,omitempty"`
	In     string `json:"in,omitempty"`
}

// SecurityRequirement maps a scheme name to its scopes. An empty
// requirement makes authentication optional.
type SecurityRequirement map[string][]string

// OpenAPI converts the model into an OpenAPI 3.1 document. The result only
// depends on the model, so equal models render byte-identical documents.
func OpenAPI(m *apimodel.Model) *Document {
	title := m.Title
	if title == "" {
		title = "API"
	}
	doc := &Document{
		OpenAPI: OpenAPIVersion,
		Info: Info{
			Title:       title,
			Description: "Inferred from captured HTTP traffic.",
			Version:     "0.1.0",
		},
		JSONSchemaDialect: jsonschema.Version,
		Paths:             make(map[string]*PathItem),
	}
	for _, u := range m.BaseURLs {
		doc.Servers = append(doc.Servers, Server{URL: u})
	}

	schemes := make(map[string]*SecurityScheme)
	global := securityName(m.Auth)
	if global != "" {
		schemes[global] = securityScheme(m.Auth)
		doc.Security = []SecurityRequirement{{global: {}}}
	}

	for i := range m.Endpoints {
		ep := &m.Endpoints[i]
		op := operation(ep)

		name := securityName(ep.Auth)
		switch {
		case name == global:
		case name == "":
			op.Security = []SecurityRequirement{{}}
		default:
			schemes[name] = securityScheme(ep.Auth)
			op.Security = []SecurityRequirement{{name: {}}}
		}

		item := doc.Paths[ep.PathTemplate]
		if item == nil {
			item = &PathItem{}
			doc.Paths[ep.PathTemplate] = item
		}
		item.set(ep.Method, op)
	}

	if len(schemes) > 0 {
		doc.Components = &Components{SecuritySchemes: schemes}
	}
	return doc
}

func (p *PathItem) set(method string, op *Operation) {
	switch method {
	case http.MethodGet:
		p.Get = op
	case http.MethodPut:
		p.Put = op
	case http.MethodPost:
		p.Post = op
	case http.MethodDelete:
		p.Delete = op
	case http.MethodOptions:
		p.Options = op
	case http.MethodHead:
		p.Head = op
	case http.MethodPatch:
		p.Patch = op
	case http.MethodTrace:
		p.Trace = op
	}
}

func operation(ep *apimodel.Endpoint) *Operation {
	op := &Operation{
		Summary:     ep.Method + " " + ep.PathTemplate,
		OperationID: ep.OperationName,
		Responses:   make(map[string]*Response),
	}
	desc := []string{fmt.Sprintf("Observed in %d captured exchanges.", ep.SampleCount)}
	for _, w := range ep.Warnings {
		desc = append(desc, "Note: "+w)
	}
	op.Description = strings.Join(desc, "\n\n")

	for _, p := range ep.PathParams {
		op.Parameters = append(op.Parameters, &Parameter{
			Name:     p.Name,
			In:       "path",
			Required: true,
			Schema:   pathParamSchema(p.Kind),
		})
	}
	for _, q := range ep.QueryParams {
		s := pjs.FromNode(q.Type)
		if q.Repeated {
			s = &jsonschema.Schema{Type: "array", Items: s}
		}
		param := &Parameter{Name: q.Name, In: "query", Required: q.Required, Schema: s}
		if q.Volatile {
			param.Description = "Changes on every request; clients need not send it."
		}
		op.Parameters = append(op.Parameters, param)
	}

	if ep.RequestBody != nil {
		op.RequestBody = &RequestBody{
			Required: ep.RequestBodyRequired,
			Content: map[string]*MediaType{
				contentType(ep.RequestContentType): {Schema: pjs.FromNode(ep.RequestBody)},
			},
		}
	}

	for _, r := range ep.Responses {
		resp := &Response{Description: statusDescription(r.Status)}
		if r.Body != nil {
			resp.Content = map[string]*MediaType{
				contentType(r.ContentType): {Schema: pjs.FromNode(r.Body)},
			}
		}
		if len(ep.RateLimitHeaders) > 0 {
			resp.Headers = make(map[string]*Header, len(ep.RateLimitHeaders))
			for _, h := range ep.RateLimitHeaders {
				resp.Headers[h] = &Header{
					Description: "Rate limiting signal.",
					Schema:      &jsonschema.Schema{Type: "string"},
				}
			}
		}
		op.Responses[strconv.Itoa(r.Status)] = resp
	}
	if len(op.Responses) == 0 {
		op.Responses["default"] = &Response{Description: "No response was captured."}
	}
	return op
}

func pathParamSchema(kind apimodel.ParamKind) *jsonschema.Schema {
	switch kind {
	case apimodel.ParamInteger:
		return &jsonschema.Schema{Type: "integer"}
	case apimodel.ParamUUID:
		return &jsonschema.Schema{Type: "string", Format: "uuid"}
	case apimodel.ParamObjectID:
		return &jsonschema.Schema{Type: "string", Pattern: "^[0-9a-fA-F]{24}$"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

func contentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}

// securityName returns the components key for an auth signal, or "" for none.
func securityName(a apimodel.Auth) string {
	switch a.Scheme {
	case apimodel.AuthBearer:
		return "bearerAuth"
	case apimodel.AuthBasic:
		return "basicAuth"
	case apimodel.AuthAPIKey:
		return "apiKey" + ident.Pascal(ident.Words(a.In+" "+a.Name))
	default:
		return ""
	}
}

func securityScheme(a apimodel.Auth) *SecurityScheme {
	switch a.Scheme {
	case apimodel.AuthBearer:
		return &SecurityScheme{Type: "http", Scheme: "bearer"}
	case apimodel.AuthBasic:
		return &SecurityScheme{Type: "http", Scheme: "basic"}
	default:
		in := a.In
		if in == "" {
			in = "header"
		}
		return &SecurityScheme{Type: "apiKey", Name: a.Name, In: in}
	}
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding openapi document: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML renders the document as YAML with the same key order as JSON.
// JSON is valid YAML, so the JSON rendering is decoded into a node tree and
// re-encoded in block style.
func (d *Document) YAML() ([]byte, error) {
	data, err := d.JSON()
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding openapi json as yaml: %w", err)
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding openapi yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding openapi yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// resetStyle drops the flow and quoting styles inherited from JSON.
func resetStyle(n *yaml.Node) {
	n.Style = 0
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && needsQuoting(n.Value) {
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// needsQuoting reports whether a plain scalar would be read back as
// something other than the same string.
func needsQuoting(s string) bool {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return true
	}
	str, ok := v.(string)
	return !ok || str != s
}
