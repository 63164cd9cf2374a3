// Package apimodel is the finalized, emitter-agnostic description of an API
// reconstructed from traffic.
//
// A Model is the only artifact handed to code emitters and documentation
// renderers. It carries no reference to the captured exchanges it was built
// from, and it serializes to JSON deterministically: two runs over the same
// traffic produce byte-identical documents.
package apimodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// Version is the schema version written into every serialized Model.
const Version = "1"

// AuthScheme is the kind of credential a client must send.
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthBearer AuthScheme = "bearer"
	AuthAPIKey AuthScheme = "api-key"
	AuthBasic  AuthScheme = "basic"
)

// Auth describes a detected authentication signal. Credential values are
// never recorded, only where they travel.
type Auth struct {
	Scheme AuthScheme `json:"scheme"`
	// In is "header" or "query" for api-key schemes.
	In string `json:"in,omitempty"`
	// Name is the header or query parameter carrying an api key.
	Name string `json:"name,omitempty"`
}

// ParamKind is the inferred kind of a path parameter.
type ParamKind string

const (
	ParamInteger  ParamKind = "integer-id"
	ParamUUID     ParamKind = "uuid"
	ParamObjectID ParamKind = "object-id"
	ParamToken    ParamKind = "string-token"
)

// PathParam is a templated path segment.
type PathParam struct {
	Name string    `json:"name"`
	Kind ParamKind `json:"kind"`
	// Position is the zero-based segment index within the path template.
	Position int `json:"position"`
}

// QueryParam is a query key observed on an endpoint.
type QueryParam struct {
	Name     string         `json:"name"`
	Type     *typenode.Node `json:"type"`
	Required bool           `json:"required"`
	Repeated bool           `json:"repeated,omitempty"`
	// Volatile keys (cache busters, timestamps) are documented but not
	// exposed as client parameters.
	Volatile bool `json:"volatile,omitempty"`
}

// Response is the merged schema of every sample sharing a status code.
type Response struct {
	Status      int            `json:"status"`
	ContentType string         `json:"content_type,omitempty"`
	Body        *typenode.Node `json:"body,omitempty"`
	SampleCount int            `json:"sample_count"`
}

// Endpoint is one finalized route.
type Endpoint struct {
	ID            string       `json:"id"`
	OperationName string       `json:"operation_name"`
	Method        string       `json:"method"`
	PathTemplate  string       `json:"path_template"`
	PathParams    []PathParam  `json:"path_params,omitempty"`
	QueryParams   []QueryParam `json:"query_params,omitempty"`

	// RequestBody is nil when no sample carried a request body.
	RequestBody         *typenode.Node `json:"request_body,omitempty"`
	RequestBodyRequired bool           `json:"request_body_required,omitempty"`
	RequestContentType  string         `json:"request_content_type,omitempty"`

	// Responses are sorted by status code.
	Responses        []Response `json:"responses"`
	Auth             Auth       `json:"auth"`
	RateLimitHeaders []string   `json:"rate_limit_headers,omitempty"`
	Category         string     `json:"category"`
	SampleCount      int        `json:"sample_count"`

	ResponseFields []typenode.FieldStat `json:"response_fields,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// Model is the complete API description.
type Model struct {
	Version   string     `json:"version"`
	Title     string     `json:"title"`
	BaseURLs  []string   `json:"base_urls"`
	Auth      Auth       `json:"auth"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Marshal encodes the model as indented JSON terminated by a newline.
func (m *Model) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding api model: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a model produced by Marshal.
func Unmarshal(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding api model: %w", err)
	}
	if m.Version != "" && m.Version != Version {
		return nil, fmt.Errorf("unsupported api model version %q", m.Version)
	}
	return &m, nil
}

// Endpoint returns the endpoint with the given ID or operation name.
func (m *Model) Endpoint(ref string) (*Endpoint, bool) {
	for i := range m.Endpoints {
		if m.Endpoints[i].ID == ref || m.Endpoints[i].OperationName == ref {
			return &m.Endpoints[i], true
		}
	}
	return nil, false
}

// BaseURL returns the preferred base URL, or "" when none was observed.
func (m *Model) BaseURL() string {
	if len(m.BaseURLs) == 0 {
		return ""
	}
	return m.BaseURLs[0]
}

// Response returns the response for an exact status code.
func (e *Endpoint) Response(status int) (*Response, bool) {
	for i := range e.Responses {
		if e.Responses[i].Status == status {
			return &e.Responses[i], true
		}
	}
	return nil, false
}

// SuccessResponse returns the lowest 2xx response carrying a body, falling
// back to the lowest 2xx response, or nil.
func (e *Endpoint) SuccessResponse() *Response {
	var first *Response
	for i := range e.Responses {
		r := &e.Responses[i]
		if r.Status < 200 || r.Status >= 300 {
			continue
		}
		if r.Body != nil {
			return r
		}
		if first == nil {
			first = r
		}
	}
	return first
}

// ClientQueryParams returns the non-volatile query params.
func (e *Endpoint) ClientQueryParams() []QueryParam {
	var out []QueryParam
	for _, q := range e.QueryParams {
		if !q.Volatile {
			out = append(out, q)
		}
	}
	return out
}

// Segment is one element of a parsed path template.
type Segment struct {
	Literal string
	// Param is the parameter name when the segment is templated.
	Param string
}

// ParseTemplate splits "/users/{id}/posts" into its segments.
func ParseTemplate(template string) []Segment {
	var out []Segment
	for _, part := range strings.Split(template, "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			out = append(out, Segment{Param: part[1 : len(part)-1]})
			continue
		}
		out = append(out, Segment{Literal: part})
	}
	return out
}
