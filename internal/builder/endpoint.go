// Package builder folds detected endpoint groups into the finalized API
// model.
package builder

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// InferFunc maps a decoded JSON body to its type. Implementations must be
// pure; the pipeline plugs in a cached one.
type InferFunc func(body exchange.Body) *typenode.Node

// DefaultInfer infers straight from the decoded value.
func DefaultInfer(body exchange.Body) *typenode.Node {
	return typenode.Infer(body.JSON)
}

// Builder turns endpoint groups into endpoint specs.
type Builder struct {
	infer InferFunc
}

// New creates a Builder. A nil infer means DefaultInfer.
func New(infer InferFunc) *Builder {
	if infer == nil {
		infer = DefaultInfer
	}
	return &Builder{infer: infer}
}

// bodyFold accumulates the bodies of one side of an exchange set.
type bodyFold struct {
	node         *typenode.Node
	seen         int
	contentTypes map[string]int
	samples      []any
}

func newBodyFold() *bodyFold {
	return &bodyFold{node: typenode.Unknown(), contentTypes: make(map[string]int)}
}

// add folds one body and returns a warning for anomalies.
func (f *bodyFold) add(b *Builder, body exchange.Body) string {
	if body.Empty() {
		return ""
	}
	f.seen++
	if mt := exchange.MediaType(body.ContentType); mt != "" {
		f.contentTypes[mt]++
	}

	switch {
	case body.HasJSON:
		f.node = typenode.Merge(f.node, b.infer(body))
		f.samples = append(f.samples, body.JSON)
	case body.ParseErr != nil:
		return fmt.Sprintf("unparsable JSON body (%v)", body.ParseErr)
	case body.Category() == exchange.CategoryForm:
		f.node = typenode.Merge(f.node, inferForm(body.Raw))
	case body.Category() == exchange.CategoryText:
		f.node = typenode.Merge(f.node, typenode.String(typenode.FormatNone))
	}
	return ""
}

// result is nil when no body was ever seen.
func (f *bodyFold) result() *typenode.Node {
	if f.seen == 0 {
		return nil
	}
	return f.node
}

func (f *bodyFold) contentType() string {
	var top string
	var topCount int
	keys := make([]string, 0, len(f.contentTypes))
	for ct := range f.contentTypes {
		keys = append(keys, ct)
	}
	sort.Strings(keys)
	for _, ct := range keys {
		if f.contentTypes[ct] > topCount {
			top, topCount = ct, f.contentTypes[ct]
		}
	}
	return top
}

// inferForm types a urlencoded body as an object of scalar fields.
func inferForm(raw []byte) *typenode.Node {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return typenode.Unknown()
	}
	fields := make([]typenode.Field, 0, len(values))
	for name, vals := range values {
		t := typenode.Unknown()
		for _, v := range vals {
			t = typenode.Merge(t, InferScalar(v))
		}
		if len(vals) > 1 {
			t = typenode.Array(t)
		}
		fields = append(fields, typenode.Field{Name: name, Type: t, Required: true})
	}
	return typenode.Object(fields...)
}

// InferScalar types a textual value such as a query parameter.
func InferScalar(v string) *typenode.Node {
	switch {
	case v == "true" || v == "false":
		return typenode.Bool()
	case isInteger(v):
		return typenode.Int()
	case isNumber(v):
		return typenode.Num()
	default:
		return typenode.String(typenode.DetectFormat(v))
	}
}

func isInteger(v string) bool {
	if v == "" || len(v) > 18 {
		return false
	}
	// Leading zeros mark codes, not numbers.
	if len(v) > 1 && v[0] == '0' {
		return false
	}
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isNumber(v string) bool {
	if v == "" || strings.ContainsAny(v, "xXnN") {
		return false
	}
	if len(v) > 1 && v[0] == '0' && v[1] != '.' {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// BuildEndpoint folds every member of g into one endpoint spec. It is a pure
// function of the group: the same members always yield the same spec.
func (b *Builder) BuildEndpoint(g *catalog.Group) apimodel.Endpoint {
	ep := apimodel.Endpoint{
		ID:           g.ID,
		Method:       g.Method,
		PathTemplate: g.Template,
		PathParams:   g.Params,
		Category:     string(g.Category),
		SampleCount:  len(g.Members),
	}

	var warnings []string
	request := newBodyFold()
	responses := make(map[int]*bodyFold)
	for _, ex := range g.Members {
		if w := request.add(b, ex.RequestBody); w != "" {
			warnings = append(warnings, fmt.Sprintf("request %s: %s", exchangeRef(ex), w))
		}
		if ex.Status < 100 || ex.Status > 599 {
			warnings = append(warnings, fmt.Sprintf("response %s: invalid status code %d, sample skipped", exchangeRef(ex), ex.Status))
			continue
		}
		fold, ok := responses[ex.Status]
		if !ok {
			fold = newBodyFold()
			responses[ex.Status] = fold
		}
		if w := fold.add(b, ex.ResponseBody); w != "" {
			warnings = append(warnings, fmt.Sprintf("response %s: %s", exchangeRef(ex), w))
		}
	}

	ep.RequestBody = request.result()
	if ep.RequestBody != nil {
		ep.RequestBodyRequired = request.seen == len(g.Members)
		ep.RequestContentType = request.contentType()
		warnings = append(warnings, driftWarnings("request body", ep.RequestBody)...)
	}

	statuses := make([]int, 0, len(responses))
	for status := range responses {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fold := responses[status]
		resp := apimodel.Response{
			Status:      status,
			ContentType: fold.contentType(),
			Body:        fold.result(),
			SampleCount: responseSamples(g.Members, status),
		}
		ep.Responses = append(ep.Responses, resp)
		if resp.Body != nil {
			warnings = append(warnings, driftWarnings(fmt.Sprintf("response %d", status), resp.Body)...)
		}
	}
	if ep.Responses == nil {
		ep.Responses = []apimodel.Response{}
	}
	if success := ep.SuccessResponse(); success != nil && success.Body != nil {
		ep.ResponseFields = typenode.ComputeFieldStats(success.Body, responses[success.Status].samples)
	}

	ep.QueryParams = buildQueryParams(g.Members)
	ep.Auth = catalog.DetectAuth(g.Members)
	ep.RateLimitHeaders = catalog.DetectRateLimitHeaders(g.Members)
	ep.Warnings = warnings
	return ep
}

func responseSamples(members []*exchange.Exchange, status int) int {
	n := 0
	for _, ex := range members {
		if ex.Status == status {
			n++
		}
	}
	return n
}

func exchangeRef(ex *exchange.Exchange) string {
	if ex.ID != "" {
		return ex.ID
	}
	return ex.Method + " " + ex.Path
}

func driftWarnings(where string, n *typenode.Node) []string {
	var out []string
	for _, path := range typenode.Drift(n) {
		out = append(out, fmt.Sprintf("%s: schema drift at %s, samples disagree on type", where, path))
	}
	return out
}

func buildQueryParams(members []*exchange.Exchange) []apimodel.QueryParam {
	keys := catalog.AnalyzeQuery(members)
	if len(keys) == 0 {
		return nil
	}
	out := make([]apimodel.QueryParam, 0, len(keys))
	for _, k := range keys {
		t := typenode.Unknown()
		for _, v := range k.Values {
			t = typenode.Merge(t, InferScalar(v))
		}
		out = append(out, apimodel.QueryParam{
			Name:     k.Name,
			Type:     t,
			Required: k.Present == len(members),
			Repeated: k.Repeated,
			Volatile: k.Volatile,
		})
	}
	return out
}
