package emitter

import (
	"fmt"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// RefKind discriminates TypeRef.
type RefKind int

const (
	RefAny RefKind = iota
	RefBool
	RefInt
	RefNumber
	RefString
	RefArray
	// RefMap is an object observed without fields.
	RefMap
	// RefNamed points at a TypeDecl.
	RefNamed
	RefUnion
)

// TypeRef is a language-neutral type expression.
type TypeRef struct {
	Kind     RefKind
	Format   typenode.Format
	Nullable bool
	Elem     *TypeRef
	Name     string
	Variants []*TypeRef
}

// FieldDecl is one member of a named object type.
type FieldDecl struct {
	// Name is the identifier in the target language.
	Name string
	// JSONName is the key on the wire.
	JSONName string
	Type     *TypeRef
	Required bool
}

// TypeDecl is a named object type.
type TypeDecl struct {
	Name   string
	Fields []FieldDecl
}

// ParamDecl is a path or query parameter of an operation.
type ParamDecl struct {
	// Name is the parameter identifier; Member is the name used when the
	// parameter is a field of an options object.
	Name     string
	Member   string
	Wire     string
	Type     *TypeRef
	Required bool
	Repeated bool
}

// PathPart is a literal run of the path or a reference to a path parameter.
type PathPart struct {
	Literal string
	Param   *ParamDecl
}

// Operation is one client method.
type Operation struct {
	Name       string
	Words      []string
	Method     string
	Path       string
	PathParts  []PathPart
	PathParams []*ParamDecl
	Query      []*ParamDecl
	// QueryType names the options object for languages that declare one.
	QueryType    string
	Body         *TypeRef
	BodyRequired bool
	BodyForm     bool
	// Result is nil when no successful response carried a body.
	Result *TypeRef
	Doc    []string
}

// ClientPlan is the language-neutral shape of a client library.
type ClientPlan struct {
	Title   string
	BaseURL string
	Auth    apimodel.Auth
	// Types are in dependency order: every type follows the types it uses.
	Types      []*TypeDecl
	Operations []*Operation
}

// Naming is the per-language capability the planner needs: identifier
// casing and the words a language reserves.
type Naming struct {
	Type   func(words []string) string
	Member func(words []string) string
	Method func(words []string) string
	Param  func(words []string) string
	// Keywords cannot be used as identifiers and get a trailing underscore.
	Keywords map[string]bool
	// ReservedTypes are type names the client runtime declares itself.
	ReservedTypes []string
	// ReservedParams are parameter names the generated methods use.
	ReservedParams []string
	// QueryArgs is set when query parameters become method arguments
	// rather than members of an options object, so their names are
	// keyword-escaped like path parameters.
	QueryArgs bool
}

type planner struct {
	naming   Naming
	types    *ident.Registry
	plan     *ClientPlan
	warnings []string
}

// Plan resolves names and types for every endpoint of m. Identifier
// collisions are resolved deterministically and keyword renames are
// reported as warnings.
func Plan(m *apimodel.Model, n Naming) (*ClientPlan, []string) {
	p := &planner{
		naming: n,
		types:  ident.NewRegistry(n.ReservedTypes...),
		plan: &ClientPlan{
			Title:   m.Title,
			BaseURL: m.BaseURL(),
			Auth:    m.Auth,
		},
	}
	methods := ident.NewRegistry()
	for i := range m.Endpoints {
		p.plan.Operations = append(p.plan.Operations, p.operation(&m.Endpoints[i], methods))
	}
	return p.plan, p.warnings
}

// escape appends "_" to keywords.
func (p *planner) escape(name, what string) string {
	if name == "" {
		name = "value"
	}
	if p.naming.Keywords[name] {
		p.warnings = append(p.warnings, fmt.Sprintf("%s %q is a reserved word, renamed to %q", what, name, name+"_"))
		return name + "_"
	}
	return name
}

// member names a struct field or object property. Members are never
// keyword-escaped: Go fields are exported, TypeScript allows keywords as
// property names, and Python types and calls use the wire names.
func member(name string) string {
	if name == "" {
		return "value"
	}
	return name
}

// identWords splits a wire name into identifier words; names starting with
// a digit get a letter prefix.
func identWords(s string) []string {
	words := ident.Words(s)
	if len(words) == 0 {
		return []string{"value"}
	}
	if ident.StartsWithDigit(words[0]) {
		words = append([]string{"n"}, words...)
	}
	return words
}

func (p *planner) operation(ep *apimodel.Endpoint, methods *ident.Registry) *Operation {
	words := strings.Split(ep.OperationName, "_")
	op := &Operation{
		Words:  words,
		Method: ep.Method,
		Path:   ep.PathTemplate,
	}
	op.Name = methods.Claim(p.escape(p.naming.Method(words), "operation"))
	op.Doc = append(op.Doc, fmt.Sprintf("%s %s", ep.Method, ep.PathTemplate))

	params := ident.NewRegistry(p.naming.ReservedParams...)
	byName := make(map[string]*ParamDecl)
	for _, pp := range ep.PathParams {
		decl := &ParamDecl{
			Wire:     pp.Name,
			Type:     pathParamType(pp.Kind),
			Required: true,
		}
		decl.Name = params.Claim(p.escape(p.naming.Param(identWords(pp.Name)), "parameter"))
		decl.Member = decl.Name
		op.PathParams = append(op.PathParams, decl)
		byName[pp.Name] = decl
	}

	var literal strings.Builder
	for _, seg := range apimodel.ParseTemplate(ep.PathTemplate) {
		literal.WriteString("/")
		if seg.Param == "" {
			literal.WriteString(seg.Literal)
			continue
		}
		op.PathParts = append(op.PathParts, PathPart{Literal: literal.String()})
		literal.Reset()
		op.PathParts = append(op.PathParts, PathPart{Param: byName[seg.Param]})
	}
	if literal.Len() > 0 || len(op.PathParts) == 0 {
		if literal.Len() == 0 {
			literal.WriteString("/")
		}
		op.PathParts = append(op.PathParts, PathPart{Literal: literal.String()})
	}

	members := ident.NewRegistry()
	for _, q := range ep.ClientQueryParams() {
		t := p.ref(q.Type, nil)
		if q.Repeated {
			t = &TypeRef{Kind: RefArray, Elem: t}
		}
		w := identWords(q.Name)
		name := p.naming.Param(w)
		if p.naming.QueryArgs {
			name = p.escape(name, "parameter")
		}
		op.Query = append(op.Query, &ParamDecl{
			Name:     params.Claim(name),
			Member:   members.Claim(member(p.naming.Member(w))),
			Wire:     q.Name,
			Type:     t,
			Required: q.Required,
			Repeated: q.Repeated,
		})
	}
	if len(op.Query) > 0 {
		op.QueryType = p.types.Claim(p.naming.Type(append(append([]string{}, words...), "params")))
	}

	if ep.RequestBody != nil {
		op.Body = p.ref(ep.RequestBody, append(append([]string{}, words...), "request"))
		op.BodyRequired = ep.RequestBodyRequired
		op.BodyForm = ep.RequestContentType == "application/x-www-form-urlencoded"
	}
	if resp := ep.SuccessResponse(); resp != nil && resp.Body != nil {
		op.Result = p.ref(resp.Body, append(append([]string{}, words...), "response"))
	}

	if ep.SampleCount > 0 {
		op.Doc = append(op.Doc, fmt.Sprintf("Observed in %d captured exchanges.", ep.SampleCount))
	}
	for _, w := range ep.Warnings {
		op.Doc = append(op.Doc, "Note: "+w)
	}
	return op
}

func pathParamType(k apimodel.ParamKind) *TypeRef {
	if k == apimodel.ParamInteger {
		return &TypeRef{Kind: RefInt}
	}
	return &TypeRef{Kind: RefString}
}

// ref converts a type node. words seeds the name of any object type
// declared on the way; nil means objects are not named (query params).
func (p *planner) ref(n *typenode.Node, words []string) *TypeRef {
	r := &TypeRef{Nullable: n.Nullable()}
	switch n.Kind() {
	case typenode.KindBoolean:
		r.Kind = RefBool
	case typenode.KindInteger:
		r.Kind = RefInt
	case typenode.KindNumber:
		r.Kind = RefNumber
	case typenode.KindString:
		r.Kind = RefString
		r.Format = n.Format()
	case typenode.KindArray:
		r.Kind = RefArray
		r.Elem = p.ref(n.Elem(), append(append([]string{}, words...), "item"))
	case typenode.KindObject:
		if len(n.Fields()) == 0 || words == nil {
			r.Kind = RefMap
			return r
		}
		r.Kind = RefNamed
		r.Name = p.declare(n, words)
	case typenode.KindUnion:
		r.Kind = RefUnion
		hasNumber := false
		for _, br := range n.Branches() {
			hasNumber = hasNumber || br.Kind() == typenode.KindNumber
		}
		for _, br := range n.Branches() {
			// every target's number type also holds integers
			if hasNumber && br.Kind() == typenode.KindInteger {
				continue
			}
			r.Variants = append(r.Variants, p.ref(br, words))
		}
		if len(r.Variants) == 1 {
			v := r.Variants[0]
			v.Nullable = r.Nullable
			return v
		}
	default:
		r.Kind = RefAny
	}
	return r
}

// declare names an object type before its fields are resolved and appends
// it after, so nested types precede their parents.
func (p *planner) declare(n *typenode.Node, words []string) string {
	name := p.types.Claim(p.escape(p.naming.Type(words), "type"))
	decl := &TypeDecl{Name: name}
	members := ident.NewRegistry()
	for _, f := range n.Fields() {
		fw := identWords(f.Name)
		decl.Fields = append(decl.Fields, FieldDecl{
			Name:     members.Claim(member(p.naming.Member(fw))),
			JSONName: f.Name,
			Type:     p.ref(f.Type, append(append([]string{}, words...), fw...)),
			Required: f.Required,
		})
	}
	p.plan.Types = append(p.plan.Types, decl)
	return name
}

// Type returns the declaration with the given name.
func (c *ClientPlan) Type(name string) (*TypeDecl, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
