// Package typescript emits a TypeScript client built on fetch, with
// interface models.
package typescript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// Language is the registry key of this backend.
const Language = "typescript"

var keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"let": true, "static": true, "yield": true, "await": true, "implements": true,
	"interface": true, "package": true, "private": true, "protected": true, "public": true,
}

var runtimeNames = []string{"Client", "ClientOptions", "APIError", "QueryValue"}

// Naming returns the TypeScript identifier rules.
func Naming() emitter.Naming {
	return emitter.Naming{
		Type:           ident.Pascal,
		Member:         ident.Camel,
		Method:         ident.Camel,
		Param:          ident.Camel,
		Keywords:       keywords,
		ReservedTypes:  runtimeNames,
		ReservedParams: []string{"body", "query"},
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Emitter renders TypeScript clients.
type Emitter struct{}

// New creates the TypeScript emitter.
func New() *Emitter { return &Emitter{} }

// Language implements emitter.Emitter.
func (*Emitter) Language() string { return Language }

// Emit implements emitter.Emitter.
func (*Emitter) Emit(m *apimodel.Model, opts emitter.Options) (*emitter.Output, error) {
	pkg := opts.PackageName
	if pkg == "" {
		pkg = emitter.PackageName(m.Title, "-")
	}
	version := opts.Version
	if version == "" {
		version = "0.1.0"
	}

	plan, warnings := emitter.Plan(m, Naming())
	r := &renderer{plan: plan}

	manifest, err := r.packageJSON(pkg, version)
	if err != nil {
		return nil, err
	}
	return &emitter.Output{
		Files: []emitter.File{
			{Path: "package.json", Content: manifest},
			{Path: "src/client.ts", Content: r.client()},
			{Path: "src/models.ts", Content: r.models()},
			{Path: "src/index.ts", Content: r.index()},
			{Path: "README.md", Content: r.readme(pkg)},
		},
		Warnings: warnings,
	}, nil
}

type renderer struct {
	plan *emitter.ClientPlan
}

func tsType(t *emitter.TypeRef) string {
	var s string
	switch t.Kind {
	case emitter.RefBool:
		s = "boolean"
	case emitter.RefInt, emitter.RefNumber:
		s = "number"
	case emitter.RefString:
		s = "string"
	case emitter.RefArray:
		elem := tsType(t.Elem)
		if strings.ContainsAny(elem, " |") {
			elem = "(" + elem + ")"
		}
		s = elem + "[]"
	case emitter.RefMap:
		s = "Record<string, unknown>"
	case emitter.RefNamed:
		s = t.Name
	case emitter.RefUnion:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = tsType(v)
		}
		s = strings.Join(parts, " | ")
	default:
		return "unknown"
	}
	if t.Nullable {
		return s + " | null"
	}
	return s
}

func propName(name string) string {
	if identPattern.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func header(p *emitter.Printer) {
	p.Line("// " + emitter.GeneratedHeader())
}

func (r *renderer) models() []byte {
	p := emitter.NewPrinter("  ")
	header(p)
	for _, t := range r.plan.Types {
		p.Blank()
		p.Linef("export interface %s {", t.Name)
		p.In()
		for _, f := range t.Fields {
			opt := ""
			if !f.Required {
				opt = "?"
			}
			p.Linef("%s%s: %s;", propName(f.JSONName), opt, tsType(f.Type))
		}
		p.Out()
		p.Line("}")
	}
	return p.Bytes()
}

func (r *renderer) index() []byte {
	p := emitter.NewPrinter("  ")
	header(p)
	p.Blank()
	p.Line(`export * from "./client";`)
	p.Line(`export * from "./models";`)
	return p.Bytes()
}

func (r *renderer) client() []byte {
	auth := r.plan.Auth
	p := emitter.NewPrinter("  ")
	header(p)
	p.Blank()
	if len(r.plan.Types) > 0 {
		names := make([]string, len(r.plan.Types))
		for i, t := range r.plan.Types {
			names[i] = t.Name
		}
		p.Line("import type {")
		p.In()
		for _, n := range names {
			p.Linef("%s,", n)
		}
		p.Out()
		p.Line(`} from "./models";`)
		p.Blank()
	}
	p.Linef("export const DEFAULT_BASE_URL = %s;", strconv.Quote(r.plan.BaseURL))
	p.Blank()
	p.Line("export class APIError extends Error {")
	p.In()
	p.Line("constructor(public readonly status: number, public readonly body: string) {")
	p.In()
	p.Line("super(`HTTP ${status}: ${body.slice(0, 200)}`);")
	p.Line(`this.name = "APIError";`)
	p.Out()
	p.Line("}")
	p.Out()
	p.Line("}")
	p.Blank()
	p.Line("export interface ClientOptions {")
	p.In()
	p.Line("baseUrl?: string;")
	p.Line("headers?: Record<string, string>;")
	p.Line("fetch?: typeof fetch;")
	p.Out()
	p.Line("}")
	p.Blank()
	p.Line("type QueryValue = string | number | boolean | null | undefined | Array<string | number | boolean>;")
	p.Blank()
	p.Line("export class Client {")
	p.In()
	p.Line("private readonly baseUrl: string;")
	p.Line("private readonly headers: Record<string, string>;")
	p.Line("private readonly fetchImpl: typeof fetch;")
	p.Line("private readonly authQuery: Record<string, string> = {};")
	p.Blank()
	p.Line("constructor(options: ClientOptions = {}) {")
	p.In()
	p.Line(`this.baseUrl = (options.baseUrl ?? DEFAULT_BASE_URL).replace(/\/+$/, "");`)
	p.Line("this.headers = { ...(options.headers ?? {}) };")
	p.Line("this.fetchImpl = options.fetch ?? fetch;")
	p.Out()
	p.Line("}")

	switch auth.Scheme {
	case apimodel.AuthBearer:
		p.Blank()
		p.Line("setBearerToken(token: string): void {")
		p.In()
		p.Line("this.headers[\"Authorization\"] = `Bearer ${token}`;")
		p.Out()
		p.Line("}")
	case apimodel.AuthBasic:
		p.Blank()
		p.Line("setBasicAuth(username: string, password: string): void {")
		p.In()
		p.Line("this.headers[\"Authorization\"] = `Basic ${btoa(`${username}:${password}`)}`;")
		p.Out()
		p.Line("}")
	case apimodel.AuthAPIKey:
		p.Blank()
		p.Line("setApiKey(key: string): void {")
		p.In()
		if auth.In == "query" {
			p.Linef("this.authQuery[%s] = key;", strconv.Quote(auth.Name))
		} else {
			p.Linef("this.headers[%s] = key;", strconv.Quote(auth.Name))
		}
		p.Out()
		p.Line("}")
	}

	p.Blank()
	p.Line("private async request<T>(method: string, path: string, query?: Record<string, QueryValue>, body?: unknown, form = false): Promise<T> {")
	p.In()
	p.Line("const url = new URL(this.baseUrl + path);")
	p.Line("for (const [key, value] of Object.entries({ ...(query ?? {}), ...this.authQuery })) {")
	p.In()
	p.Line("if (value === undefined || value === null) continue;")
	p.Line("if (Array.isArray(value)) {")
	p.In()
	p.Line("for (const item of value) url.searchParams.append(key, String(item));")
	p.Out()
	p.Line("} else {")
	p.In()
	p.Line("url.searchParams.set(key, String(value));")
	p.Out()
	p.Line("}")
	p.Out()
	p.Line("}")
	p.Line(`const headers: Record<string, string> = { Accept: "application/json", ...this.headers };`)
	p.Line("let payload: string | undefined;")
	p.Line("if (body !== undefined) {")
	p.In()
	p.Line("if (form) {")
	p.In()
	p.Line(`headers["Content-Type"] = "application/x-www-form-urlencoded";`)
	p.Line("payload = new URLSearchParams(body as Record<string, string>).toString();")
	p.Out()
	p.Line("} else {")
	p.In()
	p.Line(`headers["Content-Type"] = "application/json";`)
	p.Line("payload = JSON.stringify(body);")
	p.Out()
	p.Line("}")
	p.Out()
	p.Line("}")
	p.Line("const res = await this.fetchImpl(url.toString(), { method, headers, body: payload });")
	p.Line("const text = await res.text();")
	p.Line("if (!res.ok) throw new APIError(res.status, text);")
	p.Line("if (!text) return undefined as T;")
	p.Line(`const contentType = res.headers.get("content-type") ?? "";`)
	p.Line(`return (contentType.includes("json") ? JSON.parse(text) : text) as T;`)
	p.Out()
	p.Line("}")

	for _, op := range r.plan.Operations {
		r.operation(p, op)
	}
	p.Out()
	p.Line("}")
	return p.Bytes()
}

func (r *renderer) operation(p *emitter.Printer, op *emitter.Operation) {
	var args []string
	for _, pp := range op.PathParams {
		args = append(args, fmt.Sprintf("%s: %s", pp.Name, tsType(pp.Type)))
	}
	queryRequired := false
	for _, q := range op.Query {
		queryRequired = queryRequired || q.Required
	}
	if op.Body != nil {
		t := tsType(op.Body)
		if op.BodyForm {
			t = "Record<string, string>"
		}
		switch {
		case op.BodyRequired:
			args = append(args, "body: "+t)
		case queryRequired:
			// A required parameter cannot follow an optional one.
			args = append(args, "body: "+t+" | undefined")
		default:
			args = append(args, "body?: "+t)
		}
	}
	if len(op.Query) > 0 {
		props := make([]string, len(op.Query))
		for i, q := range op.Query {
			opt := "?"
			if q.Required {
				opt = ""
			}
			props[i] = fmt.Sprintf("%s%s: %s", q.Member, opt, tsType(q.Type))
		}
		arg := "query: { " + strings.Join(props, "; ") + " }"
		if !queryRequired {
			arg += " = {}"
		}
		args = append(args, arg)
	}
	result := "void"
	if op.Result != nil {
		result = tsType(op.Result)
	}

	var path strings.Builder
	path.WriteString("`")
	for _, part := range op.PathParts {
		if part.Param != nil {
			fmt.Fprintf(&path, "${encodeURIComponent(String(%s))}", part.Param.Name)
			continue
		}
		path.WriteString(strings.NewReplacer("`", "\\`", "${", "\\${").Replace(part.Literal))
	}
	path.WriteString("`")

	call := []string{strconv.Quote(op.Method), path.String()}
	if len(op.Query) > 0 {
		items := make([]string, len(op.Query))
		for i, q := range op.Query {
			items[i] = fmt.Sprintf("%s: query.%s", propName(q.Wire), q.Member)
		}
		call = append(call, "{ "+strings.Join(items, ", ")+" }")
	} else if op.Body != nil {
		call = append(call, "undefined")
	}
	if op.Body != nil {
		call = append(call, "body")
		if op.BodyForm {
			call = append(call, "true")
		}
	}

	p.Blank()
	p.Line("/**")
	for i, d := range op.Doc {
		if i > 0 {
			p.Line(" *")
		}
		p.Linef(" * %s", strings.ReplaceAll(d, "*/", "* /"))
	}
	p.Line(" */")
	p.Linef("async %s(%s): Promise<%s> {", op.Name, strings.Join(args, ", "), result)
	p.In()
	p.Linef("return this.request<%s>(%s);", result, strings.Join(call, ", "))
	p.Out()
	p.Line("}")
}

type packageManifest struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Main        string            `json:"main"`
	Types       string            `json:"types"`
	Scripts     map[string]string `json:"scripts"`
	DevDeps     map[string]string `json:"devDependencies"`
}

func (r *renderer) packageJSON(pkg, version string) ([]byte, error) {
	data, err := json.MarshalIndent(packageManifest{
		Name:        pkg,
		Version:     version,
		Description: "Client for " + r.plan.Title,
		Main:        "dist/index.js",
		Types:       "dist/index.d.ts",
		Scripts:     map[string]string{"build": "tsc"},
		DevDeps:     map[string]string{"typescript": "^5.4.0"},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding package.json: %w", err)
	}
	return append(data, '\n'), nil
}

func (r *renderer) readme(pkg string) []byte {
	p := emitter.NewPrinter("")
	p.Linef("# %s TypeScript client", r.plan.Title)
	p.Blank()
	p.Linef("Generated by %s from captured traffic.", emitter.GeneratorName)
	p.Blank()
	p.Line("```ts")
	p.Linef("import { Client } from %s;", strconv.Quote(pkg))
	p.Blank()
	p.Line("const client = new Client();")
	switch r.plan.Auth.Scheme {
	case apimodel.AuthBearer:
		p.Line(`client.setBearerToken("...");`)
	case apimodel.AuthBasic:
		p.Line(`client.setBasicAuth("user", "password");`)
	case apimodel.AuthAPIKey:
		p.Line(`client.setApiKey("...");`)
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
