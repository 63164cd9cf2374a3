// Package python emits a Python client library built on requests, with
// TypedDict models.
package python

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// Language is the registry key of this backend.
const Language = "python"

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true, "yield": true,
	"match": true, "case": true, "type": true,
}

var runtimeNames = []string{
	"Client", "APIError", "Any", "Dict", "List", "Optional", "Union", "TypedDict", "NotRequired",
}

// Naming returns the Python identifier rules.
func Naming() emitter.Naming {
	return emitter.Naming{
		Type:           ident.Pascal,
		Member:         ident.Snake,
		Method:         ident.Snake,
		Param:          ident.Snake,
		Keywords:       keywords,
		ReservedTypes:  runtimeNames,
		ReservedParams: []string{"self", "body", "params", "quote"},
		QueryArgs:      true,
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Emitter renders Python clients.
type Emitter struct{}

// New creates the Python emitter.
func New() *Emitter { return &Emitter{} }

// Language implements emitter.Emitter.
func (*Emitter) Language() string { return Language }

// Emit implements emitter.Emitter.
func (*Emitter) Emit(m *apimodel.Model, opts emitter.Options) (*emitter.Output, error) {
	pkg := opts.PackageName
	if pkg == "" {
		pkg = emitter.PackageName(m.Title, "_")
	}
	pkg = strings.ToLower(strings.NewReplacer("-", "_", ".", "_").Replace(pkg))
	if keywords[pkg] {
		pkg += "_client"
	}
	version := opts.Version
	if version == "" {
		version = "0.1.0"
	}

	plan, warnings := emitter.Plan(m, Naming())
	r := &renderer{plan: plan}

	return &emitter.Output{
		Files: []emitter.File{
			{Path: "pyproject.toml", Content: r.pyproject(pkg, version)},
			{Path: pkg + "/__init__.py", Content: r.init()},
			{Path: pkg + "/client.py", Content: r.client()},
			{Path: pkg + "/models.py", Content: r.models()},
			{Path: "README.md", Content: r.readme(pkg)},
		},
		Warnings: warnings,
	}, nil
}

type renderer struct {
	plan *emitter.ClientPlan
}

func pyType(t *emitter.TypeRef) string {
	var s string
	switch t.Kind {
	case emitter.RefBool:
		s = "bool"
	case emitter.RefInt:
		s = "int"
	case emitter.RefNumber:
		s = "float"
	case emitter.RefString:
		s = "str"
	case emitter.RefArray:
		s = "List[" + pyType(t.Elem) + "]"
	case emitter.RefMap:
		s = "Dict[str, Any]"
	case emitter.RefNamed:
		s = t.Name
	case emitter.RefUnion:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = pyType(v)
		}
		s = "Union[" + strings.Join(parts, ", ") + "]"
	default:
		return "Any"
	}
	if t.Nullable {
		return "Optional[" + s + "]"
	}
	return s
}

func header(p *emitter.Printer) {
	p.Line("# " + emitter.GeneratedHeader())
}

func (r *renderer) models() []byte {
	p := emitter.NewPrinter("    ")
	header(p)
	p.Blank()
	p.Line("from typing import Any, Dict, List, Optional, TypedDict, Union")
	p.Blank()
	p.Line("from typing_extensions import NotRequired")
	for _, t := range r.plan.Types {
		p.Blank()
		p.Blank()
		classSyntax := true
		for _, f := range t.Fields {
			if !identPattern.MatchString(f.JSONName) || keywords[f.JSONName] {
				classSyntax = false
			}
		}
		if classSyntax {
			p.Linef("class %s(TypedDict):", t.Name)
			p.In()
			if len(t.Fields) == 0 {
				p.Line("pass")
			}
			for _, f := range t.Fields {
				p.Linef("%s: %s", f.JSONName, fieldType(f))
			}
			p.Out()
			continue
		}
		p.Linef("%s = TypedDict(", t.Name)
		p.In()
		p.Linef("%s,", strconv.Quote(t.Name))
		p.Line("{")
		p.In()
		for _, f := range t.Fields {
			p.Linef("%s: %s,", strconv.Quote(f.JSONName), fieldType(f))
		}
		p.Out()
		p.Line("},")
		p.Out()
		p.Line(")")
	}
	return p.Bytes()
}

func fieldType(f emitter.FieldDecl) string {
	if f.Required {
		return pyType(f.Type)
	}
	return "NotRequired[" + pyType(f.Type) + "]"
}

func (r *renderer) init() []byte {
	p := emitter.NewPrinter("    ")
	header(p)
	p.Blank()
	p.Line("from .client import APIError, Client")
	p.Line("from .models import *  # noqa: F401,F403")
	p.Blank()
	p.Line(`__all__ = ["APIError", "Client"]`)
	return p.Bytes()
}

func (r *renderer) client() []byte {
	auth := r.plan.Auth
	p := emitter.NewPrinter("    ")
	header(p)
	p.Linef(`"""Client for %s."""`, strings.ReplaceAll(r.plan.Title, `"`, `'`))
	p.Blank()
	p.Line("from __future__ import annotations")
	p.Blank()
	p.Line("from typing import Any, Dict, List, Optional, Union")
	p.Line("from urllib.parse import quote")
	p.Blank()
	p.Line("import requests")
	p.Blank()
	if len(r.plan.Types) > 0 {
		names := make([]string, len(r.plan.Types))
		for i, t := range r.plan.Types {
			names[i] = t.Name
		}
		p.Line("from .models import (  # noqa: F401")
		p.In()
		for _, n := range names {
			p.Linef("%s,", n)
		}
		p.Out()
		p.Line(")")
		p.Blank()
	}
	p.Linef("DEFAULT_BASE_URL = %s", strconv.Quote(r.plan.BaseURL))
	p.Blank()
	p.Blank()
	p.Line("class APIError(Exception):")
	p.In()
	p.Line(`"""Raised for responses with a status of 400 or above."""`)
	p.Blank()
	p.Line("def __init__(self, status_code: int, body: str) -> None:")
	p.In()
	p.Line(`super().__init__(f"HTTP {status_code}: {body[:200]}")`)
	p.Line("self.status_code = status_code")
	p.Line("self.body = body")
	p.Out()
	p.Out()
	p.Blank()
	p.Blank()
	p.Line("class Client:")
	p.In()
	p.Line("def __init__(")
	p.In()
	p.Line("self,")
	p.Line("base_url: str = DEFAULT_BASE_URL,")
	p.Line("headers: Optional[Dict[str, str]] = None,")
	p.Line("session: Optional[requests.Session] = None,")
	p.Line("timeout: float = 30.0,")
	p.Out()
	p.Line(") -> None:")
	p.In()
	p.Line(`self.base_url = base_url.rstrip("/")`)
	p.Line("self.headers: Dict[str, str] = dict(headers or {})")
	p.Line("self.session = session or requests.Session()")
	p.Line("self.timeout = timeout")
	p.Line("self._auth_query: Dict[str, str] = {}")
	p.Out()

	switch auth.Scheme {
	case apimodel.AuthBearer:
		p.Blank()
		p.Line("def set_bearer_token(self, token: str) -> None:")
		p.In()
		p.Line(`self.headers["Authorization"] = f"Bearer {token}"`)
		p.Out()
	case apimodel.AuthBasic:
		p.Blank()
		p.Line("def set_basic_auth(self, username: str, password: str) -> None:")
		p.In()
		p.Line("self.session.auth = (username, password)")
		p.Out()
	case apimodel.AuthAPIKey:
		p.Blank()
		p.Line("def set_api_key(self, key: str) -> None:")
		p.In()
		if auth.In == "query" {
			p.Linef("self._auth_query[%s] = key", strconv.Quote(auth.Name))
		} else {
			p.Linef("self.headers[%s] = key", strconv.Quote(auth.Name))
		}
		p.Out()
	}

	p.Blank()
	p.Line("def _request(")
	p.In()
	p.Line("self,")
	p.Line("method: str,")
	p.Line("path: str,")
	p.Line("params: Optional[Dict[str, Any]] = None,")
	p.Line("json: Any = None,")
	p.Line("data: Any = None,")
	p.Out()
	p.Line(") -> Any:")
	p.In()
	p.Line("query = {k: v for k, v in (params or {}).items() if v is not None}")
	p.Line("query.update(self._auth_query)")
	p.Line("resp = self.session.request(")
	p.In()
	p.Line("method,")
	p.Line("self.base_url + path,")
	p.Line("params=query,")
	p.Line("json=json,")
	p.Line("data=data,")
	p.Line("headers=self.headers,")
	p.Line("timeout=self.timeout,")
	p.Out()
	p.Line(")")
	p.Line("if resp.status_code >= 400:")
	p.In()
	p.Line("raise APIError(resp.status_code, resp.text)")
	p.Out()
	p.Line("if not resp.content:")
	p.In()
	p.Line("return None")
	p.Out()
	p.Line(`if "json" in resp.headers.get("Content-Type", ""):`)
	p.In()
	p.Line("return resp.json()")
	p.Out()
	p.Line("return resp.text")
	p.Out()

	for _, op := range r.plan.Operations {
		r.operation(p, op)
	}
	p.Out()
	return p.Bytes()
}

func (r *renderer) operation(p *emitter.Printer, op *emitter.Operation) {
	args := []string{"self"}
	for _, pp := range op.PathParams {
		args = append(args, fmt.Sprintf("%s: %s", pp.Name, pyType(pp.Type)))
	}
	if op.Body != nil {
		t := pyType(op.Body)
		if op.BodyForm {
			t = "Dict[str, Any]"
		}
		if op.BodyRequired {
			args = append(args, "body: "+t)
		} else {
			args = append(args, fmt.Sprintf("body: Optional[%s] = None", t))
		}
	}
	if len(op.Query) > 0 {
		args = append(args, "*")
		for _, q := range op.Query {
			if q.Required {
				args = append(args, fmt.Sprintf("%s: %s", q.Name, pyType(q.Type)))
			} else {
				args = append(args, fmt.Sprintf("%s: Optional[%s] = None", q.Name, pyType(q.Type)))
			}
		}
	}
	result := "None"
	if op.Result != nil {
		result = pyType(op.Result)
	}

	var path strings.Builder
	path.WriteString("f\"")
	for _, part := range op.PathParts {
		if part.Param != nil {
			fmt.Fprintf(&path, "{quote(str(%s), safe='')}", part.Param.Name)
			continue
		}
		path.WriteString(strings.NewReplacer("{", "{{", "}", "}}", `"`, `\"`).Replace(part.Literal))
	}
	path.WriteString("\"")

	call := []string{strconv.Quote(op.Method), path.String()}
	if len(op.Query) > 0 {
		items := make([]string, len(op.Query))
		for i, q := range op.Query {
			items[i] = fmt.Sprintf("%s: %s", strconv.Quote(q.Wire), q.Name)
		}
		call = append(call, "params={"+strings.Join(items, ", ")+"}")
	}
	if op.Body != nil {
		if op.BodyForm {
			call = append(call, "data=body")
		} else {
			call = append(call, "json=body")
		}
	}

	p.Blank()
	p.Linef("def %s(%s) -> %s:", op.Name, strings.Join(args, ", "), result)
	p.In()
	p.Linef(`"""%s`, op.Doc[0])
	for _, d := range op.Doc[1:] {
		p.Blank()
		p.Linef("%s", strings.ReplaceAll(d, `"""`, `'''`))
	}
	p.Line(`"""`)
	p.Linef("return self._request(%s)", strings.Join(call, ", "))
	p.Out()
}

func (r *renderer) pyproject(pkg, version string) []byte {
	p := emitter.NewPrinter("")
	p.Line("[project]")
	p.Linef("name = %s", strconv.Quote(strings.ReplaceAll(pkg, "_", "-")))
	p.Linef("version = %s", strconv.Quote(version))
	p.Linef("description = %s", strconv.Quote("Client for "+r.plan.Title))
	p.Line(`requires-python = ">=3.9"`)
	p.Line(`dependencies = ["requests>=2.28", "typing_extensions>=4.0"]`)
	return p.Bytes()
}

func (r *renderer) readme(pkg string) []byte {
	p := emitter.NewPrinter("")
	p.Linef("# %s Python client", r.plan.Title)
	p.Blank()
	p.Linef("Generated by %s from captured traffic.", emitter.GeneratorName)
	p.Blank()
	p.Line("```python")
	p.Linef("from %s import Client", pkg)
	p.Blank()
	p.Line("client = Client()")
	switch r.plan.Auth.Scheme {
	case apimodel.AuthBearer:
		p.Line(`client.set_bearer_token("...")`)
	case apimodel.AuthBasic:
		p.Line(`client.set_basic_auth("user", "password")`)
	case apimodel.AuthAPIKey:
		p.Line(`client.set_api_key("...")`)
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
