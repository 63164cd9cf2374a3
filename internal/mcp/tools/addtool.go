package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// ValidateOutputSchema. It panics on a bad output type so the mistake
// surfaces at server start instead of on the first call.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// OutputSchemaError describes why a tool's output type does not agree with
// the schema the SDK infers for it.
type OutputSchemaError struct {
	Tool     string
	Type     reflect.Type
	Problems []string
}

func (e *OutputSchemaError) Error() string {
	return fmt.Sprintf("tool %q: output type %s: %s", e.Tool, e.Type, strings.Join(e.Problems, "; "))
}

// CheckOutputSchema panics with the error of ValidateOutputSchema.
func CheckOutputSchema[T any](tool string) {
	if err := ValidateOutputSchema[T](tool); err != nil {
		panic(err.Error())
	}
}

// ValidateOutputSchema reports output types whose JSON encoding disagrees with
// the schema the SDK infers from the Go type:
//
//   - fields with a custom JSON encoding (json.RawMessage, *typenode.Node,
//     apimodel values), which the SDK describes by their Go structure. Convert
//     them with types.ToAny and store them in an `any` field.
//   - a zero value that fails the inferred schema, usually a nil slice or map
//     encoded as null. Tag those fields omitzero.
//
// The untyped `any` output is always accepted. Inference failures are left for
// the SDK to report.
func ValidateOutputSchema[T any](tool string) error {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	fail := &OutputSchemaError{Tool: tool, Type: rt}

	for _, path := range customEncodings(rt) {
		fail.Problems = append(fail.Problems, fmt.Sprintf("%s has a custom JSON encoding; store types.ToAny(v) in an any field", path))
	}
	if len(fail.Problems) > 0 {
		return fail
	}

	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var zero any
	if err := json.Unmarshal(data, &zero); err != nil {
		return nil
	}
	if err := resolved.Validate(&zero); err != nil {
		fail.Problems = append(fail.Problems, fmt.Sprintf("zero value %s fails the inferred schema (%v); tag nil-able slices and maps omitzero", data, err))
		return fail
	}
	return nil
}

var marshalerType = reflect.TypeFor[json.Marshaler]()

func hasCustomEncoding(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
}

// customEncodings returns the dotted paths of every field, element or map
// value below t whose type marshals itself.
func customEncodings(t reflect.Type) []string {
	var found []string
	seen := make(map[reflect.Type]bool)

	var walk func(t reflect.Type, path string)
	walk = func(t reflect.Type, path string) {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if path != "" && hasCustomEncoding(t) {
			found = append(found, path)
			return
		}
		if seen[t] {
			return
		}
		seen[t] = true
		defer delete(seen, t)

		switch t.Kind() {
		case reflect.Struct:
			for i := range t.NumField() {
				f := t.Field(i)
				if !f.IsExported() {
					continue
				}
				walk(f.Type, joinPath(path, f.Name))
			}
		case reflect.Slice, reflect.Array:
			walk(t.Elem(), path+"[]")
		case reflect.Map:
			walk(t.Elem(), path+"[value]")
		}
	}
	walk(t, "")
	return found
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
