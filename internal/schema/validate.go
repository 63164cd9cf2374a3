// Package schema validates captured bodies against the JSON Schema exported
// for their merged type, as a conformance check on inference.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	ijs "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pjs "github.com/usestring/powhttp-sdkgen/pkg/jsonschema"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// Result is the outcome of validating one value.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator validates JSON data against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles an exported schema document.
func NewValidator(s *ijs.Schema) (*Validator, error) {
	if s == nil {
		return nil, errors.New("nil schema")
	}

	// Round trip through JSON to get the plain value the compiler expects.
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// NewNodeValidator compiles the schema exported for a merged type node.
func NewNodeValidator(n *typenode.Node) (*Validator, error) {
	return NewValidator(pjs.Document(n, ""))
}

// Validate validates raw JSON bytes.
func (v *Validator) Validate(data []byte) *Result {
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return &Result{Errors: []string{fmt.Sprintf("invalid JSON: %s", err)}}
	}
	return v.ValidateValue(value)
}

// ValidateValue validates an already decoded value. Numbers may be float64
// or json.Number.
func (v *Validator) ValidateValue(value any) *Result {
	if v == nil || v.schema == nil {
		return &Result{Errors: []string{"schema not compiled"}}
	}
	if err := v.schema.Validate(value); err != nil {
		return &Result{Errors: extractValidationErrors(err)}
	}
	return &Result{Valid: true}
}

// Conformance validates every sample against the schema of n and returns
// one message per failing sample, prefixed with where. A schema that fails
// to compile is reported as a single message.
func Conformance(where string, n *typenode.Node, samples []any) []string {
	if n == nil || len(samples) == 0 {
		return nil
	}
	v, err := NewNodeValidator(n)
	if err != nil {
		return []string{fmt.Sprintf("%s: schema export failed: %v", where, err)}
	}

	var out []string
	for i, sample := range samples {
		res := v.ValidateValue(sample)
		if res.Valid {
			continue
		}
		out = append(out, fmt.Sprintf("%s: sample %d does not conform: %s", where, i+1, strings.Join(res.Errors, "; ")))
	}
	return out
}

func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}
	return []string{err.Error()}
}

var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens leaf errors into "path: message" lines,
// deduplicated and sorted.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	seen := make(map[string]bool)
	var result []string
	for path, msgs := range errorsByPath {
		for _, msg := range msgs {
			line := msg
			if path != "" {
				line = path + ": " + msg
			}
			if !seen[line] {
				seen[line] = true
				result = append(result, line)
			}
		}
	}
	sort.Strings(result)
	return result
}

func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		// $ref and anyOf wrappers only point at their causes
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], msg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
