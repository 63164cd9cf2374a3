// Package query selects captured exchanges with jq predicates.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// Filter is a compiled jq predicate over exchanges.
//
// The expression runs against the document built by Document. An exchange
// matches when any output is neither null nor false:
//
//	.status < 400 and (.path | startswith("/api"))
//	.response.body.items? | length > 0
type Filter struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Filter, error) {
	q, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Filter{expr: expression, code: code}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match reports whether the exchange satisfies the predicate. The first
// runtime error stops evaluation.
func (f *Filter) Match(ex *exchange.Exchange) (bool, error) {
	iter := f.code.Run(Document(ex))
	for {
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, err
		}
		if truthy(v) {
			return true, nil
		}
	}
}

// Select keeps the matching exchanges in order. An exchange whose evaluation
// fails is dropped and its error reported once per distinct message.
func (f *Filter) Select(exs []*exchange.Exchange) ([]*exchange.Exchange, []string) {
	var (
		out      []*exchange.Exchange
		errs     []string
		seenErrs = make(map[string]bool)
	)
	for i, ex := range exs {
		ok, err := f.Match(ex)
		if err != nil {
			label := ex.ID
			if label == "" {
				label = fmt.Sprintf("exchange[%d]", i)
			}
			msg := formatJQError(label, err)
			if !seenErrs[msg] {
				seenErrs[msg] = true
				errs = append(errs, msg)
			}
			continue
		}
		if ok {
			out = append(out, ex)
		}
	}
	return out, errs
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}

// Document renders an exchange as the jq input value. Header names are
// lower-cased and map to arrays of values; bodies are the decoded JSON when
// available, the raw text otherwise, and null when empty or binary.
func Document(ex *exchange.Exchange) map[string]any {
	query := make(map[string]any)
	for _, p := range ex.Query {
		vals, _ := query[p.Key].([]any)
		query[p.Key] = append(vals, p.Value)
	}

	doc := map[string]any{
		"id":       ex.ID,
		"method":   ex.Method,
		"scheme":   ex.Scheme,
		"host":     ex.Host,
		"path":     ex.Path,
		"url":      ex.BaseURL() + ex.Path,
		"status":   ex.Status,
		"query":    query,
		"request":  message(ex.RequestHeaders, ex.RequestBody),
		"response": message(ex.ResponseHeaders, ex.ResponseBody),
	}
	if !ex.Timestamp.IsZero() {
		doc["timestamp"] = ex.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return doc
}

func message(h exchange.Headers, b exchange.Body) map[string]any {
	headers := make(map[string]any)
	for _, hdr := range h {
		name := strings.ToLower(hdr.Name)
		vals, _ := headers[name].([]any)
		headers[name] = append(vals, hdr.Value)
	}

	var body any
	switch {
	case b.HasJSON:
		body = normalize(b.JSON)
	case b.Empty(), b.Category() == exchange.CategoryBinary:
	default:
		body = string(b.Raw)
	}
	return map[string]any{
		"headers":      headers,
		"content_type": b.ContentType,
		"body":         body,
	}
}

// normalize converts json.Number, which gojq does not accept, into int or
// float64.
func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil && int64(int(i)) == i {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// formatJQError adds a hint to common runtime errors.
//
// Runtime errors such as "cannot iterate over: null" are plain errors in
// gojq, so the hints match on the message text.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this exchange)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type, try adding '?')"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}
	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}
