package typenode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// InferOptions configures Infer.
type InferOptions struct {
	// MaxDepth bounds recursion into nested arrays and objects. Values nested
	// deeper are recorded as unknown.
	MaxDepth int
}

// DefaultInferOptions returns sensible defaults for inference.
func DefaultInferOptions() InferOptions {
	return InferOptions{MaxDepth: 32}
}

var (
	dateTimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?([Zz]|[+-]\d{2}:?\d{2})?$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Infer derives the structural type of a decoded JSON value using the default
// options. It never fails: values of unrecognized Go types become unknown.
func Infer(v any) *Node {
	return InferWith(v, DefaultInferOptions())
}

// InferWith is Infer with explicit options.
func InferWith(v any, opts InferOptions) *Node {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultInferOptions().MaxDepth
	}
	return inferValue(v, 0, opts)
}

// InferJSON decodes data and infers its type. Numbers are decoded as
// json.Number so 1 and 1.0 stay distinguishable.
func InferJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return Infer(v), nil
}

func inferValue(v any, depth int, opts InferOptions) *Node {
	if depth > opts.MaxDepth {
		return unknownNode
	}

	switch val := v.(type) {
	case nil:
		return nullNode
	case bool:
		return boolNode
	case json.Number:
		if isIntegerLiteral(string(val)) {
			return intNode
		}
		return numNode
	case float64:
		if !math.IsInf(val, 0) && !math.IsNaN(val) && val == math.Trunc(val) {
			return intNode
		}
		return numNode
	case float32:
		return inferValue(float64(val), depth, opts)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return intNode
	case string:
		return String(DetectFormat(val))
	case []any:
		elem := unknownNode
		for _, item := range val {
			elem = Merge(elem, inferValue(item, depth+1, opts))
		}
		return Array(elem)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{
				Name:     k,
				Type:     inferValue(val[k], depth+1, opts),
				Required: true,
			})
		}
		return &Node{kind: KindObject, fields: fields}
	default:
		return unknownNode
	}
}

func isIntegerLiteral(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".eE")
}

// DetectFormat returns the format hint for a string value, or FormatNone.
func DetectFormat(s string) Format {
	switch {
	case IsCanonicalUUID(s):
		return FormatUUID
	case dateTimeRegex.MatchString(s):
		return FormatDateTime
	case emailRegex.MatchString(s):
		return FormatEmail
	}
	return FormatNone
}

// IsCanonicalUUID reports whether s is a UUID in the 8-4-4-4-12 hex form.
// uuid.Parse alone also accepts braced, urn and undashed forms.
func IsCanonicalUUID(s string) bool {
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
