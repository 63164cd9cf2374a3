package typenode

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// FieldStat summarizes one field across the samples a schema was merged from.
type FieldStat struct {
	Path          string   `json:"path"` // e.g. "user.name", "items[].id"
	Type          string   `json:"type"`
	Frequency     float64  `json:"frequency"` // fraction of parent samples containing the field
	Required      bool     `json:"required"`
	Nullable      bool     `json:"nullable"`
	DistinctCount int      `json:"distinct_count"`
	Examples      []any    `json:"examples,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty"`
}

const (
	statsMaxDepth         = 5
	maxExamples           = 3
	maxExampleRunes       = 80
	minSamplesForEnum     = 5
	maxEnumDistinctValues = 10
)

// ComputeFieldStats walks an object schema and cross-references the decoded
// samples it was inferred from. Non-object schemas yield no stats.
func ComputeFieldStats(n *Node, samples []any) []FieldStat {
	if len(samples) == 0 {
		return nil
	}
	var stats []FieldStat
	walkStats(objectPart(n), "", samples, 0, &stats)
	return stats
}

// objectPart returns n itself for objects, the object branch of a union, or nil.
func objectPart(n *Node) *Node {
	switch n.Kind() {
	case KindObject:
		return n
	case KindUnion:
		for _, br := range n.branches {
			if br.kind == KindObject {
				return br
			}
		}
	}
	return nil
}

func walkStats(n *Node, path string, samples []any, depth int, stats *[]FieldStat) {
	if n == nil || depth > statsMaxDepth {
		return
	}
	for _, f := range n.fields {
		fieldPath := f.Name
		if path != "" {
			fieldPath = path + "." + f.Name
		}
		*stats = append(*stats, fieldStat(fieldPath, f, samples))

		if obj := objectPart(f.Type); obj != nil {
			walkStats(obj, fieldPath, nestedValues(f.Name, samples), depth+1, stats)
		}
		if elem := f.Type.Elem(); elem != nil {
			if obj := objectPart(elem); obj != nil {
				walkStats(obj, fieldPath+"[]", arrayItems(f.Name, samples), depth+1, stats)
			}
		}
	}
}

func fieldStat(path string, f Field, samples []any) FieldStat {
	stat := FieldStat{
		Path:     path,
		Type:     f.Type.String(),
		Required: f.Required,
		Nullable: f.Nullable(),
	}

	parents, present := 0, 0
	distinct := make(map[string]bool)
	var strs []string
	for _, s := range samples {
		obj, ok := s.(map[string]any)
		if !ok {
			continue
		}
		parents++
		val, exists := obj[f.Name]
		if !exists {
			continue
		}
		present++
		if val == nil {
			continue
		}
		key := fmt.Sprintf("%v", val)
		if distinct[key] {
			continue
		}
		distinct[key] = true
		switch v := val.(type) {
		case map[string]any, []any:
			// nested structure is described by child stats
		case string:
			strs = append(strs, v)
			if len(stat.Examples) < maxExamples {
				stat.Examples = append(stat.Examples, truncate(v))
			}
		default:
			if len(stat.Examples) < maxExamples {
				stat.Examples = append(stat.Examples, v)
			}
		}
	}

	if parents > 0 {
		stat.Frequency = float64(present) / float64(parents)
	}
	stat.DistinctCount = len(distinct)

	if f.Type.Kind() == KindString && f.Type.Format() == FormatNone &&
		present >= minSamplesForEnum && len(strs) <= maxEnumDistinctValues && len(strs) < present {
		stat.EnumValues = append([]string(nil), strs...)
		sort.Strings(stat.EnumValues)
	}
	return stat
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxExampleRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxExampleRunes]) + "…"
}

func nestedValues(name string, samples []any) []any {
	var out []any
	for _, s := range samples {
		if obj, ok := s.(map[string]any); ok {
			if v, exists := obj[name]; exists && v != nil {
				out = append(out, v)
			}
		}
	}
	return out
}

func arrayItems(name string, samples []any) []any {
	var out []any
	for _, s := range samples {
		obj, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if arr, ok := obj[name].([]any); ok {
			for _, item := range arr {
				if item != nil {
					out = append(out, item)
				}
			}
		}
	}
	return out
}
