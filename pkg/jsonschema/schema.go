// Package jsonschema exports merged type nodes as JSON Schema documents.
// It generates schemas following JSON Schema Draft 2020-12.
package jsonschema

import (
	"github.com/invopop/jsonschema"

	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// FromNode converts a type node into a JSON Schema.
//
// Nullable nodes become anyOf [X, {type: null}], unions become anyOf over
// their branches, and unknown positions become the empty schema, which
// matches anything. A nil node also yields the empty schema.
func FromNode(n *typenode.Node) *jsonschema.Schema {
	if n == nil {
		return anything()
	}

	if n.Kind() == typenode.KindUnion {
		branches := n.Branches()
		s := &jsonschema.Schema{AnyOf: make([]*jsonschema.Schema, 0, len(branches)+1)}
		for _, br := range branches {
			s.AnyOf = append(s.AnyOf, FromNode(br))
		}
		if n.Nullable() {
			s.AnyOf = append(s.AnyOf, &jsonschema.Schema{Type: "null"})
		}
		return s
	}

	s := fromKind(n)
	if n.Nullable() && n.Kind() != typenode.KindNull && n.Kind() != typenode.KindUnknown {
		return &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{s, {Type: "null"}},
		}
	}
	return s
}

func fromKind(n *typenode.Node) *jsonschema.Schema {
	switch n.Kind() {
	case typenode.KindNull:
		return &jsonschema.Schema{Type: "null"}
	case typenode.KindBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case typenode.KindInteger:
		return &jsonschema.Schema{Type: "integer"}
	case typenode.KindNumber:
		return &jsonschema.Schema{Type: "number"}
	case typenode.KindString:
		return &jsonschema.Schema{Type: "string", Format: string(n.Format())}
	case typenode.KindArray:
		s := &jsonschema.Schema{Type: "array"}
		// An empty array never told us its element type.
		if elem := n.Elem(); elem.Kind() != typenode.KindUnknown {
			s.Items = FromNode(elem)
		}
		return s
	case typenode.KindObject:
		s := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		for _, f := range n.Fields() {
			s.Properties.Set(f.Name, FromNode(f.Type))
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s
	default:
		return anything()
	}
}

// anything is the empty schema. invopop encodes a zero Schema as the boolean
// schema true; a non-nil Extras map keeps the object form {}.
func anything() *jsonschema.Schema {
	return &jsonschema.Schema{Extras: map[string]any{}}
}

// Document wraps FromNode with the draft identifier and an optional title,
// producing a standalone schema document.
func Document(n *typenode.Node, title string) *jsonschema.Schema {
	s := FromNode(n)
	s.Version = jsonschema.Version
	s.Title = title
	return s
}
