package typenode

import (
	"encoding/json"
	"fmt"
)

type wireNode struct {
	Kind     string      `json:"kind"`
	Format   string      `json:"format,omitempty"`
	Nullable bool        `json:"nullable,omitempty"`
	Items    *Node       `json:"items,omitempty"`
	Fields   []wireField `json:"fields,omitempty"`
	AnyOf    []*Node     `json:"anyOf,omitempty"`
}

type wireField struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Type     *Node  `json:"type"`
}

// MarshalJSON encodes the node in its canonical form.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		Kind:     n.Kind().String(),
		Format:   string(n.Format()),
		Nullable: n.nullable,
	}
	switch n.Kind() {
	case KindArray:
		w.Items = n.elem
	case KindObject:
		w.Fields = make([]wireField, len(n.fields))
		for i, f := range n.fields {
			w.Fields[i] = wireField{Name: f.Name, Required: f.Required, Type: f.Type}
		}
	case KindUnion:
		w.AnyOf = n.branches
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a node and re-canonicalizes it through the
// constructors, so hand-written input ends up in the same form Merge produces.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, ok := ParseKind(w.Kind)
	if !ok {
		return fmt.Errorf("typenode: unknown kind %q", w.Kind)
	}

	var built *Node
	switch kind {
	case KindUnknown:
		built = unknownNode
	case KindNull:
		built = nullNode
	case KindBoolean:
		built = boolNode
	case KindInteger:
		built = intNode
	case KindNumber:
		built = numNode
	case KindString:
		built = String(Format(w.Format))
	case KindArray:
		built = Array(w.Items)
	case KindObject:
		fields := make([]Field, len(w.Fields))
		for i, f := range w.Fields {
			fields[i] = Field{Name: f.Name, Type: f.Type, Required: f.Required}
		}
		built = Object(fields...)
	case KindUnion:
		built = MergeAll(w.AnyOf...)
	}
	*n = *built.WithNullable(w.Nullable || built.nullable)
	return nil
}
