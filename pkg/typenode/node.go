// Package typenode describes the structure of JSON values and folds many
// observations of the same value position into one schema.
//
// A *Node is a tagged variant: the Kind selects which payload is meaningful.
// Nodes are immutable. Every operation that combines nodes allocates a new
// one, so a node can be shared across goroutines without locking.
//
// The merge operation is associative, commutative and idempotent; unknown is
// its identity element. Callers can therefore fold samples in any order or
// in parallel and obtain structurally identical results.
package typenode

import (
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Node.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNull
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindArray
	KindObject
	KindUnion
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindNumber:  "number",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// Format is an optional hint refining a string kind.
type Format string

const (
	FormatNone     Format = ""
	FormatDateTime Format = "date-time"
	FormatEmail    Format = "email"
	FormatUUID     Format = "uuid"
)

// Node is an immutable structural description of a JSON value.
type Node struct {
	kind     Kind
	format   Format
	nullable bool
	elem     *Node
	fields   []Field
	branches []*Node
}

// Field is one property of an object node.
type Field struct {
	Name string
	Type *Node
	// Required is true only if the field was present in every merged sample.
	Required bool
}

// Nullable reports whether null was observed for the field.
func (f Field) Nullable() bool { return f.Type.Nullable() }

// IsUnion reports whether no single kind explained every observed value.
func (f Field) IsUnion() bool { return f.Type.Kind() == KindUnion }

var (
	unknownNode = &Node{kind: KindUnknown}
	nullNode    = &Node{kind: KindNull}
	boolNode    = &Node{kind: KindBoolean}
	intNode     = &Node{kind: KindInteger}
	numNode     = &Node{kind: KindNumber}
)

// Unknown returns the node for a value whose shape was never observed,
// such as the element of an empty array.
func Unknown() *Node { return unknownNode }

// Null returns the node for a literal null.
func Null() *Node { return nullNode }

// Bool returns a boolean node.
func Bool() *Node { return boolNode }

// Int returns an integer node.
func Int() *Node { return intNode }

// Num returns a number node.
func Num() *Node { return numNode }

// String returns a string node with an optional format hint.
func String(f Format) *Node { return &Node{kind: KindString, format: f} }

// Array returns an array node. A nil element means unknown.
func Array(elem *Node) *Node {
	if elem == nil {
		elem = unknownNode
	}
	return &Node{kind: KindArray, elem: elem}
}

// Object returns an object node. Fields are sorted by name; duplicate names
// are merged with Merge and stay required only if every copy was.
func Object(fields ...Field) *Node {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			f.Type = unknownNode
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	dedup := out[:0]
	for _, f := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Name == f.Name {
			dedup[n-1] = Field{
				Name:     f.Name,
				Type:     Merge(dedup[n-1].Type, f.Type),
				Required: dedup[n-1].Required && f.Required,
			}
			continue
		}
		dedup = append(dedup, f)
	}
	return &Node{kind: KindObject, fields: dedup}
}

// Union returns the merge of all given nodes. The result is a union only when
// the nodes span more than one kind.
func Union(nodes ...*Node) *Node { return MergeAll(nodes...) }

// Kind returns the variant discriminator.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindUnknown
	}
	return n.kind
}

// Format returns the string format hint, if any.
func (n *Node) Format() Format {
	if n == nil {
		return FormatNone
	}
	return n.format
}

// Nullable reports whether null was observed at this position.
// A bare null node is always nullable.
func (n *Node) Nullable() bool {
	if n == nil {
		return false
	}
	return n.nullable || n.kind == KindNull
}

// Elem returns the element node of an array, or nil for other kinds.
func (n *Node) Elem() *Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.elem
}

// Fields returns a copy of the object's fields sorted by name.
func (n *Node) Fields() []Field {
	if n == nil || n.kind != KindObject {
		return nil
	}
	out := make([]Field, len(n.fields))
	copy(out, n.fields)
	return out
}

// Field looks up a field by name.
func (n *Node) Field(name string) (Field, bool) {
	if n == nil || n.kind != KindObject {
		return Field{}, false
	}
	i := sort.Search(len(n.fields), func(i int) bool { return n.fields[i].Name >= name })
	if i < len(n.fields) && n.fields[i].Name == name {
		return n.fields[i], true
	}
	return Field{}, false
}

// Branches returns a copy of a union's branches in canonical order.
func (n *Node) Branches() []*Node {
	if n == nil || n.kind != KindUnion {
		return nil
	}
	out := make([]*Node, len(n.branches))
	copy(out, n.branches)
	return out
}

// WithNullable returns a copy of n with the nullable flag set to v.
// Null and unknown nodes are returned unchanged.
func (n *Node) WithNullable(v bool) *Node {
	if n == nil {
		return unknownNode
	}
	if n.kind == KindNull || n.kind == KindUnknown || n.nullable == v {
		return n
	}
	cp := *n
	cp.nullable = v
	return &cp
}

// Equal reports structural equality.
func (n *Node) Equal(o *Node) bool {
	return n.Key() == o.Key()
}

// Key returns a canonical string that is equal for structurally equal nodes.
func (n *Node) Key() string {
	var b strings.Builder
	n.writeKey(&b)
	return b.String()
}

func (n *Node) writeKey(b *strings.Builder) {
	switch n.Kind() {
	case KindUnknown:
		b.WriteString("unknown")
		return
	case KindNull:
		b.WriteString("null")
		return
	case KindBoolean:
		b.WriteString("bool")
	case KindInteger:
		b.WriteString("int")
	case KindNumber:
		b.WriteString("num")
	case KindString:
		b.WriteString("str")
		if n.format != FormatNone {
			b.WriteString("<" + string(n.format) + ">")
		}
	case KindArray:
		b.WriteString("[")
		n.elem.writeKey(b)
		b.WriteString("]")
	case KindObject:
		b.WriteString("{")
		for i, f := range n.fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(f.Name))
			if !f.Required {
				b.WriteString("?")
			}
			b.WriteString(":")
			f.Type.writeKey(b)
		}
		b.WriteString("}")
	case KindUnion:
		b.WriteString("(")
		for i, br := range n.branches {
			if i > 0 {
				b.WriteString("|")
			}
			br.writeKey(b)
		}
		b.WriteString(")")
	}
	if n.nullable {
		b.WriteString("~null")
	}
}

// String renders a compact human readable form, e.g. "object{a:integer,b?:string|null}".
func (n *Node) String() string {
	var b strings.Builder
	n.writeString(&b)
	return b.String()
}

func (n *Node) writeString(b *strings.Builder) {
	switch n.Kind() {
	case KindString:
		b.WriteString("string")
		if n.format != FormatNone {
			b.WriteString("(" + string(n.format) + ")")
		}
	case KindArray:
		b.WriteString("array<")
		n.elem.writeString(b)
		b.WriteString(">")
	case KindObject:
		b.WriteString("object{")
		for i, f := range n.fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(f.Name)
			if !f.Required {
				b.WriteString("?")
			}
			b.WriteString(":")
			f.Type.writeString(b)
		}
		b.WriteString("}")
	case KindUnion:
		for i, br := range n.branches {
			if i > 0 {
				b.WriteString("|")
			}
			br.writeString(b)
		}
	default:
		b.WriteString(n.Kind().String())
	}
	if n.Kind() != KindNull && n.Nullable() {
		b.WriteString("|null")
	}
}
