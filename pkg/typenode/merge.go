package typenode

import "sort"

// class is the union branch a kind folds into. Every concrete kind has its
// own class; the order is the order of union branches.
type class uint8

const (
	classNone class = iota
	classBoolean
	classInteger
	classNumber
	classString
	classArray
	classObject
)

func classOf(k Kind) class {
	switch k {
	case KindBoolean:
		return classBoolean
	case KindInteger:
		return classInteger
	case KindNumber:
		return classNumber
	case KindString:
		return classString
	case KindArray:
		return classArray
	case KindObject:
		return classObject
	}
	return classNone
}

// Merge folds two observations of the same position into one node.
//
// Unknown is the identity. Null is absorbed as nullability. Nodes of
// different kinds, integer and number included, produce a union holding at
// most one branch per kind. Object fields stay required only when
// required on both sides; a missing field never makes a field nullable.
func Merge(a, b *Node) *Node {
	if a == nil {
		a = unknownNode
	}
	if b == nil {
		b = unknownNode
	}

	switch {
	case a.kind == KindUnknown:
		return b
	case b.kind == KindUnknown:
		return a
	case a.kind == KindNull && b.kind == KindNull:
		return nullNode
	case a.kind == KindNull:
		return b.WithNullable(true)
	case b.kind == KindNull:
		return a.WithNullable(true)
	}

	nullable := a.nullable || b.nullable
	ca, cb := classOf(a.kind), classOf(b.kind)
	if a.kind == KindUnion || b.kind == KindUnion || ca != cb {
		return mergeUnion(a, b, nullable)
	}

	var out *Node
	switch ca {
	case classBoolean:
		out = &Node{kind: KindBoolean}
	case classInteger:
		out = &Node{kind: KindInteger}
	case classNumber:
		out = &Node{kind: KindNumber}
	case classString:
		f := FormatNone
		if a.format == b.format {
			f = a.format
		}
		out = &Node{kind: KindString, format: f}
	case classArray:
		out = &Node{kind: KindArray, elem: Merge(a.elem, b.elem)}
	case classObject:
		out = &Node{kind: KindObject, fields: mergeFields(a.fields, b.fields)}
	default:
		return unknownNode
	}
	out.nullable = nullable
	return out
}

// MergeAll folds nodes left to right. With no input it returns Unknown.
func MergeAll(nodes ...*Node) *Node {
	acc := unknownNode
	for _, n := range nodes {
		acc = Merge(acc, n)
	}
	return acc
}

func mergeFields(a, b []Field) []Field {
	out := make([]Field, 0, max(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i].Name < b[j].Name):
			out = append(out, Field{Name: a[i].Name, Type: a[i].Type})
			i++
		case i >= len(a) || b[j].Name < a[i].Name:
			out = append(out, Field{Name: b[j].Name, Type: b[j].Type})
			j++
		default:
			out = append(out, Field{
				Name:     a[i].Name,
				Type:     Merge(a[i].Type, b[j].Type),
				Required: a[i].Required && b[j].Required,
			})
			i++
			j++
		}
	}
	return out
}

// mergeUnion keeps one branch per kind. Branches never carry nullability;
// the union does.
func mergeUnion(a, b *Node, nullable bool) *Node {
	byClass := make(map[class]*Node, 4)
	add := func(n *Node) {
		if n.kind == KindUnion {
			for _, br := range n.branches {
				byClass[classOf(br.kind)] = Merge(byClass[classOf(br.kind)], br)
			}
			return
		}
		br := n.WithNullable(false)
		c := classOf(br.kind)
		byClass[c] = Merge(byClass[c], br)
	}
	add(a)
	add(b)

	branches := make([]*Node, 0, len(byClass))
	for _, br := range byClass {
		branches = append(branches, br)
	}
	sort.Slice(branches, func(i, j int) bool {
		return classOf(branches[i].kind) < classOf(branches[j].kind)
	})

	if len(branches) == 1 {
		return branches[0].WithNullable(nullable)
	}
	return &Node{kind: KindUnion, nullable: nullable, branches: branches}
}
