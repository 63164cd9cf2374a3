package typenode

// Drift lists the positions where the samples disagreed on kind and a union
// was needed. Paths use "." for fields and "[]" for array elements; the root
// is "$".
func Drift(n *Node) []string {
	var out []string
	walkDrift(n, "$", &out)
	return out
}

func walkDrift(n *Node, path string, out *[]string) {
	switch n.Kind() {
	case KindUnion:
		*out = append(*out, path)
		for _, br := range n.branches {
			walkDrift(br, path, out)
		}
	case KindArray:
		walkDrift(n.elem, path+"[]", out)
	case KindObject:
		for _, f := range n.fields {
			walkDrift(f.Type, path+"."+f.Name, out)
		}
	}
}

// HasUnknown reports whether any position in n was never observed.
func HasUnknown(n *Node) bool {
	switch n.Kind() {
	case KindUnknown:
		return true
	case KindArray:
		return HasUnknown(n.elem)
	case KindObject:
		for _, f := range n.fields {
			if HasUnknown(f.Type) {
				return true
			}
		}
	case KindUnion:
		for _, br := range n.branches {
			if HasUnknown(br) {
				return true
			}
		}
	}
	return false
}
