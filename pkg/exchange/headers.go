package exchange

import "strings"

// Header is one name/value pair in capture order.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered header list with case-insensitive lookups.
type Headers []Header

// Get returns the first value for the given header name (case-insensitive).
// Returns an empty string if the header is not found.
func (h Headers) Get(name string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value
		}
	}
	return ""
}

// Values returns all values for the given header name (case-insensitive).
func (h Headers) Values(name string) []string {
	var values []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			values = append(values, hdr.Value)
		}
	}
	return values
}

// Has reports whether the header is present at all.
func (h Headers) Has(name string) bool {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return true
		}
	}
	return false
}

// Names returns the lowercased header names in first-seen order.
func (h Headers) Names() []string {
	seen := make(map[string]bool, len(h))
	names := make([]string, 0, len(h))
	for _, hdr := range h {
		n := strings.ToLower(hdr.Name)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Clone returns a copy that shares no backing array with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

// HeadersFromPairs converts [name, value] pairs as found in capture formats.
// Pairs shorter than two elements are skipped.
func HeadersFromPairs(pairs [][]string) Headers {
	out := make(Headers, 0, len(pairs))
	for _, p := range pairs {
		if len(p) >= 2 {
			out = append(out, Header{Name: p[0], Value: p[1]})
		}
	}
	return out
}
