package ident

import "strconv"

// Registry hands out unique names. Taken names get a numeric suffix in
// request order, so the outcome is deterministic for a deterministic caller.
type Registry struct {
	taken map[string]bool
}

// NewRegistry creates an empty Registry, optionally pre-reserving names.
func NewRegistry(reserved ...string) *Registry {
	r := &Registry{taken: make(map[string]bool, len(reserved))}
	for _, n := range reserved {
		r.taken[n] = true
	}
	return r
}

// Claim returns name if free, otherwise name2, name3, ... and reserves it.
func (r *Registry) Claim(name string) string {
	if !r.taken[name] {
		r.taken[name] = true
		return name
	}
	for i := 2; ; i++ {
		cand := name + strconv.Itoa(i)
		if !r.taken[cand] {
			r.taken[cand] = true
			return cand
		}
	}
}

// Taken reports whether name has been claimed.
func (r *Registry) Taken(name string) bool { return r.taken[name] }
