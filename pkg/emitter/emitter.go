// Package emitter defines the contract language backends implement to turn
// an API model into a client library, and the shared planning step that
// resolves names and types once for every backend.
package emitter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
)

// ErrUnknownLanguage is returned by Lookup for unregistered languages.
var ErrUnknownLanguage = errors.New("unknown language")

// GeneratorName is stamped into every generated file header.
const GeneratorName = "powhttp-sdkgen"

// Options configures one emission.
type Options struct {
	// PackageName is the package/module name of the generated library.
	// Backends derive one from the model title when empty.
	PackageName string
	// ModulePath is the Go module path; defaults to PackageName.
	ModulePath string
	// Version is written into package manifests.
	Version string
}

// File is one generated file, relative to the target output directory.
type File struct {
	Path    string
	Content []byte
}

// Output is the result of one emission.
type Output struct {
	Files    []File
	Warnings []string
}

// Emitter renders a client library for one language.
type Emitter interface {
	// Language is the registry key, e.g. "go".
	Language() string
	Emit(m *apimodel.Model, opts Options) (*Output, error)
}

// Registry is a lookup table of emitters by language.
type Registry struct {
	mu       sync.RWMutex
	emitters map[string]Emitter
	aliases  map[string]string
}

// NewRegistry creates a registry holding the given emitters.
func NewRegistry(emitters ...Emitter) *Registry {
	r := &Registry{
		emitters: make(map[string]Emitter),
		aliases:  make(map[string]string),
	}
	for _, e := range emitters {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the emitter for e.Language().
func (r *Registry) Register(e Emitter, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitters[e.Language()] = e
	for _, a := range aliases {
		r.aliases[a] = e.Language()
	}
}

// Lookup returns the emitter registered for lang or one of its aliases.
func (r *Registry) Lookup(lang string) (Emitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[lang]; ok {
		lang = canonical
	}
	e, ok := r.emitters[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	return e, nil
}

// Languages returns the registered languages, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.emitters))
	for lang := range r.emitters {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Aliases returns the aliases registered for lang, sorted.
func (r *Registry) Aliases(lang string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for alias, canonical := range r.aliases {
		if canonical == lang {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
