// Package backends wires the built-in language emitters into a registry.
package backends

import (
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter/golang"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter/python"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter/typescript"
)

// Registry returns a registry holding every built-in emitter. "golang",
// "py" and "ts" are accepted as aliases.
func Registry() *emitter.Registry {
	r := emitter.NewRegistry()
	r.Register(golang.New(), "golang")
	r.Register(python.New(), "py")
	r.Register(typescript.New(), "ts")
	return r
}
