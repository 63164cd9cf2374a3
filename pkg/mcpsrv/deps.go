package mcpsrv

import "github.com/usestring/powhttp-sdkgen/internal/mcp/tools"

// Deps is what builtin and custom tools share: configuration, the analysis
// pipeline, the traffic loader, stored runs and the optional powhttp client
// (nil when the server was created without one).
type Deps = tools.Deps
