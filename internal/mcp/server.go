// Package mcp serves the SDK generator over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/mcp/tools"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "powhttp-sdkgen"
	ServerVersion = "0.1.0"
)

const instructions = `Generates client libraries and API docs from captured HTTP traffic.
Start with sdkgen_analyze on a HAR file, a proxy JSON log or a powhttp session;
every later tool works on the most recent run unless run_id is given.
The generate_sdk prompt walks through the whole workflow.`

// Server wraps the MCP server with the SDK generator's tools and resources.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	enableBuiltinTools bool

	customRegistrations []func(*sdkmcp.Server)
}

// ServerOption configures NewServer.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin sdkgen tools, run resources and the
// generate_sdk prompt.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithCustomRegistration runs fn against the SDK server after the builtin
// registrations.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer builds the server. deps must carry a config, pipeline, loader
// and run store; the powhttp client is optional.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, errors.New("nil deps")
	}
	var missing []string
	for name, ok := range map[string]bool{
		"config":    deps.Config != nil,
		"pipeline":  deps.Pipeline != nil,
		"loader":    deps.Loader != nil,
		"run store": deps.Runs != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("deps missing %s", strings.Join(missing, ", "))
	}

	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		&sdkmcp.ServerOptions{Instructions: instructions},
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.enableBuiltinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
		s.registerPrompts()
	}

	for _, fn := range s.customRegistrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run serves on stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &sdkmcp.StdioTransport{})
}

// RunTransport serves on t; tests pass an in-memory transport.
func (s *Server) RunTransport(ctx context.Context, t sdkmcp.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

// MCPServer returns the SDK server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
