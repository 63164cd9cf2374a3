package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/internal/config"
	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/internal/logging"
	"github.com/usestring/powhttp-sdkgen/internal/mcp"
	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
)

// Server is the SDK generator MCP server.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin sdkgen tools.
//
// The client gives access to powhttp sessions as traffic sources; pass nil
// to serve captures from files only. Use functional options to configure
// logging, add custom tools, etc.
func NewServer(c *client.Client, opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load()
	}
	if cfg.outDir != "" || len(cfg.languages) > 0 {
		overridden := *cfg.config
		if cfg.outDir != "" {
			overridden.OutputDir = cfg.outDir
		}
		if len(cfg.languages) > 0 {
			overridden.Languages = cfg.languages
		}
		cfg.config = &overridden
	}

	var logCleanup func() error
	if !cfg.keepLogger {
		logCfg := logging.FromConfig(cfg.config)
		if cfg.logLevel != "" {
			logCfg.Level = cfg.logLevel
		}
		if cfg.logFile != "" {
			logCfg.FilePath = cfg.logFile
		}
		cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to setup logging: %w", err)
		}
		logCleanup = cleanup
	}

	p, err := pipeline.New(pipeline.OptionsFromConfig(cfg.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	loader, err := ingest.NewLoader(cfg.config, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	runs := catalog.NewRunStore(cfg.config.RunStoreCapacity)

	deps := &Deps{
		Config:   cfg.config,
		Pipeline: p,
		Loader:   loader,
		Runs:     runs,
		Client:   c,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	for _, fn := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(deps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run serves on stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close flushes and closes the log file opened by NewServer.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
