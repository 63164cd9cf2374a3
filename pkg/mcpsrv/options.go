package mcpsrv

import (
	"context"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/config"
)

type serverConfig struct {
	config *config.Config

	logLevel   string
	logFile    string
	keepLogger bool

	outDir    string
	languages []string

	disableBuiltinTools bool

	// run after the builtin tools, in option order
	registrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithConfig replaces the configuration otherwise loaded from the environment.
func WithConfig(c *config.Config) Option {
	return func(cfg *serverConfig) { cfg.config = c }
}

// WithLogLevel overrides the configured log level.
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) { cfg.logLevel = level }
}

// WithLogFile logs to a rotated file instead of stderr.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) { cfg.logFile = path }
}

// WithExistingLogger leaves the default slog logger untouched, for callers
// that configured logging themselves.
func WithExistingLogger() Option {
	return func(cfg *serverConfig) { cfg.keepLogger = true }
}

// WithOutputDir sets where sdkgen_generate writes when the call names no
// out_dir.
func WithOutputDir(dir string) Option {
	return func(cfg *serverConfig) { cfg.outDir = dir }
}

// WithLanguages sets the targets sdkgen_generate builds when the call names
// none.
func WithLanguages(langs ...string) Option {
	return func(cfg *serverConfig) { cfg.languages = langs }
}

// WithoutBuiltinTools serves only the tools, prompts and resources added
// through options.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) { cfg.disableBuiltinTools = true }
}

// WithTool adds a tool. Its output type is checked like the builtin ones
// (see AddTool).
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool adds a tool whose handler is built from the server's Deps,
// for tools that read stored runs or drive the pipeline:
//
//	mcpsrv.WithDepsTool(&mcp.Tool{Name: "run_count"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
//	        return func(ctx context.Context, _ *mcp.CallToolRequest, _ In) (*mcp.CallToolResult, Out, error) {
//	            return nil, Out{Count: len(d.Runs.List())}, nil
//	        }
//	    })
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, d *Deps) {
			AddTool(srv, tool, builder(d))
		})
	}
}

// WithPrompt adds a prompt.
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate adds a resource template. Templates under the
// sdkgen:// scheme should not reuse the run/{run_id}/... paths.
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
