package mcpsrv

import (
	"context"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/internal/config"
)

type countInput struct{}

type countOutput struct {
	Count int `json:"count"`
}

func TestNewServer(t *testing.T) {
	var gotDeps *Deps
	cfg := &config.Config{RunStoreCapacity: 2, InferWorkers: 1}

	s, err := NewServer(nil,
		WithConfig(cfg),
		WithExistingLogger(),
		WithDepsTool(&mcp.Tool{Name: "run_count", Description: "Count stored runs"},
			func(d *Deps) func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
				gotDeps = d
				return func(ctx context.Context, req *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, countOutput, error) {
					return nil, countOutput{Count: len(d.Runs.List())}, nil
				}
			}),
	)
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, gotDeps)
	assert.Same(t, s.Deps(), gotDeps)
	assert.Same(t, cfg, s.Deps().Config)
	assert.Nil(t, s.Deps().Client)
	assert.Nil(t, s.Deps().Loader.PowHTTP)
	assert.NotNil(t, s.MCPServer())
}

func TestWithTool_ChecksOutputSchema(t *testing.T) {
	type badOutput struct {
		Items []string `json:"items"`
	}
	handler := func(ctx context.Context, req *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, badOutput, error) {
		return nil, badOutput{}, nil
	}
	assert.Panics(t, func() {
		_, _ = NewServer(nil,
			WithConfig(&config.Config{}),
			WithExistingLogger(),
			WithoutBuiltinTools(),
			WithTool(&mcp.Tool{Name: "bad"}, handler),
		)
	})
}

func TestNewServer_OutputOverrides(t *testing.T) {
	cfg := &config.Config{RunStoreCapacity: 2, InferWorkers: 1, OutputDir: "sdk", Languages: []string{"go"}}

	s, err := NewServer(nil,
		WithConfig(cfg),
		WithExistingLogger(),
		WithOutputDir("gen"),
		WithLanguages("python", "typescript"),
	)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "gen", s.Deps().Config.OutputDir)
	assert.Equal(t, []string{"python", "typescript"}, s.Deps().Config.Languages)
	assert.Equal(t, "sdk", cfg.OutputDir, "caller's config is not modified")
}
