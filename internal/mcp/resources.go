package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/mcp/tools"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// Resource URI scheme: sdkgen://
// Supported URIs:
//   sdkgen://run/{run_id}/model
//   sdkgen://run/{run_id}/openapi

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "sdkgen://run/{run_id}/model",
		Name:        "API Model",
		Description: "Complete API model of an analyzed run with every endpoint schema. High context cost - sdkgen_list_endpoints and sdkgen_describe_endpoint return the same data in smaller pieces.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceModel)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "sdkgen://run/{run_id}/openapi",
		Name:        "OpenAPI Document",
		Description: "OpenAPI 3.1 document of an analyzed run. High context cost - fetch when the whole document is needed.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant", "user"},
			Priority: 0.6,
		},
	}, s.handleResourceOpenAPI)
}

func (s *Server) handleResourceModel(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return s.readRun(req.Params.URI, "model", types.FormatModel)
}

func (s *Server) handleResourceOpenAPI(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return s.readRun(req.Params.URI, "openapi", types.FormatOpenAPIJSON)
}

func (s *Server) readRun(uri, kind string, format types.ExportFormat) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(uri)
	if err != nil {
		return nil, err
	}
	if params["kind"] != kind {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("expected a %s resource, got %s", kind, uri))
	}

	run, ok := s.deps.Runs.Get(params["run_id"])
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(uri)
	}

	data, mime, err := tools.Export(run.Model, tools.ExportRequest{Format: format})
	if err != nil {
		return nil, err
	}
	return toResourceResult(uri, mime, data), nil
}

// parseResourceURI parses an sdkgen:// URI into its parameters.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, tools.ResourceScheme) {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("invalid URI scheme: %s", uri))
	}

	parts := strings.Split(strings.TrimPrefix(uri, tools.ResourceScheme), "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil, tools.ErrInvalidInput("empty resource path")
	}

	params := make(map[string]string)
	switch parts[0] {
	case "run":
		if len(parts) != 3 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("run URI requires a run ID and a resource kind")
		}
		params["run_id"] = parts[1]
		params["kind"] = parts[2]

	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}

	return params, nil
}

// toResourceResult wraps rendered content in a ReadResourceResult.
func toResourceResult(uri, mime string, data []byte) *sdkmcp.ReadResourceResult {
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mime,
				Text:     string(data),
			},
		},
	}
}
