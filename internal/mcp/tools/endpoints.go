package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// ListEndpointsInput is the input for sdkgen_list_endpoints.
type ListEndpointsInput struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"Run ID from sdkgen_analyze (default: most recent run)"`
	Method string `json:"method,omitempty" jsonschema:"Only list this HTTP method"`
	Path   string `json:"path,omitempty" jsonschema:"Only list path templates containing this text"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max endpoints to return (default: 100)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Pagination offset"`
}

// ListEndpointsOutput is the output for sdkgen_list_endpoints.
type ListEndpointsOutput struct {
	Run        types.RunInfo           `json:"run"`
	Endpoints  []types.EndpointSummary `json:"endpoints,omitzero"`
	TotalCount int                     `json:"total_count"`
	Warnings   []string                `json:"warnings,omitzero"`
}

// DescribeEndpointInput is the input for sdkgen_describe_endpoint.
type DescribeEndpointInput struct {
	RunID    string `json:"run_id,omitempty" jsonschema:"Run ID from sdkgen_analyze (default: most recent run)"`
	Endpoint string `json:"endpoint" jsonschema:"required,Endpoint ID or operation name"`
}

// DescribeEndpointOutput is the output for sdkgen_describe_endpoint.
type DescribeEndpointOutput struct {
	RunID    string             `json:"run_id"`
	Endpoint any                `json:"endpoint"`
	Schemas  map[string]string  `json:"schemas,omitzero"`
	Resource *types.ResourceRef `json:"resource,omitempty"`
}

const defaultEndpointLimit = 100

// ToolListEndpoints lists the endpoints of a run.
func ToolListEndpoints(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListEndpointsInput) (*sdkmcp.CallToolResult, ListEndpointsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListEndpointsInput) (*sdkmcp.CallToolResult, ListEndpointsOutput, error) {
		run, err := d.ResolveRun(input.RunID)
		if err != nil {
			return nil, ListEndpointsOutput{}, err
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultEndpointLimit
		}
		if input.Offset < 0 {
			return nil, ListEndpointsOutput{}, ErrInvalidInput("offset must not be negative")
		}

		var matched []types.EndpointSummary
		for i := range run.Model.Endpoints {
			ep := &run.Model.Endpoints[i]
			if input.Method != "" && !strings.EqualFold(ep.Method, input.Method) {
				continue
			}
			if input.Path != "" && !strings.Contains(ep.PathTemplate, input.Path) {
				continue
			}
			matched = append(matched, BuildEndpointSummary(ep))
		}

		output := ListEndpointsOutput{
			Run:        BuildRunInfo(run),
			TotalCount: len(matched),
			Warnings:   run.Warnings,
		}
		if input.Offset < len(matched) {
			end := min(input.Offset+limit, len(matched))
			output.Endpoints = matched[input.Offset:end]
		}
		return nil, output, nil
	}
}

// ToolDescribeEndpoint returns the full model of one endpoint, with its
// schemas rendered in the compact type notation.
func ToolDescribeEndpoint(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeEndpointInput) (*sdkmcp.CallToolResult, DescribeEndpointOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeEndpointInput) (*sdkmcp.CallToolResult, DescribeEndpointOutput, error) {
		if input.Endpoint == "" {
			return nil, DescribeEndpointOutput{}, ErrInvalidInput("endpoint is required")
		}
		run, err := d.ResolveRun(input.RunID)
		if err != nil {
			return nil, DescribeEndpointOutput{}, err
		}
		ep, ok := run.Model.Endpoint(input.Endpoint)
		if !ok {
			return nil, DescribeEndpointOutput{}, ErrNotFound("endpoint", input.Endpoint)
		}

		v, err := types.ToAny(ep)
		if err != nil {
			return nil, DescribeEndpointOutput{}, fmt.Errorf("encoding endpoint: %w", err)
		}

		return nil, DescribeEndpointOutput{
			RunID:    run.ID,
			Endpoint: v,
			Schemas:  endpointSchemas(ep),
			Resource: &types.ResourceRef{
				URI:  ModelResourceURI(run.ID),
				MIME: MimeJSON,
				Hint: "Complete API model",
			},
		}, nil
	}
}

// endpointSchemas renders the request and response bodies of an endpoint,
// keyed "request" and "response <status>".
func endpointSchemas(ep *apimodel.Endpoint) map[string]string {
	out := make(map[string]string)
	if ep.RequestBody != nil {
		out["request"] = ep.RequestBody.String()
	}
	for _, r := range ep.Responses {
		if r.Body != nil {
			out[fmt.Sprintf("response %d", r.Status)] = r.Body.String()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
