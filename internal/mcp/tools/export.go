package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/docs"
	pjs "github.com/usestring/powhttp-sdkgen/pkg/jsonschema"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// ExportInput is the input for sdkgen_export.
type ExportInput struct {
	RunID    string `json:"run_id,omitempty" jsonschema:"Run ID from sdkgen_analyze (default: most recent run)"`
	Format   string `json:"format" jsonschema:"required,One of: openapi-json, openapi-yaml, markdown, model, jsonschema"`
	Endpoint string `json:"endpoint,omitempty" jsonschema:"With jsonschema: endpoint ID or operation name"`
	Target   string `json:"target,omitempty" jsonschema:"With jsonschema: 'response' (default) or 'request'"`
	Status   int    `json:"status,omitempty" jsonschema:"With jsonschema and target response: status code (default: the success response)"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"Truncate the content to this many bytes (default: 2000000)"`
}

// ExportOutput is the output for sdkgen_export.
type ExportOutput struct {
	RunID     string             `json:"run_id"`
	Format    string             `json:"format"`
	MIME      string             `json:"mime"`
	Content   string             `json:"content"`
	Bytes     int                `json:"bytes"`
	Truncated bool               `json:"truncated,omitempty"`
	Resource  *types.ResourceRef `json:"resource,omitempty"`
}

// ExportRequest selects what Export renders.
type ExportRequest struct {
	Format   types.ExportFormat
	Endpoint string
	Target   string
	Status   int
}

// Export renders a model in the requested format and returns the content
// with its MIME type.
func Export(m *apimodel.Model, req ExportRequest) ([]byte, string, error) {
	switch req.Format {
	case types.FormatOpenAPIJSON:
		data, err := docs.OpenAPI(m).JSON()
		return data, MimeJSON, err
	case types.FormatOpenAPIYAML:
		data, err := docs.OpenAPI(m).YAML()
		return data, MimeYAML, err
	case types.FormatMarkdown:
		return []byte(docs.Markdown(m)), MimeMarkdown, nil
	case types.FormatModel:
		data, err := m.Marshal()
		return data, MimeJSON, err
	case types.FormatJSONSchema:
		data, err := endpointSchema(m, req)
		return data, MimeJSON, err
	default:
		names := make([]string, len(types.ExportFormats))
		for i, f := range types.ExportFormats {
			names[i] = string(f)
		}
		return nil, "", ErrInvalidInput(fmt.Sprintf("invalid format %q, must be one of: %s", req.Format, strings.Join(names, ", ")))
	}
}

func endpointSchema(m *apimodel.Model, req ExportRequest) ([]byte, error) {
	if req.Endpoint == "" {
		return nil, ErrInvalidInput("jsonschema export requires an endpoint")
	}
	ep, ok := m.Endpoint(req.Endpoint)
	if !ok {
		return nil, ErrNotFound("endpoint", req.Endpoint)
	}

	var (
		node  *typenode.Node
		title string
	)
	switch req.Target {
	case "request":
		node, title = ep.RequestBody, ep.OperationName+" request"
	case "", "response":
		var r *apimodel.Response
		if req.Status != 0 {
			if found, ok := ep.Response(req.Status); ok {
				r = found
			}
		} else {
			r = ep.SuccessResponse()
		}
		if r != nil {
			node, title = r.Body, fmt.Sprintf("%s response %d", ep.OperationName, r.Status)
		}
	default:
		return nil, ErrInvalidInput(fmt.Sprintf("invalid target %q, must be request or response", req.Target))
	}
	if node == nil {
		return nil, ErrNotFound("body schema", ep.OperationName)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pjs.Document(node, title)); err != nil {
		return nil, fmt.Errorf("encoding json schema: %w", err)
	}
	return buf.Bytes(), nil
}

// ToolExport renders a stored run as OpenAPI, Markdown, the raw model, or a
// JSON Schema of one endpoint body.
func ToolExport(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportInput) (*sdkmcp.CallToolResult, ExportOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportInput) (*sdkmcp.CallToolResult, ExportOutput, error) {
		run, err := d.ResolveRun(input.RunID)
		if err != nil {
			return nil, ExportOutput{}, err
		}

		data, mime, err := Export(run.Model, ExportRequest{
			Format:   types.ExportFormat(input.Format),
			Endpoint: input.Endpoint,
			Target:   input.Target,
			Status:   input.Status,
		})
		if err != nil {
			return nil, ExportOutput{}, err
		}

		maxBytes := input.MaxBytes
		if maxBytes <= 0 {
			maxBytes = d.Config.ToolMaxBytesDefault
		}
		content, truncated := truncate(string(data), maxBytes)

		output := ExportOutput{
			RunID:     run.ID,
			Format:    input.Format,
			MIME:      mime,
			Content:   content,
			Bytes:     len(data),
			Truncated: truncated,
		}
		switch types.ExportFormat(input.Format) {
		case types.FormatOpenAPIJSON:
			output.Resource = &types.ResourceRef{URI: OpenAPIResourceURI(run.ID), MIME: MimeJSON}
		case types.FormatModel:
			output.Resource = &types.ResourceRef{URI: ModelResourceURI(run.ID), MIME: MimeJSON}
		}
		if truncated && output.Resource != nil {
			output.Resource.Hint = "Read the resource for the complete document"
		}
		return nil, output, nil
	}
}
