// Package tools contains the MCP tool implementations of the SDK generator.
package tools

import (
	"time"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// MIME type constants.
const (
	MimeJSON     = "application/json"
	MimeYAML     = "application/yaml"
	MimeMarkdown = "text/markdown"
)

// ResourceScheme prefixes every resource URI served by the server.
const ResourceScheme = "sdkgen://"

// ModelResourceURI is the resource holding a run's API model.
func ModelResourceURI(runID string) string {
	return ResourceScheme + "run/" + runID + "/model"
}

// OpenAPIResourceURI is the resource holding a run's OpenAPI document.
func OpenAPIResourceURI(runID string) string {
	return ResourceScheme + "run/" + runID + "/openapi"
}

// BuildRunInfo summarizes a stored run.
func BuildRunInfo(run *catalog.Run) types.RunInfo {
	return types.RunInfo{
		RunID:         run.ID,
		Title:         run.Model.Title,
		BaseURLs:      run.Model.BaseURLs,
		EndpointCount: len(run.Model.Endpoints),
		CreatedAt:     run.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// BuildEndpointSummary creates an EndpointSummary from a model endpoint.
func BuildEndpointSummary(ep *apimodel.Endpoint) types.EndpointSummary {
	s := types.EndpointSummary{
		ID:            ep.ID,
		OperationName: ep.OperationName,
		Method:        ep.Method,
		PathTemplate:  ep.PathTemplate,
		Category:      ep.Category,
		Auth:          string(ep.Auth.Scheme),
		SampleCount:   ep.SampleCount,
		WarningCount:  len(ep.Warnings),
	}
	for _, r := range ep.Responses {
		s.Statuses = append(s.Statuses, r.Status)
	}
	return s
}

// truncate cuts s to at most max bytes. A non-positive max keeps s whole.
func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	return s[:max], true
}
