package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/internal/indexer"
	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// AnalyzeInput is the input for sdkgen_analyze.
type AnalyzeInput struct {
	Sources         []types.SourceSpec `json:"sources" jsonschema:"required,Traffic to analyze. Each source sets exactly one of har, log or session"`
	Hosts           []string           `json:"hosts,omitempty" jsonschema:"Only keep these hosts. Prefix with '*.' to include subdomains: '*.example.com' matches example.com and api.example.com"`
	Methods         []string           `json:"methods,omitempty" jsonschema:"Only keep these HTTP methods (case-insensitive)"`
	StatusMin       int                `json:"status_min,omitempty" jsonschema:"Lowest response status to keep"`
	StatusMax       int                `json:"status_max,omitempty" jsonschema:"Highest response status to keep"`
	Keywords        []string           `json:"keywords,omitempty" jsonschema:"Only keep exchanges whose host, path or query keys contain all of these words ('userId' matches 'user' and 'id')"`
	Filter          string             `json:"filter,omitempty" jsonschema:"jq expression over each exchange (.method .host .path .status .query .request .response); exchanges without a truthy result are dropped"`
	Title           string             `json:"title,omitempty" jsonschema:"API title (default: derived from the base URL)"`
	BaseURLs        []string           `json:"base_urls,omitempty" jsonschema:"Override the observed base URLs"`
	IncludeAll      bool               `json:"include_all,omitempty" jsonschema:"Keep page and asset endpoints in the model"`
	SkipConformance bool               `json:"skip_conformance,omitempty" jsonschema:"Skip validating every sample against its inferred schema"`
}

// AnalyzeOutput is the output for sdkgen_analyze.
type AnalyzeOutput struct {
	Run       types.RunInfo           `json:"run"`
	Exchanges int                     `json:"exchanges"`
	Selected  int                     `json:"selected"`
	Endpoints []types.EndpointSummary `json:"endpoints,omitzero"`
	Failed    []types.EndpointOutcome `json:"failed,omitzero"`
	Skipped   int                     `json:"skipped,omitempty"`
	Warnings  []string                `json:"warnings,omitzero"`
	Resource  *types.ResourceRef      `json:"resource,omitempty"`
	Hint      string                  `json:"hint,omitempty"`
}

// SourcesFromSpecs converts tool source specs into ingest sources.
func SourcesFromSpecs(specs []types.SourceSpec) ([]ingest.Source, error) {
	if len(specs) == 0 {
		return nil, ErrInvalidInput("at least one source is required")
	}
	out := make([]ingest.Source, 0, len(specs))
	for i, s := range specs {
		set := 0
		var src ingest.Source
		if s.HAR != "" {
			set++
			src = ingest.Source{Kind: ingest.KindHAR, Path: s.HAR}
		}
		if s.Log != "" {
			set++
			src = ingest.Source{Kind: ingest.KindProxyLog, Path: s.Log}
		}
		if s.Session != "" {
			set++
			src = ingest.Source{Kind: ingest.KindPowHTTP, Session: s.Session, BookmarkedOnly: s.BookmarkedOnly}
		}
		if set != 1 {
			return nil, ErrInvalidInput(fmt.Sprintf("source %d must set exactly one of har, log or session", i))
		}
		out = append(out, src)
	}
	return out, nil
}

// ToolAnalyze loads traffic, builds an API model and stores it as a run.
func ToolAnalyze(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyzeInput) (*sdkmcp.CallToolResult, AnalyzeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyzeInput) (*sdkmcp.CallToolResult, AnalyzeOutput, error) {
		srcs, err := SourcesFromSpecs(input.Sources)
		if err != nil {
			return nil, AnalyzeOutput{}, err
		}
		if input.StatusMin > 0 && input.StatusMax > 0 && input.StatusMin > input.StatusMax {
			return nil, AnalyzeOutput{}, ErrInvalidInput("status_min must not exceed status_max")
		}

		exs, err := d.Loader.LoadAll(ctx, srcs)
		if err != nil {
			return nil, AnalyzeOutput{}, WrapLoadError(err)
		}

		analysis, err := d.Pipeline.Analyze(ctx, exs, pipeline.AnalyzeOptions{
			Scope: indexer.Scope{
				Hosts:     input.Hosts,
				Methods:   input.Methods,
				StatusMin: input.StatusMin,
				StatusMax: input.StatusMax,
				Keywords:  input.Keywords,
			},
			Filter:      input.Filter,
			Title:       input.Title,
			BaseURLs:    input.BaseURLs,
			IncludeAll:  input.IncludeAll || d.Config.IncludeAll,
			Conformance: d.Config.Conformance && !input.SkipConformance,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, AnalyzeOutput{}, WrapPowHTTPError(err)
			}
			return nil, AnalyzeOutput{}, ErrInvalidInput(err.Error())
		}

		run := &catalog.Run{
			ID:       uuid.NewString(),
			Model:    analysis.Model,
			Warnings: analysis.Report.Warnings,
		}
		d.Runs.Put(run)

		slog.Info("run stored",
			slog.String("run_id", run.ID),
			slog.Int("endpoints", len(run.Model.Endpoints)),
		)

		output := AnalyzeOutput{
			Run:       BuildRunInfo(run),
			Exchanges: analysis.Report.Exchanges,
			Selected:  analysis.Report.Selected,
			Warnings:  analysis.Report.Warnings,
			Resource: &types.ResourceRef{
				URI:  ModelResourceURI(run.ID),
				MIME: MimeJSON,
				Hint: "Complete API model with every schema",
			},
		}
		for i := range run.Model.Endpoints {
			output.Endpoints = append(output.Endpoints, BuildEndpointSummary(&run.Model.Endpoints[i]))
		}
		for _, e := range analysis.Report.Endpoints {
			switch e.Status {
			case pipeline.StatusFailed:
				output.Failed = append(output.Failed, types.EndpointOutcome{
					ID: e.ID, Method: e.Method, Path: e.Path, Status: string(e.Status), Error: e.Error,
				})
			case pipeline.StatusSkipped:
				output.Skipped++
			}
		}

		if len(output.Endpoints) == 0 {
			output.Hint = "No API endpoints were detected. Widen the scope or set include_all."
		} else {
			output.Hint = "Use sdkgen_describe_endpoint for details, sdkgen_generate to write client libraries, or sdkgen_export for OpenAPI and Markdown."
		}

		return nil, output, nil
	}
}
