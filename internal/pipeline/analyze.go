package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/powhttp-sdkgen/internal/builder"
	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/internal/indexer"
	"github.com/usestring/powhttp-sdkgen/internal/query"
	"github.com/usestring/powhttp-sdkgen/internal/schema"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// AnalyzeOptions selects the traffic to analyze and the model metadata.
type AnalyzeOptions struct {
	Scope indexer.Scope
	// Filter is a jq expression evaluated against each exchange document;
	// exchanges producing no truthy output are dropped.
	Filter   string
	Title    string
	BaseURLs []string
	// IncludeAll keeps page and asset endpoints in the model.
	IncludeAll bool
	// Conformance validates every sample against the schema inferred from it.
	Conformance bool
}

// buildFunc turns one group into an endpoint spec.
type buildFunc func(b *builder.Builder, g *catalog.Group) apimodel.Endpoint

func defaultBuild(b *builder.Builder, g *catalog.Group) apimodel.Endpoint {
	return b.BuildEndpoint(g)
}

// Analyze turns exchanges into an API model. It only fails on invalid options
// or cancellation; per-endpoint failures are reported in the returned report
// and the failed endpoints are left out of the model.
func (p *Pipeline) Analyze(ctx context.Context, exs []*exchange.Exchange, opts AnalyzeOptions) (*Analysis, error) {
	return p.analyze(ctx, exs, opts, defaultBuild)
}

func (p *Pipeline) analyze(ctx context.Context, exs []*exchange.Exchange, opts AnalyzeOptions, build buildFunc) (*Analysis, error) {
	start := time.Now()
	report := Report{Exchanges: len(exs)}

	var filter *query.Filter
	if opts.Filter != "" {
		f, err := query.Compile(opts.Filter)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	selected := exs
	if !opts.Scope.IsZero() {
		selected = indexer.Build(exs).Filter(opts.Scope)
	}
	if filter != nil {
		var errs []string
		selected, errs = filter.Select(selected)
		for _, e := range errs {
			report.Warnings = append(report.Warnings, "filter: "+e)
		}
	}
	report.Selected = len(selected)
	if len(selected) == 0 {
		report.Warnings = append(report.Warnings, "no exchanges left to analyze")
	}

	groups := p.detector.Detect(selected)
	b := p.newBuilder()

	results := make([]EndpointResult, len(groups))
	built := make([]*apimodel.Endpoint, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, grp := range groups {
		results[i] = EndpointResult{
			ID:      grp.ID,
			Method:  grp.Method,
			Path:    grp.Template,
			Samples: len(grp.Members),
		}
		if !opts.IncludeAll && !grp.Category.Generated() {
			results[i].Status = StatusSkipped
			results[i].Warnings = []string{fmt.Sprintf("classified as %s traffic", grp.Category)}
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ep, err := p.buildGroup(b, grp, build, opts.Conformance)
			if err != nil {
				results[i].Status = StatusFailed
				results[i].Error = err.Error()
				slog.Warn("endpoint build failed",
					slog.String("method", grp.Method),
					slog.String("path", grp.Template),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i].Status = StatusOK
			results[i].Warnings = ep.Warnings
			built[i] = &ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyzing endpoints: %w", err)
	}

	endpoints := make([]apimodel.Endpoint, 0, len(built))
	for _, ep := range built {
		if ep != nil {
			endpoints = append(endpoints, *ep)
		}
	}

	observed := builder.BaseURLs(selected)
	title := opts.Title
	if title == "" && len(observed) > 0 {
		title = TitleFromBaseURL(observed[0])
	}
	model := builder.Assemble(endpoints, builder.Meta{
		Title:    title,
		BaseURLs: opts.BaseURLs,
		Observed: observed,
	})
	report.Endpoints = results

	counts := report.Counts()
	slog.Info("analysis completed",
		slog.Int("exchanges", report.Exchanges),
		slog.Int("selected", report.Selected),
		slog.Int("endpoints", len(model.Endpoints)),
		slog.Int("skipped", counts[StatusSkipped]),
		slog.Int("failed", counts[StatusFailed]),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return &Analysis{Model: model, Report: report}, nil
}

// buildGroup isolates one group: a panic becomes that group's error.
func (p *Pipeline) buildGroup(b *builder.Builder, grp *catalog.Group, build buildFunc, conformance bool) (ep apimodel.Endpoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while building endpoint: %v", r)
		}
	}()

	ep = build(b, grp)
	if conformance {
		ep.Warnings = append(ep.Warnings, p.conformance(&ep, grp.Members)...)
	}
	return ep, nil
}

// conformance validates each JSON sample of the group against the schema
// exported from the type inferred from those same samples.
func (p *Pipeline) conformance(ep *apimodel.Endpoint, members []*exchange.Exchange) []string {
	var out []string
	if ep.RequestBody != nil {
		var samples []any
		for _, ex := range members {
			if ex.RequestBody.HasJSON && !p.tooLarge(ex.RequestBody) {
				samples = append(samples, ex.RequestBody.JSON)
			}
		}
		out = append(out, schema.Conformance("request body", ep.RequestBody, samples)...)
	}
	for _, r := range ep.Responses {
		if r.Body == nil {
			continue
		}
		var samples []any
		for _, ex := range members {
			if ex.Status == r.Status && ex.ResponseBody.HasJSON && !p.tooLarge(ex.ResponseBody) {
				samples = append(samples, ex.ResponseBody.JSON)
			}
		}
		out = append(out, schema.Conformance(fmt.Sprintf("response %d", r.Status), r.Body, samples)...)
	}
	return out
}

// TitleFromBaseURL derives a model title from a base URL:
// "https://api.shop-example.com" becomes "Shop Example API".
func TitleFromBaseURL(baseURL string) string {
	host := baseURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}
	for len(labels) > 1 && isGenericLabel(labels[0]) {
		labels = labels[1:]
	}
	if len(labels) == 0 || labels[0] == "" {
		return builder.DefaultTitle
	}
	return ident.Title(ident.Words(strings.Join(labels, " "))) + " API"
}

func isGenericLabel(l string) bool {
	switch l {
	case "api", "www", "app", "rest", "gateway":
		return true
	}
	return false
}
