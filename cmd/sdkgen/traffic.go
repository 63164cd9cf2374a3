package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/indexer"
	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
)

// trafficFlags select and scope the captured traffic of one run.
type trafficFlags struct {
	har        []string
	logs       []string
	sessions   []string
	bookmarked bool

	hosts         []string
	methods       []string
	statusMin     int
	statusMax     int
	keywords      []string
	filter        string
	title         string
	baseURLs      []string
	includeAll    bool
	noConformance bool

	model string // previously written API model; replaces traffic
}

func (f *trafficFlags) register(cmd *cobra.Command, withModel bool) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.har, "har", nil, "HAR file to read (repeatable, - for stdin)")
	fs.StringSliceVar(&f.logs, "log", nil, "proxy JSON log to read, array or JSON Lines (repeatable, - for stdin)")
	fs.StringSliceVar(&f.sessions, "session", nil, "powhttp session to pull, 'active' for the active one (repeatable)")
	fs.BoolVar(&f.bookmarked, "bookmarked", false, "with --session: only pull bookmarked entries")

	fs.StringSliceVar(&f.hosts, "host", nil, "only keep this host; '*.example.com' includes subdomains (repeatable)")
	fs.StringSliceVar(&f.methods, "method", nil, "only keep this HTTP method (repeatable)")
	fs.IntVar(&f.statusMin, "status-min", 0, "lowest response status to keep")
	fs.IntVar(&f.statusMax, "status-max", 0, "highest response status to keep")
	fs.StringSliceVar(&f.keywords, "keyword", nil, "only keep exchanges whose host, path or query keys contain this word (repeatable, and-ed)")
	fs.StringVar(&f.filter, "filter", "", "jq expression; exchanges without a truthy result are dropped")
	fs.StringVar(&f.title, "title", "", "API title (default: derived from the base URL)")
	fs.StringSliceVar(&f.baseURLs, "base-url", nil, "override the observed base URLs (repeatable)")
	fs.BoolVar(&f.includeAll, "include-all", false, "keep page and asset endpoints")
	fs.BoolVar(&f.noConformance, "no-conformance", false, "skip validating samples against their inferred schemas")

	if withModel {
		fs.StringVar(&f.model, "model", "", "API model written by 'sdkgen analyze', used instead of traffic")
	}
}

// sources lists the flag sources followed by positional capture files,
// whose format is guessed from the extension.
func (f *trafficFlags) sources(args []string) []ingest.Source {
	var out []ingest.Source
	for _, p := range f.har {
		out = append(out, ingest.Source{Kind: ingest.KindHAR, Path: p})
	}
	for _, p := range f.logs {
		out = append(out, ingest.Source{Kind: ingest.KindProxyLog, Path: p})
	}
	for _, s := range f.sessions {
		out = append(out, ingest.Source{Kind: ingest.KindPowHTTP, Session: s, BookmarkedOnly: f.bookmarked})
	}
	for _, p := range args {
		out = append(out, ingest.Source{Kind: ingest.KindForPath(p), Path: p})
	}
	return out
}

func (f *trafficFlags) analyzeOptions(a *app) pipeline.AnalyzeOptions {
	title := f.title
	if title == "" {
		title = a.cfg.Title
	}
	return pipeline.AnalyzeOptions{
		Scope: indexer.Scope{
			Hosts:     f.hosts,
			Methods:   f.methods,
			StatusMin: f.statusMin,
			StatusMax: f.statusMax,
			Keywords:  f.keywords,
		},
		Filter:      f.filter,
		Title:       title,
		BaseURLs:    f.baseURLs,
		IncludeAll:  f.includeAll || a.cfg.IncludeAll,
		Conformance: a.cfg.Conformance && !f.noConformance,
	}
}

func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.OptionsFromConfig(a.cfg))
}

// loader builds a loader; a powhttp client is only created when a session
// source asks for one.
func (a *app) loader(srcs []ingest.Source) (*ingest.Loader, error) {
	var c *client.Client
	for _, s := range srcs {
		if s.Kind == ingest.KindPowHTTP {
			c = ingest.NewClient(a.cfg)
			break
		}
	}
	l, err := ingest.NewLoader(a.cfg, c)
	if err != nil {
		return nil, err
	}
	l.Stdin = a.stdin
	return l, nil
}

// analyze loads the selected traffic and runs the analysis.
func (a *app) analyze(ctx context.Context, p *pipeline.Pipeline, f *trafficFlags, args []string) (*pipeline.Analysis, error) {
	srcs := f.sources(args)
	if len(srcs) == 0 {
		return nil, errors.New("no traffic given: pass capture files, --har, --log or --session")
	}
	l, err := a.loader(srcs)
	if err != nil {
		return nil, err
	}
	exs, err := l.LoadAll(ctx, srcs)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, exs, f.analyzeOptions(a))
}

// model returns the API model from --model, or analyzes traffic. The report
// is nil when the model was read from a file.
func (a *app) model(ctx context.Context, p *pipeline.Pipeline, f *trafficFlags, args []string) (*apimodel.Model, *pipeline.Report, error) {
	if f.model != "" {
		if len(f.sources(args)) > 0 {
			return nil, nil, errors.New("--model cannot be combined with traffic sources")
		}
		data, err := os.ReadFile(f.model)
		if err != nil {
			return nil, nil, fmt.Errorf("reading model: %w", err)
		}
		m, err := apimodel.Unmarshal(data)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	}
	analysis, err := a.analyze(ctx, p, f, args)
	if err != nil {
		return nil, nil, err
	}
	return analysis.Model, &analysis.Report, nil
}
