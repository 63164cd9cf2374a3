// Package pipeline runs captured exchanges through detection, inference and
// model assembly, then through the language emitters. Every endpoint group
// and every target language is an isolated unit of work: a failure in one is
// reported and never aborts the others.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/usestring/powhttp-sdkgen/internal/builder"
	"github.com/usestring/powhttp-sdkgen/internal/cache"
	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/internal/config"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter/backends"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// Options configures a Pipeline. Zero values mean defaults.
type Options struct {
	InferWorkers       int // concurrent group builds, default 8
	InferCacheMaxItems int // inference cache size, default 8192
	MaxBodyBytes       int // larger bodies are typed unknown; 0 = no limit
	MaxDepth           int // inference depth bound, default 32
	MinDistinctValues  int // path templating threshold, default 2
	Registry           *emitter.Registry
}

// Pipeline holds the shared, read-only machinery of analysis and generation.
// It is safe for concurrent use.
type Pipeline struct {
	detector     *catalog.Detector
	infer        *cache.InferCache
	workers      int
	maxBodyBytes int
	registry     *emitter.Registry
}

// OptionsFromConfig maps the application config onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InferWorkers:       cfg.InferWorkers,
		InferCacheMaxItems: cfg.InferCacheMaxItems,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		MaxDepth:           cfg.MaxDepth,
		MinDistinctValues:  cfg.MinDistinctValues,
	}
}

// New creates a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.InferWorkers <= 0 {
		opts.InferWorkers = 8
	}
	if opts.InferCacheMaxItems <= 0 {
		opts.InferCacheMaxItems = 8192
	}
	inferOpts := typenode.DefaultInferOptions()
	if opts.MaxDepth > 0 {
		inferOpts.MaxDepth = opts.MaxDepth
	}
	ic, err := cache.NewInferCache(opts.InferCacheMaxItems, inferOpts)
	if err != nil {
		return nil, fmt.Errorf("creating inference cache: %w", err)
	}
	if opts.Registry == nil {
		opts.Registry = backends.Registry()
	}

	detect := catalog.DefaultDetectOptions()
	if opts.MinDistinctValues > 0 {
		detect.MinDistinctValues = opts.MinDistinctValues
	}

	return &Pipeline{
		detector:     catalog.NewDetector(detect),
		infer:        ic,
		workers:      opts.InferWorkers,
		maxBodyBytes: opts.MaxBodyBytes,
		registry:     opts.Registry,
	}, nil
}

// Registry returns the emitter registry used by Generate.
func (p *Pipeline) Registry() *emitter.Registry {
	return p.registry
}

// inferBody is the builder's InferFunc: cached, and bounded by MaxBodyBytes.
func (p *Pipeline) inferBody(body exchange.Body) *typenode.Node {
	if p.tooLarge(body) {
		slog.Debug("body exceeds size limit, typed as unknown",
			slog.Int("bytes", len(body.Raw)),
			slog.Int("limit", p.maxBodyBytes),
		)
		return typenode.Unknown()
	}
	return p.infer.Infer(body)
}

func (p *Pipeline) tooLarge(body exchange.Body) bool {
	return p.maxBodyBytes > 0 && len(body.Raw) > p.maxBodyBytes
}

func (p *Pipeline) newBuilder() *builder.Builder {
	return builder.New(p.inferBody)
}
