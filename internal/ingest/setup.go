package ingest

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/usestring/powhttp-sdkgen/internal/cache"
	"github.com/usestring/powhttp-sdkgen/internal/config"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
)

const userAgent = "powhttp-sdkgen"

// NewClient builds a powhttp client with the configured base URL, request
// timeout and fetch rate. A non-positive FetchRPS disables throttling.
func NewClient(cfg *config.Config) *client.Client {
	opts := []client.Option{
		client.WithBaseURL(cfg.PowHTTPBaseURL),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
		client.WithUserAgent(userAgent),
	}
	if cfg.FetchRPS > 0 {
		burst := max(cfg.FetchBurst, 1)
		opts = append(opts, client.WithLimiter(rate.NewLimiter(rate.Limit(cfg.FetchRPS), burst)))
	}
	return client.New(opts...)
}

// NewLoader wires a Loader for cfg. c may be nil, in which case powhttp
// session sources fail to load.
func NewLoader(cfg *config.Config, c *client.Client) (*Loader, error) {
	l := &Loader{}
	if c == nil {
		return l, nil
	}
	size := cfg.EntryCacheMaxItems
	if size <= 0 {
		size = 4096
	}
	entries, err := cache.NewExchangeCache(size)
	if err != nil {
		return nil, fmt.Errorf("creating exchange cache: %w", err)
	}
	l.PowHTTP = NewPowHTTPSource(c, PowHTTPOptions{
		Workers: cfg.FetchWorkers,
		Timeout: cfg.FetchTimeout,
		Cache:   entries,
	})
	return l, nil
}
