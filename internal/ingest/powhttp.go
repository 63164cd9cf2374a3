package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/powhttp-sdkgen/internal/cache"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// PowHTTPOptions tunes how sessions are pulled from powhttp.
type PowHTTPOptions struct {
	Workers int                  // concurrent entry fetches, default 8
	Timeout time.Duration        // per-session fetch timeout, 0 = none
	Cache   *cache.ExchangeCache // converted entries, keyed "session/entry"; optional
}

// PowHTTPSource loads captured traffic from a running powhttp instance.
// Request throttling is configured on the client (client.WithLimiter).
type PowHTTPSource struct {
	client  *client.Client
	workers int
	timeout time.Duration
	cache   *cache.ExchangeCache
	group   singleflight.Group
}

// NewPowHTTPSource creates a source backed by c.
func NewPowHTTPSource(c *client.Client, opts PowHTTPOptions) *PowHTTPSource {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &PowHTTPSource{
		client:  c,
		workers: opts.Workers,
		timeout: opts.Timeout,
		cache:   opts.Cache,
	}
}

// Session returns the exchanges of one session in capture order. With
// bookmarkedOnly only bookmarked entries are fetched. Concurrent calls for
// the same session share one fetch.
func (s *PowHTTPSource) Session(ctx context.Context, sessionID string, bookmarkedOnly bool) ([]*exchange.Exchange, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key := sessionID
	if bookmarkedOnly {
		key += "|bookmarked"
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchSession(ctx, sessionID, bookmarkedOnly)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*exchange.Exchange), nil
}

func (s *PowHTTPSource) fetchSession(ctx context.Context, sessionID string, bookmarkedOnly bool) ([]*exchange.Exchange, error) {
	start := time.Now()

	entryIDs, err := s.client.EntryIDs(ctx, sessionID, bookmarkedOnly)
	if err != nil {
		return nil, fmt.Errorf("fetching entry ids: %w", err)
	}

	exs, err := s.fetchEntriesConcurrently(ctx, sessionID, entryIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*exchange.Exchange, 0, len(exs))
	for _, ex := range exs {
		if ex != nil {
			out = append(out, ex)
		}
	}

	slog.Info("fetched powhttp session",
		slog.String("session_id", sessionID),
		slog.Int("entries", len(entryIDs)),
		slog.Int("exchanges", len(out)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out, nil
}

// fetchEntriesConcurrently fetches and converts entries using a worker pool.
// Entries that cannot be fetched are skipped; entries that cannot be
// converted fail the whole load.
func (s *PowHTTPSource) fetchEntriesConcurrently(ctx context.Context, sessionID string, entryIDs []string) ([]*exchange.Exchange, error) {
	out := make([]*exchange.Exchange, len(entryIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, entryID := range entryIDs {
		g.Go(func() error {
			key := sessionID + "/" + entryID
			if s.cache != nil {
				if cached, ok := s.cache.Get(key); ok {
					out[i] = cached
					return nil
				}
			}

			entry, err := s.client.GetEntry(ctx, sessionID, entryID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("failed to fetch entry",
					slog.String("session_id", sessionID),
					slog.String("entry_id", entryID),
					slog.String("error", err.Error()),
				)
				return nil
			}

			ex, err := FromSessionEntry(entry, "powhttp:"+sessionID)
			if err != nil {
				return err
			}
			if ex == nil {
				return nil
			}
			if s.cache != nil {
				s.cache.Put(key, ex)
			}
			out[i] = ex
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FromSessionEntry converts a powhttp entry. It returns nil for entries that
// carry no request/response pair (WebSocket upgrades, missing responses).
func FromSessionEntry(e *client.SessionEntry, source string) (*exchange.Exchange, error) {
	fail := func(field string, err error) error {
		return &IngestError{Source: source, Record: "entry " + e.ID, Field: field, Err: err}
	}

	if e.IsWebSocket || e.Response == nil || e.Response.StatusCode == nil {
		return nil, nil
	}
	if e.URL == "" {
		return nil, fail("url", ErrMissing)
	}
	if e.Request.Method == nil || *e.Request.Method == "" {
		return nil, fail("request.method", ErrMissing)
	}

	reqBody, err := client.DecodeBody(e.Request.Body)
	if err != nil {
		return nil, fail("request.body", fmt.Errorf("invalid base64: %w", err))
	}
	respBody, err := client.DecodeBody(e.Response.Body)
	if err != nil {
		return nil, fail("response.body", fmt.Errorf("invalid base64: %w", err))
	}

	var ts time.Time
	if e.Timings.StartedAt > 0 {
		ts = time.UnixMilli(e.Timings.StartedAt).UTC()
	}

	return exchange.New(exchange.Params{
		ID:              e.ID,
		Method:          *e.Request.Method,
		URL:             e.URL,
		RequestHeaders:  exchange.HeadersFromPairs(e.Request.Headers),
		RequestBody:     reqBody,
		Status:          *e.Response.StatusCode,
		ResponseHeaders: exchange.HeadersFromPairs(e.Response.Headers),
		ResponseBody:    respBody,
		Timestamp:       ts,
	}), nil
}
