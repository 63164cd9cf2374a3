package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/internal/config"
)

func TestNewClient(t *testing.T) {
	cfg := &config.Config{
		PowHTTPBaseURL:    "http://127.0.0.1:9999/",
		HTTPClientTimeout: time.Second,
		FetchRPS:          5,
	}
	c := NewClient(cfg)
	assert.Equal(t, "http://127.0.0.1:9999", c.BaseURL())
}

func TestNewLoader(t *testing.T) {
	cfg := &config.Config{EntryCacheMaxItems: 16, FetchWorkers: 2}

	l, err := NewLoader(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, l.PowHTTP)
	_, err = l.Load(context.Background(), Source{Kind: KindPowHTTP, Session: "active"})
	assert.ErrorContains(t, err, "powhttp source not configured")

	l, err = NewLoader(cfg, NewClient(&config.Config{PowHTTPBaseURL: "http://127.0.0.1:9999"}))
	require.NoError(t, err)
	require.NotNil(t, l.PowHTTP)
	assert.Equal(t, 2, l.PowHTTP.workers)
}
