package client

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"s1","name":"Main","entryIds":["e1","e2"]}]`))
	})
	mux.HandleFunc("/sessions/s1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s1","name":"Main","entryIds":["e1","e2"]}`))
	})
	mux.HandleFunc("/sessions/s1/entries/e1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"e1","url":"https://api.test/users","request":{"method":"GET","headers":[["Accept","application/json"]]},"response":{"statusCode":200,"headers":[["Content-Type","application/json"]],"body":"` +
			base64.StdEncoding.EncodeToString([]byte(`{"id":1}`)) + `"},"timings":{"startedAt":1700000000000}}`))
	})
	mux.HandleFunc("/sessions/s1/entries/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"entry not found"}`))
	})
	mux.HandleFunc("/sessions/s2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/sessions/s3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + r.Header.Get("User-Agent") + `","name":"` + r.Header.Get("Accept") + `"}`))
	})
	mux.HandleFunc("/sessions/s1/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["e2"]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Sessions(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL+"/"), WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	assert.Equal(t, srv.URL, c.BaseURL())

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"e1", "e2"}, sessions[0].EntryIDs)

	bookmarks, err := c.GetSessionBookmarks(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, bookmarks)
}

func TestClient_EntryIDs(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL))

	tests := []struct {
		name       string
		bookmarked bool
		want       []string
	}{
		{"all entries", false, []string{"e1", "e2"}},
		{"bookmarked only", true, []string{"e2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := c.EntryIDs(context.Background(), "s1", tt.bookmarked)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestClient_GetEntry(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL))

	e, err := c.GetEntry(context.Background(), "s1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "GET", *e.Request.Method)
	assert.Equal(t, "application/json", e.Request.Headers.Get("accept"))
	assert.Equal(t, int64(1700000000000), e.Timings.StartedAt)
	require.NotNil(t, e.Response)
	body, err := DecodeBody(e.Response.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(body))
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL))

	_, err := c.GetEntry(context.Background(), "s1", "missing")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "entry not found", apiErr.Message)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL))

	tests := []struct {
		name      string
		sessionID string
		status    int
		want      string
	}{
		{"empty error body", "s2", http.StatusBadGateway, "Bad Gateway"},
		{"undecodable body", "s3", 0, "decoding /sessions/s3 response"},
		{"unknown path", "nope", http.StatusNotFound, "404 page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.GetSession(context.Background(), tt.sessionID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var apiErr *APIError
			if tt.status == 0 {
				assert.False(t, errors.As(err, &apiErr))
				return
			}
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestClient_Headers(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL), WithUserAgent("sdkgen-test"))

	var got Session
	require.NoError(t, c.get(context.Background(), "/headers", nil, &got))
	assert.Equal(t, "sdkgen-test", got.ID)
	assert.Equal(t, "application/json", got.Name)
}

func TestClient_LimiterHonorsContext(t *testing.T) {
	srv := newTestServer(t)
	c := New(WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Every(1e12), 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListSessions(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestDecodeBody_Nil(t *testing.T) {
	b, err := DecodeBody(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}
