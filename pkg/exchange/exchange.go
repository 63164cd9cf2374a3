package exchange

import (
	"strings"
	"time"
)

// Exchange is one captured request/response pair.
// Fields must not be modified after New returns.
type Exchange struct {
	ID     string
	Method string
	Scheme string
	Host   string
	// Path is the raw request path without the query string.
	Path  string
	Query Query

	RequestHeaders Headers
	RequestBody    Body

	Status          int
	ResponseHeaders Headers
	ResponseBody    Body

	Timestamp time.Time
}

// Params carries the raw values an ingestion source extracted from one record.
type Params struct {
	ID     string
	Method string
	// URL may be absolute ("https://api.example.com/users?page=2") or a bare
	// path ("/users?page=2"). Scheme and Host override what URL carries.
	URL    string
	Scheme string
	Host   string

	RequestHeaders Headers
	RequestBody    []byte

	Status          int
	ResponseHeaders Headers
	ResponseBody    []byte

	Timestamp time.Time
}

// New builds an immutable Exchange from raw params. Header and body slices are
// copied, the method is uppercased and the query string is split off the path.
func New(p Params) *Exchange {
	scheme, host, path, rawQuery := splitURL(p.URL)
	if p.Scheme != "" {
		scheme = p.Scheme
	}
	if p.Host != "" {
		host = p.Host
	}
	if scheme == "" && host != "" {
		scheme = "https"
	}

	reqHeaders := p.RequestHeaders.Clone()
	respHeaders := p.ResponseHeaders.Clone()

	return &Exchange{
		ID:              p.ID,
		Method:          strings.ToUpper(strings.TrimSpace(p.Method)),
		Scheme:          strings.ToLower(scheme),
		Host:            strings.ToLower(host),
		Path:            path,
		Query:           ParseQuery(rawQuery),
		RequestHeaders:  reqHeaders,
		RequestBody:     NewBody(p.RequestBody, reqHeaders.Get("Content-Type")),
		Status:          p.Status,
		ResponseHeaders: respHeaders,
		ResponseBody:    NewBody(p.ResponseBody, respHeaders.Get("Content-Type")),
		Timestamp:       p.Timestamp,
	}
}

// BaseURL returns scheme://host, or "" when the host is unknown.
func (e *Exchange) BaseURL() string {
	if e.Host == "" {
		return ""
	}
	return e.Scheme + "://" + e.Host
}

// Segments returns the non-empty path segments. Trailing slashes and repeated
// slashes never produce empty segments.
func (e *Exchange) Segments() []string {
	return SplitPath(e.Path)
}

// SplitPath splits a path into its non-empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizePath joins the segments of path back with a single leading slash.
// "/users/" and "users" both become "/users"; "" becomes "/".
func NormalizePath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}

func splitURL(raw string) (scheme, host, path, rawQuery string) {
	rest := strings.TrimSpace(raw)
	if i := strings.Index(rest, "#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme = rest[:i]
		rest = rest[i+3:]
		slash := strings.IndexAny(rest, "/?")
		if slash < 0 {
			host, rest = rest, ""
		} else {
			host, rest = rest[:slash], rest[slash:]
		}
		if at := strings.LastIndex(host, "@"); at >= 0 {
			host = host[at+1:]
		}
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		rawQuery = rest[i+1:]
		rest = rest[:i]
	}
	path = NormalizePath(rest)
	return scheme, host, path, rawQuery
}
