package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// proxyRecord is one line (or array element) of a proxy JSON log.
type proxyRecord struct {
	ID       string          `json:"id"`
	Request  *proxyMessage   `json:"request"`
	Response *proxyMessage   `json:"response"`
	Time     json.RawMessage `json:"timestamp"`
}

type proxyMessage struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Status  int             `json:"status"`
	Headers json.RawMessage `json:"headers"`
	Body    json.RawMessage `json:"body"`
}

// ParseProxyLog reads a proxy-captured JSON log: either one JSON array of
// records or JSON Lines. Records without a response are skipped.
func ParseProxyLog(r io.Reader, name string) ([]*exchange.Exchange, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &IngestError{Source: name, Err: err}
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var raws []json.RawMessage
		if err := dec.Decode(&raws); err != nil {
			return nil, &IngestError{Source: name, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		return proxyExchanges(name, func(yield func(json.RawMessage) bool) error {
			for _, raw := range raws {
				if !yield(raw) {
					return nil
				}
			}
			return nil
		})
	}

	return proxyExchanges(name, func(yield func(json.RawMessage) bool) error {
		for i := 0; ; i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return &IngestError{Source: name, Record: fmt.Sprintf("record %d", i), Err: fmt.Errorf("invalid JSON: %w", err)}
			}
			if !yield(raw) {
				return nil
			}
		}
	})
}

func proxyExchanges(name string, each func(yield func(json.RawMessage) bool) error) ([]*exchange.Exchange, error) {
	var out []*exchange.Exchange
	var recErr error
	i, skipped := 0, 0
	err := each(func(raw json.RawMessage) bool {
		ex, err := proxyExchange(name, i, raw)
		i++
		if err != nil {
			recErr = err
			return false
		}
		if ex == nil {
			skipped++
			return true
		}
		out = append(out, ex)
		return true
	})
	if err != nil {
		return nil, err
	}
	if recErr != nil {
		return nil, recErr
	}

	slog.Debug("parsed proxy log",
		slog.String("source", name),
		slog.Int("records", i),
		slog.Int("skipped", skipped),
	)
	return out, nil
}

func proxyExchange(name string, i int, raw json.RawMessage) (*exchange.Exchange, error) {
	fail := func(field string, err error) error {
		return &IngestError{Source: name, Record: fmt.Sprintf("record %d", i), Field: field, Err: err}
	}

	var rec proxyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fail("", fmt.Errorf("invalid record: %w", err))
	}
	if rec.Request == nil {
		return nil, fail("request", ErrMissing)
	}
	if rec.Request.URL == "" {
		return nil, fail("request.url", ErrMissing)
	}
	if rec.Response == nil {
		return nil, nil
	}
	if rec.Response.Status == 0 {
		return nil, fail("response.status", ErrMissing)
	}

	reqHeaders, err := parseHeaders(rec.Request.Headers)
	if err != nil {
		return nil, fail("request.headers", err)
	}
	respHeaders, err := parseHeaders(rec.Response.Headers)
	if err != nil {
		return nil, fail("response.headers", err)
	}
	reqBody, err := parseBody(rec.Request.Body)
	if err != nil {
		return nil, fail("request.body", err)
	}
	respBody, err := parseBody(rec.Response.Body)
	if err != nil {
		return nil, fail("response.body", err)
	}
	ts, err := parseTimestamp(rec.Time)
	if err != nil {
		return nil, fail("timestamp", err)
	}

	method := rec.Request.Method
	if method == "" {
		method = "GET"
	}
	id := rec.ID
	if id == "" {
		id = fmt.Sprintf("%s#%d", name, i)
	}

	return exchange.New(exchange.Params{
		ID:              id,
		Method:          method,
		URL:             rec.Request.URL,
		RequestHeaders:  reqHeaders,
		RequestBody:     reqBody,
		Status:          rec.Response.Status,
		ResponseHeaders: respHeaders,
		ResponseBody:    respBody,
		Timestamp:       ts,
	}), nil
}

// parseHeaders accepts an object ({"name": "v"} or {"name": ["v1","v2"]}),
// a list of pairs ([["name","v"]]) or a list of {"name","value"} objects.
// Object key order is preserved.
func parseHeaders(raw json.RawMessage) (exchange.Headers, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '{':
		return parseHeaderObject(raw)
	case '[':
		var pairs [][]string
		if err := json.Unmarshal(raw, &pairs); err == nil {
			return exchange.HeadersFromPairs(pairs), nil
		}
		var list []exchange.Header
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, errors.New("expected a list of [name, value] pairs or {name, value} objects")
		}
		return list, nil
	default:
		return nil, errors.New("expected an object or a list")
	}
}

func parseHeaderObject(raw json.RawMessage) (exchange.Headers, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out exchange.Headers
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case string:
			out = append(out, exchange.Header{Name: name, Value: val})
		case []any:
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("header %q: expected string values", name)
				}
				out = append(out, exchange.Header{Name: name, Value: s})
			}
		case float64, bool:
			out = append(out, exchange.Header{Name: name, Value: fmt.Sprint(val)})
		case nil:
		default:
			return nil, fmt.Errorf("header %q: expected a string or a list of strings", name)
		}
	}
	return out, nil
}

// parseBody returns string bodies verbatim and re-emits embedded JSON values
// as compact JSON text.
func parseBody(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []byte(s), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseTimestamp accepts RFC 3339 strings and Unix epochs in seconds or
// milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected an RFC 3339 string or a Unix epoch: %w", err)
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

// WriteProxyLog writes exchanges as JSON Lines in the format ParseProxyLog
// reads. JSON bodies are embedded as values, everything else as strings.
func WriteProxyLog(w io.Writer, exs []*exchange.Exchange) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ex := range exs {
		rec := map[string]any{
			"id": ex.ID,
			"request": map[string]any{
				"method":  ex.Method,
				"url":     exchangeURL(ex),
				"headers": headerPairs(ex.RequestHeaders),
				"body":    bodyValue(ex.RequestBody),
			},
			"response": map[string]any{
				"status":  ex.Status,
				"headers": headerPairs(ex.ResponseHeaders),
				"body":    bodyValue(ex.ResponseBody),
			},
		}
		if !ex.Timestamp.IsZero() {
			rec["timestamp"] = ex.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("writing exchange %s: %w", ex.ID, err)
		}
	}
	return nil
}

func exchangeURL(ex *exchange.Exchange) string {
	u := ex.BaseURL() + ex.Path
	if raw := ex.Query.Encode(); raw != "" {
		u += "?" + raw
	}
	return u
}

func headerPairs(h exchange.Headers) [][]string {
	out := make([][]string, 0, len(h))
	for _, hdr := range h {
		out = append(out, []string{hdr.Name, hdr.Value})
	}
	return out
}

func bodyValue(b exchange.Body) any {
	if b.Empty() {
		return nil
	}
	if b.HasJSON && json.Valid(b.Raw) {
		return json.RawMessage(b.Raw)
	}
	return string(b.Raw)
}
