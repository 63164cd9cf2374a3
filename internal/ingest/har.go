package ingest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// HAR 1.2, reduced to the fields that describe a request/response pair.
type harFile struct {
	Log *struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []harNameVal `json:"headers"`
	PostData *harPostData `json:"postData"`
}

type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
}

type harResponse struct {
	Status  int          `json:"status"`
	Headers []harNameVal `json:"headers"`
	Content harContent   `json:"content"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
}

type harNameVal struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseHAR reads a browser-exported HAR capture. name labels errors and
// exchange IDs. Entries without a response (status 0, aborted requests) are
// skipped.
func ParseHAR(r io.Reader, name string) ([]*exchange.Exchange, error) {
	var f harFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, &IngestError{Source: name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if f.Log == nil {
		return nil, &IngestError{Source: name, Field: "log", Err: ErrMissing}
	}

	out := make([]*exchange.Exchange, 0, len(f.Log.Entries))
	skipped := 0
	for i, e := range f.Log.Entries {
		ex, err := harExchange(name, i, &e)
		if err != nil {
			return nil, err
		}
		if ex == nil {
			skipped++
			continue
		}
		out = append(out, ex)
	}

	slog.Debug("parsed HAR capture",
		slog.String("source", name),
		slog.Int("entries", len(f.Log.Entries)),
		slog.Int("skipped", skipped),
	)
	return out, nil
}

func harExchange(name string, i int, e *harEntry) (*exchange.Exchange, error) {
	fail := func(field string, err error) error {
		return &IngestError{Source: name, Record: fmt.Sprintf("entry %d", i), Field: field, Err: err}
	}

	if e.Request.URL == "" {
		return nil, fail("request.url", ErrMissing)
	}
	if e.Request.Method == "" {
		return nil, fail("request.method", ErrMissing)
	}
	if e.Response.Status == 0 {
		return nil, nil
	}

	var ts time.Time
	if e.StartedDateTime != "" {
		var err error
		ts, err = time.Parse(time.RFC3339Nano, e.StartedDateTime)
		if err != nil {
			return nil, fail("startedDateTime", err)
		}
	}

	reqHeaders := harHeaders(e.Request.Headers)
	var reqBody []byte
	if pd := e.Request.PostData; pd != nil {
		b, err := decodeText(pd.Text, pd.Encoding)
		if err != nil {
			return nil, fail("request.postData.text", err)
		}
		reqBody = b
		reqHeaders = withContentType(reqHeaders, pd.MimeType)
	}

	respBody, err := decodeText(e.Response.Content.Text, e.Response.Content.Encoding)
	if err != nil {
		return nil, fail("response.content.text", err)
	}
	respHeaders := withContentType(harHeaders(e.Response.Headers), e.Response.Content.MimeType)

	return exchange.New(exchange.Params{
		ID:              fmt.Sprintf("%s#%d", name, i),
		Method:          e.Request.Method,
		URL:             e.Request.URL,
		RequestHeaders:  reqHeaders,
		RequestBody:     reqBody,
		Status:          e.Response.Status,
		ResponseHeaders: respHeaders,
		ResponseBody:    respBody,
		Timestamp:       ts,
	}), nil
}

func harHeaders(in []harNameVal) exchange.Headers {
	out := make(exchange.Headers, 0, len(in))
	for _, h := range in {
		out = append(out, exchange.Header{Name: h.Name, Value: h.Value})
	}
	return out
}

// withContentType adds the HAR mimeType as a Content-Type header when the
// captured headers lack one (HTTP/2 exports often do).
func withContentType(h exchange.Headers, mime string) exchange.Headers {
	if mime == "" || h.Has("Content-Type") {
		return h
	}
	return append(h, exchange.Header{Name: "Content-Type", Value: mime})
}

func decodeText(text, encoding string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}
	if encoding == "base64" {
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return b, nil
	}
	return []byte(text), nil
}
