package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"
)

// Category is a broad content classification of a body.
type Category string

const (
	CategoryJSON    Category = "json"
	CategoryForm    Category = "form"
	CategoryText    Category = "text"
	CategoryBinary  Category = "binary"
	CategoryUnknown Category = "unknown"
)

// Body is a captured payload: the raw bytes plus the decoded JSON value when
// the payload is JSON.
type Body struct {
	Raw         []byte
	ContentType string
	// JSON holds the decoded value (numbers as json.Number) when HasJSON is true.
	JSON    any
	HasJSON bool
	// ParseErr is set when the payload claimed to be JSON but did not decode.
	ParseErr error
}

// NewBody copies raw and decodes it when it is JSON. A decode failure is kept
// in ParseErr rather than returned: one bad sample must not fail a run.
func NewBody(raw []byte, contentType string) Body {
	b := Body{ContentType: contentType}
	if len(raw) == 0 {
		return b
	}
	b.Raw = append([]byte(nil), raw...)

	cat := ClassifyContent(contentType)
	if cat != CategoryJSON && !(cat == CategoryUnknown && looksLikeJSON(raw)) {
		return b
	}

	v, err := decodeJSON(raw)
	if err != nil {
		b.ParseErr = err
		return b
	}
	b.JSON = v
	b.HasJSON = true
	return b
}

// Empty reports whether no payload was captured.
func (b Body) Empty() bool { return len(b.Raw) == 0 }

// Category classifies the body from its content type, sniffing when unset.
func (b Body) Category() Category {
	cat := ClassifyContent(b.ContentType)
	if cat != CategoryUnknown {
		return cat
	}
	if b.HasJSON {
		return CategoryJSON
	}
	if len(b.Raw) > 0 && !utf8.Valid(b.Raw) {
		return CategoryBinary
	}
	return CategoryUnknown
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json body: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding json body: trailing data after value")
	}
	return v, nil
}

func looksLikeJSON(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && (t[0] == '{' || t[0] == '[')
}

// ClassifyContent maps a content-type header value to a Category. Parameters
// such as charset are ignored; an empty value is CategoryUnknown.
func ClassifyContent(contentType string) Category {
	if strings.TrimSpace(contentType) == "" {
		return CategoryUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.Contains(mediaType, "json"):
		return CategoryJSON
	case mediaType == "application/x-www-form-urlencoded":
		return CategoryForm
	case strings.HasPrefix(mediaType, "text/"),
		strings.Contains(mediaType, "xml"),
		strings.Contains(mediaType, "javascript"),
		strings.Contains(mediaType, "yaml"):
		return CategoryText
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "font/"),
		strings.Contains(mediaType, "octet-stream"),
		strings.Contains(mediaType, "protobuf"),
		strings.Contains(mediaType, "grpc"),
		strings.Contains(mediaType, "pdf"),
		strings.Contains(mediaType, "zip"):
		return CategoryBinary
	}
	return CategoryUnknown
}

// MediaType returns the content type without parameters, lowercased.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
