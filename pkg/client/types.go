package client

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Session represents a powhttp session containing captured network traffic.
type Session struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	EntryIDs []string `json:"entryIds"`
}

// Headers is a slice of header key-value pairs as sent by powhttp.
type Headers [][]string

// Get returns the first value for the given header name (case-insensitive).
func (h Headers) Get(name string) string {
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			return pair[1]
		}
	}
	return ""
}

// Request represents an HTTP request.
type Request struct {
	Method  *string `json:"method"`
	Path    *string `json:"path"`
	Headers Headers `json:"headers"`
	Body    *string `json:"body"` // Base64-encoded
}

// Response represents an HTTP response.
type Response struct {
	StatusCode *int    `json:"statusCode"`
	Headers    Headers `json:"headers"`
	Body       *string `json:"body"` // Base64-encoded
}

// Timings contains timing information for an HTTP transaction.
type Timings struct {
	StartedAt int64 `json:"startedAt"` // Unix timestamp in milliseconds
}

// SessionEntry is one captured HTTP transaction. Only the fields needed to
// rebuild a request/response pair are decoded.
type SessionEntry struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Request     Request   `json:"request"`
	Response    *Response `json:"response"`
	IsWebSocket bool      `json:"isWebSocket"`
	Timings     Timings   `json:"timings"`
}

// APIError represents an error response from the powhttp API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("powhttp API error %d: %s", e.StatusCode, e.Message)
}

type errorResponse struct {
	Error string `json:"error"`
}

// DecodeBody decodes a base64-encoded body.
// Returns nil if the input is nil.
func DecodeBody(encoded *string) ([]byte, error) {
	if encoded == nil {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(*encoded)
}
