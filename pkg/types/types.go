// Package types holds the input and output shapes shared by the MCP tools
// and by callers embedding the server.
package types

import "encoding/json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResourceRef points to an MCP resource.
type ResourceRef struct {
	URI  string `json:"uri"`
	MIME string `json:"mime"`
	Hint string `json:"hint,omitempty"`
}

// SourceSpec names one capture to load.
type SourceSpec struct {
	HAR            string `json:"har,omitempty" jsonschema:"Path to a HAR file"`
	Log            string `json:"log,omitempty" jsonschema:"Path to a proxy JSON log (array or JSON Lines)"`
	Session        string `json:"session,omitempty" jsonschema:"powhttp session ID ('active' for the active session)"`
	BookmarkedOnly bool   `json:"bookmarked_only,omitempty" jsonschema:"With session: only load bookmarked entries"`
}

// RunInfo summarizes a stored analysis.
type RunInfo struct {
	RunID         string   `json:"run_id"`
	Title         string   `json:"title"`
	BaseURLs      []string `json:"base_urls,omitzero"`
	EndpointCount int      `json:"endpoint_count"`
	CreatedAt     string   `json:"created_at"`
}
