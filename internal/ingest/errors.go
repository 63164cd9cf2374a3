package ingest

import (
	"errors"
	"strings"
)

// ErrMissing marks a required field that is absent from a capture record.
var ErrMissing = errors.New("missing")

// IngestError locates a malformed capture record. Ingestion errors are fatal:
// analysis never starts on a partially read capture.
type IngestError struct {
	Source string // file name or "powhttp:<session>"
	Record string // e.g. "entry 12", "record 3"; empty for file-level errors
	Field  string // dotted path inside the record, e.g. "request.url"
	Err    error
}

func (e *IngestError) Error() string {
	parts := []string{e.Source}
	if e.Record != "" {
		parts = append(parts, e.Record)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Err.Error())
	return strings.Join(parts, ": ")
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
