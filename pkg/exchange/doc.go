// Package exchange defines the canonical in-memory form of one captured
// HTTP request/response pair.
//
// Every ingestion source (HAR files, proxy JSON logs, powhttp sessions)
// converts its records into *Exchange values with [New]. Once constructed an
// Exchange is never modified; the analysis pipeline shares pointers to it
// freely across goroutines.
package exchange
