package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
)

// Codes carried by tool errors. Clients branch on these, not on messages.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodePowHTTPError     = "POWHTTP_ERROR"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
)

// CodedError is the error a tool returns to the MCP client. Error() leads
// with the code so it survives the SDK's conversion to text content.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return e.Code + ": " + e.Message
}

func (e *CodedError) Unwrap() error { return e.Cause }

func codedf(code, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound reports an unknown run, endpoint or session.
func ErrNotFound(resource, id string) error {
	return codedf(ErrCodeNotFound, "%s not found: %s", resource, id)
}

// ErrInvalidInput reports bad tool arguments.
func ErrInvalidInput(message string) error {
	return codedf(ErrCodeInvalidInput, "%s", message)
}

// ErrGenerationFailed reports a generation in which no target succeeded.
func ErrGenerationFailed(message string) error {
	return codedf(ErrCodeGenerationFailed, "%s", message)
}

// WrapPowHTTPError codes a failed powhttp call: 404 becomes NOT_FOUND,
// deadlines become TIMEOUT and the rest POWHTTP_ERROR.
func WrapPowHTTPError(err error) error {
	if err == nil {
		return nil
	}
	coded := &CodedError{Code: ErrCodePowHTTPError, Message: err.Error(), Cause: err}

	var apiErr *client.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		coded.Message = apiErr.Message
		if apiErr.StatusCode == http.StatusNotFound {
			coded.Code = ErrCodeNotFound
		}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded.Code = ErrCodeTimeout
		coded.Message = "request timed out"
	}

	slog.Warn("powhttp call failed", slog.String("code", coded.Code), slog.String("message", coded.Message))
	return coded
}

// WrapLoadError codes a source loading failure. A malformed or missing
// capture file is INVALID_INPUT; failures talking to powhttp go through
// WrapPowHTTPError.
func WrapLoadError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	var ingestErr *ingest.IngestError
	if errors.As(err, &ingestErr) && !errors.As(err, &apiErr) {
		return &CodedError{Code: ErrCodeInvalidInput, Message: "loading traffic", Cause: err}
	}
	return WrapPowHTTPError(err)
}
