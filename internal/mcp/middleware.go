package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware logs each method call with its target (tool, prompt or
// resource URI) and the run it refers to. Tool results flagged IsError are
// logged at warn level.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := append(callAttrs(req),
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			level := slog.LevelInfo
			switch {
			case err != nil:
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", err.Error()))
			case isToolError(result):
				level = slog.LevelWarn
			}
			slog.LogAttrs(ctx, level, "mcp call", attrs...)
			return result, err
		}
	}
}

func callAttrs(req sdkmcp.Request) []slog.Attr {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params == nil {
			return nil
		}
		attrs := []slog.Attr{slog.String("tool", r.Params.Name)}
		var args struct {
			RunID string `json:"run_id"`
		}
		if json.Unmarshal(r.Params.Arguments, &args) == nil && args.RunID != "" {
			attrs = append(attrs, slog.String("run_id", args.RunID))
		}
		return attrs
	case *sdkmcp.GetPromptRequest:
		if r.Params != nil {
			return []slog.Attr{slog.String("prompt", r.Params.Name)}
		}
	case *sdkmcp.ReadResourceRequest:
		if r.Params != nil {
			return []slog.Attr{slog.String("uri", r.Params.URI)}
		}
	}
	return nil
}

func isToolError(result sdkmcp.Result) bool {
	r, ok := result.(*sdkmcp.CallToolResult)
	return ok && r != nil && r.IsError
}
