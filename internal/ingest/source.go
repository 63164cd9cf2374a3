// Package ingest turns capture containers (HAR files, proxy JSON logs,
// powhttp sessions) into exchanges. Malformed input is fatal and reported
// with the offending record's location.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// Kind identifies a capture container format.
type Kind string

const (
	KindHAR      Kind = "har"
	KindProxyLog Kind = "log"
	KindPowHTTP  Kind = "session"
)

// Source names one capture to load.
type Source struct {
	Kind Kind
	// Path is the capture file for KindHAR and KindProxyLog; "-" reads stdin.
	Path string
	// Session is the powhttp session ID for KindPowHTTP ("active" works).
	Session        string
	BookmarkedOnly bool
}

// Name labels the source in errors and logs.
func (s Source) Name() string {
	if s.Kind == KindPowHTTP {
		return "powhttp:" + s.Session
	}
	if s.Path == "-" {
		return "stdin"
	}
	return filepath.Base(s.Path)
}

// KindForPath guesses the container format from a file extension.
func KindForPath(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".har") {
		return KindHAR
	}
	return KindProxyLog
}

// Loader reads sources. PowHTTP is only needed for KindPowHTTP sources.
type Loader struct {
	PowHTTP *PowHTTPSource
	Stdin   io.Reader
}

// Load reads every exchange of one source.
func (l *Loader) Load(ctx context.Context, src Source) ([]*exchange.Exchange, error) {
	switch src.Kind {
	case KindHAR:
		return l.loadFile(src, ParseHAR)
	case KindProxyLog:
		return l.loadFile(src, ParseProxyLog)
	case KindPowHTTP:
		if l.PowHTTP == nil {
			return nil, &IngestError{Source: src.Name(), Err: errors.New("powhttp source not configured")}
		}
		if src.Session == "" {
			return nil, &IngestError{Source: src.Name(), Field: "session", Err: ErrMissing}
		}
		return l.PowHTTP.Session(ctx, src.Session, src.BookmarkedOnly)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// LoadAll reads sources in order and concatenates their exchanges. The first
// failing source aborts the load.
func (l *Loader) LoadAll(ctx context.Context, srcs []Source) ([]*exchange.Exchange, error) {
	var out []*exchange.Exchange
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exs, err := l.Load(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, exs...)
	}
	return out, nil
}

func (l *Loader) loadFile(src Source, parse func(io.Reader, string) ([]*exchange.Exchange, error)) ([]*exchange.Exchange, error) {
	if src.Path == "-" {
		stdin := l.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		return parse(stdin, src.Name())
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &IngestError{Source: src.Name(), Err: err}
	}
	defer f.Close()
	return parse(f, src.Name())
}
