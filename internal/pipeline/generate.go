package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aymanbagabas/go-udiff"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
)

// GenerateOptions selects targets and where their files go.
type GenerateOptions struct {
	// Languages lists registry keys or aliases; "all" or empty means every
	// registered language.
	Languages []string
	// OutDir receives one subdirectory per language.
	OutDir string
	// Check compares against the files already in OutDir instead of writing.
	Check bool
	Emit  emitter.Options
}

// Generate runs every requested emitter on m. Targets are independent: an
// unknown language, an emitter error or panic, or a write failure only marks
// that target failed.
func (p *Pipeline) Generate(ctx context.Context, m *apimodel.Model, opts GenerateOptions) *GenerateReport {
	langs := p.resolveLanguages(opts.Languages)
	report := &GenerateReport{Targets: make([]TargetResult, len(langs))}

	var wg sync.WaitGroup
	for i, lang := range langs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Targets[i] = p.generateTarget(ctx, m, lang, opts)
		}()
	}
	wg.Wait()
	return report
}

func (p *Pipeline) resolveLanguages(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range in {
		for _, part := range strings.Split(l, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if part == "all" {
				return p.registry.Languages()
			}
			if e, err := p.registry.Lookup(part); err == nil {
				part = e.Language()
			}
			if !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return p.registry.Languages()
	}
	return out
}

func (p *Pipeline) generateTarget(ctx context.Context, m *apimodel.Model, lang string, opts GenerateOptions) (res TargetResult) {
	start := time.Now()
	res = TargetResult{Language: lang}
	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Error = fmt.Sprintf("panic while generating: %v", r)
		}
		attrs := []any{
			slog.String("language", res.Language),
			slog.String("status", string(res.Status)),
			slog.Int("files", len(res.Files)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if res.Status == StatusFailed {
			slog.Warn("target generation failed", append(attrs, slog.String("error", res.Error))...)
			return
		}
		slog.Info("target generated", attrs...)
	}()

	if err := ctx.Err(); err != nil {
		return failed(res, err)
	}
	e, err := p.registry.Lookup(lang)
	if err != nil {
		return failed(res, err)
	}
	res.Language = e.Language()

	out, err := e.Emit(m, opts.Emit)
	if err != nil {
		return failed(res, fmt.Errorf("emitting: %w", err))
	}
	res.Warnings = out.Warnings
	res.Dir = filepath.Join(opts.OutDir, e.Language())

	var diffs []string
	for _, f := range out.Files {
		rel, err := cleanRel(f.Path)
		if err != nil {
			return failed(res, err)
		}
		res.Files = append(res.Files, rel)
		target := filepath.Join(res.Dir, rel)

		if opts.Check {
			d, err := diffFile(target, filepath.ToSlash(filepath.Join(e.Language(), rel)), f.Content)
			if err != nil {
				return failed(res, err)
			}
			if d != "" {
				diffs = append(diffs, d)
			}
			continue
		}
		if err := writeFile(target, f.Content); err != nil {
			return failed(res, err)
		}
	}

	res.Status = StatusOK
	if len(diffs) > 0 {
		res.Status = StatusStale
		res.Diff = strings.Join(diffs, "")
	}
	return res
}

func failed(res TargetResult, err error) TargetResult {
	res.Status = StatusFailed
	res.Error = err.Error()
	return res
}

// cleanRel rejects emitter paths that would escape the target directory.
func cleanRel(p string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid output path %q", p)
	}
	return clean, nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// diffFile returns a unified diff from the file on disk to content, or "" if
// they match. A missing file diffs against empty content.
func diffFile(path, label string, content []byte) (string, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.Equal(existing, content) {
		return "", nil
	}
	edits := udiff.Strings(string(existing), string(content))
	unified, err := udiff.ToUnified("a/"+label, "b/"+label, string(existing), edits, 3)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(diff generation failed)\n", label, label), nil
	}
	return unified, nil
}
