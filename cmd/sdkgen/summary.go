package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
)

var (
	dimColor    = lipgloss.Color("#6c6c6c")
	accentColor = lipgloss.Color("#7aa2f7")
	okColor     = lipgloss.Color("#9ece6a")
	warnColor   = lipgloss.Color("#e0af68")
	errorColor  = lipgloss.Color("#f7768e")

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	styleOK      = lipgloss.NewStyle().Foreground(okColor)
	styleWarn    = lipgloss.NewStyle().Foreground(warnColor)
	styleFailed  = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	styleDim     = lipgloss.NewStyle().Foreground(dimColor)
	styleWarning = lipgloss.NewStyle().Foreground(warnColor).PaddingLeft(4)
)

func statusStyle(s pipeline.Status) lipgloss.Style {
	switch s {
	case pipeline.StatusOK:
		return styleOK
	case pipeline.StatusFailed:
		return styleFailed
	case pipeline.StatusStale:
		return styleWarn
	default:
		return styleDim
	}
}

// printSummary writes the per-endpoint and per-target outcome of a run.
func printSummary(w io.Writer, s pipeline.Summary, verbose bool) {
	if r := s.Analysis; r != nil {
		counts := r.Counts()
		fmt.Fprintln(w, styleHeader.Render("Analysis"))
		fmt.Fprintf(w, "  %d exchanges, %d selected, %s, %s, %s\n",
			r.Exchanges, r.Selected,
			styleOK.Render(fmt.Sprintf("%d endpoints", counts[pipeline.StatusOK])),
			styleFailed.Render(fmt.Sprintf("%d failed", counts[pipeline.StatusFailed])),
			styleDim.Render(fmt.Sprintf("%d skipped", counts[pipeline.StatusSkipped])),
		)
		for _, e := range r.Endpoints {
			if e.Status == pipeline.StatusSkipped && !verbose {
				continue
			}
			if e.Status == pipeline.StatusOK && !verbose && len(e.Warnings) == 0 {
				continue
			}
			line := fmt.Sprintf("  %-7s %-6s %s", statusStyle(e.Status).Render(string(e.Status)), e.Method, e.Path)
			if e.Error != "" {
				line += styleDim.Render(" (" + e.Error + ")")
			}
			fmt.Fprintln(w, line)
			for _, warn := range e.Warnings {
				fmt.Fprintln(w, styleWarning.Render(warn))
			}
		}
		for _, warn := range r.Warnings {
			fmt.Fprintln(w, styleWarn.Render("  warning: "+warn))
		}
	}

	if g := s.Generate; g != nil {
		fmt.Fprintln(w, styleHeader.Render("Targets"))
		for _, t := range g.Targets {
			line := fmt.Sprintf("  %-7s %-11s", statusStyle(t.Status).Render(string(t.Status)), t.Language)
			switch {
			case t.Error != "":
				line += styleDim.Render(t.Error)
			case t.Dir != "":
				line += fmt.Sprintf("%s %s", t.Dir, styleDim.Render(fmt.Sprintf("(%d files)", len(t.Files))))
			}
			fmt.Fprintln(w, line)
			for _, warn := range t.Warnings {
				fmt.Fprintln(w, styleWarning.Render(warn))
			}
			if t.Diff != "" {
				fmt.Fprintln(w, indent(t.Diff, "    "))
			}
		}
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
