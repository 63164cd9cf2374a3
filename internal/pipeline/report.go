package pipeline

import "github.com/usestring/powhttp-sdkgen/pkg/apimodel"

// Status is the outcome of one unit of work.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // endpoint not part of the SDK (assets, pages)
	StatusStale   Status = "stale"   // check mode: files on disk differ
)

// EndpointResult reports how one detected endpoint group was processed.
type EndpointResult struct {
	ID       string   `json:"id"`
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Status   Status   `json:"status"`
	Samples  int      `json:"samples"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Report summarizes an analysis.
type Report struct {
	Exchanges int              `json:"exchanges"` // exchanges loaded
	Selected  int              `json:"selected"`  // exchanges left after scope and filter
	Endpoints []EndpointResult `json:"endpoints"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	Model  *apimodel.Model
	Report Report
}

// TargetResult reports how one target language was generated.
type TargetResult struct {
	Language string   `json:"language"`
	Status   Status   `json:"status"`
	Dir      string   `json:"dir,omitempty"`
	Files    []string `json:"files,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
	Diff     string   `json:"diff,omitempty"`
}

// GenerateReport summarizes a generation.
type GenerateReport struct {
	Targets []TargetResult `json:"targets"`
}

// Summary is the per-endpoint, per-target outcome of a full run.
type Summary struct {
	Analysis *Report         `json:"analysis,omitempty"`
	Generate *GenerateReport `json:"generate,omitempty"`
}

// HasFailures reports whether any endpoint or target failed, or whether a
// check found stale files.
func (s Summary) HasFailures() bool {
	if s.Analysis != nil {
		for _, e := range s.Analysis.Endpoints {
			if e.Status == StatusFailed {
				return true
			}
		}
	}
	if s.Generate != nil {
		for _, t := range s.Generate.Targets {
			if t.Status == StatusFailed || t.Status == StatusStale {
				return true
			}
		}
	}
	return false
}

// Counts tallies endpoint results by status.
func (r *Report) Counts() map[Status]int {
	out := make(map[Status]int)
	for _, e := range r.Endpoints {
		out[e.Status]++
	}
	return out
}
