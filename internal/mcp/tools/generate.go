package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// GenerateInput is the input for sdkgen_generate.
type GenerateInput struct {
	RunID       string   `json:"run_id,omitempty" jsonschema:"Run ID from sdkgen_analyze (default: most recent run)"`
	Languages   []string `json:"languages,omitempty" jsonschema:"Target languages, e.g. go, python, typescript, or all (default: configured languages)"`
	OutDir      string   `json:"out_dir,omitempty" jsonschema:"Output directory; each language gets a subdirectory (default: configured output directory)"`
	Check       bool     `json:"check,omitempty" jsonschema:"Compare with the files already on disk instead of writing"`
	PackageName string   `json:"package_name,omitempty" jsonschema:"Package name of the generated libraries (default: derived from the title)"`
	Version     string   `json:"version,omitempty" jsonschema:"Version written into package manifests"`
}

// GenerateOutput is the output for sdkgen_generate.
type GenerateOutput struct {
	RunID   string                `json:"run_id"`
	OutDir  string                `json:"out_dir"`
	Targets []types.TargetSummary `json:"targets,omitzero"`
	Failed  int                   `json:"failed"`
	Stale   int                   `json:"stale,omitempty"`
}

// ToolGenerate runs the language emitters on a stored run.
func ToolGenerate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateInput) (*sdkmcp.CallToolResult, GenerateOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateInput) (*sdkmcp.CallToolResult, GenerateOutput, error) {
		run, err := d.ResolveRun(input.RunID)
		if err != nil {
			return nil, GenerateOutput{}, err
		}

		langs := input.Languages
		if len(langs) == 0 {
			langs = d.Config.Languages
		}
		outDir := input.OutDir
		if outDir == "" {
			outDir = d.Config.OutputDir
		}

		report := d.Pipeline.Generate(ctx, run.Model, pipeline.GenerateOptions{
			Languages: langs,
			OutDir:    outDir,
			Check:     input.Check,
			Emit: emitter.Options{
				PackageName: input.PackageName,
				Version:     input.Version,
			},
		})

		output := GenerateOutput{RunID: run.ID, OutDir: outDir}
		var errs []string
		for _, t := range report.Targets {
			output.Targets = append(output.Targets, types.TargetSummary{
				Language: t.Language,
				Status:   string(t.Status),
				Dir:      t.Dir,
				Files:    t.Files,
				Warnings: t.Warnings,
				Error:    t.Error,
				Diff:     t.Diff,
			})
			switch t.Status {
			case pipeline.StatusFailed:
				output.Failed++
				errs = append(errs, fmt.Sprintf("%s: %s", t.Language, t.Error))
			case pipeline.StatusStale:
				output.Stale++
			}
		}

		if len(report.Targets) > 0 && output.Failed == len(report.Targets) {
			return nil, GenerateOutput{}, ErrGenerationFailed(strings.Join(errs, "; "))
		}
		return nil, output, nil
	}
}
