package main

import (
	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/emitter"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		f           trafficFlags
		langs       []string
		outDir      string
		check       bool
		packageName string
		version     string
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "generate [capture files...]",
		Short: "Generate client libraries from traffic or a saved model",
		Long: `generate runs the full pipeline: load traffic, infer the API model and emit
one client library per language under <out>/<language>/. Languages are
independent; a failing one is reported without stopping the others.`,
		Example: `  sdkgen generate --har capture.har --lang go,python --out ./sdk
  sdkgen generate --model model.json --lang all --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline()
			if err != nil {
				return err
			}
			m, report, err := a.model(cmd.Context(), p, &f, args)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("lang") {
				langs = a.cfg.Languages
			}
			if !cmd.Flags().Changed("out") {
				outDir = a.cfg.OutputDir
			}
			gen := p.Generate(cmd.Context(), m, pipeline.GenerateOptions{
				Languages: langs,
				OutDir:    outDir,
				Check:     check,
				Emit: emitter.Options{
					PackageName: packageName,
					Version:     version,
				},
			})

			summary := pipeline.Summary{Analysis: report, Generate: gen}
			printSummary(a.stderr, summary, verbose)
			if summary.HasFailures() {
				return errFailures
			}
			return nil
		},
	}
	f.register(cmd, true)
	fs := cmd.Flags()
	fs.StringSliceVar(&langs, "lang", nil, "target languages: go, python, typescript or all (default from config)")
	fs.StringVar(&outDir, "out", "", "output directory (default from config, ./sdk)")
	fs.BoolVar(&check, "check", false, "diff against the existing output instead of writing; stale output fails")
	fs.StringVar(&packageName, "package", "", "package name of the generated libraries (default: derived from the title)")
	fs.StringVar(&version, "version", "", "version written into package manifests")
	fs.BoolVarP(&verbose, "verbose", "v", false, "list every endpoint in the summary")
	return cmd
}
