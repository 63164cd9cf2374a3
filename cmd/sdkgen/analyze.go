package main

import (
	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
)

func (a *app) analyzeCmd() *cobra.Command {
	var (
		f       trafficFlags
		output  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [capture files...]",
		Short: "Infer the API model from traffic and write it as JSON",
		Example: `  sdkgen analyze capture.har -o model.json
  sdkgen analyze --session active --host '*.example.com'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline()
			if err != nil {
				return err
			}
			analysis, err := a.analyze(cmd.Context(), p, &f, args)
			if err != nil {
				return err
			}

			data, err := analysis.Model.Marshal()
			if err != nil {
				return err
			}
			w, closeOut, err := a.output(output)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			summary := pipeline.Summary{Analysis: &analysis.Report}
			printSummary(a.stderr, summary, verbose)
			if summary.HasFailures() {
				return errFailures
			}
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the model to this file instead of stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every endpoint in the summary")
	return cmd
}
