package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/docs"
)

const (
	docsMarkdown    = "markdown"
	docsOpenAPIJSON = "openapi-json"
	docsOpenAPIYAML = "openapi-yaml"
)

func (a *app) docsCmd() *cobra.Command {
	var (
		f       trafficFlags
		format  string
		output  string
		render  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "docs [capture files...]",
		Short: "Write OpenAPI or Markdown documentation for the API",
		Example: `  sdkgen docs capture.har --format openapi-yaml -o openapi.yaml
  sdkgen docs --model model.json --render`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if render && format != docsMarkdown {
				return fmt.Errorf("--render only applies to --format %s", docsMarkdown)
			}
			p, err := a.newPipeline()
			if err != nil {
				return err
			}
			m, report, err := a.model(cmd.Context(), p, &f, args)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case docsMarkdown:
				md := docs.Markdown(m)
				if render {
					md, err = renderMarkdown(md)
					if err != nil {
						return err
					}
				}
				data = []byte(md)
			case docsOpenAPIJSON:
				data, err = docs.OpenAPI(m).JSON()
			case docsOpenAPIYAML:
				data, err = docs.OpenAPI(m).YAML()
			default:
				return fmt.Errorf("unknown format %q: use %s, %s or %s", format, docsMarkdown, docsOpenAPIJSON, docsOpenAPIYAML)
			}
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

			if report == nil {
				return nil
			}
			summary := pipeline.Summary{Analysis: report}
			printSummary(a.stderr, summary, verbose)
			if summary.HasFailures() {
				return errFailures
			}
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", docsMarkdown, "markdown, openapi-json or openapi-yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&render, "render", false, "render Markdown for the terminal")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every endpoint in the summary")
	return cmd
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
