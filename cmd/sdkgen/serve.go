package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/pkg/mcpsrv"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `serve exposes analysis, generation and export as MCP tools so an agent can
drive sdkgen over stdio. Logs go to stderr and the optional log file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcpsrv.NewServer(ingest.NewClient(a.cfg),
				mcpsrv.WithConfig(a.cfg),
				mcpsrv.WithExistingLogger(),
			)
			if err != nil {
				return err
			}
			defer srv.Close()

			slog.Info("starting mcp server", slog.String("powhttp", a.cfg.PowHTTPBaseURL))
			return srv.Run(cmd.Context())
		},
	}
}
