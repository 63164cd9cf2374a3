package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/internal/ingest"
)

// captureCmd snapshots powhttp sessions into a proxy JSON log so later runs
// do not need the powhttp app.
func (a *app) captureCmd() *cobra.Command {
	var (
		sessions   []string
		bookmarked bool
		output     string
	)
	cmd := &cobra.Command{
		Use:     "capture",
		Short:   "Save powhttp sessions as a JSON Lines proxy log",
		Example: `  sdkgen capture --session active -o traffic.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sessions) == 0 {
				return errors.New("--session is required")
			}
			srcs := make([]ingest.Source, len(sessions))
			for i, s := range sessions {
				srcs[i] = ingest.Source{Kind: ingest.KindPowHTTP, Session: s, BookmarkedOnly: bookmarked}
			}
			l, err := a.loader(srcs)
			if err != nil {
				return err
			}
			exs, err := l.LoadAll(cmd.Context(), srcs)
			if err != nil {
				return err
			}

			w, closeOut, err := a.output(output)
			if err != nil {
				return err
			}
			if err := ingest.WriteProxyLog(w, exs); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}
			slog.Info("capture written", slog.Int("exchanges", len(exs)), slog.String("output", output))
			fmt.Fprintln(a.stderr, styleOK.Render(fmt.Sprintf("captured %d exchanges", len(exs))))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&sessions, "session", nil, "powhttp session to pull, 'active' for the active one (repeatable)")
	cmd.Flags().BoolVar(&bookmarked, "bookmarked", false, "only pull bookmarked entries")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
