package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usestring/powhttp-sdkgen/pkg/emitter/backends"
)

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := backends.Registry()
			for _, lang := range reg.Languages() {
				line := lang
				if aliases := reg.Aliases(lang); len(aliases) > 0 {
					line += styleDim.Render(" (" + strings.Join(aliases, ", ") + ")")
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
}
