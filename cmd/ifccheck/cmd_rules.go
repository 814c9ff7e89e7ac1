package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spboyer/ifccheck/internal/checks"
)

func newRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the available compliance rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			all := checks.DefaultRegistry().All()

			width := 0
			for _, r := range all {
				width = max(width, len(r.Name()))
			}
			for _, r := range all {
				fmt.Fprintf(out, "%-*s  %s\n", width, r.Name(), r.Description()) //nolint:errcheck
			}
			return nil
		},
	}
}
