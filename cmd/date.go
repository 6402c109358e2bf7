package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/supermovie/internal/extract"
)

// newDateCmd creates the 'date' subcommand, which prints a release date in
// the sortable YYYY/MM/DD form used by the reporting front end.
func newDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "date <DD Month YYYY>",
		Short:   "Convert a release date to YYYY/MM/DD",
		Example: "  supermovie date 19 February 2021",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			sortable, ok := extract.SortableDate(text)
			if !ok {
				return fmt.Errorf("%q is not a DD Month YYYY date", text)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sortable)
			return nil
		},
	}
}
