package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/tc/internal/ingest"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages tc can parse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLanguages(cmd.OutOrStdout())
		},
	}
}

func printLanguages(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range ingest.Languages() {
		names := append(append([]string{}, l.Extensions...), l.Filenames...)
		fmt.Fprintf(tw, "%s\t%s\n", l.Name, strings.Join(names, " "))
	}
	return tw.Flush()
}
