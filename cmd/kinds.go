package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/tc/internal/config"
	"github.com/agentic-research/tc/internal/count"
	"github.com/agentic-research/tc/internal/ingest"
)

func newKindsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds [paths...]",
		Short: "List the node kinds found in the syntax trees of the given files",
		Long: `Parse every file the main command would count and print each node kind
with how many nodes and leaves carry it. Use it to pick values for --kind
and --kind-pattern.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd, args)
			if err != nil {
				return err
			}
			defer s.Close()
			logger := ingest.NewLogger(cmd.ErrOrStderr(), s.Verbose)
			kinds, err := collectKinds(cmd, s, logger)
			if err != nil {
				return err
			}
			return printKinds(cmd.OutOrStdout(), kinds)
		},
	}
}

func collectKinds(cmd *cobra.Command, s *config.Settings, logger *ingest.Logger) ([]count.KindCount, error) {
	fs := newFS()
	files := ingest.NewDiscoverer(fs, s.Discover, logger).Discover(s.Paths)
	parser := ingest.NewParser(fs)

	var lists [][]count.KindCount
	for _, f := range files {
		if err := cmd.Context().Err(); err != nil {
			return nil, err
		}
		tree, err := parser.Parse(cmd.Context(), f.FSPath)
		if err != nil {
			if s.Strict {
				return nil, err
			}
			logger.Printf(ingest.LogParse, "skip %s: %v", f.Path, err)
			continue
		}
		lists = append(lists, count.Kinds(tree))
		tree.Close()
	}
	return count.MergeKinds(lists...), nil
}

func printKinds(w io.Writer, kinds []count.KindCount) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Kind\tNodes\tLeaves")
	for _, k := range kinds {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", k.Kind, k.Nodes, k.Leaves)
	}
	return tw.Flush()
}
