package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/tc/internal/config"
	"github.com/agentic-research/tc/internal/ingest"
	"github.com/agentic-research/tc/internal/render"
	"github.com/agentic-research/tc/internal/report"
)

// rootOptions is the flag state shared by every command.
type rootOptions struct {
	cfg           config.Config
	configPath    string
	listLanguages bool
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:           "tc [paths...]",
		Short:         "Count your code by tokens, token kinds, and patterns in the syntax tree",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.listLanguages {
				return printLanguages(cmd.OutOrStdout())
			}
			s, err := o.settings(cmd, args)
			if err != nil {
				return err
			}
			defer s.Close()
			rep, _, err := countPaths(cmd.Context(), s, ingest.NewLogger(cmd.ErrOrStderr(), s.Verbose))
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), s, rep)
		},
	}

	f := cmd.PersistentFlags()
	c := &o.cfg
	f.IntVar(&c.Verbose, "verbose", c.Verbose,
		"Logging level. 0 to not print errors. 1 to print IO and filesystem errors. 2 to print parsing errors. 3 to print everything else.")
	f.StringArrayVarP(&c.Kinds, "kind", "k", nil,
		"Kinds of node in the syntax tree to count. See node-types.json in the parser's repo.")
	f.StringArrayVarP(&c.KindPatterns, "kind-pattern", "p", nil,
		`Patterns of node kinds to count in the syntax tree (e.g. ".*comment.*" to match nodes of type "line_comment", "block_comment", and "comment"). Supports Go regular expressions.`)
	f.StringArrayVar(&c.Queries, "query", nil,
		"Tree-sitter queries to count. Every captured node counts once, e.g. '(function_declaration) @fn'.")
	f.StringVar(&c.SortBy, "sort-by", c.SortBy,
		`One of group|numfiles|tokens. "group" will sort based on --group-by value.`)
	f.StringVar(&c.GroupBy, "group-by", c.GroupBy,
		"One of language|file|arg. \"arg\" will group by the `paths` arguments provided.")
	f.StringVar(&c.Format, "format", c.Format, "One of table|csv|json|sqlite.")
	f.StringVarP(&c.Output, "output", "o", "", "Write the report to this file instead of stdout. Required for sqlite.")
	f.BoolVar(&c.NoGit, "no-git", false, "Don't respect gitignore and .git/info/exclude files.")
	f.BoolVar(&c.NoDotIgnore, "no-dot-ignore", false, "Don't respect .ignore files.")
	f.BoolVar(&c.NoParentIgnore, "no-parent-ignore", false, "Don't respect ignore files from parent directories.")
	f.BoolVar(&c.CountHidden, "count-hidden", false, "Count hidden files.")
	f.StringSliceVar(&c.Whitelist, "whitelist", nil,
		"Whitelist of languages to parse. This overrides --blacklist and must be an exact match.")
	f.StringSliceVar(&c.Blacklist, "blacklist", nil,
		"Blacklist of languages not to parse. This is overridden by --whitelist and must be an exact match.")
	f.BoolVar(&c.ShowTotals, "show-totals", false, "Show column totals.")
	f.BoolVar(&c.Strict, "strict", false, "Fail when any file cannot be read or parsed.")
	f.IntVarP(&c.Jobs, "jobs", "j", 0, "Number of files to parse in parallel. 0 uses every CPU.")
	f.StringVar(&o.configPath, "config", "", "HCL file with default settings.")
	cmd.Flags().BoolVar(&o.listLanguages, "list-languages", false, "Show a list of supported languages for parsing.")

	cmd.AddCommand(newLanguagesCmd(), newKindsCmd(o), newWatchCmd(o))
	return cmd
}

// settings merges the config file under the flags and validates the result.
func (o *rootOptions) settings(cmd *cobra.Command, args []string) (*config.Settings, error) {
	cfg := o.cfg
	cfg.Paths = args
	if o.configPath != "" {
		file, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(file, cmd.Flags().Changed)
	}
	return cfg.Resolve()
}

// newFS returns the filesystem paths are resolved against. Relative paths
// are made absolute by the discoverer first.
func newFS() billy.Filesystem { return osfs.New("/") }

// countPaths discovers, parses and counts, and orders the result.
func countPaths(ctx context.Context, s *config.Settings, logger *ingest.Logger) (*report.Report, *ingest.Discoverer, error) {
	fs := newFS()
	d := ingest.NewDiscoverer(fs, s.Discover, logger)
	files := d.Discover(s.Paths)
	logger.Printf(ingest.LogDebug, "discovered %d files under %v", len(files), s.Paths)

	engine := ingest.NewEngine(fs, s.Matchers, s.GroupBy)
	engine.Jobs = s.Jobs
	engine.Strict = s.Strict
	engine.Logger = logger
	logger.Printf(ingest.LogDebug, "%s", engine)

	agg, stats, err := engine.Run(ctx, files)
	if err != nil {
		return nil, d, err
	}
	if stats.Skipped > 0 {
		logger.Printf(ingest.LogIO, "%d of %d files could not be counted", stats.Skipped, stats.Files)
	}
	logger.Printf(ingest.LogDebug, "%d groups", agg.Len())
	rep := report.New(agg.Groups(), report.Options{
		SortBy:     s.SortBy,
		GroupBy:    s.GroupBy,
		Columns:    s.Matchers.Names(),
		ShowTotals: s.ShowTotals,
	})
	return rep, d, nil
}

// write renders rep to --output, or to w when no output file is set.
func write(w io.Writer, s *config.Settings, rep *report.Report) error {
	if s.Output == "" || s.Format == render.FormatSQLite {
		return render.Render(w, s.Output, s.Format, rep)
	}
	f, err := os.Create(s.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render.Render(f, s.Output, s.Format, rep); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "tc:", err)
		if config.IsConfigError(err) {
			fmt.Fprintln(os.Stderr, "Run 'tc --help' for usage.")
		}
		stop()
		os.Exit(1)
	}
}
