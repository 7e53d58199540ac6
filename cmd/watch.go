package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/agentic-research/tc/internal/config"
	"github.com/agentic-research/tc/internal/ingest"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Print the report again whenever a watched directory changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd, args)
			if err != nil {
				return err
			}
			defer s.Close()
			return watch(cmd.Context(), cmd.OutOrStdout(), ingest.NewLogger(cmd.ErrOrStderr(), s.Verbose), s, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period after a change before recounting.")
	return cmd
}

// watch recounts after every burst of filesystem events until ctx ends.
// Count failures are logged; the previous report stays on screen.
func watch(ctx context.Context, w io.Writer, logger *ingest.Logger, s *config.Settings, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	var output string
	if s.Output != "" {
		if output, err = filepath.Abs(s.Output); err != nil {
			return fmt.Errorf("resolve output: %w", err)
		}
	}

	watched := make(map[string]bool)
	recount := func() {
		rep, d, err := countPaths(ctx, s, logger)
		if err != nil {
			logger.Printf(ingest.LogIO, "count: %v", err)
		} else {
			fmt.Fprintf(w, "\n# %s\n", time.Now().Format(time.RFC3339))
			if err := write(w, s, rep); err != nil {
				logger.Printf(ingest.LogIO, "write report: %v", err)
			}
		}
		for _, dir := range d.Dirs() {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Printf(ingest.LogIO, "watch %s: %v", dir, err)
				continue
			}
			watched[dir] = true
		}
		logger.Printf(ingest.LogDebug, "watching %d directories", len(watched))
	}

	recount()
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if isOwnOutput(ev.Name, output) {
				continue
			}
			logger.Printf(ingest.LogDebug, "watch: %s", ev)
			timer = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf(ingest.LogIO, "watch: %v", err)
		case <-timer:
			timer = nil
			recount()
		}
	}
}

// isOwnOutput reports whether name is the report file written by watch
// itself, or one of the files SQLite keeps beside it. Rewriting it must not
// trigger another recount.
func isOwnOutput(name, output string) bool {
	if output == "" {
		return false
	}
	name = filepath.Clean(name)
	if name == output {
		return true
	}
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if name == output+suffix {
			return true
		}
	}
	return false
}
