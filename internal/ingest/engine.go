package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/tc/internal/count"
	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/report"
)

// Stats summarize one engine run.
type Stats struct {
	Files   int
	Counted int
	Skipped int
	Elapsed time.Duration
}

// Engine drives parse and count over a set of files with a bounded pool of
// workers. Each worker owns its tree; the only shared state is the
// aggregator, which a single consumer goroutine feeds.
type Engine struct {
	Parser   *Parser
	Matchers *match.Set
	GroupBy  report.GroupBy
	// Jobs bounds concurrent workers. Zero means runtime.NumCPU().
	Jobs int
	// Strict makes the first per-file error abort the run.
	Strict bool
	Logger *Logger
}

// NewEngine returns an engine reading files from fs.
func NewEngine(fs billy.Filesystem, matchers *match.Set, groupBy report.GroupBy) *Engine {
	return &Engine{
		Parser:   NewParser(fs),
		Matchers: matchers,
		GroupBy:  groupBy,
	}
}

type result struct {
	key   string
	file  uint32
	tally count.Tally
}

// Run counts files and returns the aggregated groups. Per-file failures
// are logged and skipped unless Strict is set.
func (e *Engine) Run(ctx context.Context, files []File) (*count.Aggregator, Stats, error) {
	start := time.Now()
	agg := count.NewAggregator(e.Matchers.Len())
	stats := Stats{Files: len(files)}

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	e.Logger.Printf(LogDebug, "counting %d files with %d workers", len(files), jobs)

	results := make(chan result, jobs)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			agg.Add(r.key, r.file, r.tally)
			stats.Counted++
		}
	}()

	var skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, f := range files {
		if gctx.Err() != nil {
			break
		}
		f := f
		g.Go(func() error {
			key, tally, err := e.countFile(gctx, f)
			if err != nil {
				if e.Strict {
					return err
				}
				skipped.Add(1)
				e.Logger.Printf(LogParse, "skip %s: %v", f.Path, err)
				return nil
			}
			select {
			case results <- result{key: key, file: f.ID, tally: tally}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err := g.Wait()
	close(results)
	<-done

	stats.Skipped = int(skipped.Load())
	stats.Elapsed = time.Since(start)
	e.Logger.Printf(LogDebug, "counted %d of %d files (%d skipped) in %v",
		stats.Counted, stats.Files, stats.Skipped, stats.Elapsed)
	if err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return agg, stats, nil
}

// countFile parses and counts one file and returns its group key.
func (e *Engine) countFile(ctx context.Context, f File) (string, count.Tally, error) {
	path := f.FSPath
	if path == "" {
		path = f.Path
	}
	tree, err := e.Parser.Parse(ctx, path)
	if err != nil {
		return "", count.Tally{}, err
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		e.Logger.Printf(LogDebug, "%s: syntax errors, counting anyway", f.Path)
	}
	return e.keyFor(f, tree.Language()), count.Count(tree, e.Matchers), nil
}

func (e *Engine) keyFor(f File, lang string) string {
	switch e.GroupBy {
	case report.GroupByFile:
		return f.Path
	case report.GroupByArg:
		return f.Arg
	default:
		return lang
	}
}

// String describes the engine configuration for debug output.
func (e *Engine) String() string {
	return fmt.Sprintf("engine(group-by=%s, counters=%d, jobs=%d, strict=%v)",
		e.GroupBy, e.Matchers.Len(), e.Jobs, e.Strict)
}
