// Package report orders aggregated groups into rows for rendering.
package report

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/tc/internal/count"
)

// SortBy selects the row order.
type SortBy int

const (
	SortByTokens SortBy = iota
	SortByGroup
	SortByNumFiles
)

// ParseSortBy parses the --sort-by value.
func ParseSortBy(s string) (SortBy, error) {
	switch s {
	case "tokens":
		return SortByTokens, nil
	case "group":
		return SortByGroup, nil
	case "numfiles":
		return SortByNumFiles, nil
	default:
		return 0, fmt.Errorf("%q is not a supported argument to --sort-by. Use one of group|numfiles|tokens", s)
	}
}

func (s SortBy) String() string {
	switch s {
	case SortByTokens:
		return "tokens"
	case SortByGroup:
		return "group"
	case SortByNumFiles:
		return "numfiles"
	default:
		return fmt.Sprintf("SortBy(%d)", int(s))
	}
}

// GroupBy selects the key files are bucketed under.
type GroupBy int

const (
	GroupByLanguage GroupBy = iota
	GroupByFile
	GroupByArg
)

// ParseGroupBy parses the --group-by value.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "language":
		return GroupByLanguage, nil
	case "file":
		return GroupByFile, nil
	case "arg":
		return GroupByArg, nil
	default:
		return 0, fmt.Errorf("%q is not a supported argument to --group-by. Use one of language|file|arg", s)
	}
}

func (g GroupBy) String() string {
	switch g {
	case GroupByLanguage:
		return "language"
	case GroupByFile:
		return "file"
	case GroupByArg:
		return "arg"
	default:
		return fmt.Sprintf("GroupBy(%d)", int(g))
	}
}

// Label is the column heading for the group key.
func (g GroupBy) Label() string {
	switch g {
	case GroupByFile:
		return "File"
	case GroupByArg:
		return "Arg"
	default:
		return "Language"
	}
}

// TotalsLabel is the group key of the totals row.
const TotalsLabel = "Total"

// Row is one finalized output record.
type Row struct {
	Group   string
	Files   uint64
	Tokens  int64
	Matches []int64
}

// Options control how groups become a Report.
type Options struct {
	SortBy     SortBy
	GroupBy    GroupBy
	Columns    []string
	ShowTotals bool
}

// Report is the ordered result of one run.
type Report struct {
	GroupBy GroupBy
	// Columns names the match counters, in the order of Row.Matches.
	Columns []string
	Rows    []Row
	// Totals is set when Options.ShowTotals is true.
	Totals *Row
}

// New builds a report from the final group state. The order is derived only
// from group keys and counts, never from arrival order, so the same groups
// always produce the same report.
func New(groups []*count.Group, opts Options) *Report {
	r := &Report{
		GroupBy: opts.GroupBy,
		Columns: append([]string(nil), opts.Columns...),
		Rows:    make([]Row, 0, len(groups)),
	}
	for _, g := range groups {
		r.Rows = append(r.Rows, rowFor(g, len(opts.Columns)))
	}
	Sort(r.Rows, opts.SortBy)

	if opts.ShowTotals {
		r.Totals = totals(groups, len(opts.Columns))
	}
	return r
}

func rowFor(g *count.Group, width int) Row {
	row := Row{
		Group:   g.Key,
		Files:   g.NumFiles(),
		Tokens:  g.Tally.Tokens,
		Matches: make([]int64, width),
	}
	copy(row.Matches, g.Tally.Matches)
	return row
}

// totals sums every group. Files is the size of the union of contributing
// files.
func totals(groups []*count.Group, width int) *Row {
	t := count.NewTally(width)
	files := make([]*roaring.Bitmap, 0, len(groups))
	for _, g := range groups {
		t.Add(g.Tally)
		files = append(files, g.Files)
	}
	return &Row{
		Group:   TotalsLabel,
		Files:   roaring.FastOr(files...).GetCardinality(),
		Tokens:  t.Tokens,
		Matches: t.Matches[:width],
	}
}

// Sort orders rows in place. Ties on files or tokens fall back to the group
// key ascending.
func Sort(rows []Row, by SortBy) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch by {
		case SortByNumFiles:
			if a.Files != b.Files {
				return a.Files > b.Files
			}
		case SortByTokens:
			if a.Tokens != b.Tokens {
				return a.Tokens > b.Tokens
			}
		}
		return a.Group < b.Group
	})
}
