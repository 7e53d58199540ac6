// Package config merges command-line flags with an optional HCL file and
// validates the result before any file is read.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/tc/internal/ingest"
	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/render"
	"github.com/agentic-research/tc/internal/report"
)

// Error is a configuration error. It is fatal and always reported before
// counting starts.
type Error struct {
	Setting string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Setting, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds every setting of one run, in flag form.
type Config struct {
	Verbose        int
	Kinds          []string
	KindPatterns   []string
	Queries        []string
	SortBy         string
	GroupBy        string
	Format         string
	Output         string
	NoGit          bool
	NoDotIgnore    bool
	NoParentIgnore bool
	CountHidden    bool
	Whitelist      []string
	Blacklist      []string
	ShowTotals     bool
	Strict         bool
	Jobs           int
	Paths          []string
}

// Default returns the settings used when nothing is specified.
func Default() Config {
	return Config{
		SortBy:  "tokens",
		GroupBy: "language",
		Format:  "table",
	}
}

// File is the shape of an HCL config file. Every attribute is optional.
//
//	kind_patterns = [".*comment.*"]
//	sort_by       = "numfiles"
//	show_totals   = true
type File struct {
	Verbose        *int     `hcl:"verbose,optional"`
	Kinds          []string `hcl:"kinds,optional"`
	KindPatterns   []string `hcl:"kind_patterns,optional"`
	Queries        []string `hcl:"queries,optional"`
	SortBy         *string  `hcl:"sort_by,optional"`
	GroupBy        *string  `hcl:"group_by,optional"`
	Format         *string  `hcl:"format,optional"`
	Output         *string  `hcl:"output,optional"`
	NoGit          *bool    `hcl:"no_git,optional"`
	NoDotIgnore    *bool    `hcl:"no_dot_ignore,optional"`
	NoParentIgnore *bool    `hcl:"no_parent_ignore,optional"`
	CountHidden    *bool    `hcl:"count_hidden,optional"`
	Whitelist      []string `hcl:"whitelist,optional"`
	Blacklist      []string `hcl:"blacklist,optional"`
	ShowTotals     *bool    `hcl:"show_totals,optional"`
	Strict         *bool    `hcl:"strict,optional"`
	Jobs           *int     `hcl:"jobs,optional"`
	Paths          []string `hcl:"paths,optional"`
}

// LoadFile decodes the HCL (or HCL JSON) file at path.
func LoadFile(path string) (*File, error) {
	var f File
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, &Error{Setting: "config file " + path, Err: err}
	}
	return &f, nil
}

// Merge fills c from f. A scalar from the file applies unless changed
// reports that its flag was given explicitly. Lists are concatenated with
// file entries first. File paths apply only when no path was given.
func (c *Config) Merge(f *File, changed func(flag string) bool) {
	setInt(&c.Verbose, f.Verbose, "verbose", changed)
	setString(&c.SortBy, f.SortBy, "sort-by", changed)
	setString(&c.GroupBy, f.GroupBy, "group-by", changed)
	setString(&c.Format, f.Format, "format", changed)
	setString(&c.Output, f.Output, "output", changed)
	setBool(&c.NoGit, f.NoGit, "no-git", changed)
	setBool(&c.NoDotIgnore, f.NoDotIgnore, "no-dot-ignore", changed)
	setBool(&c.NoParentIgnore, f.NoParentIgnore, "no-parent-ignore", changed)
	setBool(&c.CountHidden, f.CountHidden, "count-hidden", changed)
	setBool(&c.ShowTotals, f.ShowTotals, "show-totals", changed)
	setBool(&c.Strict, f.Strict, "strict", changed)
	setInt(&c.Jobs, f.Jobs, "jobs", changed)

	c.Kinds = concat(f.Kinds, c.Kinds)
	c.KindPatterns = concat(f.KindPatterns, c.KindPatterns)
	c.Queries = concat(f.Queries, c.Queries)
	c.Whitelist = concat(f.Whitelist, c.Whitelist)
	c.Blacklist = concat(f.Blacklist, c.Blacklist)
	if len(c.Paths) == 0 {
		c.Paths = append([]string(nil), f.Paths...)
	}
}

func setString(dst *string, v *string, flag string, changed func(string) bool) {
	if v != nil && !changed(flag) {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool, flag string, changed func(string) bool) {
	if v != nil && !changed(flag) {
		*dst = *v
	}
}

func setInt(dst *int, v *int, flag string, changed func(string) bool) {
	if v != nil && !changed(flag) {
		*dst = *v
	}
}

func concat(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	out := make([]string, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// Settings are validated, compiled settings.
type Settings struct {
	Matchers   *match.Set
	SortBy     report.SortBy
	GroupBy    report.GroupBy
	Format     render.Format
	Output     string
	Discover   ingest.DiscoverOptions
	ShowTotals bool
	Strict     bool
	Verbose    int
	Jobs       int
	Paths      []string
}

// Resolve validates c and compiles its filters. Every failure is an *Error.
func (c *Config) Resolve() (*Settings, error) {
	s := &Settings{
		Output:     c.Output,
		ShowTotals: c.ShowTotals,
		Strict:     c.Strict,
		Verbose:    c.Verbose,
		Jobs:       c.Jobs,
		Paths:      c.Paths,
		Discover: ingest.DiscoverOptions{
			NoGit:          c.NoGit,
			NoDotIgnore:    c.NoDotIgnore,
			NoParentIgnore: c.NoParentIgnore,
			CountHidden:    c.CountHidden,
			Languages: ingest.LanguageFilter{
				Whitelist: c.Whitelist,
				Blacklist: c.Blacklist,
			},
		},
	}
	if len(s.Paths) == 0 {
		s.Paths = []string{"."}
	}

	if c.Verbose < ingest.LogQuiet || c.Verbose > ingest.LogDebug {
		return nil, &Error{Setting: "--verbose", Err: fmt.Errorf("%d is not between 0 and 3", c.Verbose)}
	}
	if c.Jobs < 0 {
		return nil, &Error{Setting: "--jobs", Err: fmt.Errorf("%d is negative", c.Jobs)}
	}

	var err error
	if s.SortBy, err = report.ParseSortBy(c.SortBy); err != nil {
		return nil, &Error{Setting: "--sort-by", Err: err}
	}
	if s.GroupBy, err = report.ParseGroupBy(c.GroupBy); err != nil {
		return nil, &Error{Setting: "--group-by", Err: err}
	}
	if s.Format, err = render.ParseFormat(c.Format); err != nil {
		return nil, &Error{Setting: "--format", Err: err}
	}
	if s.Format == render.FormatSQLite && c.Output == "" {
		return nil, &Error{Setting: "--output", Err: render.ErrNoOutputPath}
	}

	for _, list := range []struct {
		flag  string
		names []string
	}{{"--whitelist", c.Whitelist}, {"--blacklist", c.Blacklist}} {
		for _, name := range list.names {
			if _, ok := ingest.LookupLanguage(name); !ok {
				return nil, &Error{Setting: list.flag, Err: fmt.Errorf("unknown language %q, use one of %s", name, strings.Join(ingest.LanguageNames(), "|"))}
			}
		}
	}

	s.Matchers, err = match.New(match.Options{
		Kinds:    c.Kinds,
		Patterns: c.KindPatterns,
		Queries:  c.Queries,
	}, ingest.CompileQuery)
	if err != nil {
		return nil, &Error{Setting: "filter", Err: err}
	}
	return s, nil
}

// Close releases the compiled filters.
func (s *Settings) Close() {
	if s.Matchers != nil {
		s.Matchers.Close()
	}
}

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
