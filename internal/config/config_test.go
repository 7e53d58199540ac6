package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tc/internal/match"
	"github.com/agentic-research/tc/internal/render"
	"github.com/agentic-research/tc/internal/report"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tc.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func none(string) bool { return false }

func TestResolve_Defaults(t *testing.T) {
	c := Default()
	s, err := c.Resolve()
	require.NoError(t, err)

	assert.Equal(t, report.SortByTokens, s.SortBy)
	assert.Equal(t, report.GroupByLanguage, s.GroupBy)
	assert.Equal(t, render.FormatTable, s.Format)
	assert.Equal(t, []string{"."}, s.Paths)
	assert.Equal(t, 0, s.Matchers.Len())
}

func TestResolve_Filters(t *testing.T) {
	c := Default()
	c.Kinds = []string{"identifier"}
	c.KindPatterns = []string{".*comment.*"}
	c.Queries = []string{`(function_declaration) @fn`}

	s, err := c.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []match.Group{
		{Name: "identifier", Family: match.FamilyKind},
		{Name: ".*comment.*", Family: match.FamilyPattern},
		{Name: "(function_declaration) @fn", Family: match.FamilyQuery},
	}, s.Matchers.Groups())
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		setting string
	}{
		{"sort", func(c *Config) { c.SortBy = "size" }, "--sort-by"},
		{"group", func(c *Config) { c.GroupBy = "dir" }, "--group-by"},
		{"format", func(c *Config) { c.Format = "xml" }, "--format"},
		{"sqlite without output", func(c *Config) { c.Format = "sqlite" }, "--output"},
		{"verbose", func(c *Config) { c.Verbose = 7 }, "--verbose"},
		{"jobs", func(c *Config) { c.Jobs = -1 }, "--jobs"},
		{"whitelist", func(c *Config) { c.Whitelist = []string{"cobol"} }, "--whitelist"},
		{"blacklist", func(c *Config) { c.Blacklist = []string{"cobol"} }, "--blacklist"},
		{"regex", func(c *Config) { c.KindPatterns = []string{"("} }, "filter"},
		{"query", func(c *Config) { c.Queries = []string{"((("} }, "filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			_, err := c.Resolve()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.setting, ce.Setting)
		})
	}
}

func TestResolve_UnknownLanguageListsChoices(t *testing.T) {
	c := Default()
	c.Whitelist = []string{"cobol"}
	_, err := c.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown language "cobol"`)
	assert.Contains(t, err.Error(), "go|hcl|html")
}

func TestSettings_Close(t *testing.T) {
	c := Default()
	c.Queries = []string{`(function_declaration) @fn`}
	s, err := c.Resolve()
	require.NoError(t, err)
	s.Close()

	var empty Settings
	empty.Close()
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
kind_patterns = [".*comment.*"]
kinds         = ["identifier"]
sort_by       = "numfiles"
show_totals   = true
jobs          = 2
paths         = ["src"]
`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, f.SortBy)
	assert.Equal(t, "numfiles", *f.SortBy)
	assert.Nil(t, f.GroupBy)
	assert.Equal(t, []string{".*comment.*"}, f.KindPatterns)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `sort_by = `))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	f, err := LoadFile(writeConfig(t, `
kinds       = ["comment"]
sort_by     = "numfiles"
group_by    = "file"
show_totals = true
paths       = ["src"]
`))
	require.NoError(t, err)

	c := Default()
	c.SortBy = "group"
	c.Kinds = []string{"identifier"}
	c.Merge(f, func(flag string) bool { return flag == "sort-by" })

	assert.Equal(t, "group", c.SortBy, "explicit flag wins")
	assert.Equal(t, "file", c.GroupBy)
	assert.True(t, c.ShowTotals)
	assert.Equal(t, []string{"comment", "identifier"}, c.Kinds)
	assert.Equal(t, []string{"src"}, c.Paths)
}

func TestMerge_PathsFromFlagsWin(t *testing.T) {
	c := Default()
	c.Paths = []string{"cmd"}
	c.Merge(&File{Paths: []string{"src"}}, none)
	assert.Equal(t, []string{"cmd"}, c.Paths)
}
