package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tc/internal/config"
	"github.com/agentic-research/tc/internal/ingest"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func runTC(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func sampleProject(t *testing.T) string {
	return writeTree(t, map[string]string{
		"a/main.go":   "package main\n\n// entry\nfunc main() {}\n",
		"a/helper.go": "package main\n\n// helper\nfunc helper() {}\n",
		"b/tool.py":   "# tool\ndef run():\n    pass\n",
		"b/notes.txt": "not source\n",
	})
}

func TestRoot_CSVWithTotals(t *testing.T) {
	dir := sampleProject(t)
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "csv", "-p", "comment", "--show-totals", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Language,Files,Tokens,comment", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "go,2,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",2"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "python,1,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Total,3,"), lines[3])
	assert.True(t, strings.HasSuffix(lines[3], ",3"), lines[3])
}

func TestRoot_GroupByArgSortByGroup(t *testing.T) {
	dir := sampleProject(t)
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "csv", "--group-by", "arg", "--sort-by", "group", b, a)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Arg,Files,Tokens", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], a+",2,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], b+",1,"), lines[2])
}

func TestRoot_Whitelist(t *testing.T) {
	dir := sampleProject(t)
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "csv", "--whitelist", "python", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "go,")
	assert.Contains(t, out, "python,1,")
}

func TestRoot_ConfigurationErrors(t *testing.T) {
	dir := sampleProject(t)
	for _, args := range [][]string{
		{"--sort-by", "size", dir},
		{"--group-by", "dir", dir},
		{"-p", "(", dir},
		{"--query", "(((", dir},
		{"--format", "sqlite", dir},
	} {
		_, _, err := runTC(t, args...)
		require.Error(t, err, args)
		assert.True(t, config.IsConfigError(err), "%v: %v", args, err)
	}
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := sampleProject(t)
	cfg := filepath.Join(t.TempDir(), "tc.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`
format           = "csv"
no_parent_ignore = true
whitelist        = ["go"]
`), 0o644))

	out, _, err := runTC(t, "--config", cfg, dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "go,2,"))
}

func TestRoot_SQLiteOutput(t *testing.T) {
	dir := sampleProject(t)
	db := filepath.Join(t.TempDir(), "counts.db")
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "sqlite", "-o", db, dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	info, err := os.Stat(db)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRoot_OutputFile(t *testing.T) {
	dir := sampleProject(t)
	path := filepath.Join(t.TempDir(), "report.json")
	_, _, err := runTC(t, "--no-parent-ignore", "--format", "json", "-o", path, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"group_by"`)
	assert.Contains(t, string(data), `"language"`)
}

func TestRoot_ListLanguages(t *testing.T) {
	out, _, err := runTC(t, "--list-languages")
	require.NoError(t, err)
	assert.Contains(t, out, "go")
	assert.Contains(t, out, ".py")

	sub, _, err := runTC(t, "languages")
	require.NoError(t, err)
	assert.Equal(t, out, sub)
}

func TestRoot_VerboseLogsSkippedFiles(t *testing.T) {
	dir := sampleProject(t)
	_, errOut, err := runTC(t, "--no-parent-ignore", "--verbose", "3", dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "notes.txt")
	assert.Contains(t, errOut, "discovered 3 files")
}

func TestWatch_InitialReport(t *testing.T) {
	dir := sampleProject(t)
	c := config.Default()
	c.Paths = []string{dir}
	c.Format = "csv"
	c.NoParentIgnore = true
	s, err := c.Resolve()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var out bytes.Buffer
	require.NoError(t, watch(ctx, &out, ingest.NewLogger(&bytes.Buffer{}, 0), s, 10*time.Millisecond))
	assert.Contains(t, out.String(), "Language,Files,Tokens")
	assert.Contains(t, out.String(), "go,2,")
}

func TestKinds_ListsCommentNodes(t *testing.T) {
	dir := sampleProject(t)
	out, _, err := runTC(t, "kinds", "--no-parent-ignore", "--whitelist", "go", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, []string{"Kind", "Nodes", "Leaves"}, strings.Fields(lines[0]))

	var comment []string
	for _, l := range lines[1:] {
		if f := strings.Fields(l); len(f) == 3 && f[0] == "comment" {
			comment = f
		}
	}
	assert.Equal(t, []string{"comment", "2", "2"}, comment)
}

// syncBuffer is a bytes.Buffer safe for a logger goroutine and a reader.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func TestWatch_OutputInsideWatchedDirDoesNotRetrigger(t *testing.T) {
	dir := sampleProject(t)
	c := config.Default()
	c.Paths = []string{dir}
	c.Format = "csv"
	c.Output = filepath.Join(dir, "a", "report.csv")
	c.NoParentIgnore = true
	c.Verbose = ingest.LogDebug
	s, err := c.Resolve()
	require.NoError(t, err)
	defer s.Close()

	var log syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, io.Discard, ingest.NewLogger(&log, ingest.LogDebug), s, 50*time.Millisecond)
	}()

	recounts := func() int { return strings.Count(log.String(), "watching ") }
	require.Eventually(t, func() bool { return recounts() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "extra.go"), []byte("package main\n"), 0o644))
	require.Eventually(t, func() bool { return recounts() == 2 }, 5*time.Second, 10*time.Millisecond)

	// Rewriting report.csv must not schedule further recounts.
	time.Sleep(300 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, recounts(), log.String())

	data, err := os.ReadFile(c.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go,3,")
}

func TestIsOwnOutput(t *testing.T) {
	out := filepath.Join(string(filepath.Separator)+"work", "counts.db")
	assert.True(t, isOwnOutput(out, out))
	assert.True(t, isOwnOutput(out+"-journal", out))
	assert.True(t, isOwnOutput(out+"-wal", out))
	assert.False(t, isOwnOutput(filepath.Join(filepath.Dir(out), "main.go"), out))
	assert.False(t, isOwnOutput(out, ""))
}

func TestRoot_KindPunctuation(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"sum.go": "package sum\n\nfunc add(a, b, c int) string { return \"x\" }\n",
	})
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "csv", "--kind", ",", "--kind", `"`, dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `Language,Files,Tokens,",",""""`, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "go,1,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",2,2"), lines[1])
}

func TestRoot_PathArguments(t *testing.T) {
	dir := sampleProject(t)
	out, _, err := runTC(t, "--no-parent-ignore", "--format", "csv", "--group-by", "arg", "--sort-by", "group",
		filepath.Join(dir, "a"), filepath.Join(dir, "b", "tool.py"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], filepath.Join(dir, "a")+",2,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], filepath.Join(dir, "b", "tool.py")+",1,"), lines[2])
}
