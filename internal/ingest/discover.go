package ingest

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DiscoverOptions control which files a walk yields.
type DiscoverOptions struct {
	// NoGit ignores .gitignore and .git/info/exclude.
	NoGit bool
	// NoDotIgnore ignores .ignore files.
	NoDotIgnore bool
	// NoParentIgnore ignores ignore files above each path argument.
	NoParentIgnore bool
	// CountHidden walks dot files and dot directories.
	CountHidden bool
	Languages   LanguageFilter
}

// File is a source file selected for counting.
type File struct {
	// ID is unique per distinct file within one discovery.
	ID uint32

	// Path is the path shown to the user: the argument joined with the
	// path below it.
	Path string

	// Arg is the command-line argument that led to the file.
	Arg string

	// FSPath is the cleaned absolute path on the filesystem.
	FSPath string

	Lang *Language
}

// Discoverer walks path arguments on a billy filesystem.
type Discoverer struct {
	FS      billy.Filesystem
	Options DiscoverOptions
	Logger  *Logger

	files []File
	dirs  []string
	seen  map[string]bool
}

// NewDiscoverer returns a discoverer over fs.
func NewDiscoverer(fs billy.Filesystem, opts DiscoverOptions, logger *Logger) *Discoverer {
	return &Discoverer{FS: fs, Options: opts, Logger: logger}
}

// Discover returns the files reachable from args, in argument order and
// then by name. A file reached from several arguments is kept once, under
// the first. Unreadable paths are logged and skipped.
func (d *Discoverer) Discover(args []string) []File {
	d.files = nil
	d.dirs = nil
	d.seen = make(map[string]bool)

	for _, arg := range args {
		fsPath := arg
		if !filepath.IsAbs(fsPath) {
			abs, err := filepath.Abs(fsPath)
			if err != nil {
				d.Logger.Printf(LogIO, "resolve %s: %v", arg, err)
				continue
			}
			fsPath = abs
		}
		fsPath = filepath.Clean(fsPath)

		info, err := d.FS.Stat(fsPath)
		if err != nil {
			d.Logger.Printf(LogIO, "stat %s: %v", arg, err)
			continue
		}
		if !info.IsDir() {
			d.add(fsPath, filepath.Clean(arg), arg)
			continue
		}

		var inherited []gitignore.Pattern
		if !d.Options.NoParentIgnore {
			inherited = d.parentPatterns(fsPath)
		}
		d.walk(fsPath, arg, arg, inherited)
	}
	return d.files
}

func (d *Discoverer) add(fsPath, display, arg string) {
	if d.seen[fsPath] {
		return
	}
	lang, ok := DetectLanguage(fsPath)
	if !ok {
		d.Logger.Printf(LogDebug, "skip %s: %v", display, ErrUnsupportedLanguage)
		return
	}
	if !d.Options.Languages.Allows(lang.Name) {
		d.Logger.Printf(LogDebug, "skip %s: language %s filtered", display, lang.Name)
		return
	}
	d.seen[fsPath] = true
	d.files = append(d.files, File{
		ID:     uint32(len(d.files)),
		Path:   display,
		Arg:    arg,
		Lang:   lang,
		FSPath: fsPath,
	})
}

func (d *Discoverer) walk(dir, display, arg string, inherited []gitignore.Pattern) {
	patterns := append(slices.Clip(inherited), d.dirPatterns(dir)...)
	matcher := gitignore.NewMatcher(patterns)

	entries, err := d.FS.ReadDir(dir)
	if err != nil {
		d.Logger.Printf(LogIO, "read dir %s: %v", display, err)
		return
	}
	d.dirs = append(d.dirs, dir)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && name == ".git" {
			continue
		}
		if !d.Options.CountHidden && strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(dir, name)
		if matcher.Match(splitPath(p), e.IsDir()) {
			continue
		}
		switch {
		case e.IsDir():
			d.walk(p, filepath.Join(display, name), arg, patterns)
		case e.Mode().IsRegular():
			d.add(p, filepath.Join(display, name), arg)
		}
	}
}

// Dirs returns the absolute paths of the directories the last Discover
// walked.
func (d *Discoverer) Dirs() []string {
	return append([]string(nil), d.dirs...)
}

// parentPatterns collects ignore rules from every ancestor of dir, outermost
// first, so rules closer to dir take precedence.
func (d *Discoverer) parentPatterns(dir string) []gitignore.Pattern {
	var ancestors []string
	for p := filepath.Dir(dir); ; p = filepath.Dir(p) {
		ancestors = append(ancestors, p)
		if p == filepath.Dir(p) {
			break
		}
	}
	var out []gitignore.Pattern
	for i := len(ancestors) - 1; i >= 0; i-- {
		out = append(out, d.dirPatterns(ancestors[i])...)
	}
	return out
}

// dirPatterns reads the ignore files of one directory. Later patterns win,
// so .ignore overrides .gitignore, which overrides .git/info/exclude.
func (d *Discoverer) dirPatterns(dir string) []gitignore.Pattern {
	domain := splitPath(dir)
	var out []gitignore.Pattern
	if !d.Options.NoGit {
		if info, err := d.FS.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			out = append(out, d.readPatterns(filepath.Join(dir, ".git", "info", "exclude"), domain)...)
		}
		out = append(out, d.readPatterns(filepath.Join(dir, ".gitignore"), domain)...)
	}
	if !d.Options.NoDotIgnore {
		out = append(out, d.readPatterns(filepath.Join(dir, ".ignore"), domain)...)
	}
	return out
}

func (d *Discoverer) readPatterns(path string, domain []string) []gitignore.Pattern {
	data, err := util.ReadFile(d.FS, path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.Logger.Printf(LogIO, "read %s: %v", path, err)
		}
		return nil
	}
	var out []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, gitignore.ParsePattern(line, domain))
	}
	return out
}

// splitPath turns a cleaned path into the component form gitignore matches.
func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(filepath.ToSlash(p), "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
