package ingest

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Language is a grammar the parser can load, plus the file names it claims.
type Language struct {
	Name       string
	Extensions []string
	// Filenames are exact base names, e.g. "Rakefile".
	Filenames []string
	Grammar   *sitter.Language
}

var languages = []Language{
	{Name: "bash", Extensions: []string{".sh", ".bash"}, Grammar: bash.GetLanguage()},
	{Name: "c", Extensions: []string{".c", ".h"}, Grammar: c.GetLanguage()},
	{Name: "cpp", Extensions: []string{".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx"}, Grammar: cpp.GetLanguage()},
	{Name: "csharp", Extensions: []string{".cs"}, Grammar: csharp.GetLanguage()},
	{Name: "css", Extensions: []string{".css"}, Grammar: css.GetLanguage()},
	{Name: "go", Extensions: []string{".go"}, Grammar: golang.GetLanguage()},
	{Name: "hcl", Extensions: []string{".hcl", ".tf", ".tfvars"}, Grammar: hcl.GetLanguage()},
	{Name: "html", Extensions: []string{".html", ".htm"}, Grammar: html.GetLanguage()},
	{Name: "java", Extensions: []string{".java"}, Grammar: java.GetLanguage()},
	{Name: "javascript", Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}, Grammar: javascript.GetLanguage()},
	{Name: "lua", Extensions: []string{".lua"}, Grammar: lua.GetLanguage()},
	{Name: "python", Extensions: []string{".py", ".pyi"}, Grammar: python.GetLanguage()},
	{Name: "ruby", Extensions: []string{".rb"}, Filenames: []string{"Rakefile", "Gemfile"}, Grammar: ruby.GetLanguage()},
	{Name: "rust", Extensions: []string{".rs"}, Grammar: rust.GetLanguage()},
	{Name: "sql", Extensions: []string{".sql"}, Grammar: sql.GetLanguage()},
	{Name: "toml", Extensions: []string{".toml"}, Grammar: toml.GetLanguage()},
	{Name: "tsx", Extensions: []string{".tsx"}, Grammar: tsx.GetLanguage()},
	{Name: "typescript", Extensions: []string{".ts", ".mts", ".cts"}, Grammar: typescript.GetLanguage()},
	{Name: "yaml", Extensions: []string{".yaml", ".yml"}, Grammar: yaml.GetLanguage()},
}

var (
	byName      = make(map[string]*Language)
	byExtension = make(map[string]*Language)
	byFilename  = make(map[string]*Language)
)

func init() {
	for i := range languages {
		l := &languages[i]
		byName[l.Name] = l
		for _, ext := range l.Extensions {
			byExtension[ext] = l
		}
		for _, fn := range l.Filenames {
			byFilename[fn] = l
		}
	}
}

// Languages returns every supported language ordered by name.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LanguageNames returns the sorted names of every supported language.
func LanguageNames() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// LookupLanguage returns the language registered under name.
func LookupLanguage(name string) (*Language, bool) {
	l, ok := byName[name]
	return l, ok
}

// DetectLanguage picks the language for path by exact file name first,
// then by extension (case-insensitive).
func DetectLanguage(path string) (*Language, bool) {
	base := filepath.Base(path)
	if l, ok := byFilename[base]; ok {
		return l, true
	}
	l, ok := byExtension[strings.ToLower(filepath.Ext(base))]
	return l, ok
}

// LanguageFilter restricts which languages are parsed. A non-empty
// Whitelist overrides Blacklist; both are exact names.
type LanguageFilter struct {
	Whitelist []string
	Blacklist []string
}

// Allows reports whether files of language name should be counted.
func (f LanguageFilter) Allows(name string) bool {
	if len(f.Whitelist) > 0 {
		return slices.Contains(f.Whitelist, name)
	}
	return !slices.Contains(f.Blacklist, name)
}
