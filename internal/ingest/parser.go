package ingest

import (
	"context"
	"errors"
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned for files no registered grammar claims.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Parser reads files from a filesystem and parses them with tree-sitter.
type Parser struct {
	FS billy.Filesystem
}

// NewParser returns a parser reading from fs.
func NewParser(fs billy.Filesystem) *Parser {
	return &Parser{FS: fs}
}

// Parse reads path and parses it with the grammar its name selects. The
// caller owns the returned tree and must Close it.
func (p *Parser) Parse(ctx context.Context, path string) (*Tree, error) {
	lang, ok := DetectLanguage(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	content, err := util.ReadFile(p.FS, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseSource(ctx, path, content, lang)
}

// ParseSource parses content with lang.
func ParseSource(ctx context.Context, path string, content []byte, lang *Language) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.Grammar)

	raw, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", path)
	}
	return &Tree{Path: path, Source: content, Lang: lang, raw: raw}, nil
}
