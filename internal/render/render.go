// Package render writes reports as text tables, CSV, JSON or SQLite.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/agentic-research/tc/api"
	"github.com/agentic-research/tc/internal/report"
)

// Format is an output format.
type Format int

const (
	FormatTable Format = iota
	FormatCSV
	FormatJSON
	FormatSQLite
)

// ParseFormat parses the --format value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "sqlite":
		return FormatSQLite, nil
	default:
		return 0, fmt.Errorf("%q is not a supported argument to --format. Use one of table|csv|json|sqlite", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatTable:
		return "table"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatSQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ErrNoOutputPath is returned when the sqlite format has no --output.
var ErrNoOutputPath = errors.New("the sqlite format requires an output path")

// Render writes r to w in format. The sqlite format writes to the database
// at path instead of w.
func Render(w io.Writer, path string, format Format, r *report.Report) error {
	switch format {
	case FormatTable:
		return Table(w, r)
	case FormatCSV:
		return CSV(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatSQLite:
		if path == "" {
			return ErrNoOutputPath
		}
		return SQLite(path, r)
	default:
		return fmt.Errorf("unknown format %v", format)
	}
}

// header returns the column headings shared by the table and CSV formats.
func header(r *report.Report) []string {
	h := []string{r.GroupBy.Label(), "Files", "Tokens"}
	return append(h, r.Columns...)
}

// records returns every row, totals last, as string cells.
func records(r *report.Report) [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		out = append(out, cells(row))
	}
	if r.Totals != nil {
		out = append(out, cells(*r.Totals))
	}
	return out
}

func cells(row report.Row) []string {
	c := []string{
		row.Group,
		strconv.FormatUint(row.Files, 10),
		strconv.FormatInt(row.Tokens, 10),
	}
	for _, m := range row.Matches {
		c = append(c, strconv.FormatInt(m, 10))
	}
	return c
}

// Document converts r into its api form.
func Document(r *report.Report) *api.Report {
	doc := &api.Report{
		GroupBy: r.GroupBy.String(),
		Columns: append([]string{}, r.Columns...),
		Rows:    make([]api.Row, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		doc.Rows = append(doc.Rows, apiRow(row, r.Columns))
	}
	if r.Totals != nil {
		t := apiRow(*r.Totals, r.Columns)
		doc.Totals = &t
	}
	return doc
}

func apiRow(row report.Row, columns []string) api.Row {
	out := api.Row{Group: row.Group, Files: row.Files, Tokens: row.Tokens}
	for i, name := range columns {
		var n int64
		if i < len(row.Matches) {
			n = row.Matches[i]
		}
		out.Matches = append(out.Matches, api.Match{Name: name, Count: n})
	}
	return out
}
