package render

import (
	"io"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/tc/internal/report"
)

// JSON writes r as an indented JSON document with sorted keys.
func JSON(w io.Writer, r *report.Report) error {
	out := oj.JSON(Document(r).Simple(), &ojg.Options{Indent: 2, Sort: true})
	_, err := io.WriteString(w, out+"\n")
	return err
}
