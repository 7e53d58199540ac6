package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agentic-research/tc/internal/report"
)

// Table writes r as aligned columns, with the totals row set off by a rule.
func Table(w io.Writer, r *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	h := header(r)
	fmt.Fprintln(tw, strings.Join(h, "\t"))

	recs := records(r)
	for i, rec := range recs {
		if r.Totals != nil && i == len(recs)-1 {
			rule := make([]string, len(h))
			for j, col := range h {
				rule[j] = strings.Repeat("-", len(col))
			}
			fmt.Fprintln(tw, strings.Join(rule, "\t"))
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	return tw.Flush()
}

// CSV writes r as comma-separated values with a header record.
func CSV(w io.Writer, r *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(r)); err != nil {
		return err
	}
	if err := cw.WriteAll(records(r)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
