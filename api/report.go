package api

// Report is the document form of a token count report, as written by the
// JSON renderer.
type Report struct {
	// GroupBy is the grouping dimension: language, file or arg.
	GroupBy string `json:"group_by"`
	// Columns names the match counters of every row, in order.
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	// Totals is the sum of all rows, when requested.
	Totals *Row `json:"totals,omitempty"`
}

// Row is one group of the report.
type Row struct {
	Group   string  `json:"group"`
	Files   uint64  `json:"files"`
	Tokens  int64   `json:"tokens"`
	Matches []Match `json:"matches,omitempty"`
}

// Match is the count of one named counter within a row.
type Match struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Simple converts the report into maps, slices and scalars only, the form
// generic encoders such as ojg accept.
func (r *Report) Simple() map[string]any {
	rows := make([]any, len(r.Rows))
	for i := range r.Rows {
		rows[i] = r.Rows[i].Simple()
	}
	columns := make([]any, len(r.Columns))
	for i, c := range r.Columns {
		columns[i] = c
	}
	doc := map[string]any{
		"group_by": r.GroupBy,
		"columns":  columns,
		"rows":     rows,
	}
	if r.Totals != nil {
		doc["totals"] = r.Totals.Simple()
	}
	return doc
}

// Simple converts the row like Report.Simple.
func (r *Row) Simple() map[string]any {
	m := map[string]any{
		"group":  r.Group,
		"files":  int64(r.Files),
		"tokens": r.Tokens,
	}
	if len(r.Matches) > 0 {
		matches := make([]any, len(r.Matches))
		for i, mt := range r.Matches {
			matches[i] = map[string]any{"name": mt.Name, "count": mt.Count}
		}
		m["matches"] = matches
	}
	return m
}
