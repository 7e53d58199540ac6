package render

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/tc/internal/report"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at INTEGER NOT NULL,
	group_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_rows (
	report_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	grp TEXT NOT NULL,
	files INTEGER NOT NULL,
	tokens INTEGER NOT NULL,
	is_total INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (report_id, position)
);

CREATE TABLE IF NOT EXISTS report_matches (
	report_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	col INTEGER NOT NULL,
	name TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (report_id, position, col)
) WITHOUT ROWID;
`

// SQLite appends r to the database at path, creating the schema if needed.
// Each call adds one reports row; rows keep their sorted position.
func SQLite(path string, r *report.Report) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := writeReport(tx, r); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func writeReport(tx *sql.Tx, r *report.Report) error {
	res, err := tx.Exec(`INSERT INTO reports (created_at, group_by) VALUES (?, ?)`,
		time.Now().Unix(), r.GroupBy.String())
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmtRow, err := tx.Prepare(`
		INSERT INTO report_rows (report_id, position, grp, files, tokens, is_total)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtRow.Close() }()
	stmtMatch, err := tx.Prepare(`
		INSERT INTO report_matches (report_id, position, col, name, count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtMatch.Close() }()

	insert := func(pos int, row report.Row, total int) error {
		if _, err := stmtRow.Exec(id, pos, row.Group, int64(row.Files), row.Tokens, total); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Group, err)
		}
		for col, name := range r.Columns {
			var n int64
			if col < len(row.Matches) {
				n = row.Matches[col]
			}
			if _, err := stmtMatch.Exec(id, pos, col, name, n); err != nil {
				return fmt.Errorf("insert match %s/%s: %w", row.Group, name, err)
			}
		}
		return nil
	}

	for i, row := range r.Rows {
		if err := insert(i, row, 0); err != nil {
			return err
		}
	}
	if r.Totals != nil {
		return insert(len(r.Rows), *r.Totals, 1)
	}
	return nil
}
