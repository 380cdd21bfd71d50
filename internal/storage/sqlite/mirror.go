// Package sqlite is the SQLite mirror backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/trevormunoz/dumbwaiter/internal/storage"
)

func init() {
	storage.Register("sqlite", New)
}

// Mirror writes rows with a prepared INSERT inside one transaction.
type Mirror struct {
	db *sql.DB
}

func New(ctx context.Context, cfg storage.Config) (storage.Mirror, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() { _ = m.db.Close() }

func (m *Mirror) Reset(ctx context.Context, table string, cols []storage.Column) error {
	if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(table)); err != nil {
		return fmt.Errorf("sqlite: drop %s: %w", table, err)
	}
	if _, err := m.db.ExecContext(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", table, err)
	}
	return nil
}

func (m *Mirror) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: row %d has %d values, want %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func sqliteType(t storage.ColumnType) string {
	switch t {
	case storage.Integer:
		return "INTEGER"
	case storage.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func buildCreateSQL(table string, cols []storage.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = sqlIdent(c.Name) + " " + sqliteType(c.Type)
	}
	return "CREATE TABLE " + sqlIdent(table) + " (" + strings.Join(defs, ", ") + ")"
}

func buildInsertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqlIdent(c)
		marks[i] = "?"
	}
	return "INSERT INTO " + sqlIdent(table) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}
