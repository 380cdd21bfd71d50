// Package mssql is the SQL Server mirror backend.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/trevormunoz/dumbwaiter/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

// SQL Server accepts at most 2100 parameters per statement.
const maxParams = 2000

// Mirror writes rows with chunked multi-row INSERT statements.
type Mirror struct {
	db dbConn
}

func New(ctx context.Context, cfg storage.Config) (storage.Mirror, error) {
	raw, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Mirror{db: raw}, nil
}

func (m *Mirror) Close() {
	if m == nil || m.db == nil {
		return
	}
	_ = m.db.Close()
}

func (m *Mirror) Reset(ctx context.Context, table string, cols []storage.Column) error {
	if _, err := m.db.ExecContext(ctx, buildDropSQL(table)); err != nil {
		return fmt.Errorf("mssql: drop %s: %w", table, err)
	}
	if _, err := m.db.ExecContext(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("mssql: create %s: %w", table, err)
	}
	return nil
}

func (m *Mirror) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	maxRows := maxParams / max(1, len(columns))
	if maxRows > 1000 {
		maxRows = 1000 // row constructor limit
	}

	var total int64
	for start := 0; start < len(rows); start += maxRows {
		end := min(start+maxRows, len(rows))
		q, args := buildInsertSQL(table, columns, rows[start:end])

		res, err := m.db.ExecContext(ctx, q, args...)
		if err != nil {
			return total, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// dbConn is the subset of *sql.DB the mirror uses.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent quotes each part: "dbo.menus" -> [dbo].[menus].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

func mssqlType(t storage.ColumnType) string {
	switch t {
	case storage.Integer:
		return "BIGINT"
	case storage.Float:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

func buildDropSQL(table string) string {
	return "DROP TABLE IF EXISTS " + mssqlTableIdent(table)
}

func buildCreateSQL(table string, cols []storage.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = mssqlIdent(c.Name) + " " + mssqlType(c.Type)
	}
	return "CREATE TABLE " + mssqlTableIdent(table) + " (" + strings.Join(defs, ", ") + ")"
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}
