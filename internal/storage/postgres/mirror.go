// Package postgres is the Postgres mirror backend.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trevormunoz/dumbwaiter/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// Mirror loads rows with COPY FROM.
type Mirror struct {
	pool *pgxpool.Pool
}

// New opens a pool on cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Mirror, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Mirror{pool: pool}, nil
}

func (m *Mirror) Close() { m.pool.Close() }

// Reset drops and recreates table in one transaction.
func (m *Mirror) Reset(ctx context.Context, table string, cols []storage.Column) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, buildDropSQL(table)); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, buildCreateSQL(table, cols)); err != nil {
		return fmt.Errorf("postgres: create %s: %w", table, err)
	}
	return tx.Commit(ctx)
}

func (m *Mirror) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := m.pool.CopyFrom(ctx, tableIdentifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

func buildDropSQL(table string) string {
	return "DROP TABLE IF EXISTS " + tableIdentifier(table).Sanitize()
}

func buildCreateSQL(table string, cols []storage.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(tableIdentifier(table).Sanitize())
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(pgType(c.Type))
	}
	b.WriteString(")")
	return b.String()
}

func pgType(t storage.ColumnType) string {
	switch t {
	case storage.Integer:
		return "bigint"
	case storage.Float:
		return "double precision"
	default:
		return "text"
	}
}

// tableIdentifier splits a schema-qualified name: "public.menus" -> {"public", "menus"}.
func tableIdentifier(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return pgx.Identifier(parts)
}
