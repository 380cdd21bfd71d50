package mssql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/trevormunoz/dumbwaiter/internal/storage"
)

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type fakeDB struct {
	queries []string
	nargs   []int
	failAt  int
}

func (f *fakeDB) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, q)
	f.nargs = append(f.nargs, len(args))
	if f.failAt > 0 && len(f.queries) == f.failAt {
		return nil, errors.New("boom")
	}
	return fakeResult(strings.Count(q, "), (") + 1), nil
}

func (f *fakeDB) Close() error { return nil }

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	q, args := buildInsertSQL("dbo.menu_documents", []string{"dish_id", "dish_name"}, [][]any{
		{int64(1), "Chicken Gumbo"},
		{int64(2), nil},
	})
	want := "INSERT INTO [dbo].[menu_documents] ([dish_id], [dish_name]) VALUES (@p1, @p2), (@p3, @p4)"
	if q != want {
		t.Fatalf("got=%q, want %q", q, want)
	}
	if len(args) != 4 || args[0] != int64(1) || args[3] != nil {
		t.Fatalf("args=%v", args)
	}
}

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	got := buildCreateSQL("menu]docs", []storage.Column{
		{Name: "dish_id", Type: storage.Integer},
		{Name: "item_xpos", Type: storage.Float},
		{Name: "dish_name", Type: storage.Text},
	})
	want := "CREATE TABLE [menu]]docs] ([dish_id] BIGINT, [item_xpos] FLOAT, [dish_name] NVARCHAR(MAX))"
	if got != want {
		t.Fatalf("got=%q, want %q", got, want)
	}
}

func TestInsertRows_Chunks(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	m := &Mirror{db: db}

	cols := storage.ColumnNames(storage.DocumentColumns())
	rows := make([][]any, 200)
	for i := range rows {
		rows[i] = make([]any, len(cols))
	}

	n, err := m.InsertRows(context.Background(), "menu_documents", cols, rows)
	if err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if n != 200 {
		t.Fatalf("n=%d, want 200", n)
	}
	per := maxParams / len(cols)
	wantStatements := (200 + per - 1) / per
	if len(db.queries) != wantStatements {
		t.Fatalf("statements=%d, want %d", len(db.queries), wantStatements)
	}
	for i, na := range db.nargs {
		if na > maxParams {
			t.Fatalf("statement %d has %d params", i, na)
		}
	}
}

func TestInsertRows_ErrorKeepsCount(t *testing.T) {
	t.Parallel()

	db := &fakeDB{failAt: 2}
	m := &Mirror{db: db}

	rows := make([][]any, 1500)
	for i := range rows {
		rows[i] = []any{int64(i)}
	}
	n, err := m.InsertRows(context.Background(), "t", []string{"id"}, rows)
	if err == nil {
		t.Fatalf("expected error")
	}
	if n != 1000 {
		t.Fatalf("n=%d, want 1000", n)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	m := &Mirror{db: db}
	if err := m.Reset(context.Background(), "menu_documents", storage.DocumentColumns()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(db.queries) != 2 || !strings.HasPrefix(db.queries[0], "DROP TABLE IF EXISTS") || !strings.HasPrefix(db.queries[1], "CREATE TABLE") {
		t.Fatalf("queries=%v", db.queries)
	}
}
