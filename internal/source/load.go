package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trevormunoz/dumbwaiter/internal/table"
)

// Expected source files.
const (
	DishFile     = "Dish.csv"
	MenuItemFile = "MenuItem.csv"
	MenuPageFile = "MenuPage.csv"
	MenuFile     = "Menu.csv"
)

// Required columns per source file. Anything else is loaded and later
// reported as discarded by the merger.
var (
	DishColumns     = []string{"id", "name", "menus_appeared", "times_appeared"}
	MenuItemColumns = []string{"id", "menu_page_id", "dish_id", "xpos", "ypos", "created_at", "updated_at"}
	MenuPageColumns = []string{"id", "menu_id", "page_number", "image_id", "full_height", "full_width", "uuid"}
	MenuColumns     = []string{"id", "sponsor", "location", "date", "page_count", "dish_count"}
)

// Tables is the loaded source set.
type Tables struct {
	Dish     *table.Table
	MenuItem *table.Table
	MenuPage *table.Table
	Menu     *table.Table
}

// Load reads the four expected CSV files from dir.
func Load(ctx context.Context, dir string, log *slog.Logger) (*Tables, error) {
	log = orDiscard(log)

	out := &Tables{}
	specs := []struct {
		file     string
		required []string
		dst      **table.Table
	}{
		{DishFile, DishColumns, &out.Dish},
		{MenuItemFile, MenuItemColumns, &out.MenuItem},
		{MenuPageFile, MenuPageColumns, &out.MenuPage},
		{MenuFile, MenuColumns, &out.Menu},
	}

	for _, s := range specs {
		t, err := ReadTable(ctx, filepath.Join(dir, s.file), log)
		if err != nil {
			return nil, err
		}
		if missing := t.Missing(s.required...); len(missing) > 0 {
			return nil, &SchemaError{File: s.file, Column: missing[0]}
		}
		log.Info("loaded source table", "file", s.file, "rows", t.Len(), "columns", len(t.Columns))
		*s.dst = t
	}
	return out, nil
}

// ReadTable reads one CSV file with a header row. Header names are trimmed,
// lowercased and have spaces replaced by underscores; a leading BOM is
// stripped. Cells are trimmed. Malformed records are logged and skipped.
func ReadTable(ctx context.Context, path string, log *slog.Logger) (*table.Table, error) {
	log = orDiscard(log)
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceNotFoundError{Path: path, What: "csv", Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	line := 1
	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table.New(name, nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	columns := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		columns[i] = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}

	var (
		rows    [][]string
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			log.Warn("skipping malformed record", "file", name, "line", line, "err", err)
			continue
		}
		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		log.Warn("malformed records skipped", "file", name, "count", skipped)
	}
	return table.New(name, columns, rows), nil
}
