package storage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

// ColumnType is a backend-neutral column type.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Float
)

// Column is one mirror column.
type Column struct {
	Name string
	Type ColumnType
}

var documentTypes = map[string]ColumnType{
	"dish_id":                Integer,
	"menu_page_count":        Float,
	"menu_dish_count":        Float,
	"item_id":                Integer,
	"menu_page_id":           Integer,
	"item_xpos":              Float,
	"item_ypos":              Float,
	"menu_id":                Integer,
	"menu_page_number":       Float,
	"page_image_full_height": Float,
	"page_image_full_width":  Float,
	"dish_menus_appeared":    Float,
	"dish_times_appeared":    Float,
}

// DocumentColumns is the mirror schema for MenuDocuments, in field order.
func DocumentColumns() []Column {
	cols := make([]Column, len(document.Fields))
	for i, f := range document.Fields {
		cols[i] = Column{Name: f, Type: documentTypes[f]}
	}
	return cols
}

// ColumnNames returns the names of cols.
func ColumnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// DocumentRows converts docs into rows matching DocumentColumns. Values a
// typed column cannot hold (lenient text left in a numeric field) become
// NULL; the search index still receives the original value.
func DocumentRows(docs []document.MenuDocument) [][]any {
	cols := DocumentColumns()
	rows := make([][]any, len(docs))
	for i := range docs {
		vals := docs[i].Values()
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = Coerce(c.Type, vals[j])
		}
		rows[i] = row
	}
	return rows
}

// Coerce converts v for a column of type t. nil stays nil.
func Coerce(t ColumnType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case Integer:
		switch x := v.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) && x >= math.MinInt64 && x < math.MaxInt64 {
				return int64(x)
			}
		}
		return nil
	case Float:
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil
			}
			return x
		case int64:
			return float64(x)
		case int:
			return float64(x)
		}
		return nil
	default:
		switch x := v.(type) {
		case string:
			return x
		case int64:
			return strconv.FormatInt(x, 10)
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return fmt.Sprint(v)
		}
	}
}
