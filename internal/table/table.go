// Package table is the in-memory representation of one CSV source.
//
// Cells are kept as strings exactly as read (trimmed); the empty string means
// "missing", the same way the CSV reader maps empty fields to nil. Typing is
// applied later, column by column, with the lenient coercions in coerce.go.
package table

// Table is one loaded source file.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	colIx map[string]int
}

// New builds a Table. Rows shorter than columns are padded so every row can be
// indexed by column position.
func New(name string, columns []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    rows,
		colIx:   make(map[string]int, len(columns)),
	}
	for i, c := range t.Columns {
		if _, dup := t.colIx[c]; !dup {
			t.colIx[c] = i
		}
	}
	for i, r := range t.Rows {
		if len(r) < len(t.Columns) {
			padded := make([]string, len(t.Columns))
			copy(padded, r)
			t.Rows[i] = padded
		}
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Col returns the position of a column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.colIx[name]
	return i, ok
}

// Missing returns the names in required that the table does not carry,
// in the order given.
func (t *Table) Missing(required ...string) []string {
	var out []string
	for _, c := range required {
		if _, ok := t.colIx[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Discarded returns the columns not present in allow, in source order.
// keep lists extra columns that survive projection without being output
// fields (join keys).
func (t *Table) Discarded(allow []string, keep ...string) []string {
	set := make(map[string]struct{}, len(allow)+len(keep))
	for _, a := range allow {
		set[a] = struct{}{}
	}
	for _, k := range keep {
		set[k] = struct{}{}
	}
	var out []string
	for _, c := range t.Columns {
		if _, ok := set[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the cell at (row, col); col must come from Col.
func (t *Table) Get(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}
