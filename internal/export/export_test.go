package export

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

func docs(n int) []document.MenuDocument {
	out := make([]document.MenuDocument, n)
	for i := range out {
		out[i] = document.MenuDocument{
			DishID:     int64(i + 1),
			MenuPageID: 20,
			MenuID:     30,
			ItemID:     int64(1000 + i),
			DishName:   "Chicken Gumbo",
		}
	}
	return out
}

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w := &Writer{Dir: dir}
	m := document.Mapper{Index: document.DefaultIndex, Type: document.DefaultType}

	path, n, err := w.Write(context.Background(), m.Actions(docs(1500)))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 1500 {
		t.Fatalf("n=%d, want 1500", n)
	}
	if path != filepath.Join(dir, FileName) {
		t.Fatalf("path=%q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(sc.Bytes(), &obj); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if lines == 0 {
			meta, ok := obj["index"].(map[string]any)
			if !ok || meta["_index"] != "menus" || meta["_id"] != "1000" {
				t.Fatalf("first meta=%v", obj)
			}
		}
		if lines == 1 && obj["dish_name"] != "Chicken Gumbo" {
			t.Fatalf("first source=%v", obj)
		}
		lines++
	}
	if lines != 3000 {
		t.Fatalf("lines=%d, want 3000", lines)
	}
}

func TestWriter_MappingErrorRemovesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := docs(2)
	bad[1].ItemID = "n/a"

	w := &Writer{Dir: dir}
	_, _, err := w.Write(context.Background(), document.Mapper{}.Actions(bad))

	var me *document.MappingError
	if !errors.As(err, &me) {
		t.Fatalf("err=%v, want MappingError", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("leftover files: %v", entries)
	}
}
