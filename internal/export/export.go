// Package export writes the bulk actions to a replayable NDJSON file.
package export

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trevormunoz/dumbwaiter/internal/document"
	"github.com/trevormunoz/dumbwaiter/internal/search"
)

// FileName is the export file written into the output directory.
const FileName = "menus-bulk.ndjson"

const chunk = 1000

// Writer writes actions in the engine's bulk format to Dir/FileName.
type Writer struct {
	Dir string
	Log *slog.Logger
}

// Write drains seq into the export file and returns its path and the number
// of actions written. A mapping error aborts the export and removes the
// partial file.
func (w *Writer) Write(ctx context.Context, seq iter.Seq2[document.IndexAction, error]) (string, int, error) {
	log := w.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("export: mkdir %s: %w", w.Dir, err)
	}
	path := filepath.Join(w.Dir, FileName)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, fmt.Errorf("export: create %s: %w", tmp, err)
	}

	n, werr := writeAll(ctx, f, seq)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return "", n, werr
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", n, fmt.Errorf("export: rename %s: %w", tmp, err)
	}

	log.Info("exported bulk file", "path", path, "actions", n)
	return path, n, nil
}

func writeAll(ctx context.Context, f *os.File, seq iter.Seq2[document.IndexAction, error]) (int, error) {
	batch := make([]document.IndexAction, 0, chunk)
	n := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := search.WriteBulk(f, batch); err != nil {
			return fmt.Errorf("export: write: %w", err)
		}
		n += len(batch)
		batch = batch[:0]
		return nil
	}

	for a, err := range seq {
		if err != nil {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		batch = append(batch, a)
		if len(batch) == chunk {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	return n, flush()
}
