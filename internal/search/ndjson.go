package search

import (
	"bufio"
	"io"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// WriteBulk encodes actions in the engine's newline-delimited bulk format:
// one metadata line followed by one source line per action.
func WriteBulk(w io.Writer, actions []document.IndexAction) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, a := range actions {
		meta := map[string]bulkMeta{a.Verb: {Index: a.Index, ID: strconv.FormatInt(a.ID, 10)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(a.Source); err != nil {
			return err
		}
	}
	return bw.Flush()
}
