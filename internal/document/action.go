package document

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// Defaults for the target index.
const (
	DefaultIndex = "menus"
	DefaultType  = "item"
	VerbIndex    = "index"
)

// IndexAction is one bulk unit of work.
type IndexAction struct {
	Verb   string
	Index  string
	Type   string
	ID     int64
	Source map[string]any
}

// Path is the document path used in logs and success counters.
func (a IndexAction) Path() string {
	return fmt.Sprintf("/%s/%s/%d", a.Index, a.Type, a.ID)
}

// MappingError reports a document that cannot become an index action.
type MappingError struct {
	Field  string
	Value  any
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("document: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Mapper targets a named index and type.
type Mapper struct {
	Index string
	Type  string
}

// ToAction maps doc onto the default "menus"/"item" target.
func ToAction(doc *MenuDocument) (IndexAction, error) {
	return Mapper{}.ToAction(doc)
}

// ToAction builds the index action for doc. The action id is the item id.
func (m Mapper) ToAction(doc *MenuDocument) (IndexAction, error) {
	id, err := itemID(doc.ItemID)
	if err != nil {
		return IndexAction{}, err
	}
	index, typ := m.Index, m.Type
	if index == "" {
		index = DefaultIndex
	}
	if typ == "" {
		typ = DefaultType
	}
	return IndexAction{
		Verb:   VerbIndex,
		Index:  index,
		Type:   typ,
		ID:     id,
		Source: doc.Source(),
	}, nil
}

func itemID(v any) (int64, error) {
	bad := func(reason string) (int64, error) {
		return 0, &MappingError{Field: "item_id", Value: v, Reason: reason}
	}

	switch x := v.(type) {
	case nil:
		return bad("missing")
	case int64:
		if x < 0 {
			return bad("negative")
		}
		return x, nil
	case int:
		if x < 0 {
			return bad("negative")
		}
		return int64(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return bad("missing")
		}
		if x != math.Trunc(x) {
			return bad("not an integer")
		}
		if x < 0 {
			return bad("negative")
		}
		if x >= math.MaxInt64 {
			return bad("out of range")
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return bad("not numeric")
		}
		if n < 0 {
			return bad("negative")
		}
		return n, nil
	default:
		return bad(fmt.Sprintf("unsupported type %T", v))
	}
}

// Actions yields one action per document, stopping at the first
// MappingError.
func (m Mapper) Actions(docs []MenuDocument) iter.Seq2[IndexAction, error] {
	return func(yield func(IndexAction, error) bool) {
		for i := range docs {
			a, err := m.ToAction(&docs[i])
			if !yield(a, err) || err != nil {
				return
			}
		}
	}
}
