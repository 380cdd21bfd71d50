package source

import "fmt"

// SourceNotFoundError reports a missing archive or expected CSV file.
type SourceNotFoundError struct {
	Path string
	What string // "archive" | "csv"
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: %s not found at %s: %v", e.What, e.Path, e.Err)
	}
	return fmt.Sprintf("source: %s not found at %s", e.What, e.Path)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// SchemaError reports an expected column that is absent from a source file.
type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source: %s: missing required column %q", e.File, e.Column)
}
