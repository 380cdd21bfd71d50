// Package datefmt canonicalizes the MenuItem created_at/updated_at timestamps.
//
// Input looks like "2011-03-28 15:00:44 UTC". The trailing zone abbreviation
// is required but never interpreted: the wall clock is always taken as UTC.
// Output is the compact basic ISO form "20110328T150044+0000", which is what
// the index mapping declares as basic_date_time_no_millis.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	// inputLayout accepts one or two digit month/day/hour/minute/second fields.
	inputLayout = "2006-1-2 15:4:5"

	// CanonicalLayout is the output layout. "-0700" renders UTC as "+0000".
	CanonicalLayout = "20060102T150405-0700"
)

// ParseError reports a timestamp that does not match
// "YYYY-MM-DD HH:MM:SS <ABBR>".
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("datefmt: cannot parse %q", e.Value)
	}
	return fmt.Sprintf("datefmt: cannot parse %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Canonicalize parses raw and formats it in CanonicalLayout with a UTC offset.
func Canonicalize(raw string) (string, error) {
	t, err := ParseRaw(raw)
	if err != nil {
		return "", err
	}
	return t.Format(CanonicalLayout), nil
}

// ParseRaw parses a source timestamp and returns it in UTC.
func ParseRaw(raw string) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != 3 {
		return time.Time{}, &ParseError{Value: raw, Err: fmt.Errorf("want 3 fields, got %d", len(fields))}
	}
	if !isAbbrev(fields[2]) {
		return time.Time{}, &ParseError{Value: raw, Err: fmt.Errorf("bad zone abbreviation %q", fields[2])}
	}

	naive, err := time.Parse(inputLayout, fields[0]+" "+fields[1])
	if err != nil {
		return time.Time{}, &ParseError{Value: raw, Err: err}
	}

	// time.Parse without a zone already yields UTC; be explicit anyway since
	// the abbreviation is deliberately ignored.
	y, mo, d := naive.Date()
	h, mi, s := naive.Clock()
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC), nil
}

// Parse reads a canonical timestamp back into a time.Time.
func Parse(canonical string) (time.Time, error) {
	t, err := time.Parse(CanonicalLayout, canonical)
	if err != nil {
		return time.Time{}, &ParseError{Value: canonical, Err: err}
	}
	return t, nil
}

func isAbbrev(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
