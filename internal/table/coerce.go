package table

import (
	"math"
	"strconv"
	"strings"
)

// ParseKey parses an identifier cell. Integral float spellings ("12.0") are
// accepted because exports round-trip ids through floating point columns.
func ParseKey(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// LenientFloat is the best-effort cast for measure columns:
//   - missing → nil
//   - numeric → float64 (NaN/±Inf → nil, they cannot be serialized)
//   - anything else passes through unchanged as a string
func LenientFloat(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// LenientInt is the best-effort cast for identifier columns: integral values
// become int64, other numbers stay float64, everything else behaves like
// LenientFloat.
func LenientInt(s string) any {
	if k, ok := ParseKey(s); ok {
		return k
	}
	return LenientFloat(s)
}

// String maps a missing cell to nil and keeps everything else verbatim.
func String(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// IsZero reports whether s is a number equal to zero. Missing and
// non-numeric cells are not zero.
func IsZero(s string) bool {
	f, ok := LenientFloat(s).(float64)
	return ok && f == 0
}
