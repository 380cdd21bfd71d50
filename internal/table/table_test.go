package table

import (
	"reflect"
	"testing"
)

func TestNew_PadsShortRows(t *testing.T) {
	t.Parallel()

	tb := New("Dish.csv", []string{"id", "name", "times_appeared"}, [][]string{{"1", "Soup"}})
	if got := tb.Get(0, 2); got != "" {
		t.Fatalf("Get(0,2)=%q, want empty", got)
	}
	if tb.Len() != 1 {
		t.Fatalf("Len=%d, want 1", tb.Len())
	}
}

func TestMissingAndDiscarded(t *testing.T) {
	t.Parallel()

	tb := New("Menu.csv", []string{"id", "name", "sponsor", "event", "date"}, nil)

	if got := tb.Missing("sponsor", "location", "date", "page_count"); !reflect.DeepEqual(got, []string{"location", "page_count"}) {
		t.Fatalf("Missing=%v", got)
	}
	got := tb.Discarded([]string{"sponsor", "date"}, "id")
	if !reflect.DeepEqual(got, []string{"name", "event"}) {
		t.Fatalf("Discarded=%v, want [name event]", got)
	}
}

func TestCoercions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(string) any
		in   string
		want any
	}{
		{name: "float_missing", fn: LenientFloat, in: "", want: nil},
		{name: "float_number", fn: LenientFloat, in: "0.25", want: 0.25},
		{name: "float_int_text", fn: LenientFloat, in: "3", want: 3.0},
		{name: "float_nan_is_null", fn: LenientFloat, in: "NaN", want: nil},
		{name: "float_inf_is_null", fn: LenientFloat, in: "inf", want: nil},
		{name: "float_passthrough", fn: LenientFloat, in: "n/a", want: "n/a"},
		{name: "int_integral", fn: LenientInt, in: "42", want: int64(42)},
		{name: "int_float_integral", fn: LenientInt, in: "42.0", want: int64(42)},
		{name: "int_fractional", fn: LenientInt, in: "42.5", want: 42.5},
		{name: "int_passthrough", fn: LenientInt, in: "abc", want: "abc"},
		{name: "string_missing", fn: String, in: "", want: nil},
		{name: "string_value", fn: String, in: "Hotel Astor", want: "Hotel Astor"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.fn(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got=%#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{"0": true, "0.0": true, "": false, "1": false, "zero": false}
	for in, want := range cases {
		if got := IsZero(in); got != want {
			t.Fatalf("IsZero(%q)=%v, want %v", in, got, want)
		}
	}
}
