package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trailing_space", in: "Chicken gumbo ", want: "chicken gumbo"},
		{name: "internal_runs", in: "  Beef\t\tStew \n with  Rice", want: "beef stew with rice"},
		{name: "empty", in: "", want: ""},
		{name: "only_space", in: " \t\n ", want: ""},
		{name: "diacritics_kept", in: "Crème BRÛLÉE", want: "crème brûlée"},
		{name: "punctuation_kept", in: "Eggs, Boiled (2)", want: "eggs, boiled (2)"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Chicken gumbo ",
		"  Consommé   Printanière ",
		"ÆBLESKIVER med  SYLTETØJ",
		"",
		"a b",
		"Half Dozen ½ Oysters",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already_sorted", in: "chicken gumbo", want: "chicken gumbo"},
		{name: "reordered", in: "stew beef", want: "beef stew"},
		{name: "punctuation_splits", in: "eggs, boiled (2)", want: "2 boiled eggs"},
		{name: "diacritics_significant", in: "crème brûlée", want: "brûlée crème"},
		{name: "decomposed_accent_kept", in: "cafe\u0301 au lait", want: "au caf\u00e9 lait"},
		{name: "combining_mark_without_precomposed", in: "x\u0323\u0301y", want: "x\u0323\u0301y"},
		{name: "underscore_is_word", in: "a_b c", want: "a_b c"},
		{name: "empty", in: "", want: ""},
		{name: "only_punct", in: "--- ,,, !!", want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Fingerprint(tc.in); got != tc.want {
				t.Fatalf("Fingerprint(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFingerprint_PermutationAndRepetition(t *testing.T) {
	t.Parallel()

	a := Fingerprint(Normalize("beef stew stew"))
	b := Fingerprint(Normalize("Stew  Beef"))
	if a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
	if a != "beef stew" {
		t.Fatalf("fingerprint=%q, want %q", a, "beef stew")
	}
}

func TestNormalizeThenFingerprint_ChickenGumbo(t *testing.T) {
	t.Parallel()

	n := Normalize("Chicken gumbo ")
	if n != "chicken gumbo" {
		t.Fatalf("Normalize=%q, want %q", n, "chicken gumbo")
	}
	if fp := Fingerprint(n); fp != "chicken gumbo" {
		t.Fatalf("Fingerprint=%q, want %q", fp, "chicken gumbo")
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	if got := Distinct([]string{"a", "b", "a", ""}); got != 3 {
		t.Fatalf("Distinct=%d, want 3", got)
	}
	if got := Distinct(nil); got != 0 {
		t.Fatalf("Distinct(nil)=%d, want 0", got)
	}
}
