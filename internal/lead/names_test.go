package lead

import "testing"

func TestIdentityKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "Jane Doe", "jane doe"},
		{"honorific prefix", "Dr. Jane Doe", "jane doe"},
		{"degree suffix", "Jane Doe, PhD", "jane doe"},
		{"dotted degree", "Jane Doe, Ph.D.", "jane doe"},
		{"extra whitespace", "  Jane \t  Doe ", "jane doe"},
		{"mixed case", "JANE dOE", "jane doe"},
		{"stacked honorifics", "Prof. Dr. Jane Doe Jr.", "jane doe"},
		{"middle name survives", "Jane Alexandra Doe", "jane alexandra doe"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IdentityKey(tt.in); got != tt.want {
				t.Fatalf("IdentityKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIdentityKeyEquivalentSpellingsCollide(t *testing.T) {
	t.Parallel()

	spellings := []string{"Dr. Jane Doe", "jane doe", "Jane   Doe, PhD", "JANE DOE"}
	want := IdentityKey(spellings[0])
	for _, s := range spellings[1:] {
		if got := IdentityKey(s); got != want {
			t.Fatalf("spelling %q produced key %q, want %q", s, got, want)
		}
	}
}

func TestSharedTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"Jane Doe", "Jane Alexandra Doe", 2},
		{"Jane Doe", "Jane Smith", 1},
		{"Jane Doe", "John Roe", 0},
		// raw tokens are compared, so an honorific can count as overlap
		{"Dr. Jane Doe", "Dr. John Roe", 1},
		{"", "Jane Doe", 0},
	}

	for _, tt := range tests {
		if got := SharedTokens(tt.a, tt.b); got != tt.want {
			t.Fatalf("SharedTokens(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		first, last string
	}{
		{"Jane Doe", "jane", "doe"},
		{"Dr. Jane Alexandra Doe, PhD", "jane", "doe"},
		{"Madonna", "madonna", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Fatalf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}
