package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"leading and trailing", "  cozy studio  ", "cozy studio"},
		{"internal runs collapse", "cozy    studio\t\tdowntown", "cozy studio downtown"},
		{"newlines collapse", "line one\nline two", "line one line two"},
		{"unicode preserved", "  квартира в центре  ", "квартира в центре"},
		{"already clean", "cozy studio", "cozy studio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Downtown LOFT  ", "downtown loft"},
		{"TWO   Bedroom", "two bedroom"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeQuery(tt.input); got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
