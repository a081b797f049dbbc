package stringsutil

import (
	"reflect"
	"testing"
)

func TestSplitNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{
			name:     "plain split",
			input:    "a;b;c",
			sep:      ";",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "drops empties and trims",
			input:    " R/a.R ;; R/b.R ;",
			sep:      ";",
			expected: []string{"R/a.R", "R/b.R"},
		},
		{
			name:     "empty input",
			input:    "",
			sep:      ";",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitNonEmpty(tt.input, tt.sep)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitNonEmpty(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestShortHash(t *testing.T) {
	if got := ShortHash("abcdefghijklmnop", 10); got != "abcdefghij" {
		t.Errorf("ShortHash = %q", got)
	}
	if got := ShortHash("abc", 10); got != "abc" {
		t.Errorf("ShortHash on short input = %q", got)
	}
}

func TestSnip(t *testing.T) {
	if got := Snip("one\ntwo", 100); got != "one two" {
		t.Errorf("Snip = %q", got)
	}
	if got := Snip("abcdefgh", 5); got != "abcde..." {
		t.Errorf("Snip = %q", got)
	}
}

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("UniqueStrings = %v", got)
	}
}
