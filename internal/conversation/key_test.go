package conversation

import (
	"errors"
	"testing"
)

func TestKeyCommutative(t *testing.T) {
	pairs := [][2]string{
		{"1", "2"},
		{"alice", "bob"},
		{"z", "a"},
		{"10", "9"}, // lexicographic, not numeric
		{"same", "same"},
	}
	for _, p := range pairs {
		ab, err := Key(p[0], p[1])
		if err != nil {
			t.Fatalf("Key(%q, %q): %v", p[0], p[1], err)
		}
		ba, err := Key(p[1], p[0])
		if err != nil {
			t.Fatalf("Key(%q, %q): %v", p[1], p[0], err)
		}
		if ab != ba {
			t.Fatalf("Key(%q, %q) = %q but Key(%q, %q) = %q", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestKeyFormat(t *testing.T) {
	got, err := Key("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1_2" {
		t.Fatalf("expected 1_2, got %q", got)
	}

	got, err = Key("2", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1_2" {
		t.Fatalf("expected 1_2, got %q", got)
	}
}

func TestKeyInvalid(t *testing.T) {
	cases := [][2]string{
		{"", "b"},
		{"a", ""},
		{"", ""},
		{"a_b", "c"}, // separator inside an id would make the key ambiguous
		{"a", "c_d"},
	}
	for _, c := range cases {
		if _, err := Key(c[0], c[1]); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Key(%q, %q): expected ErrInvalidArgument, got %v", c[0], c[1], err)
		}
	}
}
