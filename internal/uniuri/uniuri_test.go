package uniuri

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	a, b := New(), New()

	if len(a) != StdLen {
		t.Fatalf("len = %d, want %d", len(a), StdLen)
	}

	if a == b {
		t.Fatalf("two calls returned the same string %q", a)
	}

	for _, c := range []byte(a) {
		if !bytes.ContainsRune(StdChars, rune(c)) {
			t.Fatalf("unexpected character %q", c)
		}
	}
}

func TestPassword(t *testing.T) {
	for range 50 {
		p := Password(PasswordLen)
		if len(p) != PasswordLen {
			t.Fatalf("len = %d", len(p))
		}

		for _, class := range [][]byte{lower, upper, digits, symbols} {
			if !strings.ContainsAny(p, string(class)) {
				t.Fatalf("password %q misses a character from %q", p, class)
			}
		}
	}

	if got := Password(1); len(got) != 4 {
		t.Fatalf("short password len = %d, want 4", len(got))
	}
}
