package document

import (
	"regexp"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := FingerprintString("Hello world")
	b := FingerprintString("Hello world")
	if a != b {
		t.Fatalf("identical input must fingerprint identically: %s vs %s", a, b)
	}
	if c := FingerprintString("Hello world!"); c == a {
		t.Fatalf("different input should (almost always) differ: %s", c)
	}
}

func TestFingerprintFormat(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{8}$`)
	for _, input := range []string{"", "x", "a longer body\nwith lines\n"} {
		fp := FingerprintString(input)
		if !hexRe.MatchString(fp) {
			t.Errorf("Fingerprint(%q) = %q, want 8 lowercase hex chars", input, fp)
		}
	}
}
