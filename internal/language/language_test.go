package language

import "testing"

func TestCompound(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"swe", "swe-sv"},
		{"sv", "swe-sv"},
		{"swedish", "swe-sv"},
		{"eng", "eng-en"},
		{"FRENCH", "fra-fr"},
		{"fre", "fra-fr"},
		{"ger", "deu-de"},
	}
	for _, tc := range cases {
		got, err := Compound(tc.in)
		if err != nil {
			t.Errorf("Compound(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Compound(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompoundFailures(t *testing.T) {
	for _, in := range []string{"und", "mul", "multi", "", "klingon"} {
		if _, err := Compound(in); err == nil {
			t.Errorf("Compound(%q) should fail", in)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("jpn") {
		t.Error("jpn should be known")
	}
	if Known("zz") {
		t.Error("zz should be unknown")
	}
}
