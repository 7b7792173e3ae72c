package category

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"work", "Work"},
		{"  HEALTH  ", "Health"},
		{"relationships", "Relationships"},
		{"pUrPoSe", "Purpose"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseList(t *testing.T) {
	got := ParseList("work, health ,UNKNOWN")
	want := []string{"Work", "Health", "Unknown"}
	if len(got) != len(want) {
		t.Fatalf("ParseList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseList token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseListEmpty(t *testing.T) {
	if got := ParseList("   "); got != nil {
		t.Errorf("ParseList of blank string returned %v, want nil", got)
	}
	if got := ParseList(""); got != nil {
		t.Errorf("ParseList of empty string returned %v, want nil", got)
	}
}

func TestLookup(t *testing.T) {
	if c, ok := Lookup(" work "); !ok || c != Work {
		t.Errorf("Lookup(\" work \") = %q, %v; want Work, true", c, ok)
	}
	if _, ok := Lookup("Unknown"); ok {
		t.Error("Lookup(\"Unknown\") matched; the vocabulary is closed")
	}
}

func TestAllHaveDefinitions(t *testing.T) {
	for _, c := range All {
		if Definition(c) == "" {
			t.Errorf("category %s has no definition", c)
		}
	}
}

func TestFormatList(t *testing.T) {
	got := FormatList([]Category{Relationships, Purpose})
	if got != "Relationships, Purpose" {
		t.Errorf("FormatList = %q", got)
	}
}
