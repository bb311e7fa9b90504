package position

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		label string
		want  Position
	}{
		{"A1", Position{Row: 0, Col: 0}},
		{"B1", Position{Row: 0, Col: 1}},
		{"A2", Position{Row: 1, Col: 0}},
		{"Z1", Position{Row: 0, Col: 25}},
		{"AA1", Position{Row: 0, Col: 26}},
		{"AZ10", Position{Row: 9, Col: 51}},
	}
	for _, c := range cases {
		got, err := Parse(c.label)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.label, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.label, got, c.want)
		}
		if s := got.String(); s != c.label {
			t.Fatalf("Position(%+v).String() = %q, want %q", got, s, c.label)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, label := range []string{"", "1A", "A", "123", "a1", "A-1", "A1B"} {
		if _, err := Parse(label); err == nil {
			t.Fatalf("Parse(%q) expected error, got nil", label)
		}
	}
}

func TestCompareAndLess(t *testing.T) {
	a := Position{Row: 0, Col: 5}
	b := Position{Row: 1, Col: 0}
	if !a.Less(b) {
		t.Fatalf("expected %+v < %+v", a, b)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected equal positions to compare 0")
	}
}

func TestIsValid(t *testing.T) {
	if !(Position{Row: 0, Col: 0}).IsValid() {
		t.Fatal("origin should be valid")
	}
	if (Position{Row: -1, Col: 0}).IsValid() {
		t.Fatal("negative row should be invalid")
	}
	if (Position{Row: 0, Col: MaxCols}).IsValid() {
		t.Fatal("column at MaxCols should be invalid")
	}
}
