package value

import "testing"

func TestDisplay(t *testing.T) {
	cases := []struct {
		v    Val
		want string
	}{
		{Number(10), "10"},
		{Number(1.5), "1.5"},
		{Number(-0.1), "-0.1"},
		{Text("hello"), "hello"},
		{Text(""), ""},
		{NewError(Ref), "#REF!"},
		{NewError(Value), "#VALUE!"},
		{NewError(Div0), "#DIV/0!"},
	}
	for _, c := range cases {
		if got := c.v.Display(); got != c.want {
			t.Fatalf("Display() = %q, want %q", got, c.want)
		}
	}
}

func TestAsNumber(t *testing.T) {
	if n, ok := AsNumber(Number(42)); !ok || n != 42 {
		t.Fatalf("AsNumber(Number(42)) = %v, %v", n, ok)
	}
	if _, ok := AsNumber(Text("42")); ok {
		t.Fatal("AsNumber(Text) should report false")
	}
}
