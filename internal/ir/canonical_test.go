package ir

import (
	"bytes"
	"testing"
)

func TestMarshalCanonical_Primitives(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"true", true, `true`},
		{"false", false, `false`},
		{"int", 42, `42`},
		{"int64", int64(1 << 40), `1099511627776`},
		{"string", "hi", `"hi"`},
		{"empty array", []any{}, `[]`},
		{"empty object", map[string]any{}, `{}`},
		{"nested", []any{1, "a", true}, `[1,"a",true]`},
	}
	for _, c := range cases {
		got, err := MarshalCanonical(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if string(got) != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestMarshalCanonical_RejectsNullAndFloats(t *testing.T) {
	if _, err := MarshalCanonical(nil); err == nil {
		t.Error("null did not fail")
	}
	if _, err := MarshalCanonical(1.5); err == nil {
		t.Error("float did not fail")
	}
}

func TestMarshalCanonical_KeyOrderIsUTF16(t *testing.T) {
	// U+1D306 is the surrogate pair 0xD834 0xDF06 in UTF-16, and 0xD834
	// is below 0xFB01, so it sorts before U+FB01 in code-unit order.
	obj := map[string]any{
		"\U0001D306": 1,
		"ﬁ":          2,
		"b":          3,
		"a":          4,
	}
	got, err := MarshalCanonical(obj)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":4,"b":3,"` + "\U0001D306" + `":1,"ﬁ":2}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"k": "<a>&</a>"})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"k":"<a>&</a>"}` {
		t.Errorf("got %s, want literal angle brackets and ampersand", got)
	}
}

func TestMarshalCanonical_LineSeparatorsUnescaped(t *testing.T) {
	got, err := MarshalCanonical("a b c")
	if err != nil {
		t.Fatal(err)
	}
	want := "\"a b c\""
	if string(got) != want {
		t.Errorf("got %q, want the separators as raw characters", got)
	}
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// Decomposed e + combining acute becomes the single precomposed rune.
	got, err := MarshalCanonical("é")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\"é\"" {
		t.Errorf("got %q, want precomposed é", got)
	}
}

func TestMarshalCanonical_ControlCharacterEscapes(t *testing.T) {
	got, err := MarshalCanonical("a\n\t\"\\")
	if err != nil {
		t.Fatal(err)
	}
	want := `"a\n\t\"\\"`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := map[string]any{"z": []any{1, 2}, "a": map[string]any{"y": 1, "x": 2}}
	first, err := MarshalCanonical(obj)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		next, err := MarshalCanonical(obj)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("iteration %d produced %s, first run produced %s", i, next, first)
		}
	}
}

func TestLessUTF16(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"a", "b", true},
		{"b", "a", false},
		{"a", "a", false},
		{"a", "ab", true},
		{"ﬁ", "\U0001D306", false},
		{"\U0001D306", "ﬁ", true},
	}
	for _, c := range cases {
		if got := lessUTF16(c.a, c.b); got != c.want {
			t.Errorf("lessUTF16(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
