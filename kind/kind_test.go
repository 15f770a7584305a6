package kind

import "testing"

func TestFromIdent(t *testing.T) {
	cases := []struct {
		ident string
		want  Kind
		ok    bool
	}{
		{"if", If, true},
		{"catch", Catch, true},
		{"true", Bool, true},
		{"false", Bool, true},
		{"template", Template, true},
		{"fmt", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := FromIdent(c.ident)
		if ok != c.ok {
			t.Errorf("FromIdent(%q) ok = %v, want %v", c.ident, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("FromIdent(%q) = %v, want %v", c.ident, got, c.want)
		}
	}
}

func TestIsLiteral(t *testing.T) {
	for _, k := range []Kind{Bool, Int, Float, InterpretedString, RawString, Char} {
		if !k.IsLiteral() {
			t.Errorf("%v.IsLiteral() = false, want true", k)
		}
	}
	for _, k := range []Kind{Ident, Var, If, LeftDelim} {
		if k.IsLiteral() {
			t.Errorf("%v.IsLiteral() = true, want false", k)
		}
	}
}

func TestSetContains(t *testing.T) {
	s := Of(If, Else, End)
	if !s.Contains(If) || !s.Contains(Else) || !s.Contains(End) {
		t.Fatalf("Set %v missing an expected member", s)
	}
	if s.Contains(Range) {
		t.Fatalf("Set %v unexpectedly contains Range", s)
	}
	u := s.Union(Of(Range))
	if !u.Contains(Range) || !u.Contains(If) {
		t.Fatalf("Union() = %v, missing expected members", u)
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k Kind = 200
	if got := k.String(); got == "" {
		t.Fatalf("String() on unknown kind returned empty string")
	}
}
