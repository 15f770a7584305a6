package syntax

import (
	"testing"

	"github.com/abiiranathan/tmplcheck/kind"
)

func allTokens(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == kind.Eof {
			return toks
		}
	}
}

func TestLexerRoundTrip(t *testing.T) {
	cases := []string{
		`hello {{$x := 1}} world`,
		`{{- if $x -}}{{end}}`,
		`{{/* a comment */}}`,
		`{{"a string with \n escape"}}`,
		"{{`raw string`}}",
		`{{$x = add $x 2}}`,
		`{{.Field1.Field2}}`,
		`{{range $i, $v := .Items}}{{end}}`,
	}
	for _, src := range cases {
		toks := allTokens(src)
		var got string
		for _, tok := range toks {
			got += tok.Text
		}
		if got != src {
			t.Errorf("round-trip mismatch for %q: got %q", src, got)
		}
	}
}

func TestLexerDelims(t *testing.T) {
	toks := allTokens("a{{- if true -}}b")
	var kinds []kind.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []kind.Kind{kind.Text, kind.TrimmedLeftDelim, kind.If, kind.Whitespace, kind.Bool, kind.TrimmedRightDelim, kind.Text, kind.Eof}
	if len(kinds) != len(want) {
		t.Fatalf("got %v kinds, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kind[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerNumberRadixAndFloat(t *testing.T) {
	cases := []struct {
		src  string
		kind kind.Kind
	}{
		{"0x1F", kind.Int},
		{"0o17", kind.Int},
		{"0b101", kind.Int},
		{"3.14", kind.Float},
		{"1e10", kind.Float},
		{"-5", kind.Int},
		{"+5", kind.Int},
	}
	for _, c := range cases {
		l := New("{{" + c.src + "}}")
		l.Next() // LeftDelim
		tok := l.Next()
		if tok.Kind != c.kind || tok.Text != c.src {
			t.Errorf("lexNumber(%q) = (%v,%q), want (%v,%q)", c.src, tok.Kind, tok.Text, c.kind, c.src)
		}
	}
}

func TestLexerFieldVsDot(t *testing.T) {
	l := New("{{.Foo}}")
	l.Next()
	tok := l.Next()
	if tok.Kind != kind.Field || tok.Text != ".Foo" {
		t.Fatalf("got %v %q, want Field .Foo", tok.Kind, tok.Text)
	}

	l2 := New("{{. }}")
	l2.Next()
	tok2 := l2.Next()
	if tok2.Kind != kind.Dot || tok2.Text != "." {
		t.Fatalf("got %v %q, want Dot .", tok2.Kind, tok2.Text)
	}
}

func TestLexerBadEscapeStillCompletesToken(t *testing.T) {
	l := New(`{{"\q"}}`)
	l.Next()
	tok := l.Next()
	if tok.Kind != kind.InterpretedString {
		t.Fatalf("got %v, want InterpretedString", tok.Kind)
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexical error for \\q")
	}
}

func TestLexerUnclosedComment(t *testing.T) {
	l := New("{{/* oops")
	l.Next()
	tok := l.Next()
	if tok.Kind != kind.Comment {
		t.Fatalf("got %v, want Comment", tok.Kind)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected exactly 1 error, got %d", len(l.Errors()))
	}
}

func TestLexerCheckpointRestore(t *testing.T) {
	l := New("{{if true}}")
	l.Next()
	cp := l.Checkpoint()
	l.Next()
	l.Next()
	l.Restore(cp)
	tok := l.Next()
	if tok.Kind != kind.If {
		t.Fatalf("after restore got %v, want If", tok.Kind)
	}
}
