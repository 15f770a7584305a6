package ops

import (
	"strings"
	"testing"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/analysis/typeck"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/syntax"
)

type analyzed struct {
	root   *syntax.Node
	src    string
	scope  *scope.Info
	typeck *typeck.Info
	parse  syntax.Parse
}

func analyze(t *testing.T, src string, e *env.Environment) analyzed {
	t.Helper()
	p := syntax.Parse(src)
	scopeInfo := scope.Analyze(p.Root)
	typeckInfo := typeck.Analyze(p.Root, scopeInfo, e)
	return analyzed{root: p.Root, src: src, scope: scopeInfo, typeck: typeckInfo, parse: p}
}

func offsetOf(t *testing.T, src, marker string) int {
	t.Helper()
	i := strings.Index(src, marker)
	if i < 0 {
		t.Fatalf("marker %q not found in %q", marker, src)
	}
	return i
}

func TestCompleteVariables(t *testing.T) {
	src := `{{$name := 1}}{{$n}}`
	a := analyze(t, src, env.NewEnvironment())
	offset := offsetOf(t, src, "{{$n}}") + 3 // inside the "$n" token

	items := Complete(a.root, a.scope, env.NewEnvironment(), offset)
	if len(items) != 1 || items[0].Label != "$name" {
		t.Fatalf("got %+v, want one completion for $name", items)
	}
}

func TestCompleteFunctions(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{Name: "upper", Signatures: []env.CallSignature{{Kind: env.Exact}}})
	e.AddFunc(&env.Func{Name: "upperCase", Signatures: []env.CallSignature{{Kind: env.Exact}}})
	e.AddFunc(&env.Func{Name: "lower", Signatures: []env.CallSignature{{Kind: env.Exact}}})
	src := `{{upp "x"}}`
	a := analyze(t, src, e)
	offset := offsetOf(t, src, "upp") + 1

	items := Complete(a.root, a.scope, e, offset)
	if len(items) != 2 {
		t.Fatalf("got %d completions, want 2 (upper, upperCase): %+v", len(items), items)
	}
}

func TestHoverVariable(t *testing.T) {
	src := `{{$name := 1}}{{$name}}`
	a := analyze(t, src, env.NewEnvironment())
	offset := offsetOf(t, src, "{{$name}}") + 3

	h := HoverAt(a.root, a.scope, env.NewEnvironment(), offset)
	if h == nil || h.Kind != HoverVariable || h.Name != "$name" {
		t.Fatalf("got %+v, want variable hover for $name", h)
	}
}

func TestHoverFunction(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{
		Name: "double",
		Doc:  "doubles its argument",
		Signatures: []env.CallSignature{{
			Kind: env.Exact, Params: []env.Ty{env.PrimitiveTy{Prim: env.PrimInt}},
			ParamNames: []string{"n"}, Return: env.PrimitiveTy{Prim: env.PrimInt}, Throw: env.NeverTy{},
		}},
	})
	src := `{{double 2}}`
	a := analyze(t, src, e)
	offset := offsetOf(t, src, "double") + 1

	h := HoverAt(a.root, a.scope, e, offset)
	if h == nil || h.Kind != HoverFunction {
		t.Fatalf("got %+v, want function hover", h)
	}
	if len(h.Signatures) != 1 || h.Signatures[0] != "func double(n)" {
		t.Fatalf("got signatures %v, want [func double(n)]", h.Signatures)
	}
	if h.Doc != "doubles its argument" {
		t.Fatalf("got doc %q", h.Doc)
	}
}

func TestGotoDefinition(t *testing.T) {
	src := `{{$name := 1}}{{$name}}`
	a := analyze(t, src, env.NewEnvironment())
	useOffset := offsetOf(t, src, "{{$name}}") + 3

	declRange, ok := GotoDefinition(a.root, a.scope, useOffset)
	if !ok {
		t.Fatalf("expected a resolved definition")
	}
	declOffset := offsetOf(t, src, "$name")
	if declRange.Start != declOffset {
		t.Fatalf("got decl start %d, want %d", declRange.Start, declOffset)
	}
}

func TestFindReferences(t *testing.T) {
	src := `{{$name := 1}}{{$name}}{{$name}}`
	a := analyze(t, src, env.NewEnvironment())
	declOffset := offsetOf(t, src, "$name")

	refs := FindReferences(a.root, a.scope, declOffset, true)
	if len(refs) != 3 {
		t.Fatalf("got %d references, want 3 (decl + 2 uses): %+v", len(refs), refs)
	}
	for i := 1; i < len(refs); i++ {
		if refs[i].Start < refs[i-1].Start {
			t.Fatalf("references not in source order: %+v", refs)
		}
	}
}

func TestRenameNormalizesDollarPrefix(t *testing.T) {
	src := `{{$name := 1}}{{$name}}`
	a := analyze(t, src, env.NewEnvironment())
	declOffset := offsetOf(t, src, "$name")

	edits := Rename(a.root, a.scope, declOffset, "renamed")
	if len(edits) != 2 {
		t.Fatalf("got %d edits, want 2", len(edits))
	}
	for _, e := range edits {
		if e.NewText != "$renamed" {
			t.Fatalf("got new text %q, want $renamed", e.NewText)
		}
	}
}

func TestFoldingRangesSkipsSingleLine(t *testing.T) {
	src := `{{if true}}x{{end}}`
	a := analyze(t, src, env.NewEnvironment())
	if ranges := FoldingRanges(a.root, a.src); len(ranges) != 0 {
		t.Fatalf("got %+v, want no folding ranges for a single-line if", ranges)
	}
}

func TestFoldingRangesMultiLineIf(t *testing.T) {
	src := "{{if true}}\nx\n{{end}}"
	a := analyze(t, src, env.NewEnvironment())
	ranges := FoldingRanges(a.root, a.src)
	if len(ranges) != 1 {
		t.Fatalf("got %+v, want one folding range", ranges)
	}
	if ranges[0].Kind != FoldingOther {
		t.Fatalf("got kind %v, want FoldingOther", ranges[0].Kind)
	}
}

func TestFoldingRangesMultiLineComment(t *testing.T) {
	src := "{{/*\nhello\n*/}}"
	a := analyze(t, src, env.NewEnvironment())
	ranges := FoldingRanges(a.root, a.src)
	if len(ranges) != 1 || ranges[0].Kind != FoldingComment {
		t.Fatalf("got %+v, want one FoldingComment range", ranges)
	}
}

func TestInlayHintsOnlyAboveThreshold(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{
		Name: "join3",
		Signatures: []env.CallSignature{{
			Kind:       env.Exact,
			Params:     []env.Ty{env.AnyTy{}, env.AnyTy{}, env.AnyTy{}},
			ParamNames: []string{"a", "b", "c"},
			Return:     env.PrimitiveTy{Prim: env.PrimString},
			Throw:      env.NeverTy{},
		}},
	})
	e.AddFunc(&env.Func{
		Name: "pair",
		Signatures: []env.CallSignature{{
			Kind: env.Exact, Params: []env.Ty{env.AnyTy{}, env.AnyTy{}},
			ParamNames: []string{"a", "b"}, Return: env.AnyTy{}, Throw: env.NeverTy{},
		}},
	})
	src := `{{join3 1 2 3}}{{pair 1 2}}`
	a := analyze(t, src, e)

	hints := InlayHints(a.root, e, a.root.Range())
	if len(hints) != 3 {
		t.Fatalf("got %d hints, want 3 (only join3's params, pair stays below threshold): %+v", len(hints), hints)
	}
	if hints[0].Label != "a:" || hints[1].Label != "b:" || hints[2].Label != "c:" {
		t.Fatalf("got labels %+v, want a:, b:, c:", hints)
	}
}

func TestDiagnosticsMergesAllSources(t *testing.T) {
	src := `{{$undefined}}`
	a := analyze(t, src, env.NewEnvironment())

	diags := Diagnostics(a.parse.Errors, a.scope, a.typeck)
	found := false
	for _, d := range diags {
		if d.Source == SourceScope && strings.Contains(d.Message, "undefined variable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an undefined-variable scope diagnostic, got %+v", diags)
	}
}
