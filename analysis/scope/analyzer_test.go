package scope

import (
	"testing"

	"github.com/abiiranathan/tmplcheck/syntax"
)

func analyze(t *testing.T, src string) *Info {
	t.Helper()
	p := syntax.Parse(src)
	if len(p.Errors) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors)
	}
	return Analyze(p.Root)
}

func TestResolvesSimpleDeclarationAndUse(t *testing.T) {
	info := analyze(t, `{{$x := 1}}{{$x}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
	if len(info.ResolvedRefs) != 1 {
		t.Fatalf("got %d resolved refs, want 1", len(info.ResolvedRefs))
	}
}

func TestSelfReferencingDeclarationIsUndefined(t *testing.T) {
	info := analyze(t, `{{$x := $x}}`)
	if len(info.Errors) != 1 {
		t.Fatalf("got %d errors, want 1 (self-reference should be undefined): %v", len(info.Errors), info.Errors)
	}
}

func TestDollarIsPredeclaredAtRoot(t *testing.T) {
	info := analyze(t, `{{$.Name}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestUndefinedVariableReported(t *testing.T) {
	info := analyze(t, `{{$missing}}`)
	if len(info.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(info.Errors), info.Errors)
	}
	if info.Errors[0].Message != "undefined variable $missing" {
		t.Errorf("unexpected message: %q", info.Errors[0].Message)
	}
}

func TestIfBodySeesClauseDeclaration(t *testing.T) {
	info := analyze(t, `{{if $x := .Cond}}{{$x}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestElseIfSeesPriorClauseDeclaration(t *testing.T) {
	info := analyze(t, `{{if $x := .A}}{{else if $x}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestIfBodyDeclarationNotVisibleAfterEnd(t *testing.T) {
	info := analyze(t, `{{if .Cond}}{{$x := 1}}{{end}}{{$x}}`)
	if len(info.Errors) != 1 {
		t.Fatalf("got %d errors, want 1 (body-scoped var leaking out): %v", len(info.Errors), info.Errors)
	}
}

func TestRangeDeclaresIterationVars(t *testing.T) {
	info := analyze(t, `{{range $i, $v := .Items}}{{$i}}{{$v}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestRangeWithoutDeclDoesNotBindIterVars(t *testing.T) {
	info := analyze(t, `{{range .Items}}{{.}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestRangeElseDoesNotSeeIterationVars(t *testing.T) {
	info := analyze(t, `{{range $v := .Items}}{{else}}{{$v}}{{end}}`)
	if len(info.Errors) != 1 {
		t.Fatalf("got %d errors, want 1 (range-else should not see $v): %v", len(info.Errors), info.Errors)
	}
}

func TestTemplateDefinitionBodyIsDetached(t *testing.T) {
	info := analyze(t, `{{$x := 1}}{{define "sub"}}{{$x}}{{end}}`)
	if len(info.Errors) != 1 {
		t.Fatalf("got %d errors, want 1 (define body must not see outer $x): %v", len(info.Errors), info.Errors)
	}
}

func TestTemplateDefinitionBodyPredeclaresDollar(t *testing.T) {
	info := analyze(t, `{{define "sub"}}{{$.Name}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}

func TestTryCatchBodiesParentedToEnclosingScope(t *testing.T) {
	info := analyze(t, `{{$x := 1}}{{try}}{{$x}}{{catch}}{{$x}}{{end}}`)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", info.Errors)
	}
}
