package typeck

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// tyComparer compares env.Ty values by their rendered name: the concrete
// variants carry unexported fields (UnionTy's inline first/second/rest),
// so structural cmp.Diff needs a custom equality rule rather than
// reflecting into them directly.
var tyComparer = cmp.Comparer(func(a, b env.Ty) bool { return a.String() == b.String() })

func analyze(t *testing.T, src string, e *env.Environment) *Info {
	t.Helper()
	p := syntax.Parse(src)
	if len(p.Errors) != 0 {
		t.Fatalf("unexpected syntax errors parsing %q: %v", src, p.Errors)
	}
	scopeInfo := scope.Analyze(p.Root)
	if len(scopeInfo.Errors) != 0 {
		t.Fatalf("unexpected scope errors parsing %q: %v", src, scopeInfo.Errors)
	}
	return Analyze(p.Root, scopeInfo, e)
}

// exprType re-parses src (which Analyze already consumed once internally)
// to locate the node whose full reconstructed text equals exact, and
// returns its recorded type from info.
func exprType(t *testing.T, src, exact string, info *Info) env.Ty {
	t.Helper()
	p := syntax.Parse(src)
	for _, n := range p.Root.Descendants() {
		if syntax.ClassifyExpr(n) == nil {
			continue
		}
		if n.Text() == exact {
			ty, ok := info.ExprTypes[n.Range()]
			if !ok {
				t.Fatalf("no recorded type for %q in %q", exact, src)
			}
			return ty
		}
	}
	t.Fatalf("no expression node with text %q in %q", exact, src)
	return nil
}

func errMessages(info *Info) []string {
	out := make([]string, len(info.Errors))
	for i, e := range info.Errors {
		out[i] = e.Message
	}
	return out
}

func containsSubstring(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func userStructEnv() (*env.Environment, env.Ty) {
	e := env.NewEnvironment()
	userTy := e.RegisterStruct(&env.StructDef{
		Name: "User",
		Fields: map[string]env.Ty{
			"Name": env.PrimitiveTy{Prim: env.PrimString},
		},
		Methods: map[string]*env.Func{
			"Greet": {
				Name: "Greet",
				Signatures: []env.CallSignature{{
					Kind:   env.Exact,
					Params: []env.Ty{env.PrimitiveTy{Prim: env.PrimString}},
					Return: env.PrimitiveTy{Prim: env.PrimString},
					Throw:  env.NeverTy{},
				}},
			},
		},
	})
	e.InitialContextTy = userTy
	return e, userTy
}

func TestLiteralTypesAreRecorded(t *testing.T) {
	e := env.NewEnvironment()
	src := `{{if true}}{{end}}`
	info := analyze(t, src, e)
	ty := exprType(t, src, "true", info)
	if ty.String() != "bool" {
		t.Fatalf("got %s, want bool", ty.String())
	}
}

func TestContextFieldChainResolvesStructField(t *testing.T) {
	e, _ := userStructEnv()
	src := `{{.Name}}`
	info := analyze(t, src, e)
	ty := exprType(t, src, ".Name", info)
	if ty.String() != "string" {
		t.Fatalf("got %s, want string", ty.String())
	}
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
}

func TestUnresolvedFieldReported(t *testing.T) {
	e, _ := userStructEnv()
	src := `{{.Age}}`
	info := analyze(t, src, e)
	if !containsSubstring(errMessages(info), "unresolved field Age") {
		t.Fatalf("expected unresolved-field error, got %v", errMessages(info))
	}
}

func TestUnknownFunctionReported(t *testing.T) {
	e := env.NewEnvironment()
	src := `{{missingFn 1}}`
	info := analyze(t, src, e)
	if !containsSubstring(errMessages(info), "unknown function missingFn") {
		t.Fatalf("expected unknown-function error, got %v", errMessages(info))
	}
}

func TestFuncCallSignatureMismatchReported(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{
		Name: "double",
		Signatures: []env.CallSignature{{
			Kind:   env.Exact,
			Params: []env.Ty{env.PrimitiveTy{Prim: env.PrimInt}},
			Return: env.PrimitiveTy{Prim: env.PrimInt},
			Throw:  env.NeverTy{},
		}},
	})
	src := `{{double "x"}}`
	info := analyze(t, src, e)
	if !containsSubstring(errMessages(info), "no matching signature for double") {
		t.Fatalf("expected signature-mismatch error, got %v", errMessages(info))
	}
}

func TestFuncCallMatchingSignatureReturnsDeclaredType(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{
		Name: "double",
		Signatures: []env.CallSignature{{
			Kind:   env.Exact,
			Params: []env.Ty{env.PrimitiveTy{Prim: env.PrimInt}},
			Return: env.PrimitiveTy{Prim: env.PrimInt},
			Throw:  env.NeverTy{},
		}},
	})
	src := `{{double 2}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	ty := exprType(t, src, `double 2`, info)
	if ty.String() != "int" {
		t.Fatalf("got %s, want int", ty.String())
	}
}

func TestMethodCallResolvesThroughOwningStruct(t *testing.T) {
	e, userTy := userStructEnv()
	src := `{{.Greet "hi"}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	ty := exprType(t, src, `.Greet "hi"`, info)
	if ty.String() != "string" {
		t.Fatalf("got %s, want string", ty.String())
	}

	want := []FieldMethodAccessInfo{
		{BaseTy: userTy, Name: "Greet", Resolved: true, Range: syntax.Range{Start: 3, End: 8}},
	}
	if diff := cmp.Diff(want, info.FieldMethodAccess, tyComparer); diff != "" {
		t.Fatalf("field/method access mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineAppendsPreviousOutputAsLastArg(t *testing.T) {
	e, _ := userStructEnv()
	e.AddFunc(&env.Func{
		Name: "upper",
		Signatures: []env.CallSignature{{
			Kind:   env.Exact,
			Params: []env.Ty{env.PrimitiveTy{Prim: env.PrimString}},
			Return: env.PrimitiveTy{Prim: env.PrimString},
			Throw:  env.NeverTy{},
		}},
	})
	src := `{{.Name | upper}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
}

func TestWithNarrowsContextType(t *testing.T) {
	e := env.NewEnvironment()
	addrTy := e.RegisterStruct(&env.StructDef{
		Name:   "Address",
		Fields: map[string]env.Ty{"City": env.PrimitiveTy{Prim: env.PrimString}},
	})
	rootTy := e.RegisterStruct(&env.StructDef{
		Name:   "Account",
		Fields: map[string]env.Ty{"Address": addrTy},
	})
	e.InitialContextTy = rootTy

	src := `{{with .Address}}{{.City}}{{end}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	ty := exprType(t, src, ".City", info)
	if ty.String() != "string" {
		t.Fatalf("got %s, want string", ty.String())
	}
}

func TestRangeOverSliceBindsElementType(t *testing.T) {
	e := env.NewEnvironment()
	e.InitialContextTy = e.RegisterSlice(&env.SliceDef{Elem: env.PrimitiveTy{Prim: env.PrimString}})

	src := `{{range $v := .}}{{$v}}{{end}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	ty := exprType(t, src, "$v", info)
	if ty.String() != "string" {
		t.Fatalf("got %s, want string", ty.String())
	}
}

func TestRangeOverMapBindsKeyAndValueTypes(t *testing.T) {
	e := env.NewEnvironment()
	e.InitialContextTy = e.RegisterMap(&env.MapDef{
		Key:   env.PrimitiveTy{Prim: env.PrimString},
		Value: env.PrimitiveTy{Prim: env.PrimInt},
	})

	src := `{{range $k, $v := .}}{{$k}}{{$v}}{{end}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	if ty := exprType(t, src, "$k", info); ty.String() != "string" {
		t.Fatalf("key: got %s, want string", ty.String())
	}
	if ty := exprType(t, src, "$v", info); ty.String() != "int" {
		t.Fatalf("value: got %s, want int", ty.String())
	}
}

func TestTryCatchConsumesThrowIntoCatchContext(t *testing.T) {
	e := env.NewEnvironment()
	e.AddFunc(&env.Func{
		Name: "risky",
		Signatures: []env.CallSignature{{
			Kind:   env.Exact,
			Return: env.PrimitiveTy{Prim: env.PrimNil},
			Throw:  env.PrimitiveTy{Prim: env.PrimString},
		}},
	})

	src := `{{try}}{{risky}}{{catch}}{{.}}{{end}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	ty := exprType(t, src, ".", info)
	if ty.String() != "string" {
		t.Fatalf("got %s, want string (the try body's throw type)", ty.String())
	}
}

func TestDuplicateAssociatedTemplateReported(t *testing.T) {
	e := env.NewEnvironment()
	src := `{{define "greeting"}}hi{{end}}{{define "greeting"}}bye{{end}}`
	info := analyze(t, src, e)
	if !containsSubstring(errMessages(info), `duplicate associated template "greeting"`) {
		t.Fatalf("expected duplicate-template error, got %v", errMessages(info))
	}
}

func TestAssociatedTemplateInstantiationWithUserContext(t *testing.T) {
	e, userTy := userStructEnv()
	src := `{{define "card"}}{{.Name}}{{end}}{{template "card" .}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
	at, ok := info.AssocTemplates["card"]
	if !ok {
		t.Fatalf("expected a hoisted %q associated template", "card")
	}
	if len(at.Contexts) != 1 || at.Contexts[0].String() != userTy.String() {
		t.Fatalf("expected one observed context (the User struct), got %+v", at.Contexts)
	}
}

func TestAssociatedTemplateRecursionGuardReturnsAny(t *testing.T) {
	e := env.NewEnvironment()
	src := `{{define "loop"}}{{template "loop" .}}{{end}}{{template "loop" .}}`
	info := analyze(t, src, e)
	if len(info.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", errMessages(info))
	}
}
