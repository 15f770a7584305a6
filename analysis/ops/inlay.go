package ops

import (
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// inlayHintParamThreshold: only function calls with at least this many
// parameters get parameter-label inlay hints.
const inlayHintParamThreshold = 3

// InlayHint is a parameter-name label to render just before one call
// argument.
type InlayHint struct {
	Position int // byte offset, just before the argument
	Label    string
}

// InlayHints computes parameter-label hints for every bare function call
// within rng whose resolved environment function has at least
// inlayHintParamThreshold parameters.
func InlayHints(root *syntax.Node, e *env.Environment, rng syntax.Range) []InlayHint {
	var out []InlayHint
	for _, n := range root.Descendants() {
		if n.Kind() != kind.FuncCall || !rng.ContainsRange(n.Range()) {
			continue
		}
		call, ok := syntax.ClassifyExpr(n).(syntax.FuncCall)
		if !ok {
			continue
		}
		out = append(out, inlayHintsForCall(e, call)...)
	}
	return out
}

func inlayHintsForCall(e *env.Environment, call syntax.FuncCall) []InlayHint {
	f, ok := e.Funcs[call.CalleeName()]
	if !ok {
		return nil
	}
	args := call.Args()
	sig := bestSignature(f, len(args))
	if sig == nil || len(sig.ParamNames) < inlayHintParamThreshold {
		return nil
	}

	var out []InlayHint
	for i, arg := range args {
		if i >= len(sig.ParamNames) {
			break
		}
		out = append(out, InlayHint{Position: arg.Syntax().Range().Start, Label: sig.ParamNames[i] + ":"})
	}
	return out
}

// bestSignature picks the overload whose fixed prefix arity matches argc,
// falling back to the function's first signature.
func bestSignature(f *env.Func, argc int) *env.CallSignature {
	for i := range f.Signatures {
		if f.Signatures[i].Arity() == argc {
			return &f.Signatures[i]
		}
	}
	if len(f.Signatures) > 0 {
		return &f.Signatures[0]
	}
	return nil
}
