package ops

import (
	"strings"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// CompletionKind distinguishes the two shapes of completion item this
// module ever produces.
type CompletionKind int

const (
	CompletionVariable CompletionKind = iota
	CompletionFunction
)

// CompletionItem is one candidate, along with the range of the
// already-typed token it would replace.
type CompletionItem struct {
	Label string
	Kind  CompletionKind
	Range syntax.Range
}

// Complete enumerates completions at offset: if the cursor sits inside a
// `$name` reference, every visible variable whose name starts with what's
// already typed; if it sits over a bare function call's head, every
// environment function whose name starts with what's already typed.
// Returns nil if offset isn't in either position.
func Complete(root *syntax.Node, scopeInfo *scope.Info, e *env.Environment, offset int) []CompletionItem {
	n := nodeContaining(root, offset)
	if n == nil {
		return nil
	}

	if n.Kind() == kind.VarAccess {
		return completeVars(scopeInfo, n, offset)
	}
	if n.Kind() == kind.FuncCall {
		if t := n.FirstTokenOfKind(kind.Ident); t != nil && t.Range().Contains(offset) {
			return completeFuncs(e, t.Text(), t.Range())
		}
	}
	return nil
}

func completeVars(scopeInfo *scope.Info, varNode *syntax.Node, offset int) []CompletionItem {
	prefix := varNode.Text()
	s := declScope(scopeInfo, offset)
	if s == nil {
		return nil
	}
	var out []CompletionItem
	for _, d := range visibleVars(scopeInfo, s, offset) {
		if d.Name == prefix || !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		out = append(out, CompletionItem{Label: d.Name, Kind: CompletionVariable, Range: varNode.Range()})
	}
	return out
}

func completeFuncs(e *env.Environment, prefix string, calleeRange syntax.Range) []CompletionItem {
	var out []CompletionItem
	for name := range e.Funcs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		out = append(out, CompletionItem{Label: name, Kind: CompletionFunction, Range: calleeRange})
	}
	return out
}
