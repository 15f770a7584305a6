package ops

import (
	"strings"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// HoverKind distinguishes what a Hover result describes.
type HoverKind int

const (
	HoverVariable HoverKind = iota
	HoverFunction
)

// Hover is the result of hovering over a variable use/decl or a function
// call's head.
type Hover struct {
	Kind HoverKind
	// Name is the variable's or function's name.
	Name string
	// DeclRange is the variable's declaration site; zero for HoverFunction.
	DeclRange syntax.Range
	// Signatures is the function's rendered signature(s), one per overload;
	// empty for HoverVariable.
	Signatures []string
	// Doc is the function's documentation; empty for HoverVariable.
	Doc string
	// Range is the hovered token's own range.
	Range syntax.Range
}

// HoverAt reports hover information for the token at offset, or nil if
// offset isn't over a variable reference or a function call's head.
func HoverAt(root *syntax.Node, scopeInfo *scope.Info, e *env.Environment, offset int) *Hover {
	n := nodeContaining(root, offset)
	if n == nil {
		return nil
	}

	switch n.Kind() {
	case kind.VarDecl:
		id, ok := scopeInfo.DeclByRange[n.Range()]
		if !ok {
			return nil
		}
		d := scopeInfo.Declarations[id]
		return &Hover{Kind: HoverVariable, Name: d.Name, DeclRange: d.DeclRange, Range: n.Range()}

	case kind.VarAccess, kind.VarAssign:
		id, ok := scopeInfo.ResolvedRefs[n.Range()]
		if !ok {
			return nil
		}
		d := scopeInfo.Declarations[id]
		return &Hover{Kind: HoverVariable, Name: d.Name, DeclRange: d.DeclRange, Range: n.Range()}

	case kind.FuncCall:
		t := n.FirstTokenOfKind(kind.Ident)
		if t == nil || !t.Range().Contains(offset) {
			return nil
		}
		f, ok := e.Funcs[t.Text()]
		if !ok {
			return nil
		}
		sigs := make([]string, len(f.Signatures))
		for i, sig := range f.Signatures {
			sigs[i] = sig.Render(f.Name)
		}
		return &Hover{Kind: HoverFunction, Name: f.Name, Signatures: sigs, Doc: strings.TrimSpace(f.Doc), Range: t.Range()}

	case kind.RangeClause:
		if tok := iterVarTokenAt(n, offset); tok != nil {
			if id, ok := scopeInfo.DeclByRange[tok.Range()]; ok {
				d := scopeInfo.Declarations[id]
				return &Hover{Kind: HoverVariable, Name: d.Name, DeclRange: d.DeclRange, Range: tok.Range()}
			}
		}
	}
	return nil
}

// iterVarTokenAt returns the Var token child of a RangeClause node whose
// range contains offset, or nil.
func iterVarTokenAt(rangeClause *syntax.Node, offset int) *syntax.Token {
	for _, el := range rangeClause.Children() {
		if el.IsNode() || el.Token.Kind() != kind.Var {
			continue
		}
		if el.Token.Range().Contains(offset) {
			return el.Token
		}
	}
	return nil
}
