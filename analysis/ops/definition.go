package ops

import (
	"sort"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// declIDAt resolves the variable reference or declaration at offset to its
// DeclID, or false if offset isn't over one.
func declIDAt(root *syntax.Node, scopeInfo *scope.Info, offset int) (scope.DeclID, bool) {
	n := nodeContaining(root, offset)
	if n == nil {
		return 0, false
	}
	switch n.Kind() {
	case kind.VarDecl:
		id, ok := scopeInfo.DeclByRange[n.Range()]
		return id, ok
	case kind.VarAccess, kind.VarAssign:
		id, ok := scopeInfo.ResolvedRefs[n.Range()]
		return id, ok
	case kind.RangeClause:
		if tok := iterVarTokenAt(n, offset); tok != nil {
			id, ok := scopeInfo.DeclByRange[tok.Range()]
			return id, ok
		}
	}
	return 0, false
}

// GotoDefinition maps the variable reference at offset to its declaration
// range, or false if offset isn't over a resolved variable reference.
func GotoDefinition(root *syntax.Node, scopeInfo *scope.Info, offset int) (syntax.Range, bool) {
	id, ok := declIDAt(root, scopeInfo, offset)
	if !ok {
		return syntax.Range{}, false
	}
	d := scopeInfo.Declarations[id]
	if d.Synthetic {
		return syntax.Range{}, false
	}
	return d.DeclRange, true
}

// FindReferences returns every use-site range resolving to the same
// declaration as the variable at offset, in source order; includeDecl adds
// the declaration's own range to the result. Returns nil if offset isn't
// over a resolved variable reference.
func FindReferences(root *syntax.Node, scopeInfo *scope.Info, offset int, includeDecl bool) []syntax.Range {
	id, ok := declIDAt(root, scopeInfo, offset)
	if !ok {
		return nil
	}
	var out []syntax.Range
	if includeDecl {
		if d := scopeInfo.Declarations[id]; !d.Synthetic {
			out = append(out, d.DeclRange)
		}
	}
	for r, refID := range scopeInfo.ResolvedRefs {
		if refID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
