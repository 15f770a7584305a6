// Package ops implements the consumer-facing, language-server-shaped
// operations over a parsed and analyzed document: completion, hover,
// goto-definition, find-references, rename, folding ranges, inlay hints,
// and diagnostics. Every operation here is a pure function of its inputs
// (CST, scope.Info, typeck.Info, env.Environment) plus a byte offset or
// range — there is no wire protocol, session, or document cache; a real
// language server wraps these with its own transport and position mapping.
package ops

import (
	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// nodeContaining returns the innermost descendant of root whose range
// contains offset, or nil if none does (offset outside the document).
func nodeContaining(root *syntax.Node, offset int) *syntax.Node {
	var best *syntax.Node
	for _, n := range root.Descendants() {
		if n.Range().Contains(offset) {
			best = n
		}
	}
	return best
}

// declScope returns the innermost scope whose range contains offset, or
// nil if none does.
func declScope(info *scope.Info, offset int) *scope.Scope {
	var best *scope.Scope
	for _, s := range info.Scopes {
		if s.Range.Contains(offset) {
			if best == nil || s.Range.Len() < best.Range.Len() {
				best = s
			}
		}
	}
	return best
}

// visibleVars walks s and its ancestors, collecting every declaration
// visible at offset, innermost (and thus shadowing) declarations first.
// A name already seen from an inner scope is not repeated for an outer one.
func visibleVars(info *scope.Info, s *scope.Scope, offset int) []*scope.DeclaredVar {
	var out []*scope.DeclaredVar
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.Parent {
		for _, id := range cur.Order {
			d := info.Declarations[id]
			if seen[d.Name] {
				continue
			}
			if d.Synthetic || offset >= d.VisibleFrom {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
	}
	return out
}
