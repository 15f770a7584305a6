// Package scope builds the lexical scope tree for a parsed template and
// resolves every variable reference to the declaration it binds to.
package scope

import "github.com/abiiranathan/tmplcheck/syntax"

// DeclID uniquely identifies one declared variable within a single Info.
type DeclID int

// DeclaredVar is one `$name` binding: either a `:=` declaration, a `range`
// iteration variable, or the predeclared `$` context variable.
type DeclaredVar struct {
	ID          DeclID
	Name        string
	VisibleFrom int // byte offset; the use site's start must be >= this
	DeclRange   syntax.Range
	Synthetic   bool // true for the predeclared `$`, which has no declaration site
}

// Scope is one lexical scope: an insertion-ordered list of declarations and
// a name->id map for lookup, plus a parent link for the chain walk. Parent
// is nil both at a document root and at the (deliberately detached) root of
// a template-definition or template-block body.
type Scope struct {
	Parent   *Scope
	Range    syntax.Range
	Order    []DeclID
	byName   map[string]DeclID
	declared map[DeclID]*DeclaredVar
}

func newScope(parent *Scope, r syntax.Range) *Scope {
	return &Scope{
		Parent:   parent,
		Range:    r,
		byName:   make(map[string]DeclID),
		declared: make(map[DeclID]*DeclaredVar),
	}
}

// Error is a scope-analysis diagnostic: an undefined variable reference or
// an assignment to an undeclared variable.
type Error struct {
	Message string
	Range   syntax.Range
}

// Info is the result of analyzing one parsed template: every scope created
// during the walk, the use-site-to-declaration index, and any undefined-
// variable errors encountered along the way.
type Info struct {
	Scopes       []*Scope
	Declarations map[DeclID]*DeclaredVar
	ResolvedRefs map[syntax.Range]DeclID

	// DeclByRange maps a declaration's own site (a VarDecl node's range, or
	// a range-loop iteration variable token's range) back to its DeclID, so
	// a downstream pass (the flow/type analyzer) that revisits the same CST
	// can recover which declaration a given binding site introduced without
	// re-deriving scope from scratch.
	DeclByRange map[syntax.Range]DeclID

	Errors []Error
}

// Lookup walks s and its ancestors for the nearest visible declaration of
// name as of useOffset, returning (decl, true) on a hit.
func (s *Scope) Lookup(name string, useOffset int) (*DeclaredVar, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if id, ok := cur.byName[name]; ok {
			d := cur.declared[id]
			if d.Synthetic || useOffset >= d.VisibleFrom {
				return d, true
			}
			// Name exists in this scope but isn't visible yet (we're still
			// inside its own initializer); a use here cannot bind to it, and
			// shadowing an outer scope from inside the not-yet-visible
			// declaration isn't meaningful either, so stop the search.
			return nil, false
		}
	}
	return nil, false
}
