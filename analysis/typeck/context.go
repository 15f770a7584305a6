package typeck

import (
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// maxUniqueInstantiations bounds how many distinct context types a single
// associated template's instantiation cache remembers before it overflows.
const maxUniqueInstantiations = 5

// FieldMethodAccessInfo records one resolved `.Name` step of a field chain:
// the type it was resolved against, the name, and whether resolution
// succeeded.
type FieldMethodAccessInfo struct {
	BaseTy   env.Ty
	Name     string
	Resolved bool
	Range    syntax.Range
}

// Error is a flow/type-analyzer diagnostic.
type Error struct {
	Message string
	Range   syntax.Range
}

// AssocTemplate is one hoisted `{{define "name"}}`/`{{block "name"}}` body,
// checked interprocedurally: every call site instantiates it with the
// caller's argument type as context, up to a bounded number of distinct
// context types.
type AssocTemplate struct {
	Name      string
	Body      *syntax.Node // the ActionList body
	DeclRange syntax.Range

	// CachedInstantiations maps a context type's String() form to the
	// return type computed for it. Contexts holds the same context Ty
	// values in the order their cache entries were created, so the final
	// pass can union them; it never grows past maxUniqueInstantiations.
	CachedInstantiations map[string]env.Ty
	Contexts             []env.Ty
	OverflowedCache      bool
}

// Info is the flow/type analyzer's output: a type for every expression, the
// field/method accesses it resolved along the way, every hoisted associated
// template (with its instantiation cache), and accumulated errors.
type Info struct {
	ExprTypes         map[syntax.Range]env.Ty
	FieldMethodAccess []FieldMethodAccessInfo
	AssocTemplates    map[string]*AssocTemplate
	Errors            []Error
}
