// Package env holds the immutable catalog the checker consults for
// function signatures and struct/method/newtype/map shapes: the Type sum
// (env.Ty), the Environment itself, and its two construction paths
// (.ydef parsing and Go struct-catalog extraction).
package env

import (
	"fmt"
	"sort"
	"strings"
)

// Ty is the sum type of template value types. Concrete variants are the
// unexported-method pattern: a closed set of structs implementing isTy(),
// dispatched with a type switch rather than reflection.
type Ty interface {
	isTy()
	String() string
}

// AnyTy is the top type: compatible with everything.
type AnyTy struct{}

func (AnyTy) isTy()          {}
func (AnyTy) String() string { return "any" }

// NeverTy is the bottom type: the return type of a block with no return
// paths, the throw type of one with no fallible calls.
type NeverTy struct{}

func (NeverTy) isTy()          {}
func (NeverTy) String() string { return "never" }

// Primitive enumerates the scalar kinds, plus the TemplateName
// pseudo-primitive used for values produced by `{{define}}`/`{{block}}`
// names.
type Primitive uint8

const (
	PrimString Primitive = iota
	PrimBool
	PrimInt
	PrimInt64
	PrimFloat64
	PrimByte
	PrimRune
	PrimNil
	PrimTemplateName
)

func (p Primitive) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimBool:
		return "bool"
	case PrimInt:
		return "int"
	case PrimInt64:
		return "int64"
	case PrimFloat64:
		return "float64"
	case PrimByte:
		return "byte"
	case PrimRune:
		return "rune"
	case PrimNil:
		return "nil"
	case PrimTemplateName:
		return "template-name"
	default:
		return "primitive(?)"
	}
}

// integerClass reports whether p is one of the integer-family primitives
// that compare equal under loose assignability's "class" rule.
func (p Primitive) integerClass() bool {
	switch p {
	case PrimInt, PrimInt64, PrimByte, PrimRune:
		return true
	default:
		return false
	}
}

// PrimitiveTy wraps a Primitive as a Ty.
type PrimitiveTy struct{ Prim Primitive }

func (PrimitiveTy) isTy()            {}
func (p PrimitiveTy) String() string { return p.Prim.String() }

// PointerTy is `*T`.
type PointerTy struct{ Target Ty }

func (PointerTy) isTy()            {}
func (p PointerTy) String() string { return "*" + p.Target.String() }

// Handles index into the Environment's slot-maps. Comparing two handles of
// the same kind by value is identity comparison, matching the spec's
// "structs/methods/typed-string-maps compare by identity."
type (
	StructHandle         int
	NewtypeHandle         int
	MapHandle             int
	TypedStringMapHandle  int
	SliceHandle           int
)

// StructTy names a registered struct shape by handle.
type StructTy struct {
	Handle StructHandle
	Name   string // for diagnostics only; handle is the identity
}

func (StructTy) isTy()            {}
func (s StructTy) String() string { return s.Name }

// NewtypeTy names a registered alias-plus-methods type by handle.
type NewtypeTy struct {
	Handle NewtypeHandle
	Name   string
}

func (NewtypeTy) isTy()            {}
func (n NewtypeTy) String() string { return n.Name }

// MapTy is `map[K]V`.
type MapTy struct {
	Handle MapHandle
	Key    Ty
	Value  Ty
}

func (MapTy) isTy()            {}
func (m MapTy) String() string { return fmt.Sprintf("map[%s]%s", m.Key, m.Value) }

// TypedStringMapTy is a struct-like map keyed by a fixed set of string
// field names, each with its own value type.
type TypedStringMapTy struct {
	Handle TypedStringMapHandle
	Name   string
}

func (TypedStringMapTy) isTy()            {}
func (t TypedStringMapTy) String() string { return t.Name }

// SliceTy is `[]T`.
type SliceTy struct {
	Handle SliceHandle
	Elem   Ty
}

func (SliceTy) isTy()            {}
func (s SliceTy) String() string { return "[]" + s.Elem.String() }

// UnionTy is a normalized, sorted, ≥2-member union. The common two-member
// case is stored inline (first/second) to keep clones cheap, as the spec
// calls for; three or more members spill into rest.
type UnionTy struct {
	first, second Ty
	rest          []Ty // additional members beyond first/second, len >= 1 or nil
}

func (UnionTy) isTy() {}

// Members returns every member of the union, in normalized sorted order.
func (u UnionTy) Members() []Ty {
	out := make([]Ty, 0, 2+len(u.rest))
	out = append(out, u.first, u.second)
	return append(out, u.rest...)
}

func (u UnionTy) String() string {
	members := u.Members()
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// sortKey returns a deterministic string used both to sort a union's
// members and to detect duplicates structurally.
func sortKey(t Ty) string {
	switch v := t.(type) {
	case AnyTy:
		return "0:any"
	case NeverTy:
		return "1:never"
	case PrimitiveTy:
		return "2:prim:" + v.Prim.String()
	case PointerTy:
		return "3:ptr:" + sortKey(v.Target)
	case StructTy:
		return fmt.Sprintf("4:struct:%d", v.Handle)
	case NewtypeTy:
		return fmt.Sprintf("5:newtype:%d", v.Handle)
	case MapTy:
		return fmt.Sprintf("6:map:%d", v.Handle)
	case TypedStringMapTy:
		return fmt.Sprintf("7:tsmap:%d", v.Handle)
	case SliceTy:
		return fmt.Sprintf("8:slice:%d", v.Handle)
	case UnionTy:
		// Unions are always flattened before sorting, so this case is
		// unreachable in normal use; kept for defensiveness.
		return "9:union:" + v.String()
	default:
		return fmt.Sprintf("?:%T", t)
	}
}

// Union normalizes its arguments per the spec: Any absorbs everything,
// Never is the identity, duplicates (by structural key) are removed, and
// the result is returned sorted. A single remaining member is returned
// unwrapped rather than as a one-element UnionTy (unions are always ≥2
// components).
func Union(types ...Ty) Ty {
	var flat []Ty
	var flatten func(Ty)
	flatten = func(t Ty) {
		if u, ok := t.(UnionTy); ok {
			for _, m := range u.Members() {
				flatten(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, t := range types {
		flatten(t)
	}

	for _, t := range flat {
		if _, ok := t.(AnyTy); ok {
			return AnyTy{}
		}
	}

	seen := make(map[string]Ty)
	var order []string
	for _, t := range flat {
		if _, ok := t.(NeverTy); ok {
			continue
		}
		k := sortKey(t)
		if _, dup := seen[k]; !dup {
			seen[k] = t
			order = append(order, k)
		}
	}

	if len(order) == 0 {
		return NeverTy{}
	}
	sort.Strings(order)
	members := make([]Ty, len(order))
	for i, k := range order {
		members[i] = seen[k]
	}
	if len(members) == 1 {
		return members[0]
	}
	u := UnionTy{first: members[0], second: members[1]}
	if len(members) > 2 {
		u.rest = members[2:]
	}
	return u
}
