package env

import (
	"errors"
	"fmt"
)

// ErrMalformedDef is the sentinel wrapped into every error returned by
// ParseYdef for a line that does not conform to the .ydef grammar,
// inspectable via errors.Is.
var ErrMalformedDef = errors.New("malformed .ydef definition")

// StructDef is one registered struct shape: its exported fields and
// methods. Handles into Environment.Structs identify a StructTy value.
type StructDef struct {
	Name    string
	Fields  map[string]Ty
	Methods map[string]*Func
}

// NewtypeDef is a named alias over an underlying type plus its attached
// methods (e.g. a Go named type whose underlying type is a primitive or
// slice, with exported methods).
type NewtypeDef struct {
	Name       string
	Underlying Ty
	Methods    map[string]*Func
}

// MapDef is `map[K]V`.
type MapDef struct {
	Key, Value Ty
}

// TypedStringMapDef is a struct-like map keyed by a fixed set of string
// field names.
type TypedStringMapDef struct {
	Name   string
	Fields map[string]Ty
}

// SliceDef is `[]T`.
type SliceDef struct {
	Elem Ty
}

// Environment is the immutable catalog shared by the checker: the initial
// context type, every known function, and slot-maps for the composite
// types referenced by handle from Ty values. It is built once (via
// NewEnvironment plus registration calls, or via ParseYdef /
// BuildStructCatalog) and never mutated again once handed to an analyzer.
type Environment struct {
	InitialContextTy Ty
	Funcs            map[string]*Func

	Structs         []*StructDef
	Newtypes        []*NewtypeDef
	Maps            []*MapDef
	TypedStringMaps []*TypedStringMapDef
	Slices          []*SliceDef
}

// NewEnvironment returns an empty Environment with InitialContextTy set to
// Any — the state a bare .ydef-only environment is built from.
func NewEnvironment() *Environment {
	return &Environment{
		InitialContextTy: AnyTy{},
		Funcs:            make(map[string]*Func),
	}
}

// AddFunc registers f, returning an error if a function with the same name
// is already registered (function names are unique in the catalog).
func (e *Environment) AddFunc(f *Func) error {
	if _, exists := e.Funcs[f.Name]; exists {
		return fmt.Errorf("%w: duplicate function %q", ErrMalformedDef, f.Name)
	}
	e.Funcs[f.Name] = f
	return nil
}

// RegisterStruct appends def and returns a Ty value identifying it.
func (e *Environment) RegisterStruct(def *StructDef) StructTy {
	e.Structs = append(e.Structs, def)
	return StructTy{Handle: StructHandle(len(e.Structs) - 1), Name: def.Name}
}

// RegisterNewtype appends def and returns a Ty value identifying it.
func (e *Environment) RegisterNewtype(def *NewtypeDef) NewtypeTy {
	e.Newtypes = append(e.Newtypes, def)
	return NewtypeTy{Handle: NewtypeHandle(len(e.Newtypes) - 1), Name: def.Name}
}

// RegisterMap appends def and returns a Ty value identifying it.
func (e *Environment) RegisterMap(def *MapDef) MapTy {
	e.Maps = append(e.Maps, def)
	return MapTy{Handle: MapHandle(len(e.Maps) - 1), Key: def.Key, Value: def.Value}
}

// RegisterTypedStringMap appends def and returns a Ty value identifying it.
func (e *Environment) RegisterTypedStringMap(def *TypedStringMapDef) TypedStringMapTy {
	e.TypedStringMaps = append(e.TypedStringMaps, def)
	return TypedStringMapTy{Handle: TypedStringMapHandle(len(e.TypedStringMaps) - 1), Name: def.Name}
}

// RegisterSlice appends def and returns a Ty value identifying it.
func (e *Environment) RegisterSlice(def *SliceDef) SliceTy {
	e.Slices = append(e.Slices, def)
	return SliceTy{Handle: SliceHandle(len(e.Slices) - 1), Elem: def.Elem}
}

// Struct looks up a registered struct by handle.
func (e *Environment) Struct(h StructHandle) *StructDef { return e.Structs[h] }

// Newtype looks up a registered newtype by handle.
func (e *Environment) Newtype(h NewtypeHandle) *NewtypeDef { return e.Newtypes[h] }

// TypedStringMap looks up a registered typed-string-map by handle.
func (e *Environment) TypedStringMap(h TypedStringMapHandle) *TypedStringMapDef {
	return e.TypedStringMaps[h]
}

// LookupField resolves name against base's fields and methods, per the
// flow analyzer's field/method access rule: struct fields and methods,
// newtype methods (after unwrapping to the underlying type for fields),
// and typed-string-map fields. Pointers are dereferenced automatically.
// Returns the resolved type and true, or (nil, false) if unresolved.
func (e *Environment) LookupField(base Ty, name string) (Ty, bool) {
	if ptr, ok := base.(PointerTy); ok {
		return e.LookupField(ptr.Target, name)
	}
	switch b := base.(type) {
	case StructTy:
		def := e.Struct(b.Handle)
		if t, ok := def.Fields[name]; ok {
			return t, true
		}
		if m, ok := def.Methods[name]; ok {
			return methodValueTy(m), true
		}
		return nil, false
	case NewtypeTy:
		def := e.Newtype(b.Handle)
		if m, ok := def.Methods[name]; ok {
			return methodValueTy(m), true
		}
		return e.LookupField(def.Underlying, name)
	case TypedStringMapTy:
		def := e.TypedStringMap(b.Handle)
		t, ok := def.Fields[name]
		return t, ok
	default:
		return nil, false
	}
}

// methodValueTy is the type of a resolved-but-not-yet-called method
// reference; the checker calls it immediately in practice (ExprCall), so
// a bare Any placeholder for "callable value" is sufficient here — the
// actual return type is determined at the ExprCall site by re-resolving
// through the owning struct/newtype's Methods map.
func methodValueTy(*Func) Ty { return AnyTy{} }
