package env

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// maxStructDepth bounds recursive struct-field extraction, mirroring the
// teacher's field extractor's own recursion guard.
const maxStructDepth = 10

// BuildStructCatalog loads pkgPath via go/packages, locates the exported
// type named typeName, and registers it (and every struct type reachable
// from its fields) into a fresh Environment, setting InitialContextTy to
// the translation of that object's type (a StructTy for a named struct
// type).
//
// This is the struct-catalog path: a Go-native alternative to .ydef for
// populating an Environment's context and struct shapes directly from a
// real Go package, grounded in the teacher's own Go-source struct/field
// extraction machinery, repurposed from "validate render calls against
// inferred types" to "build the checker's type catalog."
func BuildStructCatalog(pkgPath, typeName string) (*Environment, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedSyntax | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading package %s: %v", ErrMalformedDef, pkgPath, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("%w: package %s has load errors", ErrMalformedDef, pkgPath)
	}

	var target types.Object
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		obj := pkg.Types.Scope().Lookup(typeName)
		if obj != nil {
			target = obj
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: type %s not found in package %s", ErrMalformedDef, typeName, pkgPath)
	}

	e := NewEnvironment()
	c := &catalogBuilder{env: e, seen: make(map[string]Ty)}
	ty := c.translate(target.Type(), 0)
	e.InitialContextTy = ty
	return e, nil
}

// catalogBuilder walks go/types.Type values and registers the struct
// shapes it encounters into an Environment, translating each field and
// method type into an env.Ty. seen maps a type's String() key to its
// already-registered Ty, both memoizing repeated references and breaking
// cycles in self-referential struct graphs.
type catalogBuilder struct {
	env  *Environment
	seen map[string]Ty
}

func (c *catalogBuilder) translate(t types.Type, depth int) Ty {
	if depth >= maxStructDepth {
		return AnyTy{}
	}

	switch tt := t.(type) {
	case *types.Pointer:
		return PointerTy{Target: c.translate(tt.Elem(), depth+1)}
	case *types.Slice:
		return c.env.RegisterSlice(&SliceDef{Elem: c.translate(tt.Elem(), depth+1)})
	case *types.Array:
		return c.env.RegisterSlice(&SliceDef{Elem: c.translate(tt.Elem(), depth+1)})
	case *types.Map:
		return c.env.RegisterMap(&MapDef{
			Key:   c.translate(tt.Key(), depth+1),
			Value: c.translate(tt.Elem(), depth+1),
		})
	case *types.Basic:
		return translateBasic(tt)
	case *types.Named:
		return c.translateNamed(tt, depth)
	default:
		return AnyTy{}
	}
}

func (c *catalogBuilder) translateNamed(named *types.Named, depth int) Ty {
	key := named.String()
	if cached, ok := c.seen[key]; ok {
		return cached
	}

	strct, isStruct := named.Underlying().(*types.Struct)
	if !isStruct {
		// Not a struct (an interface, a named primitive, ...): register as
		// a newtype carrying its underlying type and exported methods.
		placeholder := &NewtypeDef{Name: named.Obj().Name()}
		nt := c.env.RegisterNewtype(placeholder)
		c.seen[key] = nt
		placeholder.Underlying = c.translate(named.Underlying(), depth+1)
		placeholder.Methods = c.extractMethods(named, depth)
		return nt
	}

	placeholder := &StructDef{Name: named.Obj().Name(), Fields: make(map[string]Ty)}
	st := c.env.RegisterStruct(placeholder)
	c.seen[key] = st // registered before fields are walked, so self-references resolve to this handle

	for field := range strct.Fields() {
		if !field.Exported() {
			continue
		}
		placeholder.Fields[field.Name()] = c.translate(field.Type(), depth+1)
	}
	placeholder.Methods = c.extractMethods(named, depth)
	return st
}

func (c *catalogBuilder) extractMethods(named *types.Named, depth int) map[string]*Func {
	methods := make(map[string]*Func)
	for m := range named.Methods() {
		if !m.Exported() {
			continue
		}
		sig, ok := m.Type().(*types.Signature)
		if !ok {
			continue
		}
		methods[m.Name()] = &Func{
			Name:       m.Name(),
			Signatures: []CallSignature{c.translateSignature(sig, depth)},
		}
	}
	return methods
}

func (c *catalogBuilder) translateSignature(sig *types.Signature, depth int) CallSignature {
	params := sig.Params()
	out := make([]Ty, params.Len())
	for i := 0; i < params.Len(); i++ {
		out[i] = c.translate(params.At(i).Type(), depth+1)
	}

	var retTy Ty = NeverTy{}
	if results := sig.Results(); results.Len() > 0 {
		rets := make([]Ty, results.Len())
		for i := 0; i < results.Len(); i++ {
			rets[i] = c.translate(results.At(i).Type(), depth+1)
		}
		retTy = Union(rets...)
	}

	if sig.Variadic() && len(out) > 0 {
		tail := out[len(out)-1]
		return CallSignature{Kind: Variadic, Params: out[:len(out)-1], TailElem: tail, Return: retTy, Throw: NeverTy{}}
	}
	return CallSignature{Kind: Exact, Params: out, Return: retTy, Throw: NeverTy{}}
}

func translateBasic(b *types.Basic) Ty {
	switch b.Kind() {
	case types.String:
		return PrimitiveTy{Prim: PrimString}
	case types.Bool:
		return PrimitiveTy{Prim: PrimBool}
	case types.Int, types.Int8, types.Int16, types.Int32, types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64, types.Uintptr:
		return PrimitiveTy{Prim: PrimInt}
	case types.Int64:
		return PrimitiveTy{Prim: PrimInt64}
	case types.Float32, types.Float64:
		return PrimitiveTy{Prim: PrimFloat64}
	case types.UntypedNil:
		return PrimitiveTy{Prim: PrimNil}
	default:
		return AnyTy{}
	}
}
