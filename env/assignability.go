package env

// LooseAssignable implements the spec's symmetric "loose assignability"
// relation, used both for matching call arguments against a signature and
// for inferring range-iteration element compatibility. It is a method on
// Environment (rather than a free function) because resolving newtypes to
// their underlying type and typed-string-maps to their fields requires
// the catalog.
func (e *Environment) LooseAssignable(a, b Ty) bool {
	if _, ok := a.(AnyTy); ok {
		return true
	}
	if _, ok := b.(AnyTy); ok {
		return true
	}

	if ua, ok := a.(UnionTy); ok {
		for _, m := range ua.Members() {
			if e.LooseAssignable(m, b) {
				return true
			}
		}
		return false
	}
	if ub, ok := b.(UnionTy); ok {
		for _, m := range ub.Members() {
			if e.LooseAssignable(a, m) {
				return true
			}
		}
		return false
	}

	if pa, ok := a.(PointerTy); ok {
		return e.LooseAssignable(pa.Target, b)
	}
	if pb, ok := b.(PointerTy); ok {
		return e.LooseAssignable(a, pb.Target)
	}

	if na, ok := a.(NewtypeTy); ok {
		return e.LooseAssignable(e.Newtype(na.Handle).Underlying, b)
	}
	if nb, ok := b.(NewtypeTy); ok {
		return e.LooseAssignable(a, e.Newtype(nb.Handle).Underlying)
	}

	switch va := a.(type) {
	case StructTy:
		vb, ok := b.(StructTy)
		return ok && va.Handle == vb.Handle
	case TypedStringMapTy:
		if vb, ok := b.(TypedStringMapTy); ok {
			return va.Handle == vb.Handle
		}
		if vb, ok := b.(MapTy); ok {
			return e.typedStringMapVsMap(va.Handle, vb)
		}
		return false
	case MapTy:
		if vb, ok := b.(MapTy); ok {
			return e.LooseAssignable(va.Key, vb.Key) && e.LooseAssignable(va.Value, vb.Value)
		}
		if vb, ok := b.(TypedStringMapTy); ok {
			return e.typedStringMapVsMap(vb.Handle, va)
		}
		return false
	case SliceTy:
		vb, ok := b.(SliceTy)
		return ok && e.LooseAssignable(va.Elem, vb.Elem)
	case PrimitiveTy:
		return primitiveAssignable(va, b)
	default:
		return false
	}
}

// typedStringMapVsMap holds the spec's rule: a typed-string-map compares
// compatible with a map iff the map's key is string-compatible and every
// field of the typed-string-map is compatible with the map's value (or
// the value is Any).
func (e *Environment) typedStringMapVsMap(tsm TypedStringMapHandle, m MapTy) bool {
	key, ok := m.Key.(PrimitiveTy)
	if !ok || key.Prim != PrimString {
		return false
	}
	if _, ok := m.Value.(AnyTy); ok {
		return true
	}
	def := e.TypedStringMap(tsm)
	for _, fieldTy := range def.Fields {
		if !e.LooseAssignable(fieldTy, m.Value) {
			return false
		}
	}
	return true
}

func primitiveAssignable(a PrimitiveTy, b Ty) bool {
	vb, ok := b.(PrimitiveTy)
	if !ok {
		return false
	}
	if a.Prim == vb.Prim {
		return true
	}
	if a.Prim.integerClass() && vb.Prim.integerClass() {
		return true
	}
	stringLike := func(p Primitive) bool { return p == PrimString || p == PrimTemplateName }
	return stringLike(a.Prim) && stringLike(vb.Prim)
}
