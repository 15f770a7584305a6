package env

import "testing"

func TestUnionNormalization(t *testing.T) {
	str := PrimitiveTy{Prim: PrimString}
	boolean := PrimitiveTy{Prim: PrimBool}

	tests := []struct {
		name string
		got  Ty
		want string
	}{
		{"identical members collapse", Union(str, str), "string"},
		{"any absorbs everything", Union(AnyTy{}, str), "any"},
		{"never is identity", Union(NeverTy{}, str), "string"},
		{"two distinct members sort deterministically", Union(boolean, str), "bool | string"},
		{"order of arguments does not affect result", Union(str, boolean), "bool | string"},
		{"nested unions flatten", Union(Union(str, boolean), NeverTy{}), "bool | string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.got.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnionAllNeverIsNever(t *testing.T) {
	if got := Union(NeverTy{}, NeverTy{}); got.String() != "never" {
		t.Errorf("got %v, want never", got)
	}
}

func TestLooseAssignablePrimitiveClasses(t *testing.T) {
	e := NewEnvironment()
	intTy := PrimitiveTy{Prim: PrimInt}
	byteTy := PrimitiveTy{Prim: PrimByte}
	strTy := PrimitiveTy{Prim: PrimString}
	tmplName := PrimitiveTy{Prim: PrimTemplateName}

	if !e.LooseAssignable(intTy, byteTy) {
		t.Error("int and byte should share the integer class")
	}
	if !e.LooseAssignable(strTy, tmplName) {
		t.Error("string should be compatible with TemplateName")
	}
	if e.LooseAssignable(intTy, strTy) {
		t.Error("int and string should not be compatible")
	}
}

func TestLooseAssignableAnyIsUniversal(t *testing.T) {
	e := NewEnvironment()
	if !e.LooseAssignable(AnyTy{}, PrimitiveTy{Prim: PrimBool}) {
		t.Error("Any should be assignable to/from anything")
	}
	if !e.LooseAssignable(PrimitiveTy{Prim: PrimBool}, AnyTy{}) {
		t.Error("Any should be assignable to/from anything")
	}
}

func TestLooseAssignableStructIdentity(t *testing.T) {
	e := NewEnvironment()
	a := e.RegisterStruct(&StructDef{Name: "A", Fields: map[string]Ty{}})
	b := e.RegisterStruct(&StructDef{Name: "B", Fields: map[string]Ty{}})

	if !e.LooseAssignable(a, a) {
		t.Error("a struct type should be assignable to itself")
	}
	if e.LooseAssignable(a, b) {
		t.Error("distinct struct types should not be assignable")
	}
}

func TestLooseAssignableTypedStringMapVsMap(t *testing.T) {
	e := NewEnvironment()
	tsm := e.RegisterTypedStringMap(&TypedStringMapDef{
		Name: "Opts",
		Fields: map[string]Ty{
			"Width":  PrimitiveTy{Prim: PrimInt},
			"Height": PrimitiveTy{Prim: PrimInt},
		},
	})
	compatible := MapTy{Key: PrimitiveTy{Prim: PrimString}, Value: PrimitiveTy{Prim: PrimInt}}
	incompatibleKey := MapTy{Key: PrimitiveTy{Prim: PrimInt}, Value: PrimitiveTy{Prim: PrimInt}}
	incompatibleValue := MapTy{Key: PrimitiveTy{Prim: PrimString}, Value: PrimitiveTy{Prim: PrimBool}}

	if !e.LooseAssignable(tsm, compatible) {
		t.Error("typed-string-map should be assignable to a compatible string-keyed map")
	}
	if e.LooseAssignable(tsm, incompatibleKey) {
		t.Error("typed-string-map should not be assignable to a non-string-keyed map")
	}
	if e.LooseAssignable(tsm, incompatibleValue) {
		t.Error("typed-string-map should not be assignable when a field type mismatches the map value")
	}
}
