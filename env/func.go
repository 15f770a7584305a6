package env

import "strings"

// CallKind distinguishes the three shapes a call signature can take.
type CallKind uint8

const (
	// Exact is a fixed positional arity: one parameter type per argument.
	Exact CallKind = iota
	// Variadic is a fixed prefix of positional parameters followed by a
	// tail of zero or more arguments of one element type.
	Variadic
	// VariadicOptions is a fixed prefix followed by named options, each
	// either required or not, each with its own type.
	VariadicOptions
)

// OptionSpec describes one named option accepted by a VariadicOptions
// signature.
type OptionSpec struct {
	Required bool
	Type     Ty
}

// CallSignature is one overload of a Func: parameter shape plus return and
// throw types.
type CallSignature struct {
	Kind CallKind

	// Params holds the fixed positional parameter types for all three
	// Kind values (the "prefix" for Variadic/VariadicOptions).
	Params []Ty

	// TailElem is the variadic tail's element type; only meaningful when
	// Kind == Variadic.
	TailElem Ty

	// Options is the named-option map; only meaningful when
	// Kind == VariadicOptions.
	Options map[string]OptionSpec

	// ParamNames holds the declared name of each Params entry, and
	// ParamOptional whether that parameter carried a `?` modifier, for
	// signature rendering (hover); both empty when a signature was built
	// programmatically without names. TailName is the variadic tail's
	// declared name, meaningful only when Kind == Variadic.
	ParamNames    []string
	ParamOptional []bool
	TailName      string

	Return Ty
	Throw  Ty
}

// Render formats s as it would appear in source: "name1, name2?, rest...".
// name is the function's own name, prefixed with "func ".
func (s CallSignature) Render(name string) string {
	var b strings.Builder
	b.WriteString("func ")
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range s.ParamNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
		if i < len(s.ParamOptional) && s.ParamOptional[i] {
			b.WriteByte('?')
		}
	}
	if s.Kind == Variadic {
		if len(s.ParamNames) > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.TailName)
		b.WriteString("...")
	}
	b.WriteByte(')')
	return b.String()
}

// Arity reports the minimum number of positional arguments this signature
// requires (its fixed prefix), ignoring any variadic tail or options.
func (s CallSignature) Arity() int { return len(s.Params) }

// Func is a callable environment entry: a name, its documentation, and a
// non-empty list of overloaded call signatures.
type Func struct {
	Name       string
	Doc        string
	Signatures []CallSignature
}

// WithSignature appends sig to f's overload list and returns f, for
// chaining during programmatic Environment construction (used to refine a
// .ydef-sourced Func, whose parameters otherwise default to Any, with a
// concrete signature supplied in code).
func (f *Func) WithSignature(sig CallSignature) *Func {
	f.Signatures = append(f.Signatures, sig)
	return f
}
