package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ydefParam is one parsed parameter from a `func Name(params)` signature
// line, before it is turned into a CallSignature (every .ydef parameter
// defaults to type Any, since the grammar carries no type annotations).
type ydefParam struct {
	Name     string
	Optional bool
	Variadic bool
}

// ParseYdefFile reads one .ydef file and returns the Func records it
// declares. Use LoadYdefFiles to build a full Environment from several
// files at once.
func ParseYdefFile(path string) ([]*Func, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDef, err)
	}
	defer f.Close()
	return ParseYdef(f, path)
}

// ParseYdef parses the .ydef grammar from r: comment lines beginning with
// `//` (ignored entirely), blank lines separating paragraphs of
// documentation, `func Name(params)` signature lines, and tab-indented
// documentation lines following each signature. filename is used only to
// annotate errors with file:line.
func ParseYdef(r io.Reader, filename string) ([]*Func, error) {
	scanner := bufio.NewScanner(r)
	var funcs []*Func
	var cur *Func
	var docLines []string

	flushDoc := func() {
		if cur != nil && len(docLines) > 0 {
			cur.Doc = strings.TrimSpace(strings.Join(docLines, "\n"))
		}
		docLines = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch {
		case strings.TrimSpace(line) == "":
			// Blank line: ends the current doc paragraph run, but a
			// signature may still follow later for the same func if more
			// tab-indented lines resume (rare; treated as a paragraph
			// break within the same doc, not a doc terminator).
			if cur != nil && len(docLines) > 0 {
				docLines = append(docLines, "")
			}
			continue
		case strings.HasPrefix(strings.TrimLeft(line, " \t"), "//"):
			continue
		case strings.HasPrefix(line, "func "), line == "func" || strings.HasPrefix(line, "func("):
			flushDoc()
			fn, err := parseYdefSignature(line)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: %v", ErrMalformedDef, filename, lineNo, err)
			}
			cur = fn
			funcs = append(funcs, fn)
		case strings.HasPrefix(line, "\t"):
			if cur == nil {
				return nil, fmt.Errorf("%w: %s:%d: documentation line before any `func` signature", ErrMalformedDef, filename, lineNo)
			}
			docLines = append(docLines, strings.TrimPrefix(line, "\t"))
		default:
			return nil, fmt.Errorf("%w: %s:%d: unrecognized line %q", ErrMalformedDef, filename, lineNo, line)
		}
	}
	flushDoc()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDef, filename, err)
	}
	return funcs, nil
}

// parseYdefSignature parses one `func Name(param, param?, rest...)` line
// into a Func with a single Exact/Variadic signature, every parameter and
// the return/throw types defaulting to Any.
func parseYdefSignature(line string) (*Func, error) {
	rest := strings.TrimPrefix(line, "func")
	rest = strings.TrimSpace(rest)
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, fmt.Errorf("missing `(` in signature %q", line)
	}
	name := strings.TrimSpace(rest[:open])
	if name == "" {
		return nil, fmt.Errorf("missing function name in signature %q", line)
	}
	if !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("missing closing `)` in signature %q", line)
	}
	paramsStr := rest[open+1 : len(rest)-1]

	params, err := parseYdefParams(paramsStr)
	if err != nil {
		return nil, fmt.Errorf("in signature for %q: %w", name, err)
	}

	sig := buildSignature(params)
	return &Func{Name: name, Signatures: []CallSignature{sig}}, nil
}

func parseYdefParams(s string) ([]ydefParam, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []ydefParam
	for _, raw := range strings.Split(s, ",") {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		param := ydefParam{Name: p}
		switch {
		case strings.HasSuffix(p, "..."):
			param.Name = strings.TrimSuffix(p, "...")
			param.Variadic = true
			param.Optional = true
		case strings.HasSuffix(p, "?"):
			param.Name = strings.TrimSuffix(p, "?")
			param.Optional = true
		}
		if strings.HasSuffix(param.Name, "?") || strings.HasSuffix(param.Name, "...") {
			return nil, fmt.Errorf("parameter %q combines `?` and `...` modifiers, which is rejected", p)
		}
		param.Name = strings.TrimSpace(param.Name)
		if param.Name == "" {
			return nil, fmt.Errorf("empty parameter name in %q", s)
		}
		out = append(out, param)
	}
	return out, nil
}

// buildSignature turns parsed .ydef parameters into one CallSignature.
// Optional-but-not-variadic parameters have no expression in this
// grammar beyond presence/absence of `?` (the .ydef format has no
// arity-overload syntax), so they are folded into the fixed prefix: a
// `.ydef` signature is exact unless its last parameter is variadic.
func buildSignature(params []ydefParam) CallSignature {
	if len(params) > 0 && params[len(params)-1].Variadic {
		fixed := params[:len(params)-1]
		prefix := make([]Ty, len(fixed))
		names := make([]string, len(fixed))
		optional := make([]bool, len(fixed))
		for i, p := range fixed {
			prefix[i] = AnyTy{}
			names[i] = p.Name
			optional[i] = p.Optional
		}
		return CallSignature{
			Kind:          Variadic,
			Params:        prefix,
			ParamNames:    names,
			ParamOptional: optional,
			TailElem:      AnyTy{},
			TailName:      params[len(params)-1].Name,
			Return:        AnyTy{},
			Throw:         AnyTy{},
		}
	}
	prefix := make([]Ty, len(params))
	names := make([]string, len(params))
	optional := make([]bool, len(params))
	for i, p := range params {
		prefix[i] = AnyTy{}
		names[i] = p.Name
		optional[i] = p.Optional
	}
	return CallSignature{Kind: Exact, Params: prefix, ParamNames: names, ParamOptional: optional, Return: AnyTy{}, Throw: AnyTy{}}
}

// LoadYdefFiles parses every file in paths and registers their functions
// into a fresh Environment (InitialContextTy left as Any — callers that
// also have Go struct-catalog data should build that Environment instead
// and merge functions in with MergeFuncs).
func LoadYdefFiles(paths []string) (*Environment, error) {
	e := NewEnvironment()
	for _, p := range paths {
		funcs, err := ParseYdefFile(p)
		if err != nil {
			return nil, err
		}
		for _, f := range funcs {
			if err := e.AddFunc(f); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

// MergeFuncs registers every function from src into e, returning an error
// on the first name collision.
func (e *Environment) MergeFuncs(src *Environment) error {
	for _, f := range src.Funcs {
		if err := e.AddFunc(f); err != nil {
			return err
		}
	}
	return nil
}
