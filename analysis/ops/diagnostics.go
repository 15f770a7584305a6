package ops

import (
	"sort"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/analysis/typeck"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// DiagnosticSource names which phase produced a Diagnostic.
type DiagnosticSource int

const (
	SourceSyntax DiagnosticSource = iota
	SourceScope
	SourceTypeck
)

// Diagnostic is a uniform view over one error, from whichever phase
// produced it. Every kind in the error taxonomy surfaces as severity
// "error" — this module has no warning-level findings.
type Diagnostic struct {
	Source  DiagnosticSource
	Message string
	Range   syntax.Range
}

// Diagnostics merges the parser's syntax errors with the scope and
// flow/type analyzers' errors into one source-ordered slice.
func Diagnostics(syntaxErrs []syntax.SyntaxError, scopeInfo *scope.Info, typeckInfo *typeck.Info) []Diagnostic {
	out := make([]Diagnostic, 0, len(syntaxErrs)+len(scopeInfo.Errors)+len(typeckInfo.Errors))
	for _, e := range syntaxErrs {
		out = append(out, Diagnostic{Source: SourceSyntax, Message: e.Message, Range: e.Range})
	}
	for _, e := range scopeInfo.Errors {
		out = append(out, Diagnostic{Source: SourceScope, Message: e.Message, Range: e.Range})
	}
	for _, e := range typeckInfo.Errors {
		out = append(out, Diagnostic{Source: SourceTypeck, Message: e.Message, Range: e.Range})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })
	return out
}
