package ops

import (
	"strings"

	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// FoldingRangeKind labels what a FoldingRange folds.
type FoldingRangeKind int

const (
	FoldingOther FoldingRangeKind = iota
	FoldingComment
)

// FoldingRange is one collapsible region.
type FoldingRange struct {
	Range syntax.Range
	Kind  FoldingRangeKind
}

// foldableKinds are the node kinds that fold as a whole: compound actions
// from their opening clause through their `{{end}}`, and an else branch
// from its `{{else}}` clause to the end of its body.
var foldableKinds = map[kind.Kind]bool{
	kind.IfConditional:      true,
	kind.WithConditional:    true,
	kind.RangeLoop:          true,
	kind.WhileLoop:          true,
	kind.TryCatchAction:     true,
	kind.TemplateDefinition: true,
	kind.TemplateBlock:      true,
	kind.ElseBranch:         true,
}

// FoldingRanges computes every folding range in root: one per non-single-
// line compound action (opening clause through end clause), one per
// non-single-line comment action (tagged FoldingComment), and one per
// non-single-line `{{$x := ...}}`/`{{$x = ...}}` action.
func FoldingRanges(root *syntax.Node, src string) []FoldingRange {
	var out []FoldingRange
	for _, n := range root.Descendants() {
		switch {
		case n.Kind() == kind.CommentAction:
			if r, ok := multiLine(n.Range(), src); ok {
				out = append(out, FoldingRange{Range: r, Kind: FoldingComment})
			}

		case foldableKinds[n.Kind()]:
			if r, ok := multiLine(n.Range(), src); ok {
				out = append(out, FoldingRange{Range: r})
			}

		case n.Kind() == kind.VarDecl || n.Kind() == kind.VarAssign:
			p := n.Parent()
			if p != nil && p.Kind() == kind.ExprAction {
				if r, ok := multiLine(p.Range(), src); ok {
					out = append(out, FoldingRange{Range: r})
				}
			}
		}
	}
	return out
}

func multiLine(r syntax.Range, src string) (syntax.Range, bool) {
	if r.Start < 0 || r.End > len(src) || r.Start >= r.End {
		return r, false
	}
	return r, strings.ContainsRune(src[r.Start:r.End], '\n')
}
