package ops

import (
	"strings"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// TextEdit replaces the text at Range with NewText.
type TextEdit struct {
	Range   syntax.Range
	NewText string
}

// Rename computes the edit set for renaming the variable at offset to
// newName, normalized to start with `$`. Returns nil if offset isn't over
// a resolved variable reference, or if it resolves to the predeclared `$`
// context variable (which has no declaration site to rename).
func Rename(root *syntax.Node, scopeInfo *scope.Info, offset int, newName string) []TextEdit {
	id, ok := declIDAt(root, scopeInfo, offset)
	if !ok {
		return nil
	}
	if d := scopeInfo.Declarations[id]; d.Synthetic {
		return nil
	}
	if !strings.HasPrefix(newName, "$") {
		newName = "$" + newName
	}

	// A declaration or assignment reference spans its whole node
	// (`$x := 1`), so each edit covers only the leading variable token.
	oldLen := len(scopeInfo.Declarations[id].Name)
	refs := FindReferences(root, scopeInfo, offset, true)
	out := make([]TextEdit, len(refs))
	for i, r := range refs {
		out[i] = TextEdit{Range: syntax.Range{Start: r.Start, End: r.Start + oldLen}, NewText: newName}
	}
	return out
}
