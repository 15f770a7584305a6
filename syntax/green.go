package syntax

import "github.com/abiiranathan/tmplcheck/kind"

// GreenNode is an immutable, shareable subtree: a kind plus an ordered list
// of children, each either a token or another node. Green nodes carry no
// absolute offsets, which is what makes them cheap to share.
type GreenNode struct {
	Kind     kind.Kind
	Children []GreenElement
	len      uint32
}

// GreenToken is an immutable leaf: a kind and its exact source text.
type GreenToken struct {
	Kind kind.Kind
	Text string
}

// GreenElement is either a *GreenNode or a *GreenToken.
type GreenElement interface {
	textLen() uint32
}

func (n *GreenNode) textLen() uint32  { return n.len }
func (t *GreenToken) textLen() uint32 { return uint32(len(t.Text)) }

func newGreenNode(k kind.Kind, children []GreenElement) *GreenNode {
	var total uint32
	for _, c := range children {
		total += c.textLen()
	}
	return &GreenNode{Kind: k, Children: children, len: total}
}
