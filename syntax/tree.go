package syntax

import "github.com/abiiranathan/tmplcheck/kind"

// Range is a half-open byte range [Start, End) in the source text.
type Range struct {
	Start, End int
}

// Len returns the range's length in bytes.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether offset falls within r.
func (r Range) Contains(offset int) bool { return offset >= r.Start && offset < r.End }

// ContainsRange reports whether r fully contains other.
func (r Range) ContainsRange(other Range) bool { return other.Start >= r.Start && other.End <= r.End }

// Node is a red cursor onto a GreenNode: cheap, carries an absolute offset
// and a parent link, and lazily materializes its children on demand.
type Node struct {
	green  *GreenNode
	parent *Node
	offset int
}

// Token is a red cursor onto a GreenToken.
type Token struct {
	green  *GreenToken
	parent *Node
	offset int
}

// NewRoot wraps a green tree's root in a red cursor with no parent.
func NewRoot(green *GreenNode) *Node {
	return &Node{green: green, offset: 0}
}

// Kind returns the node's syntax kind.
func (n *Node) Kind() kind.Kind { return n.green.Kind }

// Range returns the node's absolute byte range.
func (n *Node) Range() Range { return Range{n.offset, n.offset + int(n.green.len)} }

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Text reconstructs the node's exact source text by concatenating every
// descendant token's text in order; this is the round-trip invariant made
// concrete.
func (n *Node) Text() string {
	var b []byte
	n.appendText(&b)
	return string(b)
}

func (n *Node) appendText(b *[]byte) {
	for _, c := range n.green.Children {
		switch e := c.(type) {
		case *GreenNode:
			child := &Node{green: e}
			child.appendText(b)
		case *GreenToken:
			*b = append(*b, e.Text...)
		}
	}
}

// Element is either a *Node or a *Token, returned when walking children.
type Element struct {
	Node  *Node
	Token *Token
}

// IsNode reports whether this element wraps a node (as opposed to a token).
func (e Element) IsNode() bool { return e.Node != nil }

// Children returns the node's immediate children as red cursors, offsets
// resolved relative to n.
func (n *Node) Children() []Element {
	out := make([]Element, 0, len(n.green.Children))
	off := n.offset
	for _, c := range n.green.Children {
		switch e := c.(type) {
		case *GreenNode:
			child := &Node{green: e, parent: n, offset: off}
			out = append(out, Element{Node: child})
			off += int(e.len)
		case *GreenToken:
			tok := &Token{green: e, parent: n, offset: off}
			out = append(out, Element{Token: tok})
			off += len(e.Text)
		}
	}
	return out
}

// ChildNodes returns only the node children, skipping tokens.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, e := range n.Children() {
		if e.IsNode() {
			out = append(out, e.Node)
		}
	}
	return out
}

// FirstChildOfKind returns the first immediate child node with kind k.
func (n *Node) FirstChildOfKind(k kind.Kind) *Node {
	for _, e := range n.Children() {
		if e.IsNode() && e.Node.Kind() == k {
			return e.Node
		}
	}
	return nil
}

// FirstTokenOfKind returns the first immediate token child with kind k.
func (n *Node) FirstTokenOfKind(k kind.Kind) *Token {
	for _, e := range n.Children() {
		if !e.IsNode() && e.Token.Kind() == k {
			return e.Token
		}
	}
	return nil
}

// Descendants returns every node in the subtree rooted at n, in pre-order,
// including n itself.
func (n *Node) Descendants() []*Node {
	out := []*Node{n}
	for _, e := range n.Children() {
		if e.IsNode() {
			out = append(out, e.Node.Descendants()...)
		}
	}
	return out
}

// Kind returns the token's syntax kind.
func (t *Token) Kind() kind.Kind { return t.green.Kind }

// Text returns the token's exact source text.
func (t *Token) Text() string { return t.green.Text }

// Range returns the token's absolute byte range.
func (t *Token) Range() Range { return Range{t.offset, t.offset + len(t.green.Text)} }

// Parent returns the token's parent node.
func (t *Token) Parent() *Node { return t.parent }
