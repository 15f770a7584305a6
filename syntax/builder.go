package syntax

import "github.com/abiiranathan/tmplcheck/kind"

type eventTag uint8

const (
	evTombstone eventTag = iota
	evStart
	evFinish
	evToken
)

// event is one step of the parser's output: a flat log that a second pass
// turns into a green tree. Representing parsing as a flat log (rather than
// building the tree inline) is what makes retroactive re-parenting
// (Marker.Precede, "wrap") possible without ever moving already-emitted
// tokens: Precede just teaches an earlier Start event to point forward at
// a later one that should become its parent.
type event struct {
	tag      eventTag
	nodeKind kind.Kind // valid when tag == evStart
	tokKind  kind.Kind // valid when tag == evToken
	tokText  string    // valid when tag == evToken

	// forwardParent, set only when tag == evStart, is the distance (in
	// event-index units) to another evStart event that should become this
	// node's parent once the tree is built. Zero means "no forward parent."
	forwardParent int
}

// Marker refers to a not-yet-completed evStart event.
type Marker struct {
	pos int
}

// Completed refers to a finished node, usable as the target of Precede.
type Completed struct {
	pos int
}

// start opens a new, as-yet-unkinded node at the current position.
func (p *Parser) start() Marker {
	pos := len(p.events)
	p.events = append(p.events, event{tag: evStart})
	return Marker{pos: pos}
}

// complete finishes m as a node of kind k.
func (p *Parser) complete(m Marker, k kind.Kind) Completed {
	p.events[m.pos].tag = evStart
	p.events[m.pos].nodeKind = k
	p.events = append(p.events, event{tag: evFinish})
	return Completed{pos: m.pos}
}

// abandon discards m: legal only when no marker opened after m is still
// open (i.e. m has no uncompleted children), which holds everywhere this
// parser calls it.
func (p *Parser) abandon(m Marker) {
	if m.pos == len(p.events)-1 {
		p.events = p.events[:m.pos]
		return
	}
	p.events[m.pos].tag = evTombstone
}

// precede returns a new Marker that, once completed, becomes the parent of
// the already-completed node c. This is the "wrap" operation: it lets the
// parser decide, after the fact, that a chain of previously emitted events
// (e.g. a bare identifier already parsed as an Atom) is actually the first
// child of some larger production (e.g. a FuncCall).
func (p *Parser) precede(c Completed) Marker {
	newMarker := p.start()
	p.events[c.pos].forwardParent = newMarker.pos - c.pos
	return newMarker
}

// token appends a leaf token event with the given kind and text.
func (p *Parser) token(k kind.Kind, text string) {
	p.events = append(p.events, event{tag: evToken, tokKind: k, tokText: text})
}

// buildGreenTree consumes a completed event log and produces the root
// GreenNode. Events form a well-nested sequence once forward-parent chains
// are resolved; a virtual sentinel builder at the bottom of the stack
// collects the final root's children (there must be exactly one).
func buildGreenTree(events []event) *GreenNode {
	type builder struct {
		kind     kind.Kind
		children []GreenElement
	}
	var stack []*builder

	for i := 0; i < len(events); i++ {
		ev := &events[i]
		switch ev.tag {
		case evTombstone:
			continue
		case evStart:
			if ev.forwardParent != 0 {
				// Walk the forward-parent chain outward, collecting node
				// kinds, then push builders from outermost to innermost so
				// the resulting nesting is correct. Each link is consumed
				// (tombstoned) so the main loop skips it when it arrives.
				idx := i
				var kinds []kind.Kind
				for {
					kinds = append(kinds, events[idx].nodeKind)
					fp := events[idx].forwardParent
					events[idx].tag = evTombstone
					if fp == 0 {
						break
					}
					idx += fp
				}
				for j := len(kinds) - 1; j >= 0; j-- {
					stack = append(stack, &builder{kind: kinds[j]})
				}
			} else {
				stack = append(stack, &builder{kind: ev.nodeKind})
			}
		case evFinish:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := newGreenNode(top.kind, top.children)
			if len(stack) == 0 {
				return node
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, node)
		case evToken:
			top := stack[len(stack)-1]
			top.children = append(top.children, &GreenToken{Kind: ev.tokKind, Text: ev.tokText})
		}
	}
	// Unreachable for a well-formed event log: Root's Finish always
	// returns above.
	if len(stack) == 0 {
		return newGreenNode(kind.Root, nil)
	}
	return newGreenNode(stack[0].kind, stack[0].children)
}
