package syntax

import (
	"fmt"

	"github.com/abiiranathan/tmplcheck/kind"
)

// SyntaxError is one recoverable parse diagnostic.
type SyntaxError struct {
	Message string
	Range   Range
}

// Parse is the result of parsing one document: a lossless CST root plus
// every syntax error encountered along the way, in source order.
type Parse struct {
	Root   *Node
	Errors []SyntaxError
}

// Parser drives a single recursive-descent pass over a Lexer's token
// stream, buffering the current token (skipping nothing — trivia is
// emitted into the tree, never silently discarded) and recording events
// for the tree builder.
type Parser struct {
	lex    *Lexer
	events []event
	errors []SyntaxError

	curStart int
	cur      Token
}

// NewParser creates a parser over src.
func NewParser(src string) *Parser {
	p := &Parser{lex: New(src)}
	p.cur = p.lex.Next()
	p.curStart = p.cur.Start
	return p
}

// curKind returns the kind of the current token.
func (p *Parser) curKind() kind.Kind { return p.cur.Kind }

func (p *Parser) curText() string { return p.cur.Text }

func (p *Parser) curRange() Range { return Range{p.cur.Start, p.cur.End()} }

func (p *Parser) atEOF() bool { return p.cur.Kind == kind.Eof }

// bump consumes the current token as a leaf in the tree and advances.
func (p *Parser) bump() {
	p.token(p.cur.Kind, p.cur.Text)
	p.advance()
}

// bumpAs consumes the current token but records it under a different kind
// (used rarely, e.g. to retag a malformed token as Error while keeping its
// text).
func (p *Parser) bumpAs(k kind.Kind) {
	p.token(k, p.cur.Text)
	p.advance()
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

// at reports whether the current token's kind is k.
func (p *Parser) at(k kind.Kind) bool { return p.cur.Kind == k }

func (p *Parser) atSet(s kind.Set) bool { return s.Contains(p.cur.Kind) }

// eatIf bumps and returns true if at k, else leaves the cursor untouched.
func (p *Parser) eatIf(k kind.Kind) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	return false
}

// eatSetIf bumps and returns true if the current token is in s.
func (p *Parser) eatSetIf(s kind.Set) bool {
	if p.atSet(s) {
		p.bump()
		return true
	}
	return false
}

// eatWhitespace consumes a single Whitespace token if present, reporting
// whether it did. Whitespace is always optional to consume this way —
// trivia is never required except via expectWhitespace.
func (p *Parser) eatWhitespace() bool {
	return p.eatIf(kind.Whitespace)
}

// peekIgnoreSpace returns the kind of the first non-whitespace token ahead,
// without consuming anything (it restores the lexer on return).
func (p *Parser) peekIgnoreSpace() kind.Kind {
	if p.cur.Kind != kind.Whitespace {
		return p.cur.Kind
	}
	cp := p.lex.Checkpoint()
	defer p.lex.Restore(cp)
	t := p.lex.Next()
	for t.Kind == kind.Whitespace {
		t = p.lex.Next()
	}
	return t.Kind
}

// atIgnoreSpace reports whether the first non-whitespace token ahead has
// kind k.
func (p *Parser) atIgnoreSpace(k kind.Kind) bool { return p.peekIgnoreSpace() == k }

// atLeftDelimAnd reports whether the current token opens an action whose
// keyword (ignoring the delimiter and any whitespace) is k. Used to decide
// whether to continue an ActionList (stop at `{{end`/`{{else`) without
// consuming the delimiter.
func (p *Parser) atLeftDelimAnd(k kind.Kind) bool {
	if !kind.LeftDelims.Contains(p.cur.Kind) {
		return false
	}
	cp := p.lex.Checkpoint()
	defer p.lex.Restore(cp)
	t := p.lex.Next() // consume the delimiter itself
	_ = t
	nt := p.lex.Next()
	for nt.Kind == kind.Whitespace {
		nt = p.lex.Next()
	}
	return nt.Kind == k
}

func (p *Parser) atLeftDelimAndSet(s kind.Set) bool {
	if !kind.LeftDelims.Contains(p.cur.Kind) {
		return false
	}
	cp := p.lex.Checkpoint()
	defer p.lex.Restore(cp)
	p.lex.Next()
	nt := p.lex.Next()
	for nt.Kind == kind.Whitespace {
		nt = p.lex.Next()
	}
	return s.Contains(nt.Kind)
}

// --- error handling -------------------------------------------------

func (p *Parser) error(msg string) {
	p.errors = append(p.errors, SyntaxError{Message: msg, Range: p.curRange()})
}

func (p *Parser) errorHere(msg string) {
	p.errors = append(p.errors, SyntaxError{Message: msg, Range: Range{p.cur.Start, p.cur.Start}})
}

// expect bumps the current token if it matches k, else reports a missing-
// token error without consuming anything (so the caller, typically via
// errRecover, decides how to resynchronize). Returns whether it matched.
func (p *Parser) expect(k kind.Kind) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	p.error(fmt.Sprintf("expected %v, found %v", k, p.cur.Kind))
	return false
}

// expectWhitespace reports a diagnostic if the current token is not
// Whitespace, without consuming anything — used where whitespace is
// syntactically required (e.g. between a call head and its first
// argument) but nothing would be gained by inserting a synthetic token.
func (p *Parser) expectWhitespace(context string) bool {
	if p.eatWhitespace() {
		return true
	}
	p.errorHere(fmt.Sprintf("expected whitespace %s", context))
	return false
}

// errAndEat reports msg at the current token, then consumes exactly one
// token, wrapping it in an Error node. Always makes progress.
func (p *Parser) errAndEat(msg string) {
	p.error(msg)
	m := p.start()
	p.bump()
	p.complete(m, kind.Error)
}

// errRecover reports msg, then either emits a zero-width error (if the
// current token belongs to recoverySet, meaning an enclosing production
// should consume it) or consumes one token into an Error node. This is the
// TokenSet-guided recovery device described in the component design: it
// guarantees that `{{$x := {{add 1 2}}` still parses the inner action as a
// well-formed ExprAction rather than swallowing it into the outer error.
func (p *Parser) errRecover(msg string, recoverySet kind.Set) {
	if p.atEOF() || p.atSet(recoverySet) {
		p.errorHere(msg)
		return
	}
	p.errAndEat(msg)
}

// expectRecover is expect() followed by errRecover() on failure.
func (p *Parser) expectRecover(k kind.Kind, recoverySet kind.Set) bool {
	if p.expect(k) {
		return true
	}
	p.errRecover(fmt.Sprintf("expected %v", k), recoverySet)
	return false
}

// Parse lexes and parses src into a lossless CST plus syntax errors.
func Parse(src string) Parse {
	p := NewParser(src)
	parseRoot(p)
	green := buildGreenTree(p.events)
	return Parse{Root: NewRoot(green), Errors: p.errors}
}
