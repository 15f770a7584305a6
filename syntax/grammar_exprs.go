package syntax

import "github.com/abiiranathan/tmplcheck/kind"

// calleeClass classifies a parsed atom by how trailing call arguments
// attach to it: a bare identifier becomes a zero-arg FuncCall that may grow
// more positional args in place; anything else that can be called (a
// parenthesized expression, a field chain, a variable) wraps into an
// ExprCall instead; some atoms (declarations, assignments, literals,
// context access) cannot be called at all.
type calleeClass uint8

const (
	notCallable calleeClass = iota
	bareIdentCallable
	genericCallable
)

var atomStarters = kind.Of(
	kind.LeftParen, kind.Ident, kind.Dot, kind.Field, kind.Var,
	kind.Bool, kind.Int, kind.Float, kind.InterpretedString, kind.RawString, kind.Char,
)

// exprPipeline parses `Expr ("|" PipelineStage)*`, wrapping in a Pipeline
// node only when at least one stage is present.
func exprPipeline(p *Parser, ctx string) {
	c := expr(p, ctx)
	if !p.atIgnoreSpace(kind.Pipe) {
		return
	}
	pipe := p.precede(c)
	for p.atIgnoreSpace(kind.Pipe) {
		pipelineStage(p)
	}
	p.complete(pipe, kind.Pipeline)
}

func pipelineStage(p *Parser) {
	m := p.start()
	p.eatWhitespace()
	p.expect(kind.Pipe)
	p.eatWhitespace()
	stageCallee(p)
	p.complete(m, kind.PipelineStage)
}

// stageCallee parses the call expression that makes up one pipeline
// stage: an atom plus any field chain and trailing arguments.
func stageCallee(p *Parser) {
	c, class := atom(p, false)
	c = maybeFieldChain(p, c)
	trailingCallArgs(p, c, class)
}

// expr parses `Atom TrailingFields? TrailingArgs?`.
func expr(p *Parser, ctx string) Completed {
	c, class := atom(p, false)
	_ = ctx
	fieldChained := false
	if p.atKind(kind.Field) {
		c = maybeFieldChain(p, c)
		fieldChained = true
	}
	if fieldChained && class == bareIdentCallable {
		class = genericCallable
	}
	return trailingCallArgs(p, c, class)
}

// arg parses an expression usable as a call argument: an atom plus any
// field chain, but never its own trailing call arguments (so
// `add currentHour 2` parses as `add(currentHour(), 2)`, not
// `add(currentHour(2))`) and never a declaration or assignment.
func arg(p *Parser) Completed {
	c, _ := atom(p, true)
	return maybeFieldChain(p, c)
}

func maybeFieldChain(p *Parser, c Completed) Completed {
	if !p.atKind(kind.Field) {
		return c
	}
	m := p.precede(c)
	for p.atKind(kind.Field) {
		p.bump()
	}
	return p.complete(m, kind.ExprFieldChain)
}

// atCallArgStart reports whether, skipping exactly one optional
// Whitespace token, an argument-starting token follows, without consuming
// anything.
func (p *Parser) atCallArgStart() bool {
	if p.curKind() != kind.Whitespace {
		return false
	}
	cp := p.lex.Checkpoint()
	defer p.lex.Restore(cp)
	t := p.lex.Next()
	return atomStarters.Contains(t.Kind)
}

func trailingCallArgs(p *Parser, c Completed, class calleeClass) Completed {
	if class == notCallable {
		return c
	}
	if !p.atCallArgStart() {
		return c
	}
	wrapKind := kind.ExprCall
	if class == bareIdentCallable {
		wrapKind = kind.FuncCall
	}
	m := p.precede(c)
	for p.atCallArgStart() {
		p.expectWhitespace("before call argument")
		arg(p)
	}
	return p.complete(m, wrapKind)
}

func atom(p *Parser, argPos bool) (Completed, calleeClass) {
	switch p.curKind() {
	case kind.LeftParen:
		return parenthesized(p), genericCallable
	case kind.Ident:
		m := p.start()
		p.bump()
		return p.complete(m, kind.FuncCall), bareIdentCallable
	case kind.Dot:
		m := p.start()
		p.bump()
		return p.complete(m, kind.ContextAccess), notCallable
	case kind.Field:
		m := p.start()
		for p.atKind(kind.Field) {
			p.bump()
		}
		return p.complete(m, kind.ContextFieldChain), genericCallable
	case kind.Var:
		return varAtom(p, argPos), genericCallable
	case kind.Bool, kind.Int, kind.Float, kind.InterpretedString, kind.RawString, kind.Char:
		m := p.start()
		p.bump()
		return p.complete(m, p.prevLiteralKindAsNode()), notCallable
	default:
		m := p.start()
		p.error("expected expression, found " + p.curKind().String())
		if !p.atEOF() {
			p.bump()
		}
		return p.complete(m, kind.Error), notCallable
	}
}

// prevLiteralKindAsNode returns the node kind wrapping a just-bumped
// literal token; literals are represented by a node of the same kind as
// the token for simplicity of the typed AST view (a literal node has
// exactly one child, the literal token itself).
func (p *Parser) prevLiteralKindAsNode() kind.Kind {
	if len(p.events) == 0 {
		return kind.Error
	}
	last := p.events[len(p.events)-1]
	if last.tag == evToken {
		return last.tokKind
	}
	return kind.Error
}

func parenthesized(p *Parser) Completed {
	m := p.start()
	p.expect(kind.LeftParen)
	p.eatWhitespace()
	exprPipeline(p, "inside parentheses")
	p.eatWhitespace()
	p.expectRecover(kind.RightParen, kind.ActionDelims)
	return p.complete(m, kind.ParenthesizedExpr)
}

// varAtom dispatches a Var token to VarDecl (`:=`), VarAssign (`=`,
// whitespace required before but not after), or VarAccess. In an argument
// position, declaration and assignment are both disallowed — only
// VarAccess is legal there.
func varAtom(p *Parser, argPos bool) Completed {
	m := p.start()
	p.bump() // the Var token itself

	if !argPos && p.atIgnoreSpaceNoConsume(kind.ColonEq) {
		p.eatWhitespace()
		p.expect(kind.ColonEq)
		p.eatWhitespace()
		expr(p, "after `:=`")
		return p.complete(m, kind.VarDecl)
	}

	if !argPos && p.curKind() == kind.Whitespace && p.atIgnoreSpaceNoConsume(kind.Eq) {
		p.eatWhitespace()
		p.expect(kind.Eq)
		p.eatWhitespace()
		expr(p, "after `=`")
		return p.complete(m, kind.VarAssign)
	}

	return p.complete(m, kind.VarAccess)
}

// atIgnoreSpaceNoConsume is peekIgnoreSpace equality without requiring the
// caller to separately look up the kind.
func (p *Parser) atIgnoreSpaceNoConsume(k kind.Kind) bool {
	return p.peekIgnoreSpace() == k
}
