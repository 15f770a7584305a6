package syntax

import "github.com/abiiranathan/tmplcheck/kind"

// parseRoot parses an entire document: Root wraps a single ActionList
// spanning from the start of input to EOF.
func parseRoot(p *Parser) {
	m := p.start()
	actionList(p)
	if !p.atEOF() {
		// Defensive: actionList only stops at EOF or `{{end`/`{{else`,
		// which at the root level are themselves errors; drain anything
		// left so the round-trip invariant holds even on wildly malformed
		// input (e.g. a stray top-level `{{end}}`).
		for !p.atEOF() {
			m2 := p.start()
			p.error("unexpected `{{end}}` or `{{else}}` with no matching opening clause")
			p.bump()
			p.complete(m2, kind.Error)
			actionList(p)
		}
	}
	p.complete(m, kind.Root)
}

// actionList parses a run of Text and Action nodes, stopping at EOF or at
// a left delimiter introducing `end` or `else` (which belong to an
// enclosing compound action).
func actionList(p *Parser) {
	m := p.start()
	for !p.atEOF() && !p.atLeftDelimAndSet(kind.ActionListTerminators) {
		textOrAction(p)
	}
	p.complete(m, kind.ActionList)
}

func textOrAction(p *Parser) {
	if p.eatIf(kind.Text) {
		return
	}
	if !kind.LeftDelims.Contains(p.curKind()) {
		p.errAndEat("expected left action delimiter")
		return
	}
	switch p.peekIgnoreSpace() {
	case kind.If:
		ifAction(p)
	case kind.With:
		withAction(p)
	case kind.Range:
		rangeAction(p)
	case kind.While:
		whileAction(p)
	case kind.Try:
		tryCatchAction(p)
	case kind.Define:
		templateDefinition(p)
	case kind.Block:
		templateBlock(p)
	case kind.Template:
		templateInvocation(p)
	case kind.Return:
		returnAction(p)
	case kind.Break:
		breakAction(p)
	case kind.Continue:
		continueAction(p)
	case kind.Comment:
		commentAction(p)
	default:
		exprAction(p)
	}
}

func leftDelim(p *Parser) {
	if !p.eatSetIf(kind.LeftDelims) {
		p.errAndEat("expected left action delimiter")
	}
}

// rightDelim consumes any stray tokens up to the next delimiter (reporting
// each as "unexpected X in action") before consuming the right delimiter
// itself.
func rightDelim(p *Parser) {
	for !p.atSet(kind.ActionDelims) && !p.atEOF() {
		if p.atKind(kind.InvalidCharInAction) {
			// The lexer already reported this; just consume it.
			p.bump()
			continue
		}
		p.errAndEat("unexpected " + p.curKind().String() + " in action")
	}
	if !p.eatSetIf(kind.RightDelims) {
		p.errRecover("expected right action delimiter", kind.LeftDelims)
	}
}

func (p *Parser) atKind(k kind.Kind) bool { return p.curKind() == k }

func commentAction(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.Comment)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.CommentAction)
}

func endClause(p *Parser, parentContext string) {
	if !p.atLeftDelimAnd(kind.End) {
		p.errRecover("missing end clause for "+parentContext, kind.LeftDelims)
		return
	}
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.End)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.EndClause)
}

func exprAction(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	exprPipeline(p, "after `{{`")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.ExprAction)
}

// ---- if / with (identical shape, different keyword) ----

func ifAction(p *Parser) {
	m := p.start()
	clauseKind := ifClause(p)
	_ = clauseKind
	actionList(p)
	for p.atLeftDelimAnd(kind.Else) {
		elseBranch(p)
	}
	endClause(p, "if action")
	p.complete(m, kind.IfConditional)
}

func ifClause(p *Parser) kind.Kind {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.If)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space between `if` keyword and condition")
	}
	exprPipeline(p, "after `if` keyword")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.IfClause)
	return kind.IfClause
}

func withAction(p *Parser) {
	m := p.start()
	withClause(p)
	actionList(p)
	for p.atLeftDelimAnd(kind.Else) {
		elseBranch(p)
	}
	endClause(p, "with action")
	p.complete(m, kind.WithConditional)
}

func withClause(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.With)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space between `with` keyword and condition")
	}
	exprPipeline(p, "after `with` keyword")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.WithClause)
}

func elseBranch(p *Parser) {
	m := p.start()
	elseClause(p)
	actionList(p)
	p.complete(m, kind.ElseBranch)
}

func elseClause(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.expect(kind.Else)
	p.eatWhitespace()
	switch {
	case p.atSet(kind.RightDelims):
		p.bump()
	case p.atKind(kind.If):
		p.bump()
		exprPipeline(p, "after `else if`")
		p.eatWhitespace()
		rightDelim(p)
	default:
		p.errRecover("expected `if` keyword or right action delimiter after `else` keyword", kind.LeftDelims)
	}
	p.complete(m, kind.ElseClause)
}

// ---- range ----

func rangeAction(p *Parser) {
	m := p.start()
	rangeClause(p)
	actionList(p)
	if p.atLeftDelimAnd(kind.Else) {
		elseBranch(p)
	}
	endClause(p, "range action")
	p.complete(m, kind.RangeLoop)
}

func rangeClause(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.Range)
	hadSpace := p.eatWhitespace()

	// Optional iteration variables: Var ("," Var)? (":=" | "=")
	if p.atKind(kind.Var) {
		cp := p.lex.Checkpoint()
		savedEvents := len(p.events)
		m2 := p.start()
		p.bump()
		if p.atKind(kind.Comma) {
			p.bump()
			p.eatWhitespace()
			p.expect(kind.Var)
		}
		p.eatWhitespace()
		if p.atKind(kind.ColonEq) || p.atKind(kind.Eq) {
			p.bump()
			p.abandon(m2)
		} else {
			// Not actually a declaration — this was the range expression
			// itself (e.g. `{{range $items}}`); undo and reparse as expr.
			// Truncating the event log back to savedEvents already discards
			// m2 and everything opened after it, so there is nothing left
			// to abandon (doing so would index past the truncated slice).
			p.events = p.events[:savedEvents]
			p.lex.Restore(cp)
			_ = m2
		}
	}
	if sawKw && hadSpace {
		p.eatWhitespace()
	}
	exprPipeline(p, "after `range` keyword")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.RangeClause)
}

// ---- while ----

func whileAction(p *Parser) {
	m := p.start()
	whileClause(p)
	actionList(p)
	if p.atLeftDelimAnd(kind.Else) {
		elseBranch(p)
	}
	endClause(p, "while action")
	p.complete(m, kind.WhileLoop)
}

func whileClause(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.While)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space between `while` keyword and condition")
	}
	exprPipeline(p, "after `while` keyword")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.WhileClause)
}

// ---- try/catch ----

func tryCatchAction(p *Parser) {
	m := p.start()
	tryClause(p)
	actionList(p)
	catchClause(p)
	actionList(p)
	endClause(p, "try-catch action")
	p.complete(m, kind.TryCatchAction)
}

func tryClause(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.Try)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.TryClause)
}

func catchClause(p *Parser) {
	if !p.atLeftDelimAnd(kind.Catch) {
		p.errRecover("missing catch clause for try action", kind.LeftDelims)
		return
	}
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.Catch)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.CatchClause)
}

// ---- associated templates ----

func templateDefinition(p *Parser) {
	m := p.start()
	templateClause(p, kind.Define, "after `define` keyword")
	actionList(p)
	endClause(p, "template definition")
	p.complete(m, kind.TemplateDefinition)
}

func templateBlock(p *Parser) {
	m := p.start()
	templateClause(p, kind.Block, "after `block` keyword")
	actionList(p)
	endClause(p, "template block")
	p.complete(m, kind.TemplateBlock)
}

// templateClause parses `{{define "name"}}` / `{{block "name" pipeline}}`;
// block additionally accepts an optional context pipeline after the name.
func templateClause(p *Parser, kw kind.Kind, ctx string) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kw)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space " + ctx)
	}
	p.expectRecover(kind.InterpretedString, kind.ActionDelims)
	if kw == kind.Block {
		p.eatWhitespace()
		if !p.atSet(kind.ActionDelims) {
			exprPipeline(p, "after template block name")
		}
	}
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.TemplateClause)
}

func templateInvocation(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.Template)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space after `template` keyword")
	}
	p.expectRecover(kind.InterpretedString, kind.ActionDelims)
	p.eatWhitespace()
	if !p.atSet(kind.ActionDelims) {
		exprPipeline(p, "after template invocation name")
	}
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.TemplateInvocation)
}

// ---- return / break / continue ----

func returnAction(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	sawKw := p.expect(kind.Return)
	if sawKw && !p.eatWhitespace() {
		p.errorHere("expected space after `return` keyword")
	}
	exprPipeline(p, "after `return` keyword")
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.ReturnAction)
}

func breakAction(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.Break)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.LoopBreak)
}

func continueAction(p *Parser) {
	m := p.start()
	leftDelim(p)
	p.eatWhitespace()
	p.expect(kind.Continue)
	p.eatWhitespace()
	rightDelim(p)
	p.complete(m, kind.LoopContinue)
}
