package scope

import (
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// dollar is the name of the special, always-predeclared context variable.
const dollar = "$"

// Analyze walks a parsed document's tree pre-order, building its scope tree
// and resolving every `$name` use to a declaration. root is the Root node
// returned by syntax.Parse.
func Analyze(root *syntax.Node) *Info {
	a := &analyzer{
		info: &Info{
			Declarations: make(map[DeclID]*DeclaredVar),
			ResolvedRefs: make(map[syntax.Range]DeclID),
			DeclByRange:  make(map[syntax.Range]DeclID),
		},
	}
	list := root.FirstChildOfKind(kind.ActionList)
	rootScope := a.openScope(nil, root.Range())
	a.predeclareDollar(rootScope)
	a.walkActionList(list, rootScope)
	return a.info
}

type analyzer struct {
	info   *Info
	nextID DeclID
}

func (a *analyzer) openScope(parent *Scope, r syntax.Range) *Scope {
	s := newScope(parent, r)
	a.info.Scopes = append(a.info.Scopes, s)
	return s
}

func (a *analyzer) predeclareDollar(s *Scope) {
	id := a.nextID
	a.nextID++
	d := &DeclaredVar{ID: id, Name: dollar, Synthetic: true}
	a.info.Declarations[id] = d
	s.declared[id] = d
	s.byName[dollar] = id
	s.Order = append(s.Order, id)
}

// declare inserts a new binding for name into s, visible starting at
// visibleFrom, and records its declaration site. The synthetic `$` binding
// is registered by predeclareDollar directly, not through declare.
func (a *analyzer) declare(s *Scope, name string, declRange syntax.Range, visibleFrom int) {
	id := a.nextID
	a.nextID++
	d := &DeclaredVar{ID: id, Name: name, VisibleFrom: visibleFrom, DeclRange: declRange}
	a.info.Declarations[id] = d
	a.info.DeclByRange[declRange] = id
	s.declared[id] = d
	s.byName[name] = id
	s.Order = append(s.Order, id)
}

func (a *analyzer) resolveUse(use *syntax.Node, name string, s *Scope) {
	a.resolve(use, name, s, "undefined variable "+name)
}

// resolveAssign resolves a VarAssign's target the same way resolveUse does,
// but under the error table's distinct wording for an assignment whose
// target has no reachable declaration (spec.md §7's "assignment to
// undeclared variable", as opposed to a bare use's "undefined variable").
func (a *analyzer) resolveAssign(use *syntax.Node, name string, s *Scope) {
	a.resolve(use, name, s, "assignment to undeclared variable "+name)
}

func (a *analyzer) resolve(use *syntax.Node, name string, s *Scope, errMsg string) {
	r := use.Range()
	if d, ok := s.Lookup(name, r.Start); ok {
		a.info.ResolvedRefs[r] = d.ID
		return
	}
	a.info.Errors = append(a.info.Errors, Error{
		Message: errMsg,
		Range:   r,
	})
}

// walkActionList processes every item of an ActionList's children in
// order, within a single scope shared across the whole list (so a
// declaration in one sibling is visible to later siblings).
func (a *analyzer) walkActionList(list *syntax.Node, s *Scope) {
	if list == nil {
		return
	}
	for _, item := range syntax.ActionListItems(list) {
		if item.Action == nil {
			continue // a Text run
		}
		a.walkAction(item.Action, s)
	}
}

func (a *analyzer) walkAction(action syntax.ActionNode, s *Scope) {
	switch n := action.(type) {
	case syntax.CommentAction:
		// nothing to resolve

	case syntax.ExprActionNode:
		a.walkExpr(n.Expr(), s)

	case syntax.IfConditional:
		a.walkConditional(s, n.Clause(), n.Body(), n.ElseBranches())

	case syntax.WithConditional:
		a.walkConditional(s, n.Clause(), n.Body(), n.ElseBranches())

	case syntax.RangeLoop:
		a.walkRange(n, s)

	case syntax.WhileLoop:
		clauseScope := a.openScope(s, n.Syntax().Range())
		a.walkExpr(n.Expr(), clauseScope)
		bodyScope := a.openScope(clauseScope, bodyRange(n.Body(), n.Syntax()))
		a.walkActionList(n.Body(), bodyScope)
		if eb := n.ElseBranch(); eb != nil {
			a.walkElseBranch(*eb, clauseScope)
		}

	case syntax.TryCatchAction:
		tryScope := a.openScope(s, bodyRange(n.TryBody(), n.Syntax()))
		a.walkActionList(n.TryBody(), tryScope)
		catchScope := a.openScope(s, bodyRange(n.CatchBody(), n.Syntax()))
		a.walkActionList(n.CatchBody(), catchScope)

	case syntax.TemplateDefinition:
		bodyScope := a.openScope(nil, bodyRange(n.Body(), n.Syntax()))
		a.predeclareDollar(bodyScope)
		a.walkActionList(n.Body(), bodyScope)

	case syntax.TemplateBlock:
		// The block's context pipeline is an expression evaluated at the
		// reference site, so it resolves against the enclosing scope; only
		// the block's body gets the fresh detached scope.
		a.walkExpr(n.Expr(), s)
		bodyScope := a.openScope(nil, bodyRange(n.Body(), n.Syntax()))
		a.predeclareDollar(bodyScope)
		a.walkActionList(n.Body(), bodyScope)

	case syntax.TemplateInvocation:
		a.walkExpr(n.Expr(), s)

	case syntax.ReturnActionNode:
		a.walkExpr(n.Expr(), s)

	case syntax.LoopBreakNode, syntax.LoopContinueNode:
		// nothing to resolve
	}
}

// walkConditional handles the shared if/with shape: a controlling clause,
// its body, and a chain of else/else-if branches each parented to the
// previous clause's scope (not the previous body's).
func (a *analyzer) walkConditional(enclosing *Scope, clause syntax.ExprNode, body *syntax.Node, elseBranches []syntax.ElseBranch) {
	clauseScope := a.openScope(enclosing, clauseExprRange(clause, enclosing))
	a.walkExpr(clause, clauseScope)
	bodyScope := a.openScope(clauseScope, bodyRange(body, nil))
	a.walkActionList(body, bodyScope)

	prev := clauseScope
	for _, branch := range elseBranches {
		prev = a.walkElseBranch(branch, prev)
	}
}

// walkElseBranch opens the branch's own clause scope (parented to prev,
// the previous clause's scope) and its body scope (parented to that), and
// returns the branch's clause scope so the next branch in the chain can
// parent off of it.
func (a *analyzer) walkElseBranch(branch syntax.ElseBranch, prev *Scope) *Scope {
	clauseScope := a.openScope(prev, branch.Syntax().Range())
	if cond := branch.Cond(); cond != nil {
		a.walkExpr(cond, clauseScope)
	}
	bodyScope := a.openScope(clauseScope, bodyRange(branch.Body(), nil))
	a.walkActionList(branch.Body(), bodyScope)
	return clauseScope
}

func (a *analyzer) walkRange(n syntax.RangeLoop, enclosing *Scope) {
	clauseScope := a.openScope(enclosing, n.ClauseRange())
	a.walkExpr(n.Expr(), clauseScope)

	if n.IsDecl() {
		visibleFrom := n.ClauseRange().End
		for _, v := range n.IterVars() {
			a.declare(clauseScope, v.Text(), v.Range(), visibleFrom)
		}
	}

	bodyScope := a.openScope(clauseScope, bodyRange(n.Body(), n.Syntax()))
	a.walkActionList(n.Body(), bodyScope)

	if eb := n.ElseBranch(); eb != nil {
		// The range's else branch runs when the collection is empty, with
		// none of the iteration variables in scope; parent it off the
		// range's enclosing scope, not its clause scope.
		a.walkElseBranch(*eb, enclosing)
	}
}

// walkExpr recurses through an expression tree, resolving every VarAccess
// and VarAssign use and inserting every VarDecl's binding into s. A
// VarDecl/VarAssign's value is walked before its own name is resolved or
// declared, since the right-hand side evaluates in the scope as it stood
// before this binding.
func (a *analyzer) walkExpr(e syntax.ExprNode, s *Scope) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case syntax.VarAccess:
		a.resolveUse(v.Syntax(), v.Name(), s)

	case syntax.VarDecl:
		a.walkExpr(v.Value(), s)
		a.declare(s, v.Name(), v.Syntax().Range(), v.Syntax().Range().End)

	case syntax.VarAssign:
		a.walkExpr(v.Value(), s)
		a.resolveAssign(v.Syntax(), v.Name(), s)

	case syntax.FuncCall:
		for _, arg := range v.Args() {
			a.walkExpr(arg, s)
		}

	case syntax.ExprCall:
		a.walkExpr(v.Callee(), s)
		for _, arg := range v.Args() {
			a.walkExpr(arg, s)
		}

	case syntax.ParenthesizedExpr:
		a.walkExpr(v.Inner(), s)

	case syntax.Pipeline:
		a.walkExpr(v.Head(), s)
		for _, stage := range v.Stages() {
			a.walkExpr(stage.Call(), s)
		}

	case syntax.ExprFieldChain:
		a.walkExpr(v.Base(), s)

	case syntax.ContextAccess, syntax.ContextFieldChain, syntax.Literal:
		// leaves: nothing to resolve
	}
}

// bodyRange returns an ActionList's range, falling back to the enclosing
// action's range if the body is empty (absent, so it has no node of its
// own to measure).
func bodyRange(body *syntax.Node, fallback *syntax.Node) syntax.Range {
	if body != nil {
		return body.Range()
	}
	if fallback != nil {
		return fallback.Range()
	}
	return syntax.Range{}
}

// clauseExprRange picks a reasonable range for a clause scope when the
// clause expression itself is absent (a malformed parse); it falls back to
// the enclosing scope's range rather than the zero range so lookups against
// it don't misbehave.
func clauseExprRange(clause syntax.ExprNode, enclosing *Scope) syntax.Range {
	if clause != nil {
		return clause.Syntax().Range()
	}
	if enclosing != nil {
		return enclosing.Range
	}
	return syntax.Range{}
}
