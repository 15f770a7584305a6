package syntax

import "github.com/abiiranathan/tmplcheck/kind"

// This file and ast_nodes.go provide a typed view over the lossless CST:
// each wrapper is a thin struct holding the underlying *Node, with
// accessors that pick out specific children by kind. Productions that can
// resolve to one of several alternatives (an expression, a clause) are
// represented as a sum type via an unexported marker method, dispatched
// with a type switch in a Classify function — plain Go, no reflection and
// no Rust-style trait downcasting.

// ExprNode is implemented by every concrete expression wrapper. Use
// ClassifyExpr to recover the concrete type of an expression node.
type ExprNode interface {
	isExprNode()
	Syntax() *Node
}

// ClassifyExpr inspects n's kind and returns the matching typed wrapper, or
// nil if n is not an expression node at all.
func ClassifyExpr(n *Node) ExprNode {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case kind.FuncCall:
		return FuncCall{n}
	case kind.ExprCall:
		return ExprCall{n}
	case kind.ParenthesizedExpr:
		return ParenthesizedExpr{n}
	case kind.Pipeline:
		return Pipeline{n}
	case kind.ContextAccess:
		return ContextAccess{n}
	case kind.ContextFieldChain:
		return ContextFieldChain{n}
	case kind.ExprFieldChain:
		return ExprFieldChain{n}
	case kind.VarAccess:
		return VarAccess{n}
	case kind.VarDecl:
		return VarDecl{n}
	case kind.VarAssign:
		return VarAssign{n}
	case kind.Bool, kind.Int, kind.Float, kind.InterpretedString, kind.RawString, kind.Char:
		return Literal{n}
	default:
		return nil
	}
}

// ActionNode is implemented by every top-level action wrapper appearing in
// an ActionList.
type ActionNode interface {
	isActionNode()
	Syntax() *Node
}

// ClassifyAction inspects n's kind and returns the matching typed wrapper,
// or nil if n is not an action node (e.g. it is a Text node — callers
// should check n.Kind() == kind.Text separately for literal text runs).
func ClassifyAction(n *Node) ActionNode {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case kind.CommentAction:
		return CommentAction{n}
	case kind.ExprAction:
		return ExprActionNode{n}
	case kind.IfConditional:
		return IfConditional{n}
	case kind.WithConditional:
		return WithConditional{n}
	case kind.RangeLoop:
		return RangeLoop{n}
	case kind.WhileLoop:
		return WhileLoop{n}
	case kind.TryCatchAction:
		return TryCatchAction{n}
	case kind.TemplateDefinition:
		return TemplateDefinition{n}
	case kind.TemplateBlock:
		return TemplateBlock{n}
	case kind.TemplateInvocation:
		return TemplateInvocation{n}
	case kind.ReturnAction:
		return ReturnActionNode{n}
	case kind.LoopBreak:
		return LoopBreakNode{n}
	case kind.LoopContinue:
		return LoopContinueNode{n}
	default:
		return nil
	}
}

// ActionListItem is one child of an ActionList: exactly one of Text (a
// literal text run) or Action (a classified compound/simple action) is
// set.
type ActionListItem struct {
	Text   *Node
	Action ActionNode
}

// ActionListItems returns the typed children of an ActionList node.
func ActionListItems(actionList *Node) []ActionListItem {
	children := actionList.ChildNodes()
	out := make([]ActionListItem, 0, len(children))
	for _, c := range children {
		if c.Kind() == kind.Text {
			out = append(out, ActionListItem{Text: c})
			continue
		}
		out = append(out, ActionListItem{Action: ClassifyAction(c)})
	}
	return out
}

// pipelineExpr returns the single Expr-kind child of a clause-like node
// (IfClause, WithClause, RangeClause, WhileClause, ReturnAction, ...),
// unwrapping a Pipeline node's leading expr when no stages are present is
// unnecessary since Pipeline itself is a valid ExprNode.
func pipelineExpr(clause *Node) ExprNode {
	for _, c := range clause.ChildNodes() {
		if e := ClassifyExpr(c); e != nil {
			return e
		}
	}
	return nil
}
