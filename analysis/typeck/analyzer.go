package typeck

import (
	"fmt"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/kind"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// Analyze runs the flow/type analyzer over a parsed, scope-resolved
// document: it assigns a type to every expression, tracks return/throw
// types and flow facts through every block, and checks every hoisted
// associated template against the union of its observed call-site context
// types.
func Analyze(root *syntax.Node, scopeInfo *scope.Info, environment *env.Environment) *Info {
	c := &checker{
		scopeInfo:   scopeInfo,
		environment: environment,
		info: &Info{
			ExprTypes:      make(map[syntax.Range]env.Ty),
			AssocTemplates: make(map[string]*AssocTemplate),
		},
		callStack: make(map[string]bool),
		recording: true,
	}

	c.hoistAssocTemplates(root)

	list := root.FirstChildOfKind(kind.ActionList)
	rootBlock := newBlock(Other, nil, environment.InitialContextTy)
	c.walkActionList(list, rootBlock)

	c.finalPass = true
	for _, name := range c.assocOrder {
		c.recording = true
		c.checkAssocTemplateFinal(c.info.AssocTemplates[name])
	}

	return c.info
}

type checker struct {
	scopeInfo   *scope.Info
	environment *env.Environment
	info        *Info

	// assocOrder preserves hoisting order so the final recording pass is
	// deterministic rather than ranging over a map.
	assocOrder []string

	// callStack guards instantiate_template against infinite recursion: a
	// template already being checked on the current instantiation chain
	// returns Any instead of re-entering itself.
	callStack map[string]bool

	// finalPass is true only during the last, output-recording walk over
	// every hoisted associated template's body; instantiate_template calls
	// made during that walk never grow the cache or re-walk a body, they
	// only read what speculative exploration already computed (or fall
	// back to Any).
	finalPass bool

	// recording gates whether reportError/recordType/recordFieldAccess
	// actually write to Info. It is true for the single direct walk over
	// the document root and for each associated template's dedicated
	// final pass, and pushed false for every speculative body walk
	// instantiate_template performs while exploring a new context type —
	// otherwise a template instantiated from N distinct call sites would
	// have its own errors and resolved accesses duplicated N times before
	// the final pass even runs.
	recording bool
}

func (c *checker) reportError(msg string, r syntax.Range) {
	if !c.recording {
		return
	}
	c.info.Errors = append(c.info.Errors, Error{Message: msg, Range: r})
}

func (c *checker) recordType(r syntax.Range, ty env.Ty) {
	if !c.recording {
		return
	}
	c.info.ExprTypes[r] = ty
}

func (c *checker) recordFieldAccess(base env.Ty, tok *syntax.Token, resolved bool) {
	if !c.recording {
		return
	}
	c.info.FieldMethodAccess = append(c.info.FieldMethodAccess, FieldMethodAccessInfo{
		BaseTy:   base,
		Name:     fieldName(tok),
		Resolved: resolved,
		Range:    syntax.Range{Start: tok.Range().Start + 1, End: tok.Range().End},
	})
}

// fieldName returns a Field token's name without its leading `.`.
func fieldName(tok *syntax.Token) string { return tok.Text()[1:] }

// rootContextTy returns the context type of b's region's own root block —
// the nearest ancestor (including b itself) with no parent, which is
// either the document root or the root of an associated template's
// instantiation. `$` always names this value, regardless of how deeply
// `with`/`range` have since narrowed the current `.`.
func rootContextTy(b *Block) env.Ty {
	for cur := b; ; cur = cur.Parent {
		if cur.Parent == nil {
			return cur.ContextTy
		}
	}
}

// ---- associated-template hoisting and interprocedural checking --------

// hoistAssocTemplates does a shallow scan for every `{{define}}`/
// `{{block}}` body in the document, first-definition-wins, reporting a
// duplicate name as an error rather than silently overwriting it.
func (c *checker) hoistAssocTemplates(root *syntax.Node) {
	for _, n := range root.Descendants() {
		action := syntax.ClassifyAction(n)
		var name string
		var body *syntax.Node
		switch a := action.(type) {
		case syntax.TemplateDefinition:
			name, body = a.Name(), a.Body()
		case syntax.TemplateBlock:
			name, body = a.Name(), a.Body()
		default:
			continue
		}
		if _, dup := c.info.AssocTemplates[name]; dup {
			c.reportError(fmt.Sprintf("duplicate associated template %q", name), n.Range())
			continue
		}
		at := &AssocTemplate{
			Name:                 name,
			Body:                 body,
			DeclRange:            n.Range(),
			CachedInstantiations: make(map[string]env.Ty),
		}
		c.info.AssocTemplates[name] = at
		c.assocOrder = append(c.assocOrder, name)
	}
}

// instantiateTemplate checks (or recalls) name's body under context type
// ctxTy, returning the return type observed along that path. It never
// records output (that happens only in the dedicated final pass over each
// hoisted template), so a template can be explored many times over the
// course of the main walk without polluting Info with duplicate entries.
func (c *checker) instantiateTemplate(name string, ctxTy env.Ty) env.Ty {
	at, ok := c.info.AssocTemplates[name]
	if !ok {
		c.reportError(fmt.Sprintf("undefined associated template %q", name), syntax.Range{})
		return env.AnyTy{}
	}

	key := ctxTy.String()
	if cached, ok := at.CachedInstantiations[key]; ok {
		return cached
	}
	if at.OverflowedCache {
		return env.AnyTy{}
	}
	if c.finalPass {
		// The final pass only records output; it must never grow the
		// cache or re-walk a body beyond what the main walk already
		// explored, since that exploration is what decided the set of
		// context types this template's final recording pass unions.
		return env.AnyTy{}
	}
	if c.callStack[name] {
		return env.AnyTy{} // recursive instantiation: break the cycle
	}
	if len(at.CachedInstantiations) >= maxUniqueInstantiations {
		at.OverflowedCache = true
		return env.AnyTy{}
	}

	c.callStack[name] = true
	wasRecording := c.recording
	c.recording = false
	child := newBlock(Other, nil, ctxTy)
	c.walkActionList(at.Body, child)
	c.recording = wasRecording
	delete(c.callStack, name)

	at.CachedInstantiations[key] = child.ReturnTy
	at.Contexts = append(at.Contexts, ctxTy)
	return child.ReturnTy
}

// checkAssocTemplateFinal re-checks at's body once more, with output
// recording enabled, using the union of every context type observed
// instantiating it during the main walk (or Any if the cache overflowed),
// so every error and resolved field/method access inside it is recorded
// exactly once regardless of how many call sites instantiated it.
func (c *checker) checkAssocTemplateFinal(at *AssocTemplate) {
	var ctxTy env.Ty
	switch {
	case at.OverflowedCache:
		ctxTy = env.AnyTy{}
	case len(at.Contexts) == 0:
		ctxTy = env.NeverTy{} // never instantiated; still checked so its own errors surface
	default:
		ctxTy = env.Union(at.Contexts...)
	}
	final := newBlock(Other, nil, ctxTy)
	c.walkActionList(at.Body, final)
}

// ---- action walk --------------------------------------------------------

func (c *checker) walkActionList(list *syntax.Node, b *Block) {
	if list == nil {
		return
	}
	for _, item := range syntax.ActionListItems(list) {
		if item.Action == nil {
			continue // a Text run
		}
		c.walkAction(item.Action, b)
	}
}

func (c *checker) walkAction(action syntax.ActionNode, b *Block) {
	switch n := action.(type) {
	case syntax.CommentAction:
		// nothing to check

	case syntax.ExprActionNode:
		c.typeExpr(n.Expr(), b)

	case syntax.IfConditional:
		c.walkConditional(n.Clause(), n.Body(), n.ElseBranches(), b, false)

	case syntax.WithConditional:
		c.walkConditional(n.Clause(), n.Body(), n.ElseBranches(), b, true)

	case syntax.RangeLoop:
		c.walkRange(n, b)

	case syntax.WhileLoop:
		c.walkWhile(n, b)

	case syntax.TryCatchAction:
		c.walkTryCatch(n, b)

	case syntax.TemplateDefinition:
		// Hoisted; checked interprocedurally, not inline at its own site.

	case syntax.TemplateBlock:
		// `{{block "name" pipeline}}` both defines and, at this exact
		// site, immediately invokes itself with pipeline as the argument
		// (its body is hoisted and checked interprocedurally, same as a
		// plain `{{define}}`).
		ctxTy := c.typeExpr(n.Expr(), b)
		c.instantiateTemplate(n.Name(), ctxTy)

	case syntax.TemplateInvocation:
		var ctxTy env.Ty = b.ContextTy
		if e := n.Expr(); e != nil {
			ctxTy = c.typeExpr(e, b)
		}
		c.instantiateTemplate(n.Name(), ctxTy)

	case syntax.ReturnActionNode:
		ty := c.typeExpr(n.Expr(), b)
		b.recordReturn(ty)

	case syntax.LoopBreakNode:
		b.Facts |= FactDefiniteLoopBreak | FactPotentialLoopBreak

	case syntax.LoopContinueNode:
		b.Facts |= FactDefiniteLoopContinue | FactPotentialLoopContinue
	}
}

// walkConditional handles the shared if/with shape. withMode selects
// whether each branch's context type becomes its own clause value (with)
// or stays the parent's (if).
func (c *checker) walkConditional(clause syntax.ExprNode, body *syntax.Node, elseBranches []syntax.ElseBranch, parent *Block, withMode bool) {
	blk := newBlock(Other, parent, parent.ContextTy)
	clauseTy := c.typeExpr(clause, blk)
	if withMode {
		blk.ContextTy = clauseTy
	}
	c.walkActionList(body, blk)

	branches := []*Block{blk}
	hasUnconditionalElse := false
	for _, eb := range elseBranches {
		ebBlk := newBlock(Other, parent, parent.ContextTy)
		if cond := eb.Cond(); cond != nil {
			condTy := c.typeExpr(cond, ebBlk)
			if withMode {
				ebBlk.ContextTy = condTy
			}
		} else {
			hasUnconditionalElse = true
		}
		c.walkActionList(eb.Body(), ebBlk)
		branches = append(branches, ebBlk)
	}
	if !hasUnconditionalElse {
		// No branch taken falls through doing nothing; modeled as an
		// empty sibling branch so a return/assignment only definite in
		// every explicit branch still isn't promoted to definite overall.
		branches = append(branches, newBlock(Other, parent, parent.ContextTy))
	}
	mergeBranches(parent, branches...)
}

func (c *checker) walkRange(n syntax.RangeLoop, parent *Block) {
	collTy := c.typeExpr(n.Expr(), parent)
	keyTy, valueTy := rangeKeyValueTypes(collTy)

	bodyBlk := newBlock(LoopBody, parent, valueTy)
	if n.IsDecl() {
		vars := n.IterVars()
		switch len(vars) {
		case 1:
			if id, ok := c.scopeInfo.DeclByRange[vars[0].Range()]; ok {
				bodyBlk.declare(id, valueTy)
			}
		case 2:
			if id, ok := c.scopeInfo.DeclByRange[vars[0].Range()]; ok {
				bodyBlk.declare(id, keyTy)
			}
			if id, ok := c.scopeInfo.DeclByRange[vars[1].Range()]; ok {
				bodyBlk.declare(id, valueTy)
			}
		}
	}
	c.walkActionList(n.Body(), bodyBlk)

	var altBlk *Block
	if eb := n.ElseBranch(); eb != nil {
		altBlk = newBlock(Other, parent, parent.ContextTy)
		c.walkActionList(eb.Body(), altBlk)
	} else {
		altBlk = newBlock(Other, parent, parent.ContextTy)
	}
	// The body and the alternative (an explicit else, or an implicit
	// no-op) are mutually exclusive and exhaustive: either the collection
	// was non-empty and the body ran (at least once), or it was empty and
	// the alternative applies. Either way this is a plain two-branch merge,
	// not a loop-exit propagation, since the range's own iteration count is
	// never known statically.
	mergeBranches(parent, bodyBlk, altBlk)
}

func (c *checker) walkWhile(n syntax.WhileLoop, parent *Block) {
	bodyBlk := newBlock(LoopBody, parent, parent.ContextTy)
	c.typeExpr(n.Expr(), bodyBlk)
	c.walkActionList(n.Body(), bodyBlk)

	var altBlk *Block
	if eb := n.ElseBranch(); eb != nil {
		altBlk = newBlock(Other, parent, parent.ContextTy)
		c.walkActionList(eb.Body(), altBlk)
	} else {
		altBlk = newBlock(Other, parent, parent.ContextTy)
	}
	mergeBranches(parent, bodyBlk, altBlk)
}

func (c *checker) walkTryCatch(n syntax.TryCatchAction, parent *Block) {
	tryBlk := newBlock(TryBody, parent, parent.ContextTy)
	c.walkActionList(n.TryBody(), tryBlk)

	catchBlk := newBlock(Other, parent, tryBlk.ThrowTy)
	c.walkActionList(n.CatchBody(), catchBlk)

	// The try body's throw type is consumed here (it became the catch
	// body's context type) rather than propagating to parent; only the
	// catch body's own throws (from fallible calls inside catch) do.
	mergeBranchesNoThrow(parent, tryBlk, catchBlk)
	parent.ThrowTy = env.Union(parent.ThrowTy, catchBlk.ThrowTy)
}

// rangeKeyValueTypes derives the (key, value) types bound by a range over
// collTy: a slice's index/element, a map's key/value, or an integer
// primitive's (int, int) per the resolved Open Question. Anything else
// (Any, or a type range can't iterate) yields (Any, Any).
func rangeKeyValueTypes(collTy env.Ty) (key, value env.Ty) {
	switch t := collTy.(type) {
	case env.SliceTy:
		return env.PrimitiveTy{Prim: env.PrimInt}, t.Elem
	case env.MapTy:
		return t.Key, t.Value
	case env.PrimitiveTy:
		if t.Prim == env.PrimInt {
			return env.PrimitiveTy{Prim: env.PrimInt}, env.PrimitiveTy{Prim: env.PrimInt}
		}
	}
	return env.AnyTy{}, env.AnyTy{}
}

// ---- expression type-checking ------------------------------------------

func (c *checker) typeExpr(e syntax.ExprNode, b *Block) env.Ty {
	if e == nil {
		return env.AnyTy{}
	}
	var ty env.Ty
	switch v := e.(type) {
	case syntax.Literal:
		ty = c.typeLiteral(v)
	case syntax.ContextAccess:
		ty = b.ContextTy
	case syntax.ContextFieldChain:
		ty = c.resolveFieldChain(b.ContextTy, v.Fields())
	case syntax.ExprFieldChain:
		ty = c.resolveFieldChain(c.typeExpr(v.Base(), b), v.Fields())
	case syntax.VarAccess:
		ty = c.typeVarUse(v.Syntax(), b)
	case syntax.VarDecl:
		ty = c.typeVarDecl(v, b)
	case syntax.VarAssign:
		ty = c.typeVarAssign(v, b)
	case syntax.FuncCall:
		ty = c.typeFuncCall(v, b, nil)
	case syntax.ExprCall:
		ty = c.typeExprCall(v, b, nil)
	case syntax.ParenthesizedExpr:
		ty = c.typeExpr(v.Inner(), b)
	case syntax.Pipeline:
		ty = c.typePipeline(v, b)
	default:
		ty = env.AnyTy{}
	}
	c.recordType(e.Syntax().Range(), ty)
	return ty
}

func (c *checker) typeLiteral(l syntax.Literal) env.Ty {
	switch l.Syntax().Kind() {
	case kind.Bool:
		return env.PrimitiveTy{Prim: env.PrimBool}
	case kind.Int:
		return env.PrimitiveTy{Prim: env.PrimInt}
	case kind.Float:
		return env.PrimitiveTy{Prim: env.PrimFloat64}
	case kind.InterpretedString, kind.RawString:
		return env.PrimitiveTy{Prim: env.PrimString}
	case kind.Char:
		return env.PrimitiveTy{Prim: env.PrimRune}
	default:
		return env.AnyTy{}
	}
}

// typeVarUse looks up a VarAccess's already-resolved declaration (the
// scope analyzer's job, not this one) and returns its current live type.
// An unresolved use (already reported as a scope error) types as Any so
// downstream expressions don't cascade further errors.
func (c *checker) typeVarUse(node *syntax.Node, b *Block) env.Ty {
	id, ok := c.scopeInfo.ResolvedRefs[node.Range()]
	if !ok {
		return env.AnyTy{}
	}
	if dv := c.scopeInfo.Declarations[id]; dv != nil && dv.Synthetic {
		return rootContextTy(b)
	}
	if ty, ok := b.liveType(id); ok {
		return ty
	}
	return env.AnyTy{}
}

func (c *checker) typeVarDecl(v syntax.VarDecl, b *Block) env.Ty {
	valTy := c.typeExpr(v.Value(), b)
	if id, ok := c.scopeInfo.DeclByRange[v.Syntax().Range()]; ok {
		b.declare(id, valTy)
	}
	return valTy
}

func (c *checker) typeVarAssign(v syntax.VarAssign, b *Block) env.Ty {
	valTy := c.typeExpr(v.Value(), b)
	if id, ok := c.scopeInfo.ResolvedRefs[v.Syntax().Range()]; ok {
		b.assign(id, valTy)
	}
	return valTy
}

func (c *checker) typePipeline(p syntax.Pipeline, b *Block) env.Ty {
	cur := c.typeExpr(p.Head(), b)
	for _, stage := range p.Stages() {
		piped := cur
		callNode := stage.Call()
		switch call := callNode.(type) {
		case syntax.FuncCall:
			cur = c.typeFuncCall(call, b, &piped)
		case syntax.ExprCall:
			cur = c.typeExprCall(call, b, &piped)
		default:
			// A stage that isn't a call at all (e.g. a bare field access)
			// has nowhere to receive the piped value; its own type stands
			// on its own and the piped value is simply discarded.
			cur = c.typeExpr(callNode, b)
		}
		if callNode != nil {
			c.recordType(callNode.Syntax().Range(), cur)
		}
	}
	return cur
}

// resolveFieldChain resolves every field in fields against baseTy in
// order, recording each step and erroring on an unresolved field unless
// the receiver at that point is Any (an Any base silently tolerates any
// field, matching a dynamically-typed fallback rather than cascading
// errors from an already-unknown value).
func (c *checker) resolveFieldChain(baseTy env.Ty, fields []*syntax.Token) env.Ty {
	cur := baseTy
	for _, tok := range fields {
		next, ok := c.environment.LookupField(cur, fieldName(tok))
		c.recordFieldAccess(cur, tok, ok)
		if !ok {
			if _, isAny := cur.(env.AnyTy); !isAny {
				c.reportError("unresolved field "+fieldName(tok), tok.Range())
			}
			return env.AnyTy{}
		}
		cur = next
	}
	return cur
}

// lookupMethod returns the Func backing name if baseTy (after pointer
// dereference) is a struct or newtype declaring it directly, or nil
// otherwise. Used only at a call site, where the real return/throw types
// must come from the Func itself rather than env.LookupField's Any
// placeholder for an uncalled method reference.
func (c *checker) lookupMethod(baseTy env.Ty, name string) *env.Func {
	if ptr, ok := baseTy.(env.PointerTy); ok {
		return c.lookupMethod(ptr.Target, name)
	}
	switch t := baseTy.(type) {
	case env.StructTy:
		return c.environment.Struct(t.Handle).Methods[name]
	case env.NewtypeTy:
		return c.environment.Newtype(t.Handle).Methods[name]
	default:
		return nil
	}
}

func isNeverTy(t env.Ty) bool {
	_, ok := t.(env.NeverTy)
	return ok
}

// matchSignature returns the first signature in sigs that loosely accepts
// args, in declaration order (first match wins, per spec.md §4.G).
func matchSignature(sigs []env.CallSignature, args []env.Ty, e *env.Environment) (env.Ty, env.Ty, bool) {
	for _, sig := range sigs {
		if signatureMatches(sig, args, e) {
			return sig.Return, sig.Throw, true
		}
	}
	return env.AnyTy{}, env.NeverTy{}, false
}

func signatureMatches(sig env.CallSignature, args []env.Ty, e *env.Environment) bool {
	switch sig.Kind {
	case env.Exact:
		if len(args) != len(sig.Params) {
			return false
		}
		return paramsMatch(sig.Params, args, e)

	case env.Variadic:
		if len(args) < len(sig.Params) {
			return false
		}
		if !paramsMatch(sig.Params, args[:len(sig.Params)], e) {
			return false
		}
		for _, a := range args[len(sig.Params):] {
			if !e.LooseAssignable(sig.TailElem, a) {
				return false
			}
		}
		return true

	case env.VariadicOptions:
		// Named options have no positional syntax in this grammar (every
		// call argument is a bare expression), so a VariadicOptions
		// signature can only ever be matched on its fixed positional
		// prefix; its required options can never be supplied and a call
		// site can never satisfy them. Matching the prefix alone is the
		// best this checker can do without call-site option syntax.
		if len(args) != len(sig.Params) {
			return false
		}
		return paramsMatch(sig.Params, args, e)

	default:
		return false
	}
}

func paramsMatch(params []env.Ty, args []env.Ty, e *env.Environment) bool {
	for i, p := range params {
		if !e.LooseAssignable(p, args[i]) {
			return false
		}
	}
	return true
}

func (c *checker) typeArgs(exprs []syntax.ExprNode, b *Block, pipedArg *env.Ty) []env.Ty {
	out := make([]env.Ty, 0, len(exprs)+1)
	for _, a := range exprs {
		out = append(out, c.typeExpr(a, b))
	}
	if pipedArg != nil {
		out = append(out, *pipedArg)
	}
	return out
}

func (c *checker) typeFuncCall(call syntax.FuncCall, b *Block, pipedArg *env.Ty) env.Ty {
	args := c.typeArgs(call.Args(), b, pipedArg)

	fn, ok := c.environment.Funcs[call.CalleeName()]
	if !ok {
		c.reportError("unknown function "+call.CalleeName(), call.Syntax().Range())
		return env.AnyTy{}
	}
	ret, throw, matched := matchSignature(fn.Signatures, args, c.environment)
	if !matched {
		c.reportError("no matching signature for "+call.CalleeName(), call.Syntax().Range())
		return env.AnyTy{}
	}
	if !isNeverTy(throw) {
		b.Facts |= FactFallibleFnCall
		b.recordThrow(throw)
	}
	return ret
}

func (c *checker) typeExprCall(call syntax.ExprCall, b *Block, pipedArg *env.Ty) env.Ty {
	args := c.typeArgs(call.Args(), b, pipedArg)

	var baseTy env.Ty
	var fields []*syntax.Token
	switch ce := call.Callee().(type) {
	case syntax.ExprFieldChain:
		baseTy = c.typeExpr(ce.Base(), b)
		fields = ce.Fields()
	case syntax.ContextFieldChain:
		baseTy = b.ContextTy
		fields = ce.Fields()
	default:
		// Any other callee shape (a bare variable, a parenthesized value,
		// a context access) has no Func behind it in this catalog; the
		// checker can only confirm it's not definitely wrong (Any) or
		// flag it as not callable.
		calleeTy := c.typeExpr(call.Callee(), b)
		if _, isAny := calleeTy.(env.AnyTy); !isAny {
			c.reportError("value is not callable", call.Syntax().Range())
		}
		return env.AnyTy{}
	}

	if len(fields) == 0 {
		return env.AnyTy{}
	}
	preLastTy := c.resolveFieldChain(baseTy, fields[:len(fields)-1])
	last := fields[len(fields)-1]
	lastName := fieldName(last)

	if fn := c.lookupMethod(preLastTy, lastName); fn != nil {
		c.recordFieldAccess(preLastTy, last, true)
		ret, throw, matched := matchSignature(fn.Signatures, args, c.environment)
		if !matched {
			c.reportError("no matching signature for "+lastName, call.Syntax().Range())
			return env.AnyTy{}
		}
		if !isNeverTy(throw) {
			b.Facts |= FactFallibleFnCall
			b.recordThrow(throw)
		}
		return ret
	}

	fieldTy, resolved := c.environment.LookupField(preLastTy, lastName)
	c.recordFieldAccess(preLastTy, last, resolved)
	if !resolved {
		if _, isAny := preLastTy.(env.AnyTy); !isAny {
			c.reportError("unresolved field "+lastName, last.Range())
		}
		return env.AnyTy{}
	}
	if _, isAny := fieldTy.(env.AnyTy); !isAny {
		c.reportError(lastName+" is not callable", call.Syntax().Range())
	}
	return env.AnyTy{}
}
