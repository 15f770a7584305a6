// Package typeck implements the flow/type analyzer: a structural walk that
// threads a block stack through the typed AST, assigning a type to every
// expression and tracking, per block, return/throw types and flow facts.
package typeck

import (
	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
)

// BlockKind tags the three shapes of lexical region the walk can be inside,
// which controls how flow facts strip on the way up to the parent.
type BlockKind uint8

const (
	Other BlockKind = iota
	LoopBody
	TryBody
)

// FlowFacts is a bitmap of control-flow observations accumulated while
// walking a block's body.
type FlowFacts uint16

const (
	FactDefiniteReturn FlowFacts = 1 << iota
	FactPotentialReturn
	FactDefiniteLoopBreak
	FactPotentialLoopBreak
	FactDefiniteLoopContinue
	FactPotentialLoopContinue
	FactFallibleFnCall
)

// loopFacts is every bit LoopBody strips before propagating to its parent.
const loopFacts = FactDefiniteLoopBreak | FactPotentialLoopBreak | FactDefiniteLoopContinue | FactPotentialLoopContinue

// VarAssignInfo is the flow analyzer's per-variable bookkeeping: the union
// of types observed on every path that assigns the variable within a
// block's region, and whether every path assigns it (vs. only some).
type VarAssignInfo struct {
	Ty       env.Ty
	Definite bool
}

// Block is one lexical region's type-and-flow summary. Parent is the
// enclosing block on the walk's block stack (nil at a document root or at
// a template-definition/template-block body's root, which is a detached
// boundary matching the scope analyzer's own detached scopes).
type Block struct {
	Kind   BlockKind
	Parent *Block

	ContextTy env.Ty
	ReturnTy  env.Ty
	ThrowTy   env.Ty
	Facts     FlowFacts

	// DeclaredVars is the set of DeclIDs introduced by a `:=` (or declared
	// range iteration variable) within this block's own region.
	DeclaredVars map[scope.DeclID]bool

	// Assignments is this block's per-variable keyed union: every DeclID
	// assigned (by declare or by assign) anywhere within this block's
	// region, regardless of which nested child block performed the write.
	Assignments map[scope.DeclID]*VarAssignInfo

	// LiveTypes is the current best-known type for a variable as of "now"
	// in the walk; VarAccess type lookup consults this chain outward.
	LiveTypes map[scope.DeclID]env.Ty
}

func newBlock(kind BlockKind, parent *Block, contextTy env.Ty) *Block {
	return &Block{
		Kind:      kind,
		Parent:    parent,
		ContextTy: contextTy,
		ReturnTy:     env.NeverTy{},
		ThrowTy:      env.NeverTy{},
		DeclaredVars: make(map[scope.DeclID]bool),
		Assignments:  make(map[scope.DeclID]*VarAssignInfo),
		LiveTypes:    make(map[scope.DeclID]env.Ty),
	}
}

// liveType returns the nearest known live type for id, walking outward
// through enclosing blocks.
func (b *Block) liveType(id scope.DeclID) (env.Ty, bool) {
	for cur := b; cur != nil; cur = cur.Parent {
		if t, ok := cur.LiveTypes[id]; ok {
			return t, true
		}
	}
	return nil, false
}

// declare records a fresh `:=` binding in b: definite assignment, the
// initializer's type.
func (b *Block) declare(id scope.DeclID, ty env.Ty) {
	b.DeclaredVars[id] = true
	b.LiveTypes[id] = ty
	b.Assignments[id] = &VarAssignInfo{Ty: ty, Definite: true}
}

// assignIsDefinite reports whether a write happening right now, in b, is
// definite: no potential break/continue has been observed in b yet, and b
// isn't a try body that has already seen a fallible call (spec.md §4.G's
// "no potential non-local jumps above it").
func (b *Block) assignIsDefinite() bool {
	if b.Facts&(FactPotentialLoopBreak|FactPotentialLoopContinue) != 0 {
		return false
	}
	if b.Kind == TryBody && b.Facts&FactFallibleFnCall != 0 {
		return false
	}
	return true
}

// assign records a write to an already-declared variable: unions the type
// into the existing VarAssignInfo (or starts one), AND-reduces Definite,
// and overwrites the live type. The caller is responsible for having
// already confirmed (via the scope analyzer's resolved-references index)
// that id names a real declaration; this method does not re-validate
// existence.
func (b *Block) assign(id scope.DeclID, ty env.Ty) {
	definite := b.assignIsDefinite()
	if info, ok := b.Assignments[id]; ok {
		info.Ty = env.Union(info.Ty, ty)
		info.Definite = info.Definite && definite
	} else {
		b.Assignments[id] = &VarAssignInfo{Ty: ty, Definite: definite}
	}
	b.LiveTypes[id] = ty
}

func (b *Block) recordReturn(ty env.Ty) {
	b.ReturnTy = env.Union(b.ReturnTy, ty)
	b.Facts |= FactDefiniteReturn | FactPotentialReturn
}

func (b *Block) recordThrow(ty env.Ty) {
	b.ThrowTy = env.Union(b.ThrowTy, ty)
}

// propagateFacts ORs child's facts into b, stripped per b's own stripping
// rule for the boundary child represents (a loop body strips its own
// break/continue bits before they reach the loop's enclosing block; a try
// body strips its own fallible-call bit before reaching its enclosing
// block — the catch body, which sees the try's throw type instead, is not
// itself a stripping boundary for that purpose).
func propagateFacts(parent *Block, child *Block) {
	parent.Facts |= stripForExit(child)
	parent.ReturnTy = env.Union(parent.ReturnTy, child.ReturnTy)
	if child.Kind != TryBody {
		parent.ThrowTy = env.Union(parent.ThrowTy, child.ThrowTy)
	}
}

// stripForExit returns b's own flow facts with the bits its Kind strips
// before they may propagate past its own boundary (spec.md §4.G: a loop
// body strips its break/continue bits; a try body strips its fallible-call
// bit).
func stripForExit(b *Block) FlowFacts {
	facts := b.Facts
	switch b.Kind {
	case LoopBody:
		facts &^= loopFacts
	case TryBody:
		facts &^= FactFallibleFnCall
	}
	return facts
}

// mergeBranches joins two sibling blocks that diverge from the same parent
// (if/else, with/else, try/catch) into parent, per spec.md §4.G's merge
// rules: definite facts need both branches, potential facts need either;
// return/throw types union; per-variable assignments merge by keyed union
// with the definite flag AND-reduced (and a variable assigned on only one
// branch is potential in the merge); declared-vars of each branch are
// dropped (they go out of scope at the join).
func mergeBranches(parent *Block, branches ...*Block) {
	for _, br := range branches {
		parent.ThrowTy = env.Union(parent.ThrowTy, br.ThrowTy)
	}
	mergeBranchesNoThrow(parent, branches...)
}

// mergeBranchesNoThrow is mergeBranches without unioning any branch's
// ThrowTy into parent — used for try/catch, where the try body's throw
// type is consumed into the catch body's context_ty rather than ever
// reaching the enclosing block (spec.md §4.G). Callers that need the
// catch body's own throws (from fallible calls inside catch) to still
// reach parent union that in separately.
func mergeBranchesNoThrow(parent *Block, branches ...*Block) {
	if len(branches) == 0 {
		return
	}

	for _, br := range branches {
		parent.ReturnTy = env.Union(parent.ReturnTy, br.ReturnTy)
	}

	// Definite/potential fact pairs merge independently: a pair's potential
	// bit is set in the join if any branch set either of its own bits; its
	// definite bit is set only if every branch set its own definite bit.
	pairs := []struct{ definite, potential FlowFacts }{
		{FactDefiniteReturn, FactPotentialReturn},
		{FactDefiniteLoopBreak, FactPotentialLoopBreak},
		{FactDefiniteLoopContinue, FactPotentialLoopContinue},
	}
	for _, pair := range pairs {
		allDefinite := true
		anyAtAll := false
		for _, br := range branches {
			facts := stripForExit(br)
			if facts&pair.definite != 0 {
				anyAtAll = true
			} else {
				allDefinite = false
			}
			if facts&pair.potential != 0 {
				anyAtAll = true
			}
		}
		if anyAtAll {
			parent.Facts |= pair.potential
		}
		if allDefinite {
			parent.Facts |= pair.definite
		}
	}

	// FactFallibleFnCall has no definite/potential split: it is just "did
	// this path make a fallible call", ORed across branches.
	for _, br := range branches {
		if stripForExit(br)&FactFallibleFnCall != 0 {
			parent.Facts |= FactFallibleFnCall
		}
	}

	merged := make(map[scope.DeclID]*VarAssignInfo)
	for _, br := range branches {
		for id, info := range br.Assignments {
			if br.DeclaredVars[id] {
				continue // out of scope past the join
			}
			if existing, ok := merged[id]; ok {
				existing.Ty = env.Union(existing.Ty, info.Ty)
				existing.Definite = existing.Definite && info.Definite
			} else {
				merged[id] = &VarAssignInfo{Ty: info.Ty, Definite: info.Definite}
			}
		}
	}
	// A variable assigned in only some of the branches is, by construction,
	// not definite in the join (the branches that never touched it leave
	// its parent-visible value untouched, so the merge cannot promise a
	// single new value along every path).
	for id, info := range merged {
		touchedByAll := true
		for _, br := range branches {
			if _, ok := br.Assignments[id]; !ok {
				touchedByAll = false
				break
			}
		}
		info.Definite = info.Definite && touchedByAll
		if existing, ok := parent.Assignments[id]; ok {
			existing.Ty = env.Union(existing.Ty, info.Ty)
			existing.Definite = existing.Definite && info.Definite
		} else {
			parent.Assignments[id] = info
		}
		parent.LiveTypes[id] = info.Ty
	}
}
