package typeck

import (
	"testing"

	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/env"
)

func TestMergeBranchesDefiniteReturnRequiresAllBranches(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	a := newBlock(Other, parent, env.AnyTy{})
	a.recordReturn(env.PrimitiveTy{Prim: env.PrimInt})
	b := newBlock(Other, parent, env.AnyTy{})
	// b never returns.

	mergeBranches(parent, a, b)

	if parent.Facts&FactDefiniteReturn != 0 {
		t.Fatalf("expected no definite return when only one branch returns")
	}
	if parent.Facts&FactPotentialReturn == 0 {
		t.Fatalf("expected potential return since at least one branch returns")
	}
}

func TestMergeBranchesDefiniteReturnWhenAllBranchesReturn(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	a := newBlock(Other, parent, env.AnyTy{})
	a.recordReturn(env.PrimitiveTy{Prim: env.PrimInt})
	b := newBlock(Other, parent, env.AnyTy{})
	b.recordReturn(env.PrimitiveTy{Prim: env.PrimString})

	mergeBranches(parent, a, b)

	if parent.Facts&FactDefiniteReturn == 0 {
		t.Fatalf("expected definite return when every branch returns")
	}
	want := "int | string"
	if parent.ReturnTy.String() != want {
		t.Fatalf("got return type %s, want %s", parent.ReturnTy.String(), want)
	}
}

func TestLoopBodyStripsBreakContinueOnExit(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	loopBody := newBlock(LoopBody, parent, env.AnyTy{})
	loopBody.Facts |= FactDefiniteLoopBreak | FactPotentialLoopBreak

	propagateFacts(parent, loopBody)

	if parent.Facts&(FactDefiniteLoopBreak|FactPotentialLoopBreak) != 0 {
		t.Fatalf("expected a loop body's own break facts to be stripped at its boundary")
	}
}

func TestTryBodyStripsFallibleCallOnExit(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	tryBody := newBlock(TryBody, parent, env.AnyTy{})
	tryBody.Facts |= FactFallibleFnCall

	propagateFacts(parent, tryBody)

	if parent.Facts&FactFallibleFnCall != 0 {
		t.Fatalf("expected a try body's own fallible-call fact to be stripped at its boundary")
	}
}

func TestTryBodyThrowDoesNotPropagateThroughPropagateFacts(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	tryBody := newBlock(TryBody, parent, env.AnyTy{})
	tryBody.recordThrow(env.PrimitiveTy{Prim: env.PrimString})

	propagateFacts(parent, tryBody)

	if _, isNever := parent.ThrowTy.(env.NeverTy); !isNever {
		t.Fatalf("expected a try body's throw type to be consumed, not propagated; got %s", parent.ThrowTy.String())
	}
}

func TestAssignIsDefiniteWithNoPotentialJumps(t *testing.T) {
	b := newBlock(Other, nil, env.AnyTy{})
	id := scope.DeclID(1)
	b.declare(id, env.PrimitiveTy{Prim: env.PrimInt})

	b.assign(id, env.PrimitiveTy{Prim: env.PrimInt})

	if !b.Assignments[id].Definite {
		t.Fatalf("expected a plain assignment with no potential jumps to be definite")
	}
}

func TestAssignIsPotentialAfterPotentialLoopBreak(t *testing.T) {
	b := newBlock(LoopBody, nil, env.AnyTy{})
	id := scope.DeclID(1)
	b.declare(id, env.PrimitiveTy{Prim: env.PrimInt})
	b.Facts |= FactPotentialLoopBreak

	b.assign(id, env.PrimitiveTy{Prim: env.PrimString})

	if b.Assignments[id].Definite {
		t.Fatalf("expected an assignment after a potential break to be non-definite")
	}
	if b.Assignments[id].Ty.String() != "int | string" {
		t.Fatalf("expected the assignment's type to union with its prior type, got %s", b.Assignments[id].Ty.String())
	}
}

func TestAssignIsPotentialInTryBodyAfterFallibleCall(t *testing.T) {
	b := newBlock(TryBody, nil, env.AnyTy{})
	id := scope.DeclID(1)
	b.declare(id, env.PrimitiveTy{Prim: env.PrimInt})
	b.Facts |= FactFallibleFnCall

	b.assign(id, env.PrimitiveTy{Prim: env.PrimInt})

	if b.Assignments[id].Definite {
		t.Fatalf("expected an assignment in a try body after a fallible call to be non-definite")
	}
}

func TestMergeBranchesVariableTouchedByOnlyOneBranchIsNotDefinite(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	id := scope.DeclID(7)
	parent.declare(id, env.PrimitiveTy{Prim: env.PrimInt})

	a := newBlock(Other, parent, env.AnyTy{})
	a.assign(id, env.PrimitiveTy{Prim: env.PrimString})
	b := newBlock(Other, parent, env.AnyTy{})
	// b never touches id.

	mergeBranchesNoThrow(parent, a, b)

	if parent.Assignments[id].Definite {
		t.Fatalf("expected a variable touched by only one branch to be non-definite after merge")
	}
}

func TestMergeBranchesDropsVariablesDeclaredWithinABranch(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	a := newBlock(Other, parent, env.AnyTy{})
	localID := scope.DeclID(9)
	a.declare(localID, env.PrimitiveTy{Prim: env.PrimInt})
	b := newBlock(Other, parent, env.AnyTy{})

	mergeBranchesNoThrow(parent, a, b)

	if _, ok := parent.Assignments[localID]; ok {
		t.Fatalf("expected a branch-local declaration to not leak into the parent merge")
	}
}

func TestLiveTypeWalksOutwardThroughParents(t *testing.T) {
	parent := newBlock(Other, nil, env.AnyTy{})
	id := scope.DeclID(3)
	parent.declare(id, env.PrimitiveTy{Prim: env.PrimBool})
	child := newBlock(Other, parent, env.AnyTy{})

	ty, ok := child.liveType(id)
	if !ok || ty.String() != "bool" {
		t.Fatalf("expected child to see parent's live type for id, got %v, %v", ty, ok)
	}
}
