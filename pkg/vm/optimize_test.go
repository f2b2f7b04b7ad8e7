package vm_test

import (
	"reflect"
	"testing"

	"hackstack/pkg/vm"
)

func constOf(n uint16) vm.Operation {
	return vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: n}
}

func TestFoldConstantsAdd(t *testing.T) {
	in := []vm.Operation{constOf(2), constOf(3), vm.ArithmeticOp{Operation: vm.Add}}
	out := vm.FoldConstants(in)
	want := []vm.Operation{constOf(5)}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestFoldConstantsSub(t *testing.T) {
	in := []vm.Operation{constOf(5), constOf(3), vm.ArithmeticOp{Operation: vm.Sub}}
	out := vm.FoldConstants(in)
	want := []vm.Operation{constOf(2)}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestFoldConstantsSubUnderflowFallsBackToExtendedOp(t *testing.T) {
	// 3 - 5 would underflow a 15-bit constant, so this must become an
	// extended sub_const op rather than a folded (wrong) constant, and it
	// must carry vm.Sub, never vm.Add.
	in := []vm.Operation{constOf(3), constOf(5), vm.ArithmeticOp{Operation: vm.Sub}}
	out := vm.FoldConstants(in)

	want := []vm.Operation{constOf(5), vm.ExtArithOp{Operation: vm.Sub, Operand: 3}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestFoldConstantsVariablePushExtendsOp(t *testing.T) {
	nonConst := vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 0}
	in := []vm.Operation{constOf(7), nonConst, vm.ArithmeticOp{Operation: vm.Add}}
	out := vm.FoldConstants(in)

	want := []vm.Operation{nonConst, vm.ExtArithOp{Operation: vm.Add, Operand: 7}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestFoldConstantsLeavesUnrelatedOpsAlone(t *testing.T) {
	in := []vm.Operation{vm.ArithmeticOp{Operation: vm.Neg}, constOf(1)}
	out := vm.FoldConstants(in)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("expected unchanged %+v, got %+v", in, out)
	}
}

// "push local 0; push constant 7; add" is the far more common source
// pattern (a variable on the left, a literal on the right) and must fold
// just as well as the constant-first case above.
func TestFoldConstantsAddFoldsConstantOnSecondOperand(t *testing.T) {
	nonConst := vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 0}
	in := []vm.Operation{nonConst, constOf(7), vm.ArithmeticOp{Operation: vm.Add}}
	out := vm.FoldConstants(in)

	want := []vm.Operation{nonConst, vm.ExtArithOp{Operation: vm.Add, Operand: 7}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

// "push local 0; push constant 7; sub" must fold to "local0 - 7", not
// "7 - local0" — Sub isn't commutative, so the extended op must record
// which side the constant came from.
func TestFoldConstantsSubFoldsConstantOnSecondOperand(t *testing.T) {
	nonConst := vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 0}
	in := []vm.Operation{nonConst, constOf(7), vm.ArithmeticOp{Operation: vm.Sub}}
	out := vm.FoldConstants(in)

	want := []vm.Operation{nonConst, vm.ExtArithOp{Operation: vm.Sub, Operand: 7, Reverse: true}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}

func TestFoldConstantsAddOverflowStillBakesConstantIntoExtendedOp(t *testing.T) {
	// 0x7000 + 0x7000 overflows a 15-bit constant; the wraparound ALU
	// computes the same sum either way, so this still collapses to an
	// extended op rather than falling all the way back to two pushes.
	in := []vm.Operation{constOf(0x7000), constOf(0x7000), vm.ArithmeticOp{Operation: vm.Add}}
	out := vm.FoldConstants(in)

	want := []vm.Operation{constOf(0x7000), vm.ExtArithOp{Operation: vm.Add, Operand: 0x7000}}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("expected %+v, got %+v", want, out)
	}
}
