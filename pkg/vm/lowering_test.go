package vm_test

import (
	"testing"

	"hackstack/pkg/asm"
	"hackstack/pkg/vm"
)

func TestLowererEmitsBootstrapForMultiModuleBuild(t *testing.T) {
	program := vm.Program{
		"Sys": vm.Module{
			vm.FuncDecl{Name: "Sys.init", NLocal: 0},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
			vm.ReturnOp{},
		},
		"Main": vm.Module{
			vm.FuncDecl{Name: "Main.main", NLocal: 0},
			vm.ReturnOp{},
		},
	}

	out, err := vm.NewLowerer(program, true, false).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0] != (asm.AInstruction{Location: "256"}) {
		t.Errorf("expected bootstrap to start by loading 256, got %+v", out[0])
	}

	labels := map[string]bool{}
	for _, stmt := range out {
		if l, ok := stmt.(asm.LabelDecl); ok {
			labels[l.Name] = true
		}
	}
	if !labels["Sys.init"] || !labels["Main.main"] || !labels["$vm.return"] {
		t.Errorf("expected function and shared-return labels present, got %v", labels)
	}
}

func TestLowererSkipsBootstrapWhenDisabled(t *testing.T) {
	program := vm.Program{
		"Main": vm.Module{
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1},
		},
	}
	out, err := vm.NewLowerer(program, false, false).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] == (asm.AInstruction{Location: "256"}) {
		t.Errorf("did not expect bootstrap when withBootstrap is false, got %+v", out[0])
	}
}

func TestLowererStaticSegmentIsolationPerModule(t *testing.T) {
	program := vm.Program{
		"Class1": vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0}},
		"Class2": vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 0}},
	}
	out, err := vm.NewLowerer(program, true, false).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, stmt := range out {
		if a, ok := stmt.(asm.AInstruction); ok {
			seen[a.Location] = true
		}
	}
	if !seen["Class1.0"] || !seen["Class2.0"] {
		t.Errorf("expected module-qualified static symbols Class1.0 and Class2.0, got %v", seen)
	}
}

func TestLowererSharesOneCallSubroutinePerArity(t *testing.T) {
	program := vm.Program{
		"Main": vm.Module{
			vm.FuncDecl{Name: "Main.main", NLocal: 0},
			vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
			vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
			vm.ReturnOp{},
		},
	}
	out, err := vm.NewLowerer(program, true, false).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subroutineLabels := 0
	for _, stmt := range out {
		if l, ok := stmt.(asm.LabelDecl); ok && l.Name == "Math.multiply$2$call" {
			subroutineLabels++
		}
	}
	if subroutineLabels != 1 {
		t.Errorf("expected exactly 1 shared call subroutine for a repeated (fn, arity) pair, got %d", subroutineLabels)
	}
}

func TestLowererRejectsPopToConstant(t *testing.T) {
	program := vm.Program{
		"Main": vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant, Offset: 0}},
	}
	if _, err := vm.NewLowerer(program, true, false).Lower(); err == nil {
		t.Error("expected an error popping to the constant segment")
	}
}

func TestLowererDropsUnreachableFunctionsWithDCE(t *testing.T) {
	program := vm.Program{
		"Main": vm.Module{
			vm.FuncDecl{Name: "Sys.init", NLocal: 0},
			vm.ReturnOp{},
			vm.FuncDecl{Name: "Main.dead", NLocal: 0},
			vm.ReturnOp{},
		},
	}
	out, err := vm.NewLowerer(program, true, true).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, stmt := range out {
		if l, ok := stmt.(asm.LabelDecl); ok && l.Name == "Main.dead" {
			t.Errorf("expected unreachable function Main.dead to be dropped under DCE")
		}
	}
}
