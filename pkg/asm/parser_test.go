package asm_test

import (
	"testing"

	"hackstack/pkg/asm"
)

func TestParserLabelAndAInstruction(t *testing.T) {
	p := asm.NewParser("@1\n@2\n(thing)\nM=0\n@thing\n@end\n(end)\nM=0\n")
	program, errs := p.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(program) != 8 {
		t.Fatalf("expected 8 statements (6 instructions plus 2 label declarations), got %d", len(program))
	}
	if program[4].(asm.AInstruction).Location != "thing" {
		t.Errorf("expected @thing to carry symbol 'thing', got %+v", program[4])
	}
}

func TestParserRoundTrip(t *testing.T) {
	p := asm.NewParser("@3\nD=D-A;JMP\n")
	program, errs := p.Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(program) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program))
	}

	a, ok := program[0].(asm.AInstruction)
	if !ok || a.Location != "3" {
		t.Errorf("expected A-instruction '@3', got %+v", program[0])
	}
	c, ok := program[1].(asm.CInstruction)
	if !ok || c.Dest != "D" || c.Comp != "D-A" || c.Jump != "JMP" {
		t.Errorf("expected 'D=D-A;JMP', got %+v", program[1])
	}
}

func TestParserRejectsOutOfRangeAddress(t *testing.T) {
	_, errs := asm.NewParser("@32768\n").Parse()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
}

func TestParserRejectsMalformedDestination(t *testing.T) {
	_, errs := asm.NewParser("D1=1\n").Parse()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
}

func TestParserAccumulatesErrorsAcrossLines(t *testing.T) {
	// Two independently malformed lines: panic-mode recovery must surface both,
	// not let the first bad token cascade into a spurious second error.
	_, errs := asm.NewParser("(123)\nD1=1\n@1\n").Parse()
	if len(errs) != 2 {
		t.Fatalf("expected exactly two errors, got %d: %v", len(errs), errs)
	}
}

func TestParserLabelDeclarationsDoNotCountTowardProgramCounter(t *testing.T) {
	program, errs := asm.NewParser("(START)\n@1\n(MID)\n@2\n(END)\n").Parse()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected lowering error: %v", err)
	}
	if len(hackProgram) != 2 {
		t.Fatalf("expected labels to emit no instructions, got %d", len(hackProgram))
	}
	if table["START"] != 0 || table["MID"] != 1 || table["END"] != 2 {
		t.Errorf("expected START=0, MID=1, END=2, got %v", table)
	}
}
