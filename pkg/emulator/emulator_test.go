package emulator_test

import (
	"strconv"
	"strings"
	"testing"

	"hackstack/pkg/emulator"
)

func wordsToProgram(t *testing.T, words ...string) []uint16 {
	t.Helper()
	rom := make([]uint16, len(words))
	for i, w := range words {
		n, err := strconv.ParseUint(w, 2, 16)
		if err != nil {
			t.Fatalf("bad test fixture word %q: %v", w, err)
		}
		rom[i] = uint16(n)
	}
	return rom
}

func TestLoadProgramParsesHackText(t *testing.T) {
	rom, err := emulator.LoadProgram("0000000000000011\n1110010011010111\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rom) != 2 || rom[0] != 3 {
		t.Fatalf("unexpected ROM: %+v", rom)
	}
}

func TestLoadProgramRejectsMalformedWord(t *testing.T) {
	if _, err := emulator.LoadProgram("not-binary\n"); err == nil {
		t.Fatalf("expected an error for a malformed machine word")
	}
}

func TestStepAInstructionSetsAAndAdvancesPC(t *testing.T) {
	cpu := emulator.NewCPU(wordsToProgram(t, "0000000000101010"))
	if _, err := cpu.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu.A != 42 || cpu.PC != 1 {
		t.Errorf("expected A=42, PC=1, got A=%d PC=%d", cpu.A, cpu.PC)
	}
}

func TestStepAssemblerRoundTripScenario(t *testing.T) {
	// "@3\nD=D-A;JMP\n" assembles to this pair (per the assembler round-trip
	// scenario): load 3 into A, then compute D-A, store to D, and jump
	// unconditionally to address A (PC=3, past the end of this 2-word ROM).
	cpu := emulator.NewCPU(wordsToProgram(t, "0000000000000011", "1110010011010111"))
	cpu.D = 10

	if _, err := cpu.Step(); err != nil { // "@3"
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu.A != 3 {
		t.Fatalf("expected A=3 after @3, got %d", cpu.A)
	}

	res, err := cpu.Step() // "D=D-A;JMP"
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu.D != 7 {
		t.Errorf("expected D=10-3=7, got %d", cpu.D)
	}
	if !res.Jumped || cpu.PC != 3 {
		t.Errorf("expected an unconditional jump to PC=3, got jumped=%v PC=%d", res.Jumped, cpu.PC)
	}
}

func TestStepWritesMOnDestM(t *testing.T) {
	// "@100" then "M=1" (comp=1, dest=M): 111 0111111 001 000
	cpu := emulator.NewCPU(wordsToProgram(t, "0000000001100100", "1110111111001000"))
	if _, err := cpu.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := cpu.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.WroteM {
		t.Errorf("expected WroteM=true")
	}
	if cpu.RAM[100] != 1 {
		t.Errorf("expected RAM[100]=1, got %d", cpu.RAM[100])
	}
}

func TestStepAddWrapsOnOverflow(t *testing.T) {
	// "D=D+1" repeated from D=0xFFFF must wrap to 0, not panic or clamp.
	cpu := emulator.NewCPU(wordsToProgram(t, "1110011111010000"))
	cpu.D = 0xFFFF
	if _, err := cpu.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cpu.D != 0 {
		t.Errorf("expected D+1 to wrap from 0xFFFF to 0, got %d", cpu.D)
	}
}

func TestStepJumpConditionsAreSignedEvenThoughArithmeticIsUnsigned(t *testing.T) {
	// D = 0xFFFE (-2 signed). "D;JLT" must take the jump because -2 < 0,
	// even though 0xFFFE is "large" as an unsigned u16.
	cpu := emulator.NewCPU(wordsToProgram(t, "1110001100000100"))
	cpu.D = 0xFFFE
	res, err := cpu.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Jumped {
		t.Errorf("expected JLT to take the jump on a negative signed value")
	}
}

func TestStepRomOutOfBoundsIsFatal(t *testing.T) {
	cpu := emulator.NewCPU(nil)
	if _, err := cpu.Step(); err == nil {
		t.Fatalf("expected an error stepping an empty ROM")
	}
}

func TestStepRamOutOfBoundsOnWrite(t *testing.T) {
	// "@24577" (one past KBD, the top of addressable memory) then "M=0".
	cpu := emulator.NewCPU(wordsToProgram(t, "0110000000000001", "1110101010001000"))
	if _, err := cpu.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cpu.Step(); err == nil {
		t.Fatalf("expected a RAM-out-of-bounds error")
	}
}

func TestRunWritesTraceLines(t *testing.T) {
	cpu := emulator.NewCPU(wordsToProgram(t, "0000000000000011", "1110010011010111"))
	var buf strings.Builder
	steps, err := cpu.Run(2, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps != 2 {
		t.Errorf("expected 2 steps taken, got %d", steps)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 trace lines, got %d: %q", len(lines), buf.String())
	}
	fields := strings.Fields(lines[0])
	if len(fields) != 3+16 {
		t.Errorf("expected 'D A PC' plus 16 RAM words per trace line, got %d fields", len(fields))
	}
}

func TestStepDecodesZeroComp(t *testing.T) {
	cpu := emulator.NewCPU(wordsToProgram(t, "1110101010000000")) // comp "0", no dest/jump
	cpu.D, cpu.A = 5, 9
	if _, err := cpu.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// With no dest bits set the computed value is discarded; this test only
	// confirms the "0" comp code decodes without error, covering the
	// all-zero edge of the 28-entry table exercised more thoroughly by the
	// dedicated add/sub/jump cases above.
}
