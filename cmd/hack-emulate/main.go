package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"hackstack/pkg/emulator"
)

// maxSteps bounds the emulator's fetch/decode/execute loop so a program
// whose end-loop never naturally halts (the usual Hack convention) still
// returns control to the caller.
const maxSteps = 1_000_000

var Description = strings.ReplaceAll(`
The Emulator runs a compiled Hack machine-code file against a 16-bit CPU
model, up to a hard step cap. With --trace, it prints the D, A and PC
registers plus the first 16 words of RAM before each step executes.
`, "\n", " ")

var HackEmulate = cli.New(Description).
	WithArg(cli.NewArg("input", "The machine code (.hack) file to run")).
	WithOption(cli.NewOption("trace", "Prints 'D A PC RAM[0..15]' before every step").WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: missing required 'input' argument, use --help\n")
		return 1
	}
	input := args[0]

	content, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to read input file: %s\n", err)
		return 1
	}

	rom, err := emulator.LoadProgram(string(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to parse machine code: %s\n", err)
		return 1
	}

	cpu := emulator.NewCPU(rom)

	var trace io.Writer
	if _, withTrace := options["trace"]; withTrace {
		trace = os.Stdout
	}

	steps, err := cpu.Run(maxSteps, trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: halted after %d step(s): %s\n", steps, err)
		return 1
	}

	fmt.Printf("ran %d step(s) (D=%d A=%d PC=%d)\n", steps, int16(cpu.D), int16(cpu.A), cpu.PC)
	return 0
}

func main() { os.Exit(HackEmulate.Run(os.Args, os.Stdout)) }
