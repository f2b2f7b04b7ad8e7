package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"hackstack/pkg/asm"
	"hackstack/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly
language and translates it into the 16-bit machine code the Hack computer
executes directly, resolving labels and allocating variable addresses
along the way.
`, "\n", " ")

var HackAssemble = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembly (.asm) file to assemble")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: missing required 'input' argument, use --help\n")
		return 1
	}
	input := args[0]

	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to read input file: %s\n", err)
		return 1
	}

	// Parses the input file content and extracts an AST (an 'asm.Program') from it.
	program, errs := asm.NewParser(string(src)).Parse()
	if len(errs) > 0 {
		for _, diag := range errs {
			fmt.Fprintf(os.Stderr, "%s (%s)\n", diag.Error(), input)
		}
		return 1
	}

	// Lowers the asm.Program to an in-memory representation of its Hack counterpart.
	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to complete 'lowering' pass: %s\n", err)
		return 1
	}

	// Converts each resolved instruction to its binary textual representation.
	codegen := hack.NewCodeGenerator(hackProgram, table)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to complete 'codegen' pass: %s\n", err)
		return 1
	}

	output := strings.TrimSuffix(input, filepath.Ext(input)) + ".hack"
	out, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to open output file: %s\n", err)
		return 1
	}
	defer out.Close()

	for _, line := range compiled {
		fmt.Fprintf(out, "%s\n", line)
	}

	fmt.Printf("wrote %s\n", output)
	return 0
}

func main() { os.Exit(HackAssemble.Run(os.Args, os.Stdout)) }
