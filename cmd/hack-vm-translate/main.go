package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"

	"hackstack/pkg/asm"
	"hackstack/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates one or more modules written in the VM stack-
machine language into Hack assembly, implementing the calling convention,
global static allocation, and label scoping the VM language relies on. A
directory input is treated as a whole program and gets the bootstrap
sequence; a single file is translated standalone. Every module runs
through a constant-folding peephole pass before lowering.
`, "\n", " ")

var HackVmTranslate = cli.New(Description).
	WithArg(cli.NewArg("path", "A single .vm file, or a directory containing one or more .vm files")).
	WithOption(cli.NewOption("dce", "Drops functions unreachable from Sys.init or any module prelude").WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: missing required 'path' argument, use --help\n")
		return 1
	}
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to stat input path: %s\n", err)
		return 1
	}

	var sources []string
	var output string
	var withBootstrap bool

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to read input directory: %s\n", err)
			return 1
		}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".vm" {
				sources = append(sources, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(sources)

		dirName := filepath.Base(filepath.Clean(path))
		output = filepath.Join(path, dirName+".asm")
		withBootstrap = true
	} else {
		sources = []string{path}
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".asm"
		withBootstrap = false
	}

	// Aggregates every translation unit (one .vm file per module) into a single
	// program, keyed by module/file stem, so the lowerer can resolve calls and
	// static-segment symbols across the whole input.
	program := vm.Program{}
	for _, src := range sources {
		content, err := os.ReadFile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to read '%s': %s\n", src, err)
			return 1
		}

		module, errs := vm.NewParser(string(content)).Parse()
		if len(errs) > 0 {
			for _, diag := range errs {
				fmt.Fprintf(os.Stderr, "%s (%s)\n", diag.Error(), src)
			}
			return 1
		}

		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		program[stem] = vm.FoldConstants(module)
	}

	_, withDCE := options["dce"]
	lowerer := vm.NewLowerer(program, withBootstrap, withDCE)
	asmProgram, err := lowerer.Lower()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to complete 'lowering' pass: %s\n", err)
		return 1
	}

	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to complete 'codegen' pass: %s\n", err)
		return 1
	}

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

func main() { os.Exit(HackVmTranslate.Run(os.Args, os.Stdout)) }
