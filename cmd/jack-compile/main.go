package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"

	"hackstack/pkg/jack"
	"hackstack/pkg/vm"
)

var Description = strings.ReplaceAll(`
The Jack Compiler compiles one or more classes written in the Jack
object-oriented language into sibling VM modules, one per class. A
directory input compiles every *.jack file found within; a single file
input compiles just that class.
`, "\n", " ")

var JackCompile = cli.New(Description).
	WithArg(cli.NewArg("path", "A single .jack file, or a directory containing one or more .jack files")).
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
	if info.IsDir() {
		walkErr := filepath.Walk(path, func(p string, fi fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() || filepath.Ext(p) != ".jack" {
				return nil
			}
			sources = append(sources, p)
			return nil
		})
		if walkErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to walk input directory: %s\n", walkErr)
			return 1
		}
		sort.Strings(sources)
	} else {
		sources = []string{path}
	}

	program := jack.Program{}
	for _, src := range sources {
		content, err := os.ReadFile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to read '%s': %s\n", src, err)
			return 1
		}

		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		class, err := jack.NewParser(string(content)).Parse()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s (%s)\n", err.Error(), src)
			return 1
		}
		if class.Name != stem {
			fmt.Fprintf(os.Stderr, "ERROR: class '%s' declared in file '%s' must match its filename stem\n", class.Name, src)
			return 1
		}
		program[class.Name] = class
	}

	lowerer := jack.NewLowerer(program)
	vmProgram, errs := lowerer.Lower()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return 1
	}

	codegen := vm.NewCodeGenerator(vmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to complete 'codegen' pass: %s\n", err)
		return 1
	}

	for _, src := range sources {
		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		lines, ok := compiled[stem]
		if !ok {
			fmt.Fprintf(os.Stderr, "ERROR: no compiled module found for class '%s'\n", stem)
			return 1
		}

		outPath := strings.TrimSuffix(src, filepath.Ext(src)) + ".vm"
		out, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to open output file: %s\n", err)
			return 1
		}

		for _, line := range lines {
			fmt.Fprintf(out, "%s\n", line)
		}
		out.Close()

		fmt.Printf("wrote %s\n", outPath)
	}

	return 0
}

func main() { os.Exit(JackCompile.Run(os.Args, os.Stdout)) }
