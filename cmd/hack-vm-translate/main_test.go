package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHackVmTranslateSingleFileSkipsBootstrap(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Add.vm")
	const src = "push constant 7\npush constant 8\nadd\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}

	status := Handler([]string{input}, nil)
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	got, err := os.ReadFile(filepath.Join(dir, "Add.asm"))
	if err != nil {
		t.Fatalf("reading output: %s", err)
	}

	// Constant folding turns "push constant 7; push constant 8; add" into
	// push constant 15, which loads literal 15 into D via an A-instruction.
	if !strings.Contains(string(got), "@15") {
		t.Errorf("expected generated assembly to load folded constant 15, got:\n%s", got)
	}
	// A single-file translation unit never emits the SP=256 bootstrap preamble.
	if strings.Contains(string(got), "@256") {
		t.Errorf("single-file translation should not emit the bootstrap preamble, got:\n%s", got)
	}
}

func TestHackVmTranslateDirectoryEmitsBootstrap(t *testing.T) {
	dir := t.TempDir()
	sysSrc := "function Sys.init 0\npush constant 0\npop temp 0\nlabel WHILE\ngoto WHILE\n"
	if err := os.WriteFile(filepath.Join(dir, "Sys.vm"), []byte(sysSrc), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}

	status := Handler([]string{dir}, nil)
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	outName := filepath.Base(filepath.Clean(dir)) + ".asm"
	got, err := os.ReadFile(filepath.Join(dir, outName))
	if err != nil {
		t.Fatalf("reading output: %s", err)
	}

	// A directory build always gets the SP=256 / call Sys.init bootstrap.
	if !strings.Contains(string(got), "@256") {
		t.Errorf("directory build should emit the bootstrap preamble, got:\n%s", got)
	}
}

func TestHackVmTranslateMissingArgument(t *testing.T) {
	if status := Handler(nil, nil); status != 1 {
		t.Errorf("expected exit status 1 on missing argument, got %d", status)
	}
}
