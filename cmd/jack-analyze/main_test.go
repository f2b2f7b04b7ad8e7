package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJackAnalyzeWritesTokensAndParseTree(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Sys.jack")
	const src = `class Sys { function void main() { return; } }`
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}

	status := Handler([]string{input}, nil)
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	tokens, err := os.ReadFile(filepath.Join(dir, "SysT.xml"))
	if err != nil {
		t.Fatalf("reading token dump: %s", err)
	}
	for _, want := range []string{"<tokens>", "<keyword> class </keyword>", "<identifier> Sys </identifier>", "</tokens>"} {
		if !strings.Contains(string(tokens), want) {
			t.Errorf("expected token dump to contain %q, got:\n%s", want, tokens)
		}
	}

	tree, err := os.ReadFile(filepath.Join(dir, "Sys.xml"))
	if err != nil {
		t.Fatalf("reading parse-tree dump: %s", err)
	}
	for _, want := range []string{"<class>", "<subroutineDec>", "</class>"} {
		if !strings.Contains(string(tree), want) {
			t.Errorf("expected parse-tree dump to contain %q, got:\n%s", want, tree)
		}
	}
}

func TestJackAnalyzeMissingArgument(t *testing.T) {
	if status := Handler(nil, nil); status != 1 {
		t.Errorf("expected exit status 1 on missing argument, got %d", status)
	}
}
