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
	"hackstack/pkg/utils"
)

var Description = strings.ReplaceAll(`
The Analyzer is a diagnostic companion to the Compiler: for every input
class it writes a token-stream XML file and a parse-tree XML file
side by side with the source, without performing code generation.
`, "\n", " ")

var JackAnalyze = cli.New(Description).
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

	for _, src := range sources {
		content, err := os.ReadFile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to read '%s': %s\n", src, err)
			return 1
		}

		tokensPath := strings.TrimSuffix(src, filepath.Ext(src)) + "T.xml"
		if err := writeFile(tokensPath, tokensXML(string(content))); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to write '%s': %s\n", tokensPath, err)
			return 1
		}
		fmt.Printf("wrote %s\n", tokensPath)

		class, err := jack.NewParser(string(content)).Parse()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s (%s)\n", err.Error(), src)
			return 1
		}

		treePath := strings.TrimSuffix(src, filepath.Ext(src)) + ".xml"
		if err := writeFile(treePath, classXML(class)); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unable to write '%s': %s\n", treePath, err)
			return 1
		}
		fmt.Printf("wrote %s\n", treePath)
	}

	return 0
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// keywords distinguishes the reserved words the tokenizer folds into
// Identifier tokens from plain user-declared names.
var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

var symbolText = map[jack.Kind]string{
	jack.LBrace: "{", jack.RBrace: "}", jack.LParen: "(", jack.RParen: ")",
	jack.LBracket: "[", jack.RBracket: "]", jack.Comma: ",", jack.Semicolon: ";",
	jack.Dot: ".", jack.Plus: "+", jack.Minus: "-", jack.Star: "*", jack.Slash: "/",
	jack.Amp: "&", jack.Pipe: "|", jack.Lt: "<", jack.Gt: ">", jack.Eq: "=", jack.Tilde: "~",
}

// tokensXML re-tokenizes src independently of the parser, so a malformed
// token stream can still be inspected even when the parser itself fails.
func tokensXML(src string) string {
	w := &xmlWriter{}
	w.open("tokens")
	tokenizer := jack.NewTokenizer(src)
	for {
		tok := tokenizer.NextToken()
		if tok.Kind == jack.EOF {
			break
		}
		if tok.Kind == jack.Comment {
			continue
		}
		switch tok.Kind {
		case jack.Identifier:
			if keywords[tok.Text] {
				w.leaf("keyword", tok.Text)
			} else {
				w.leaf("identifier", tok.Text)
			}
		case jack.Number:
			w.leaf("integerConstant", tok.Text)
		case jack.String:
			w.leaf("stringConstant", tok.Text)
		case jack.Invalid:
			w.leaf("error", tok.Text)
		default:
			if text, ok := symbolText[tok.Kind]; ok {
				w.leaf("symbol", text)
			}
		}
	}
	w.close()
	return w.String()
}

func classXML(class jack.Class) string {
	w := &xmlWriter{}
	w.open("class")
	w.leaf("identifier", class.Name)
	for _, name := range class.Fields.Keys() {
		field, _ := class.Fields.Get(name)
		classVarDecXML(w, field)
	}
	for _, name := range class.Subroutines.Keys() {
		sub, _ := class.Subroutines.Get(name)
		subroutineXML(w, sub)
	}
	w.close()
	return w.String()
}

func classVarDecXML(w *xmlWriter, v jack.Variable) {
	w.open("classVarDec")
	w.leaf("keyword", string(v.Kind))
	w.leaf("keyword", typeName(v))
	w.leaf("identifier", v.Name)
	w.close()
}

func subroutineXML(w *xmlWriter, sub jack.Subroutine) {
	w.open("subroutineDec")
	w.leaf("keyword", string(sub.Kind))
	w.leaf("identifier", sub.Name)
	w.open("parameterList")
	for _, arg := range sub.Arguments {
		w.leaf("keyword", typeName(arg))
		w.leaf("identifier", arg.Name)
	}
	w.close()
	w.open("subroutineBody")
	statementsXML(w, sub.Statements)
	w.close()
	w.close()
}

func typeName(v jack.Variable) string {
	if v.Type == jack.Object {
		return v.ClassName
	}
	return string(v.Type)
}

func statementsXML(w *xmlWriter, stmts []jack.Statement) {
	w.open("statements")
	for _, s := range stmts {
		statementXML(w, s)
	}
	w.close()
}

func statementXML(w *xmlWriter, s jack.Statement) {
	switch st := s.(type) {
	case jack.VarDeclStmt:
		w.open("varDec")
		for _, v := range st.Vars {
			w.leaf("identifier", v.Name)
		}
		w.close()
	case jack.LetStmt:
		w.open("letStatement")
		expressionXML(w, st.Target)
		expressionXML(w, st.Value)
		w.close()
	case jack.IfStmt:
		w.open("ifStatement")
		expressionXML(w, st.Cond)
		statementsXML(w, st.Then)
		if st.Else != nil {
			statementsXML(w, st.Else)
		}
		w.close()
	case jack.WhileStmt:
		w.open("whileStatement")
		expressionXML(w, st.Cond)
		statementsXML(w, st.Body)
		w.close()
	case jack.DoStmt:
		w.open("doStatement")
		expressionXML(w, st.Call)
		w.close()
	case jack.ReturnStmt:
		w.open("returnStatement")
		if st.Value != nil {
			expressionXML(w, st.Value)
		}
		w.close()
	}
}

func expressionXML(w *xmlWriter, e jack.Expression) {
	switch expr := e.(type) {
	case jack.IntLiteral:
		w.leaf("integerConstant", fmt.Sprintf("%d", expr.Value))
	case jack.StringLiteral:
		w.leaf("stringConstant", expr.Value)
	case jack.BoolLiteral:
		w.leaf("keyword", fmt.Sprintf("%t", expr.Value))
	case jack.NullLiteral:
		w.leaf("keyword", "null")
	case jack.VarExpr:
		w.leaf("identifier", expr.Name)
	case jack.IndexExpr:
		w.open("indexExpression")
		w.leaf("identifier", expr.Name)
		expressionXML(w, expr.Index)
		w.close()
	case jack.UnaryExpr:
		w.open("unaryExpression")
		w.leaf("symbol", string(expr.Op))
		expressionXML(w, expr.Rhs)
		w.close()
	case jack.BinaryExpr:
		w.open("expression")
		expressionXML(w, expr.Lhs)
		w.leaf("symbol", string(expr.Op))
		expressionXML(w, expr.Rhs)
		w.close()
	case jack.CallExpr:
		w.open("callExpression")
		if expr.HasReceiver {
			w.leaf("identifier", expr.Receiver)
		}
		w.leaf("identifier", expr.Name)
		for _, arg := range expr.Args {
			expressionXML(w, arg)
		}
		w.close()
	}
}

// xmlWriter renders a nested tag tree without a caller ever having to name
// a tag twice: open pushes the tag onto a stack and close pops and re-emits
// whatever is on top, so a mismatched open/close pair fails loudly instead
// of silently producing the wrong closing tag.
type xmlWriter struct {
	buf   strings.Builder
	stack utils.Stack[string]
	depth int
}

func (w *xmlWriter) open(tag string) {
	w.indent()
	fmt.Fprintf(&w.buf, "<%s>\n", tag)
	w.stack.Push(tag)
	w.depth++
}

func (w *xmlWriter) close() {
	tag, err := w.stack.Pop()
	if err != nil {
		panic("xmlWriter: close called with no matching open")
	}
	w.depth--
	w.indent()
	fmt.Fprintf(&w.buf, "</%s>\n", tag)
}

func (w *xmlWriter) leaf(tag, text string) {
	w.indent()
	fmt.Fprintf(&w.buf, "<%s> %s </%s>\n", tag, escape(text), tag)
}

func (w *xmlWriter) indent() {
	w.buf.WriteString(strings.Repeat("  ", w.depth))
}

func (w *xmlWriter) String() string { return w.buf.String() }

func escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}

func main() { os.Exit(JackAnalyze.Run(os.Args, os.Stdout)) }
