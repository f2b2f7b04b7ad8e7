package jack_test

import (
	"testing"

	"hackstack/pkg/jack"
)

func TestParserParsesMinimalClass(t *testing.T) {
	src := `class Main {
		function void main() {
			return;
		}
	}`

	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.Name != "Main" {
		t.Errorf("expected class name Main, got %q", class.Name)
	}
	if class.Subroutines.Size() != 1 {
		t.Fatalf("expected 1 subroutine, got %d", class.Subroutines.Size())
	}

	main, ok := class.Subroutines.Get("main")
	if !ok {
		t.Fatalf("expected subroutine 'main'")
	}
	if main.Kind != jack.Function || main.Return != jack.Void {
		t.Errorf("unexpected subroutine shape: %+v", main)
	}
}

func TestParserParsesFieldsAndStatics(t *testing.T) {
	src := `class Point {
		field int x, y;
		static int count;

		constructor Point new(int ax, int ay) {
			let x = ax;
			let y = ay;
			return this;
		}
	}`

	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.Fields.Size() != 3 {
		t.Fatalf("expected 3 fields, got %d", class.Fields.Size())
	}

	x, ok := class.Fields.Get("x")
	if !ok || x.Kind != jack.Field || x.Type != jack.Int {
		t.Errorf("unexpected field 'x': %+v", x)
	}
	count, ok := class.Fields.Get("count")
	if !ok || count.Kind != jack.Static {
		t.Errorf("unexpected field 'count': %+v", count)
	}
}

func TestParserDisambiguatesCallForms(t *testing.T) {
	src := `class Main {
		function void main() {
			do Output.printInt(1);
			do Memory.peek(2);
			return;
		}
	}`

	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	main, _ := class.Subroutines.Get("main")
	if len(main.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(main.Statements))
	}
	do0, ok := main.Statements[0].(jack.DoStmt)
	if !ok {
		t.Fatalf("expected DoStmt, got %T", main.Statements[0])
	}
	if !do0.Call.HasReceiver || do0.Call.Receiver != "Output" || do0.Call.Name != "printInt" {
		t.Errorf("unexpected call: %+v", do0.Call)
	}
}

func TestParserExpressionPrecedenceIsLeftAssociative(t *testing.T) {
	// "1 - 2 - 3" must parse as "(1 - 2) - 3", not "1 - (2 - 3)": the
	// outermost BinaryExpr's Lhs must itself be a BinaryExpr.
	src := `class Main {
		function int main() {
			return 1 - 2 - 3;
		}
	}`
	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	main, _ := class.Subroutines.Get("main")
	ret := main.Statements[0].(jack.ReturnStmt)
	top, ok := ret.Value.(jack.BinaryExpr)
	if !ok || top.Op != jack.Sub {
		t.Fatalf("expected top-level subtraction, got %+v", ret.Value)
	}
	if _, ok := top.Lhs.(jack.BinaryExpr); !ok {
		t.Errorf("expected left-associative nesting, got Lhs=%T", top.Lhs)
	}
	if lit, ok := top.Rhs.(jack.IntLiteral); !ok || lit.Value != 3 {
		t.Errorf("expected Rhs to be literal 3, got %+v", top.Rhs)
	}
}

func TestParserBitwiseBindsTighterThanArithmetic(t *testing.T) {
	// "1 + 2 & 3" must parse as "1 + (2 & 3)" per the precedence table
	// (& binds tighter than +), so the top-level operator is '+'.
	src := `class Main {
		function int main() {
			return 1 + 2 & 3;
		}
	}`
	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	main, _ := class.Subroutines.Get("main")
	ret := main.Statements[0].(jack.ReturnStmt)
	top, ok := ret.Value.(jack.BinaryExpr)
	if !ok || top.Op != jack.Add {
		t.Fatalf("expected top-level addition, got %+v", ret.Value)
	}
	if rhs, ok := top.Rhs.(jack.BinaryExpr); !ok || rhs.Op != jack.BitAnd {
		t.Errorf("expected Rhs to be a bitwise-and, got %+v", top.Rhs)
	}
}

func TestParserStopsAtFirstError(t *testing.T) {
	src := `class Main {
		function void main() {
			let x = ;
		}
	}`
	_, err := jack.NewParser(src).Parse()
	if err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestParserArrayIndexAndMethodCall(t *testing.T) {
	src := `class Main {
		function void main() {
			let a[0] = b.getValue();
			return;
		}
	}`
	class, err := jack.NewParser(src).Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	main, _ := class.Subroutines.Get("main")
	let, ok := main.Statements[0].(jack.LetStmt)
	if !ok {
		t.Fatalf("expected LetStmt, got %T", main.Statements[0])
	}
	idx, ok := let.Target.(jack.IndexExpr)
	if !ok || idx.Name != "a" {
		t.Errorf("unexpected let target: %+v", let.Target)
	}
	call, ok := let.Value.(jack.CallExpr)
	if !ok || !call.HasReceiver || call.Receiver != "b" || call.Name != "getValue" {
		t.Errorf("unexpected let value: %+v", let.Value)
	}
}
