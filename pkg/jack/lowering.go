package jack

import (
	"fmt"
	"sort"

	"hackstack/pkg/utils"
	"hackstack/pkg/vm"
)

// Lowerer walks a Program's class ASTs and produces the corresponding
// vm.Program, one module per class. Classes are processed in name-sorted
// order and share one ScopeTable (each class pushes and pops its own class
// scope); the label counter is scoped to the Lowerer instance, so output is
// deterministic across runs on identical input.
type Lowerer struct {
	program utils.OrderedMap[string, Class]
	scopes  ScopeTable
	labels  int
	errs    []error
}

// NewLowerer builds a Lowerer over program, sorting classes by name so the
// underlying Go map's non-deterministic iteration order never leaks into
// the generated label numbering.
func NewLowerer(program Program) *Lowerer {
	names := make([]string, 0, len(program))
	for name := range program {
		names = append(names, name)
	}
	sort.Strings(names)

	om := utils.OrderedMap[string, Class]{}
	for _, name := range names {
		om.Set(name, program[name])
	}
	return &Lowerer{program: om}
}

// Lower runs code generation over every class. It accumulates diagnostics
// rather than aborting on the first one (matching the code generator's
// "continue after RedefinedSymbol" contract), returning both the program
// built so far and every collected error.
func (l *Lowerer) Lower() (vm.Program, []error) {
	out := vm.Program{}
	for _, class := range l.program.Entries() {
		ops, err := l.lowerClass(class)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("class '%s': %w", class.Name, err))
			continue
		}
		out[class.Name] = vm.Module(ops)
	}
	return out, l.errs
}

func (l *Lowerer) lowerClass(class Class) ([]vm.Operation, error) {
	l.scopes.PushClassScope(class.Name)
	defer l.scopes.PopClassScope()

	for _, field := range class.Fields.Entries() {
		if err := l.scopes.RegisterVariableChecked(field); err != nil {
			l.errs = append(l.errs, fmt.Errorf("class '%s': %w", class.Name, err))
		}
	}

	var ops []vm.Operation
	for _, sub := range class.Subroutines.Entries() {
		fnOps, err := l.lowerSubroutine(class, sub)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("class '%s', subroutine '%s': %w", class.Name, sub.Name, err))
			continue
		}
		ops = append(ops, fnOps...)
	}
	return ops, nil
}

func (l *Lowerer) lowerSubroutine(class Class, sub Subroutine) ([]vm.Operation, error) {
	l.scopes.PushSubRoutineScope(sub.Name)
	defer l.scopes.PopSubroutineScope()

	if sub.Kind == Method {
		// The receiver occupies arg 0, so the declared parameters start at
		// arg 1. A bare `this` expression lowers to pointer 0 without a
		// lookup; a call on `this` resolves this entry to find its class.
		l.scopes.RegisterVariable(Variable{Name: "this", Kind: Arg, Type: Object, ClassName: class.Name})
	}
	for _, arg := range sub.Arguments {
		if err := l.scopes.RegisterVariableChecked(arg); err != nil {
			l.errs = append(l.errs, err)
		}
	}

	var nLocals uint16
	var body []vm.Operation
	for _, stmt := range sub.Statements {
		if decl, ok := stmt.(VarDeclStmt); ok {
			for _, v := range decl.Vars {
				if err := l.scopes.RegisterVariableChecked(v); err != nil {
					l.errs = append(l.errs, err)
				}
				nLocals++
			}
			continue
		}
		ops, err := l.lowerStatement(class, sub, stmt)
		if err != nil {
			return nil, err
		}
		body = append(body, ops...)
	}

	fnName := fmt.Sprintf("%s.%s", class.Name, sub.Name)
	out := []vm.Operation{vm.FuncDecl{Name: fnName, NLocal: nLocals}}

	switch sub.Kind {
	case Constructor:
		var nFields uint16
		for _, f := range class.Fields.Entries() {
			if f.Kind == Field {
				nFields++
			}
		}
		out = append(out,
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: nFields},
			vm.FuncCallOp{Name: "Memory.alloc", NArgs: 1},
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0},
		)
	case Method:
		out = append(out,
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0},
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0},
		)
	}

	return append(out, body...), nil
}

func (l *Lowerer) lowerStatements(class Class, sub Subroutine, stmts []Statement) ([]vm.Operation, error) {
	var out []vm.Operation
	for _, stmt := range stmts {
		ops, err := l.lowerStatement(class, sub, stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
	}
	return out, nil
}

func (l *Lowerer) lowerStatement(class Class, sub Subroutine, stmt Statement) ([]vm.Operation, error) {
	switch s := stmt.(type) {
	case DoStmt:
		ops, err := l.lowerCall(class, sub, s.Call)
		if err != nil {
			return nil, err
		}
		return append(ops, vm.MemoryOp{Operation: vm.Pop, Segment: vm.Temp, Offset: 0}), nil

	case LetStmt:
		return l.lowerLet(class, sub, s)

	case IfStmt:
		return l.lowerIf(class, sub, s)

	case WhileStmt:
		return l.lowerWhile(class, sub, s)

	case ReturnStmt:
		if s.Value == nil {
			return []vm.Operation{
				vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
				vm.ReturnOp{},
			}, nil
		}
		ops, err := l.lowerExpr(class, sub, s.Value)
		if err != nil {
			return nil, err
		}
		return append(ops, vm.ReturnOp{}), nil

	default:
		return nil, fmt.Errorf("unrecognized statement %T", stmt)
	}
}

func (l *Lowerer) segmentFor(kind VarKind) vm.SegmentType {
	switch kind {
	case Local:
		return vm.Local
	case Arg:
		return vm.Argument
	case Field:
		return vm.This
	case Static:
		return vm.Static
	default:
		return vm.Constant
	}
}

func (l *Lowerer) lowerLet(class Class, sub Subroutine, s LetStmt) ([]vm.Operation, error) {
	rhs, err := l.lowerExpr(class, sub, s.Value)
	if err != nil {
		return nil, err
	}

	switch target := s.Target.(type) {
	case VarExpr:
		offset, v, err := l.scopes.ResolveVariable(target.Name)
		if err != nil {
			return nil, err
		}
		return append(rhs, vm.MemoryOp{Operation: vm.Pop, Segment: l.segmentFor(v.Kind), Offset: offset}), nil

	case IndexExpr:
		// The spec's assignment order matters: the RHS value is evaluated
		// and left on the stack BEFORE the array-pointer arithmetic, so the
		// final "pop that 0" consumes the RHS while "pointer 1" now points
		// at the target cell.
		base, err := l.lowerExpr(class, sub, VarExpr{Name: target.Name})
		if err != nil {
			return nil, err
		}
		idx, err := l.lowerExpr(class, sub, target.Index)
		if err != nil {
			return nil, err
		}

		ptrOps := append(append([]vm.Operation{}, base...), idx...)
		ptrOps = append(ptrOps, vm.ArithmeticOp{Operation: vm.Add})

		out := append(rhs, ptrOps...)
		out = append(out,
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1},
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.That, Offset: 0},
		)
		return out, nil

	default:
		return nil, fmt.Errorf("let target must be a variable or array index, got %T", s.Target)
	}
}

func (l *Lowerer) lowerIf(class Class, sub Subroutine, s IfStmt) ([]vm.Operation, error) {
	cond, err := l.lowerExpr(class, sub, s.Cond)
	if err != nil {
		return nil, err
	}
	thenOps, err := l.lowerStatements(class, sub, s.Then)
	if err != nil {
		return nil, err
	}

	if len(s.Else) == 0 {
		elseLabel := fmt.Sprintf("ELSE_%d", l.labels)
		l.labels++

		out := append(cond, vm.ArithmeticOp{Operation: vm.Not}, vm.GotoOp{Jump: vm.Conditional, Label: elseLabel})
		out = append(out, thenOps...)
		return append(out, vm.LabelDecl{Name: elseLabel}), nil
	}

	elseOps, err := l.lowerStatements(class, sub, s.Else)
	if err != nil {
		return nil, err
	}

	thenLabel := fmt.Sprintf("IF_THEN_%d", l.labels)
	elseLabel := fmt.Sprintf("IF_ELSE_%d", l.labels)
	endLabel := fmt.Sprintf("IF_END_%d", l.labels)
	l.labels++

	out := append(cond, vm.GotoOp{Jump: vm.Conditional, Label: thenLabel}, vm.GotoOp{Jump: vm.Unconditional, Label: elseLabel})
	out = append(out, vm.LabelDecl{Name: thenLabel})
	out = append(out, thenOps...)
	out = append(out, vm.GotoOp{Jump: vm.Unconditional, Label: endLabel}, vm.LabelDecl{Name: elseLabel})
	out = append(out, elseOps...)
	return append(out, vm.LabelDecl{Name: endLabel}), nil
}

func (l *Lowerer) lowerWhile(class Class, sub Subroutine, s WhileStmt) ([]vm.Operation, error) {
	startLabel := fmt.Sprintf("WHILE_START_%d", l.labels)
	endLabel := fmt.Sprintf("WHILE_END_%d", l.labels)
	l.labels++

	cond, err := l.lowerExpr(class, sub, s.Cond)
	if err != nil {
		return nil, err
	}
	body, err := l.lowerStatements(class, sub, s.Body)
	if err != nil {
		return nil, err
	}

	out := []vm.Operation{vm.LabelDecl{Name: startLabel}}
	out = append(out, cond...)
	out = append(out, vm.ArithmeticOp{Operation: vm.Not}, vm.GotoOp{Jump: vm.Conditional, Label: endLabel})
	out = append(out, body...)
	out = append(out, vm.GotoOp{Jump: vm.Unconditional, Label: startLabel}, vm.LabelDecl{Name: endLabel})
	return out, nil
}

func (l *Lowerer) lowerExpr(class Class, sub Subroutine, expr Expression) ([]vm.Operation, error) {
	switch e := expr.(type) {
	case IntLiteral:
		return []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: e.Value}}, nil

	case BoolLiteral:
		if e.Value {
			return []vm.Operation{
				vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
				vm.ArithmeticOp{Operation: vm.Not},
			}, nil
		}
		return []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0}}, nil

	case NullLiteral:
		return []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0}}, nil

	case StringLiteral:
		ops := []vm.Operation{
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(len(e.Value))},
			vm.FuncCallOp{Name: "String.new", NArgs: 1},
		}
		for _, r := range e.Value {
			ops = append(ops,
				vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(r)},
				vm.FuncCallOp{Name: "String.appendChar", NArgs: 2},
			)
		}
		return ops, nil

	case VarExpr:
		if e.Name == "this" {
			return []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0}}, nil
		}
		offset, v, err := l.scopes.ResolveVariable(e.Name)
		if err != nil {
			return nil, err
		}
		return []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: l.segmentFor(v.Kind), Offset: offset}}, nil

	case IndexExpr:
		base, err := l.lowerExpr(class, sub, VarExpr{Name: e.Name})
		if err != nil {
			return nil, err
		}
		idx, err := l.lowerExpr(class, sub, e.Index)
		if err != nil {
			return nil, err
		}
		out := append(append([]vm.Operation{}, idx...), base...)
		out = append(out,
			vm.ArithmeticOp{Operation: vm.Add},
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.That, Offset: 0},
		)
		return out, nil

	case UnaryExpr:
		rhs, err := l.lowerExpr(class, sub, e.Rhs)
		if err != nil {
			return nil, err
		}
		op := vm.Neg
		if e.Op == BoolNeg {
			op = vm.Not
		}
		return append(rhs, vm.ArithmeticOp{Operation: op}), nil

	case BinaryExpr:
		lhs, err := l.lowerExpr(class, sub, e.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := l.lowerExpr(class, sub, e.Rhs)
		if err != nil {
			return nil, err
		}
		out := append(append([]vm.Operation{}, lhs...), rhs...)

		switch e.Op {
		case Mul:
			return append(out, vm.FuncCallOp{Name: "Math.multiply", NArgs: 2}), nil
		case Div:
			return append(out, vm.FuncCallOp{Name: "Math.divide", NArgs: 2}), nil
		case Add:
			return append(out, vm.ArithmeticOp{Operation: vm.Add}), nil
		case Sub:
			return append(out, vm.ArithmeticOp{Operation: vm.Sub}), nil
		case BitAnd:
			return append(out, vm.ArithmeticOp{Operation: vm.And}), nil
		case BitOr:
			return append(out, vm.ArithmeticOp{Operation: vm.Or}), nil
		case LessThan:
			return append(out, vm.ArithmeticOp{Operation: vm.Lt}), nil
		case GreatThan:
			return append(out, vm.ArithmeticOp{Operation: vm.Gt}), nil
		case Equal:
			return append(out, vm.ArithmeticOp{Operation: vm.Eq}), nil
		default:
			return nil, fmt.Errorf("unrecognized binary operator %q", e.Op)
		}

	case CallExpr:
		return l.lowerCall(class, sub, e)

	default:
		return nil, fmt.Errorf("unrecognized expression %T", expr)
	}
}

// lowerCall implements the three-case receiver resolution rule: no
// receiver (call on this), receiver resolving as a variable (method call on
// that object), or receiver not resolving (treated as a class name).
func (l *Lowerer) lowerCall(class Class, sub Subroutine, call CallExpr) ([]vm.Operation, error) {
	args, err := l.lowerArgs(class, sub, call.Args)
	if err != nil {
		return nil, err
	}

	if !call.HasReceiver {
		thisPush := vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0}
		fnName := fmt.Sprintf("%s.%s", class.Name, call.Name)
		out := append([]vm.Operation{thisPush}, args...)
		return append(out, vm.FuncCallOp{Name: fnName, NArgs: uint16(len(call.Args) + 1)}), nil
	}

	if _, v, err := l.scopes.ResolveVariable(call.Receiver); err == nil {
		recv, err := l.lowerExpr(class, sub, VarExpr{Name: call.Receiver})
		if err != nil {
			return nil, err
		}
		fnName := fmt.Sprintf("%s.%s", v.ClassName, call.Name)
		out := append(recv, args...)
		return append(out, vm.FuncCallOp{Name: fnName, NArgs: uint16(len(call.Args) + 1)}), nil
	}

	fnName := fmt.Sprintf("%s.%s", call.Receiver, call.Name)
	return append(args, vm.FuncCallOp{Name: fnName, NArgs: uint16(len(call.Args))}), nil
}

func (l *Lowerer) lowerArgs(class Class, sub Subroutine, args []Expression) ([]vm.Operation, error) {
	var out []vm.Operation
	for _, arg := range args {
		ops, err := l.lowerExpr(class, sub, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
	}
	return out, nil
}
