package vm

import (
	"fmt"
	"sort"

	"hackstack/pkg/asm"
)

// Lowerer translates a parsed Program into Hack assembly statements,
// implementing the full calling convention: caller/callee frame setup via
// shared subroutines, per-function label scoping, and per-module static
// segment isolation. Each instance owns its own label counter and shared-
// subroutine bookkeeping, so labels stay stable across runs on identical input.
type Lowerer struct {
	program       Program
	withBootstrap bool
	withDCE       bool

	labelCounter      int
	emittedCallSites  map[string]bool
	returnEmitted     bool
	sharedSubroutines asm.Program
}

// NewLowerer builds a Lowerer over program. withBootstrap controls whether
// the SP-init/call-Sys.init/infinite-loop preamble is emitted (the CLI
// driver enables it for directory inputs, disables it for a single .vm
// file). When withDCE is true, functions unreachable from Sys.init or any
// module prelude are dropped before emission.
func NewLowerer(program Program, withBootstrap, withDCE bool) *Lowerer {
	return &Lowerer{program: program, withBootstrap: withBootstrap, withDCE: withDCE, emittedCallSites: map[string]bool{}}
}

// Lower runs all three translation phases and returns the resulting
// assembly program, ready for asm.CodeGenerator.
func (l *Lowerer) Lower() (asm.Program, error) {
	modules := BuildIR(l.program)

	var reachable map[string]bool
	if l.withDCE {
		reachable = Reachable(modules)
	}

	moduleNames := make([]string, 0, len(modules))
	for name := range modules {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)

	var out asm.Program
	if l.withBootstrap {
		out = append(out, l.bootstrap()...)
	}

	for _, name := range moduleNames {
		mod := modules[name]
		stmts, err := l.emitOps(mod.Name+".$prelude", mod.Name, mod.Prelude)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}

	for _, modName := range moduleNames {
		mod := modules[modName]

		fnNames := make([]string, 0, len(mod.Functions))
		for name := range mod.Functions {
			fnNames = append(fnNames, name)
		}
		sort.Strings(fnNames)

		for _, fnName := range fnNames {
			if l.withDCE && !reachable[fnName] {
				continue
			}
			stmts, err := l.emitFunction(mod.Functions[fnName])
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
	}

	return append(out, l.sharedSubroutines...), nil
}

// bootstrap initializes SP, calls Sys.init and falls into an infinite loop
// (a safety net in case Sys.init were ever to return).
func (l *Lowerer) bootstrap() []asm.Statement {
	out := []asm.Statement{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	out = append(out, l.emitCall("Sys.init", 0)...)
	return append(out,
		asm.LabelDecl{Name: "$vm.end"},
		asm.AInstruction{Location: "$vm.end"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
}

func (l *Lowerer) emitFunction(fn *Function) ([]asm.Statement, error) {
	out := []asm.Statement{asm.LabelDecl{Name: fn.Name}}
	for i := uint16(0); i < fn.NLocal; i++ {
		out = append(out,
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		)
	}

	body, err := l.emitOps(fn.Name, fn.Module, fn.Body)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

func (l *Lowerer) emitOps(scope, moduleName string, ops []Operation) ([]asm.Statement, error) {
	var out []asm.Statement
	for _, op := range ops {
		var stmts []asm.Statement
		var err error

		switch v := op.(type) {
		case MemoryOp:
			stmts, err = l.emitMemoryOp(moduleName, v)
		case ArithmeticOp:
			stmts, err = l.emitArithmeticOp(scope, v)
		case ExtArithOp:
			stmts = l.emitExtArithOp(v)
		case LabelDecl:
			stmts = []asm.Statement{asm.LabelDecl{Name: scope + "$" + v.Name}}
		case GotoOp:
			stmts = l.emitGotoOp(scope, v)
		case FuncCallOp:
			stmts = l.emitCall(v.Name, v.NArgs)
		case ReturnOp:
			stmts = l.emitReturn()
		default:
			return nil, fmt.Errorf("unsupported vm operation %T in module %s", op, moduleName)
		}

		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (l *Lowerer) emitGotoOp(scope string, op GotoOp) []asm.Statement {
	target := scope + "$" + op.Label
	if op.Jump == Unconditional {
		return []asm.Statement{
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}
	}
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: target},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	}
}

func baseRegister(segment SegmentType) (string, bool) {
	switch segment {
	case Local:
		return "LCL", true
	case Argument:
		return "ARG", true
	case This:
		return "THIS", true
	case That:
		return "THAT", true
	default:
		return "", false
	}
}

func (l *Lowerer) emitMemoryOp(moduleName string, op MemoryOp) ([]asm.Statement, error) {
	if op.Segment == Constant {
		if op.Operation != Push {
			return nil, fmt.Errorf("cannot pop to constant virtual memory segment")
		}
		return []asm.Statement{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		}, nil
	}

	if base, indirect := baseRegister(op.Segment); indirect {
		return emitIndirectMemoryOp(op, base), nil
	}

	var location string
	switch op.Segment {
	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
		}
		location = fmt.Sprint(5 + op.Offset)
	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
		}
		if op.Offset == 0 {
			location = "THIS"
		} else {
			location = "THAT"
		}
	case Static:
		location = fmt.Sprintf("%s.%d", moduleName, op.Offset)
	default:
		return nil, fmt.Errorf("unrecognized segment %q", op.Segment)
	}

	if op.Operation == Push {
		return []asm.Statement{
			asm.AInstruction{Location: location},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		}, nil
	}
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}, nil
}

func emitIndirectMemoryOp(op MemoryOp, base string) []asm.Statement {
	if op.Operation == Push {
		if op.Offset == 0 {
			return []asm.Statement{
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "A", Comp: "M"},
				asm.CInstruction{Dest: "D", Comp: "M"},
				asm.AInstruction{Location: "SP"},
				asm.CInstruction{Dest: "A", Comp: "M"},
				asm.CInstruction{Dest: "M", Comp: "D"},
				asm.AInstruction{Location: "SP"},
				asm.CInstruction{Dest: "M", Comp: "M+1"},
			}
		}
		return []asm.Statement{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		}
	}

	if op.Offset == 0 {
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
	}
	return []asm.Statement{
		asm.AInstruction{Location: base},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(op.Offset)},
		asm.CInstruction{Dest: "D", Comp: "D+A"},
		asm.AInstruction{Location: "R15"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R15"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
}

// emitArithmeticOp pops the top operand into D and operates directly on
// *(SP-1) in place, leaving SP already pointing one above the result.
func (l *Lowerer) emitArithmeticOp(scope string, op ArithmeticOp) ([]asm.Statement, error) {
	switch op.Operation {
	case Neg, Not:
		comp := "-M"
		if op.Operation == Not {
			comp = "!M"
		}
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Add, Sub, And, Or:
		comps := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comps[op.Operation]},
		}, nil

	case Eq, Gt, Lt:
		jumps := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}
		label := fmt.Sprintf("%s$cmp_end.%d", scope, l.labelCounter)
		l.labelCounter++
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "D", Comp: "M-D"},
			asm.CInstruction{Dest: "M", Comp: "-1"},
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "D", Jump: jumps[op.Operation]},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.LabelDecl{Name: label},
		}, nil

	default:
		return nil, fmt.Errorf("unrecognized arithmetic operation %q", op.Operation)
	}
}

func (l *Lowerer) emitExtArithOp(op ExtArithOp) []asm.Statement {
	comp := "D+M"
	switch {
	case op.Operation == Sub && op.Reverse:
		comp = "M-D"
	case op.Operation == Sub:
		comp = "D-M"
	}
	return []asm.Statement{
		asm.AInstruction{Location: fmt.Sprint(op.Operand)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

func pushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// emitCall reduces a call site to "load the unique return label into D,
// jump to the shared per-(function,arg-count) subroutine", emitting that
// subroutine once on first use.
func (l *Lowerer) emitCall(name string, nargs uint16) []asm.Statement {
	subroutine := fmt.Sprintf("%s$%d$call", name, nargs)

	if !l.emittedCallSites[subroutine] {
		l.emittedCallSites[subroutine] = true
		l.sharedSubroutines = append(l.sharedSubroutines, l.buildCallSubroutine(subroutine, name, nargs)...)
	}

	retLabel := fmt.Sprintf("%s$ret.%d", subroutine, l.labelCounter)
	l.labelCounter++

	return []asm.Statement{
		asm.AInstruction{Location: retLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: subroutine},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	}
}

func (l *Lowerer) buildCallSubroutine(subroutine, target string, nargs uint16) []asm.Statement {
	out := []asm.Statement{asm.LabelDecl{Name: subroutine}}
	out = append(out, pushD()...) // D already holds the return address, set by the call site

	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		out = append(out, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"})
		out = append(out, pushD()...)
	}

	out = append(out,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(nargs + 5)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		asm.AInstruction{Location: target},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return out
}

func (l *Lowerer) emitReturn() []asm.Statement {
	if !l.returnEmitted {
		l.returnEmitted = true
		l.sharedSubroutines = append(l.sharedSubroutines, buildReturnSubroutine()...)
	}
	return []asm.Statement{
		asm.AInstruction{Location: "$vm.return"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
}

// buildReturnSubroutine is emitted once and shared by every 'return' site.
// It saves the frame pointer and return address in R13/R14 before the frame
// is unwound, since LCL/ARG are overwritten as part of the restore.
func buildReturnSubroutine() []asm.Statement {
	restore := func(target string) []asm.Statement {
		return []asm.Statement{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: target},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
	}

	out := []asm.Statement{
		asm.LabelDecl{Name: "$vm.return"},

		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // R13 = frame

		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // R14 = saved return address

		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // *ARG = return value

		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"}, // SP = ARG + 1
	}

	out = append(out, restore("THAT")...)
	out = append(out, restore("THIS")...)
	out = append(out, restore("ARG")...)
	out = append(out, restore("LCL")...)

	return append(out,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
}
