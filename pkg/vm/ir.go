package vm

// Function is a single "function" declaration's instruction range: every
// operation from just after the FuncDecl up to (but not including) the
// next FuncDecl or end of module.
type Function struct {
	Name   string
	Module string
	NLocal uint16
	Body   []Operation
}

// ModuleIR is a Module partitioned into its prelude (anything preceding the
// first function declaration) and its named functions.
type ModuleIR struct {
	Name      string
	Prelude   []Operation
	Functions map[string]*Function
}

// BuildIR partitions every module in program into a ModuleIR, keyed by the
// same file-stem name the module already carries in Program.
func BuildIR(program Program) map[string]*ModuleIR {
	result := make(map[string]*ModuleIR, len(program))

	for name, module := range program {
		mod := &ModuleIR{Name: name, Functions: map[string]*Function{}}

		var current *Function
		for _, op := range module {
			if decl, ok := op.(FuncDecl); ok {
				current = &Function{Name: decl.Name, Module: name, NLocal: decl.NLocal}
				mod.Functions[decl.Name] = current
				continue
			}
			if current == nil {
				mod.Prelude = append(mod.Prelude, op)
			} else {
				current.Body = append(current.Body, op)
			}
		}

		result[name] = mod
	}

	return result
}
