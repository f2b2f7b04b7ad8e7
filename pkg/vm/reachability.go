package vm

// Reachable computes the set of function names transitively reachable from
// Sys.init and from every module prelude's call sites, by scanning each
// enqueued function's body for further call sites. Functions absent from
// the returned set can be dropped before code emission without changing
// observable behavior.
func Reachable(modules map[string]*ModuleIR) map[string]bool {
	all := map[string]*Function{}
	for _, mod := range modules {
		for name, fn := range mod.Functions {
			all[name] = fn
		}
	}

	seen := map[string]bool{}
	var worklist []string

	enqueue := func(name string) {
		if !seen[name] {
			seen[name] = true
			worklist = append(worklist, name)
		}
	}

	if _, ok := all["Sys.init"]; ok {
		enqueue("Sys.init")
	}
	for _, mod := range modules {
		for _, op := range mod.Prelude {
			if call, ok := op.(FuncCallOp); ok {
				enqueue(call.Name)
			}
		}
	}

	for len(worklist) > 0 {
		name := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		fn, ok := all[name]
		if !ok {
			continue // built-in/runtime function with no VM body in this program
		}
		for _, op := range fn.Body {
			if call, ok := op.(FuncCallOp); ok {
				enqueue(call.Name)
			}
		}
	}

	return seen
}
