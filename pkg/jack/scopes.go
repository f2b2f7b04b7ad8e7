package jack

import "fmt"

// Scope is an ordered, append-only list of declarations for one symbol
// kind. Re-declaring a name shadows the earlier entry: lookup always
// returns the most recently pushed match, and its Index is the position
// count excludes neither — each push still consumes a fresh index, exactly
// matching how repeated 'var x' redeclarations still advance the VM slot.
type Scope struct {
	name    string
	entries []Variable
}

func (s *Scope) push(v Variable) { s.entries = append(s.entries, v) }

// resolve returns the most recent entry named name and its index (its
// position in push order), or ok=false if absent.
func (s *Scope) resolve(name string) (Variable, uint16, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Name == name {
			return s.entries[i], uint16(i), true
		}
	}
	return Variable{}, 0, false
}

// ScopeTable implements the Jack symbol table: a class-scoped pair (field,
// static) and a subroutine-scoped pair (local, parameter). static persists
// across class scope pushes/pops within the same ScopeTable value, matching
// Jack's per-program static pool; field/local/parameter are reset per push.
type ScopeTable struct {
	static Scope

	local Scope
	field Scope
	param Scope
}

// PushClassScope begins a new class scope, discarding any previous one.
func (st *ScopeTable) PushClassScope(class string) {
	st.field = Scope{name: class + ".Global"}
}

// PopClassScope discards the current class (field) scope.
func (st *ScopeTable) PopClassScope() { st.field = Scope{} }

// PushSubRoutineScope begins a new subroutine scope nested under the
// current class scope.
func (st *ScopeTable) PushSubRoutineScope(subroutine string) {
	className := "Global"
	if st.field.name != "" {
		className = st.field.name[:len(st.field.name)-len(".Global")]
	}
	scope := fmt.Sprintf("%s.%s", className, subroutine)
	st.local = Scope{name: scope}
	st.param = Scope{name: scope}
}

// PopSubroutineScope discards the current subroutine (local, parameter) scope.
func (st *ScopeTable) PopSubroutineScope() { st.local, st.param = Scope{}, Scope{} }

// GetScope returns "Class.Subroutine", "Class.Global" or "Global" depending
// on what scopes are currently pushed.
func (st *ScopeTable) GetScope() string {
	if st.local.name != "" {
		return st.local.name
	}
	if st.field.name != "" {
		return st.field.name
	}
	return "Global"
}

// RegisterVariable adds v to the scope matching its Kind. Re-registering a
// name already present shadows the earlier declaration for lookup, but
// still advances the index counter for that kind.
func (st *ScopeTable) RegisterVariable(v Variable) {
	switch v.Kind {
	case Local:
		st.local.push(v)
	case Field:
		st.field.push(v)
	case Arg:
		st.param.push(v)
	case Static:
		st.static.push(v)
	}
}

// RegisterVariableChecked behaves like RegisterVariable, but first reports
// whether v.Name already has an entry of the same Kind directly in this
// scope (a RedefinedSymbol). The variable is registered either way, so
// callers can surface the diagnostic and keep generating code.
func (st *ScopeTable) RegisterVariableChecked(v Variable) error {
	var scope *Scope
	switch v.Kind {
	case Local:
		scope = &st.local
	case Field:
		scope = &st.field
	case Arg:
		scope = &st.param
	case Static:
		scope = &st.static
	}

	var err error
	if scope != nil {
		for _, existing := range scope.entries {
			if existing.Name == v.Name {
				err = fmt.Errorf("'%s' redeclared in the same scope", v.Name)
				break
			}
		}
	}
	st.RegisterVariable(v)
	return err
}

// ResolveVariable looks up name, consulting subroutine scope (local, then
// parameter) before class scope (field, then static): the subroutine-then-
// class rule required for every variable reference.
func (st *ScopeTable) ResolveVariable(name string) (uint16, Variable, error) {
	for _, scope := range []*Scope{&st.local, &st.param, &st.field, &st.static} {
		if v, idx, ok := scope.resolve(name); ok {
			return idx, v, nil
		}
	}
	return 0, Variable{}, fmt.Errorf("variable '%s' undeclared, not found in any scope", name)
}
