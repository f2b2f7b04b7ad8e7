package jack

import "testing"

func TestScopeTableResolvesSubroutineScopeBeforeClassScope(t *testing.T) {
	var st ScopeTable
	st.PushClassScope("Point")
	st.RegisterVariable(Variable{Name: "x", Kind: Field, Type: Int})
	st.PushSubRoutineScope("getX")
	st.RegisterVariable(Variable{Name: "x", Kind: Local, Type: Int})

	_, v, err := st.ResolveVariable("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != Local {
		t.Errorf("expected local 'x' to shadow field 'x', got Kind=%v", v.Kind)
	}
}

func TestScopeTableOffsetsAreRawPushOrder(t *testing.T) {
	var st ScopeTable
	st.PushClassScope("Test")
	st.RegisterVariable(Variable{Name: "test_static", Kind: Static})
	st.RegisterVariable(Variable{Name: "test_class", Kind: Static})
	st.RegisterVariable(Variable{Name: "test_static", Kind: Static})
	st.RegisterVariable(Variable{Name: "test_class", Kind: Static})

	offset, _, err := st.ResolveVariable("test_static")
	if err != nil || offset != 2 {
		t.Errorf("expected test_static to resolve at offset 2, got %d (err=%v)", offset, err)
	}
	offset, _, err = st.ResolveVariable("test_class")
	if err != nil || offset != 3 {
		t.Errorf("expected test_class to resolve at offset 3, got %d (err=%v)", offset, err)
	}
}

func TestScopeTablePopSubroutineScopeRestoresClassScope(t *testing.T) {
	var st ScopeTable
	st.PushClassScope("Point")
	st.RegisterVariable(Variable{Name: "x", Kind: Field, Type: Int})

	st.PushSubRoutineScope("getX")
	st.RegisterVariable(Variable{Name: "tmp", Kind: Local, Type: Int})
	st.PopSubroutineScope()

	if _, _, err := st.ResolveVariable("tmp"); err == nil {
		t.Errorf("expected 'tmp' to be unresolvable after its subroutine scope popped")
	}
	if _, v, err := st.ResolveVariable("x"); err != nil || v.Kind != Field {
		t.Errorf("expected field 'x' still resolvable after subroutine pop, got %+v (err=%v)", v, err)
	}
}

func TestScopeTableStaticPersistsAcrossClassScopes(t *testing.T) {
	var st ScopeTable
	st.PushClassScope("A")
	st.RegisterVariable(Variable{Name: "count", Kind: Static, Type: Int})
	st.PopClassScope()

	st.PushClassScope("B")
	if _, v, err := st.ResolveVariable("count"); err != nil || v.Kind != Static {
		t.Errorf("expected static 'count' to persist across class scopes, got %+v (err=%v)", v, err)
	}
}

func TestScopeTableResolveVariableUndeclared(t *testing.T) {
	var st ScopeTable
	st.PushClassScope("Main")
	if _, _, err := st.ResolveVariable("nope"); err == nil {
		t.Errorf("expected an error resolving an undeclared variable")
	}
}

func TestScopeTableRegisterVariableCheckedFlagsRedeclaration(t *testing.T) {
	var st ScopeTable
	st.PushSubRoutineScope("run")

	if err := st.RegisterVariableChecked(Variable{Name: "i", Kind: Local, Type: Int}); err != nil {
		t.Fatalf("unexpected error on first declaration: %v", err)
	}
	err := st.RegisterVariableChecked(Variable{Name: "i", Kind: Local, Type: Int})
	if err == nil {
		t.Fatalf("expected a redeclaration error")
	}

	// Despite the diagnostic, the second 'i' is still registered and wins
	// on lookup so code generation can continue.
	offset, _, resolveErr := st.ResolveVariable("i")
	if resolveErr != nil || offset != 1 {
		t.Errorf("expected redeclared 'i' to still register at offset 1, got %d (err=%v)", offset, resolveErr)
	}
}

func TestScopeTableGetScope(t *testing.T) {
	var st ScopeTable
	if st.GetScope() != "Global" {
		t.Errorf("expected 'Global' with no scopes pushed, got %q", st.GetScope())
	}

	st.PushClassScope("Point")
	if st.GetScope() != "Point.Global" {
		t.Errorf("expected 'Point.Global', got %q", st.GetScope())
	}

	st.PushSubRoutineScope("getX")
	if st.GetScope() != "Point.getX" {
		t.Errorf("expected 'Point.getX', got %q", st.GetScope())
	}
}
