// Package jack implements the tokenizer, parser and code generator for the
// Jack object-oriented source language, compiling a single class down to VM
// text instructions.
package jack

import (
	"hackstack/pkg/source"
	"hackstack/pkg/utils"
)

// Program is a set of compiled classes keyed by class name, mirroring
// vm.Program's one-entry-per-compilation-unit shape.
type Program map[string]Class

// ----------------------------------------------------------------------------
// Classes

// Class is the sole top-level construct of a Jack source file: a set of
// fields (the object's state) and subroutines (the code operating on it).
type Class struct {
	Name        string
	Span        source.Span
	Fields      utils.OrderedMap[string, Variable]
	Subroutines utils.OrderedMap[string, Subroutine]
}

// ----------------------------------------------------------------------------
// Subroutines

// Subroutine is one constructor, function or method declared on a class.
type Subroutine struct {
	Name string
	Kind SubroutineKind
	Span source.Span

	Return      DataType // Void for a subroutine with no return value
	ReturnClass string   // class name, when Return == Object

	Arguments  []Variable // ordered (type, name) parameter list, each Kind == Arg
	Statements []Statement
}

type SubroutineKind string

const (
	Constructor SubroutineKind = "constructor"
	Function    SubroutineKind = "function"
	Method      SubroutineKind = "method"
)

// ----------------------------------------------------------------------------
// Statements

// Statement is the marker interface implemented by every Jack statement form.
type Statement interface{ isStatement() }

type VarDeclStmt struct {
	Vars []Variable
	Span source.Span
}

// LetStmt assigns Value to Target, which must be a VarExpr or IndexExpr.
type LetStmt struct {
	Target Expression
	Value  Expression
	Span   source.Span
}

type IfStmt struct {
	Cond Expression
	Then []Statement
	Else []Statement // nil when there is no else-arm
	Span source.Span
}

type WhileStmt struct {
	Cond Expression
	Body []Statement
	Span source.Span
}

// DoStmt calls a subroutine and discards its return value.
type DoStmt struct {
	Call CallExpr
	Span source.Span
}

// ReturnStmt's Value is nil when the statement has no expression.
type ReturnStmt struct {
	Value Expression
	Span  source.Span
}

func (VarDeclStmt) isStatement() {}
func (LetStmt) isStatement()     {}
func (IfStmt) isStatement()      {}
func (WhileStmt) isStatement()   {}
func (DoStmt) isStatement()      {}
func (ReturnStmt) isStatement()  {}

// ----------------------------------------------------------------------------
// Expressions

// Expression is the marker interface implemented by every Jack expression form.
type Expression interface {
	isExpression()
	SourceSpan() source.Span
}

type IntLiteral struct {
	Value uint16
	Span  source.Span
}

type StringLiteral struct {
	Value string
	Span  source.Span
}

type BoolLiteral struct {
	Value bool
	Span  source.Span
}

type NullLiteral struct {
	Span source.Span
}

type VarExpr struct {
	Name string
	Span source.Span
}

// IndexExpr is array access, e.g. "arr[i]".
type IndexExpr struct {
	Name  string
	Index Expression
	Span  source.Span
}

type UnaryExpr struct {
	Op   UnaryOp
	Rhs  Expression
	Span source.Span
}

type UnaryOp string

const (
	Neg    UnaryOp = "-"
	BoolNeg UnaryOp = "~"
)

type BinaryExpr struct {
	Op   BinaryOp
	Lhs  Expression
	Rhs  Expression
	Span source.Span
}

type BinaryOp string

const (
	Add      BinaryOp = "+"
	Sub      BinaryOp = "-"
	Mul      BinaryOp = "*"
	Div      BinaryOp = "/"
	BitAnd   BinaryOp = "&"
	BitOr    BinaryOp = "|"
	LessThan BinaryOp = "<"
	GreatThan BinaryOp = ">"
	Equal    BinaryOp = "="
)

// CallExpr calls a subroutine. When HasReceiver is false the call is to a
// subroutine of the current class on the implicit `this`. When true,
// Receiver names either a variable (method call) or a class (static call);
// which one it is can only be decided once the surrounding scope is known,
// so the parser leaves that resolution to the code generator.
type CallExpr struct {
	HasReceiver bool
	Receiver    string
	Name        string
	Args        []Expression
	Span        source.Span
}

func (IntLiteral) isExpression()    {}
func (StringLiteral) isExpression() {}
func (BoolLiteral) isExpression()   {}
func (NullLiteral) isExpression()   {}
func (VarExpr) isExpression()       {}
func (IndexExpr) isExpression()     {}
func (UnaryExpr) isExpression()     {}
func (BinaryExpr) isExpression()    {}
func (CallExpr) isExpression()      {}

func (e IntLiteral) SourceSpan() source.Span    { return e.Span }
func (e StringLiteral) SourceSpan() source.Span { return e.Span }
func (e BoolLiteral) SourceSpan() source.Span   { return e.Span }
func (e NullLiteral) SourceSpan() source.Span   { return e.Span }
func (e VarExpr) SourceSpan() source.Span       { return e.Span }
func (e IndexExpr) SourceSpan() source.Span     { return e.Span }
func (e UnaryExpr) SourceSpan() source.Span     { return e.Span }
func (e BinaryExpr) SourceSpan() source.Span    { return e.Span }
func (e CallExpr) SourceSpan() source.Span      { return e.Span }

// ----------------------------------------------------------------------------
// Variables

// Variable is a named, typed slot: a class field/static, or a subroutine
// local/parameter/receiver, disambiguated by Kind.
type Variable struct {
	Name string
	Kind VarKind
	Type DataType
	// ClassName carries the specific class when Type == Object.
	ClassName string
	Span      source.Span
}

// VarKind enumerates every symbol-table entry kind, matching the five kinds
// a Jack variable reference can resolve to.
type VarKind string

const (
	Static VarKind = "static"
	Field  VarKind = "field"
	Local  VarKind = "var"
	Arg    VarKind = "arg"
	This   VarKind = "this"
)

type DataType string

const (
	Int     DataType = "int"
	Char    DataType = "char"
	Boolean DataType = "boolean"
	Void    DataType = "void"
	Object  DataType = "object"
)
