package asm

import "hackstack/pkg/source"

// Kind enumerates every lexical category the assembler tokenizer produces.
type Kind int

const (
	Comment Kind = iota
	Number
	Identifier
	AtSign
	Equals
	Plus
	Minus
	Not
	And
	Or
	Semicolon
	LParen
	RParen
	EOL
	EOF
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Comment:
		return "comment"
	case Number:
		return "number"
	case Identifier:
		return "identifier"
	case AtSign:
		return "'@'"
	case Equals:
		return "'='"
	case Plus:
		return "'+'"
	case Minus:
		return "'-'"
	case Not:
		return "'!'"
	case And:
		return "'&'"
	case Or:
		return "'|'"
	case Semicolon:
		return "';'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case EOL:
		return "newline"
	case EOF:
		return "end of file"
	default:
		return "invalid token"
	}
}

// Token bundles a lexical Kind, a span into the source buffer, and (for
// identifiers and numbers) the literal text it covers.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
}
