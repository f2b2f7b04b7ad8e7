package jack

import "hackstack/pkg/source"

// Kind enumerates the lexical categories a Jack Tokenizer can produce.
type Kind int

const (
	EOF Kind = iota
	Invalid
	Comment
	Number
	String
	Identifier // covers both keywords and user identifiers; dispatched by text
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Semicolon
	Dot
	Plus
	Minus
	Star
	Slash
	Amp
	Pipe
	Lt
	Gt
	Eq
	Tilde
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Invalid:
		return "invalid token"
	case Comment:
		return "comment"
	case Number:
		return "number"
	case String:
		return "string literal"
	case Identifier:
		return "identifier"
	default:
		return "symbol"
	}
}

// Token bundles a lexical Kind with the span of source text it covers. Text
// is populated for Number, String, Identifier and Invalid tokens.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
}
