package vm

import "hackstack/pkg/source"

// Kind enumerates every lexical category the VM tokenizer produces.
type Kind int

const (
	Comment Kind = iota
	Number
	Identifier
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
