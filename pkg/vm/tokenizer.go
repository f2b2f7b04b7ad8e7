package vm

import "hackstack/pkg/source"

// Tokenizer turns VM source text into a pull-based stream of Tokens. Like
// the assembler tokenizer, it treats '\n' as a significant end-of-line
// token; unlike it, mnemonics such as "if-goto" are lexed as a single
// identifier, so '-' counts as an identifier character (never a start).
type Tokenizer struct {
	cursor *source.Cursor
}

// NewTokenizer builds a Tokenizer over src.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{cursor: source.NewCursor(src)}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '.' || r == '$' || r == ':' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || r == '-' || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (t *Tokenizer) eatWhitespace() {
	t.cursor.EatWhile(func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r'
	})
}

// NextToken pulls and returns the next Token, skipping non-newline whitespace.
// Calling NextToken repeatedly past end-of-input keeps returning an EOF token.
func (t *Tokenizer) NextToken() Token {
	t.eatWhitespace()

	start := t.cursor.Pos()
	c := t.cursor.Current()

	switch {
	case c == source.EOFRune:
		return Token{Kind: EOF, Span: source.NewSpan(start, start)}
	case c == '\n':
		t.cursor.Advance()
		return Token{Kind: EOL, Span: source.NewSpan(start, t.cursor.Pos())}
	case c == '/':
		return t.tokenizeComment()
	case isDigit(c):
		span := t.cursor.EatWhile(isDigit)
		return Token{Kind: Number, Text: t.cursor.Slice(span), Span: span}
	case isIdentStart(c):
		span := t.cursor.EatWhile(isIdentChar)
		return Token{Kind: Identifier, Text: t.cursor.Slice(span), Span: span}
	default:
		t.cursor.Advance()
		return Token{Kind: Invalid, Text: string(c), Span: source.NewSpan(start, t.cursor.Pos())}
	}
}

func (t *Tokenizer) tokenizeComment() Token {
	start := t.cursor.Pos()
	t.cursor.Advance() // first '/'

	if t.cursor.Current() != '/' {
		return Token{Kind: Invalid, Text: "/", Span: source.NewSpan(start, t.cursor.Pos())}
	}

	span := t.cursor.EatWhile(func(r rune) bool { return r != '\n' })
	return Token{Kind: Comment, Text: t.cursor.Slice(source.NewSpan(start, span.End)), Span: source.NewSpan(start, span.End)}
}
