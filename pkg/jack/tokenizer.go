package jack

import (
	"hackstack/pkg/source"
)

// Tokenizer turns Jack source text into a pull-based stream of Tokens. Unlike
// the assembler/VM tokenizers, it treats all whitespace (including newlines)
// as insignificant and recognizes both line and block comments.
type Tokenizer struct {
	cursor *source.Cursor
}

// NewTokenizer builds a Tokenizer over src.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{cursor: source.NewCursor(src)}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (t *Tokenizer) eatWhitespace() {
	t.cursor.EatWhile(func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
}

// NextToken pulls and returns the next Token, skipping whitespace. Calling
// NextToken repeatedly past end-of-input keeps returning an EOF token.
func (t *Tokenizer) NextToken() Token {
	t.eatWhitespace()

	start := t.cursor.Pos()
	c := t.cursor.Current()

	switch {
	case c == source.EOFRune:
		return Token{Kind: EOF, Span: source.NewSpan(start, start)}
	case c == '/':
		return t.tokenizeSlash()
	case c == '"':
		return t.tokenizeString()
	case isDigit(c):
		span := t.cursor.EatWhile(isDigit)
		return Token{Kind: Number, Text: t.cursor.Slice(span), Span: span}
	case isIdentStart(c):
		span := t.cursor.EatWhile(isIdentChar)
		return Token{Kind: Identifier, Text: t.cursor.Slice(span), Span: span}
	default:
		return t.tokenizeSymbol(c, start)
	}
}

func (t *Tokenizer) tokenizeSymbol(c rune, start int) Token {
	kind, ok := map[rune]Kind{
		'{': LBrace, '}': RBrace, '(': LParen, ')': RParen,
		'[': LBracket, ']': RBracket, ',': Comma, ';': Semicolon,
		'.': Dot, '+': Plus, '-': Minus, '*': Star,
		'&': Amp, '|': Pipe, '<': Lt, '>': Gt, '=': Eq, '~': Tilde,
	}[c]
	t.cursor.Advance()
	if !ok {
		return Token{Kind: Invalid, Text: string(c), Span: source.NewSpan(start, t.cursor.Pos())}
	}
	return Token{Kind: kind, Span: source.NewSpan(start, t.cursor.Pos())}
}

// tokenizeSlash disambiguates the division operator from line ("//") and
// block ("/* ... */") comments.
func (t *Tokenizer) tokenizeSlash() Token {
	start := t.cursor.Pos()
	t.cursor.Advance() // first '/'

	switch t.cursor.Current() {
	case '/':
		span := t.cursor.EatWhile(func(r rune) bool { return r != '\n' })
		return Token{Kind: Comment, Text: t.cursor.Slice(source.NewSpan(start, span.End)), Span: source.NewSpan(start, span.End)}
	case '*':
		t.cursor.Advance() // '*'
		for {
			if t.cursor.Current() == source.EOFRune {
				return Token{Kind: Invalid, Text: "unterminated block comment", Span: source.NewSpan(start, t.cursor.Pos())}
			}
			if t.cursor.Current() == '*' && t.cursor.Peek() == '/' {
				t.cursor.Advance()
				t.cursor.Advance()
				break
			}
			t.cursor.Advance()
		}
		return Token{Kind: Comment, Text: t.cursor.Slice(source.NewSpan(start, t.cursor.Pos())), Span: source.NewSpan(start, t.cursor.Pos())}
	default:
		return Token{Kind: Slash, Span: source.NewSpan(start, t.cursor.Pos())}
	}
}

func (t *Tokenizer) tokenizeString() Token {
	start := t.cursor.Pos()
	t.cursor.Advance() // opening '"'

	contentStart := t.cursor.Pos()
	for t.cursor.Current() != '"' {
		if t.cursor.Current() == source.EOFRune || t.cursor.Current() == '\n' {
			return Token{Kind: Invalid, Text: "unterminated string literal", Span: source.NewSpan(start, t.cursor.Pos())}
		}
		t.cursor.Advance()
	}
	contentEnd := t.cursor.Pos()
	t.cursor.Advance() // closing '"'

	return Token{
		Kind: String,
		Text: t.cursor.Slice(source.NewSpan(contentStart, contentEnd)),
		Span: source.NewSpan(start, t.cursor.Pos()),
	}
}
