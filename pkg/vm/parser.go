package vm

import (
	"fmt"
	"strconv"
	"strings"

	"hackstack/pkg/source"
)

// Parser is a single-pass, one-token-lookahead recursive descent parser for
// VM source text. Like the assembler parser, a malformed instruction is
// recovered from in panic-mode: skip to the next end-of-line (or EOF) and
// resume, accumulating every diagnostic instead of stopping at the first.
type Parser struct {
	tokenizer *Tokenizer

	token  Token
	peeked *Token
}

// NewParser builds a Parser over src.
func NewParser(src string) *Parser {
	p := &Parser{tokenizer: NewTokenizer(src)}
	p.token = p.nextRawToken()
	return p
}

func (p *Parser) nextRawToken() Token {
	for {
		tok := p.tokenizer.NextToken()
		if tok.Kind != Comment {
			return tok
		}
	}
}

func (p *Parser) advance() Token {
	cur := p.token
	if p.peeked != nil {
		p.token, p.peeked = *p.peeked, nil
	} else {
		p.token = p.nextRawToken()
	}
	return cur
}

func (p *Parser) errorAt(msg string, span source.Span) source.SpanError {
	return source.NewSpanError(msg, span)
}

func (p *Parser) unexpectedToken(expected string) source.SpanError {
	text := p.token.Text
	if text == "" {
		text = p.token.Kind.String()
	}
	return p.errorAt(fmt.Sprintf("unexpected token `%s', expected %s", text, expected), p.token.Span)
}

func (p *Parser) eatTerminator() error {
	if p.token.Kind == EOL || p.token.Kind == EOF {
		p.advance()
		return nil
	}
	return p.unexpectedToken("newline")
}

// recover skips tokens until the next EOL or EOF, so a later call to
// parseInstruction resumes cleanly on the following line.
func (p *Parser) recover() {
	for p.token.Kind != EOL && p.token.Kind != EOF {
		p.advance()
	}
	if p.token.Kind == EOL {
		p.advance()
	}
}

// Parse consumes the entire token stream and returns the parsed Module. If
// any instruction fails to parse, it returns the accumulated SpanErrors
// instead (but keeps parsing subsequent lines to surface every error).
func (p *Parser) Parse() (Module, []source.SpanError) {
	var module Module
	var errs []source.SpanError

	for {
		for p.token.Kind == EOL {
			p.advance()
		}
		if p.token.Kind == EOF {
			break
		}

		op, err := p.parseInstruction()
		if err != nil {
			errs = append(errs, err.(source.SpanError))
			p.recover()
			continue
		}
		module = append(module, op)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return module, nil
}

func (p *Parser) parseInstruction() (Operation, error) {
	if p.token.Kind != Identifier {
		err := p.unexpectedToken("VM instruction")
		p.advance()
		return nil, err
	}

	switch strings.ToLower(p.token.Text) {
	case "push", "pop":
		return p.parseMemoryOp()
	case "add", "sub", "neg", "eq", "gt", "lt", "and", "or", "not":
		return p.parseArithmeticOp()
	case "label":
		return p.parseLabelDecl()
	case "goto", "if-goto":
		return p.parseGotoOp()
	case "function":
		return p.parseFuncDecl()
	case "call":
		return p.parseFuncCallOp()
	case "return":
		p.advance()
		if err := p.eatTerminator(); err != nil {
			return nil, err
		}
		return ReturnOp{}, nil
	default:
		err := p.errorAt(fmt.Sprintf("unknown VM instruction '%s'", p.token.Text), p.token.Span)
		p.advance()
		return nil, err
	}
}

func (p *Parser) parseSegment() (SegmentType, error) {
	if p.token.Kind != Identifier {
		return "", p.unexpectedToken("memory segment")
	}
	text := strings.ToLower(p.token.Text)
	switch SegmentType(text) {
	case Constant, Local, Argument, Static, This, That, Temp, Pointer:
		p.advance()
		return SegmentType(text), nil
	default:
		return "", p.errorAt(fmt.Sprintf("unknown memory segment '%s'", p.token.Text), p.token.Span)
	}
}

func (p *Parser) parseUint16() (uint16, error) {
	if p.token.Kind != Number {
		return 0, p.unexpectedToken("number")
	}
	text := p.advance().Text
	num, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, p.errorAt(fmt.Sprintf("number %s out of range for a 16-bit offset", text), p.token.Span)
	}
	return uint16(num), nil
}

func (p *Parser) parseMemoryOp() (Operation, error) {
	op := OperationType(strings.ToLower(p.advance().Text))

	segSpan := p.token.Span
	segment, err := p.parseSegment()
	if err != nil {
		return nil, err
	}
	if op == Pop && segment == Constant {
		return nil, p.errorAt("cannot pop to constant virtual memory segment", segSpan)
	}

	offset, err := p.parseUint16()
	if err != nil {
		return nil, err
	}
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	return MemoryOp{Operation: op, Segment: segment, Offset: offset}, nil
}

func (p *Parser) parseArithmeticOp() (Operation, error) {
	op := ArithOpType(strings.ToLower(p.advance().Text))
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	return ArithmeticOp{Operation: op}, nil
}

func (p *Parser) parseIdent(what string) (string, error) {
	if p.token.Kind != Identifier {
		return "", p.unexpectedToken(what)
	}
	return p.advance().Text, nil
}

func (p *Parser) parseLabelDecl() (Operation, error) {
	p.advance() // 'label'
	name, err := p.parseIdent("label name")
	if err != nil {
		return nil, err
	}
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	return LabelDecl{Name: name}, nil
}

func (p *Parser) parseGotoOp() (Operation, error) {
	kind := strings.ToLower(p.advance().Text)
	name, err := p.parseIdent("jump target")
	if err != nil {
		return nil, err
	}
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	jump := Unconditional
	if kind == "if-goto" {
		jump = Conditional
	}
	return GotoOp{Jump: jump, Label: name}, nil
}

func (p *Parser) parseFuncDecl() (Operation, error) {
	p.advance() // 'function'
	name, err := p.parseIdent("function name")
	if err != nil {
		return nil, err
	}
	nlocal, err := p.parseUint16()
	if err != nil {
		return nil, err
	}
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	return FuncDecl{Name: name, NLocal: nlocal}, nil
}

func (p *Parser) parseFuncCallOp() (Operation, error) {
	p.advance() // 'call'
	name, err := p.parseIdent("function name")
	if err != nil {
		return nil, err
	}
	nargs, err := p.parseUint16()
	if err != nil {
		return nil, err
	}
	if err := p.eatTerminator(); err != nil {
		return nil, err
	}
	return FuncCallOp{Name: name, NArgs: nargs}, nil
}
