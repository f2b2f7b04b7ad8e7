package jack

import (
	"fmt"
	"strconv"

	"hackstack/pkg/source"
)

// Parser is a single-pass, one-token-lookahead recursive descent parser for
// Jack source text. Unlike the assembler/VM parsers it does not recover from
// errors: the first malformed construct aborts parsing and is returned as
// the sole diagnostic.
type Parser struct {
	tokenizer *Tokenizer

	token  Token
	peeked *Token

	labelCounter int
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

func (p *Parser) peek() Token {
	if p.peeked == nil {
		tok := p.nextRawToken()
		p.peeked = &tok
	}
	return *p.peeked
}

func (p *Parser) errorAt(msg string, span source.Span) error {
	return source.NewSpanError(msg, span)
}

func (p *Parser) unexpectedToken(expected string) error {
	text := p.token.Text
	if text == "" {
		text = p.token.Kind.String()
	}
	return p.errorAt(fmt.Sprintf("unexpected token `%s', expected %s", text, expected), p.token.Span)
}

// expectKeyword consumes the current token if it is an identifier matching
// word exactly, else reports an UnexpectedToken diagnostic.
func (p *Parser) expectKeyword(word string) (Token, error) {
	if p.token.Kind != Identifier || p.token.Text != word {
		return Token{}, p.unexpectedToken(fmt.Sprintf("'%s'", word))
	}
	return p.advance(), nil
}

func (p *Parser) expect(kind Kind, expected string) (Token, error) {
	if p.token.Kind != kind {
		return Token{}, p.unexpectedToken(expected)
	}
	return p.advance(), nil
}

func (p *Parser) isKeyword(word string) bool {
	return p.token.Kind == Identifier && p.token.Text == word
}

// Parse consumes the entire token stream and returns the parsed Class, or
// the first diagnostic encountered.
func (p *Parser) Parse() (Class, error) {
	start := p.token.Span

	if _, err := p.expectKeyword("class"); err != nil {
		return Class{}, err
	}
	nameTok, err := p.expect(Identifier, "class name")
	if err != nil {
		return Class{}, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return Class{}, err
	}

	class := Class{Name: nameTok.Text}

	for p.isKeyword("static") || p.isKeyword("field") {
		vars, err := p.parseClassVarDec()
		if err != nil {
			return Class{}, err
		}
		for _, v := range vars {
			class.Fields.Set(v.Name, v)
		}
	}

	for p.isKeyword("constructor") || p.isKeyword("function") || p.isKeyword("method") {
		sub, err := p.parseSubroutineDec()
		if err != nil {
			return Class{}, err
		}
		class.Subroutines.Set(sub.Name, sub)
	}

	rbrace, err := p.expect(RBrace, "'}'")
	if err != nil {
		return Class{}, err
	}
	if _, err := p.expect(EOF, "end of file"); err != nil {
		return Class{}, err
	}

	class.Span = start.Merge(rbrace.Span)
	return class, nil
}

func (p *Parser) parseClassVarDec() ([]Variable, error) {
	kindTok := p.advance() // 'static' or 'field'
	kind := Static
	if kindTok.Text == "field" {
		kind = Field
	}

	typ, className, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var vars []Variable
	for {
		nameTok, err := p.expect(Identifier, "variable name")
		if err != nil {
			return nil, err
		}
		vars = append(vars, Variable{
			Name: nameTok.Text, Kind: kind, Type: typ, ClassName: className,
			Span: kindTok.Span.Merge(nameTok.Span),
		})
		if p.token.Kind != Comma {
			break
		}
		p.advance()
	}

	if _, err := p.expect(Semicolon, "';'"); err != nil {
		return nil, err
	}
	return vars, nil
}

// parseType parses a primitive type name or a class name, returning the
// className (non-empty) only for the latter.
func (p *Parser) parseType() (DataType, string, error) {
	switch {
	case p.isKeyword("int"):
		p.advance()
		return Int, "", nil
	case p.isKeyword("char"):
		p.advance()
		return Char, "", nil
	case p.isKeyword("boolean"):
		p.advance()
		return Boolean, "", nil
	case p.isKeyword("void"):
		p.advance()
		return Void, "", nil
	case p.token.Kind == Identifier:
		name := p.advance().Text
		return Object, name, nil
	default:
		return "", "", p.unexpectedToken("type name")
	}
}

func (p *Parser) parseSubroutineDec() (Subroutine, error) {
	kindTok := p.advance() // constructor|function|method
	var kind SubroutineKind
	switch kindTok.Text {
	case "constructor":
		kind = Constructor
	case "function":
		kind = Function
	case "method":
		kind = Method
	}

	ret, retClass, err := p.parseType()
	if err != nil {
		return Subroutine{}, err
	}
	nameTok, err := p.expect(Identifier, "subroutine name")
	if err != nil {
		return Subroutine{}, err
	}

	if _, err := p.expect(LParen, "'('"); err != nil {
		return Subroutine{}, err
	}
	args, err := p.parseParamList()
	if err != nil {
		return Subroutine{}, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return Subroutine{}, err
	}

	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return Subroutine{}, err
	}
	stmts, err := p.parseStatements()
	if err != nil {
		return Subroutine{}, err
	}
	closeTok, err := p.expect(RBrace, "'}'")
	if err != nil {
		return Subroutine{}, err
	}

	return Subroutine{
		Name: nameTok.Text, Kind: kind, Return: ret, ReturnClass: retClass,
		Arguments: args, Statements: stmts, Span: kindTok.Span.Merge(closeTok.Span),
	}, nil
}

func (p *Parser) parseParamList() ([]Variable, error) {
	var args []Variable
	if p.token.Kind == RParen {
		return args, nil
	}
	for {
		typ, className, err := p.parseType()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(Identifier, "parameter name")
		if err != nil {
			return nil, err
		}
		args = append(args, Variable{Name: nameTok.Text, Kind: Arg, Type: typ, ClassName: className, Span: nameTok.Span})
		if p.token.Kind != Comma {
			break
		}
		p.advance()
	}
	return args, nil
}

// parseStatements parses zero or more statements, stopping at '}'. Local
// variable declarations may appear interleaved with other statements.
func (p *Parser) parseStatements() ([]Statement, error) {
	var stmts []Statement
	for p.token.Kind != RBrace && p.token.Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.isKeyword("var"):
		return p.parseVarDec()
	case p.isKeyword("let"):
		return p.parseLetStmt()
	case p.isKeyword("if"):
		return p.parseIfStmt()
	case p.isKeyword("while"):
		return p.parseWhileStmt()
	case p.isKeyword("do"):
		return p.parseDoStmt()
	case p.isKeyword("return"):
		return p.parseReturnStmt()
	default:
		return nil, p.unexpectedToken("statement")
	}
}

func (p *Parser) parseVarDec() (Statement, error) {
	start := p.advance().Span // 'var'
	typ, className, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var vars []Variable
	for {
		nameTok, err := p.expect(Identifier, "variable name")
		if err != nil {
			return nil, err
		}
		vars = append(vars, Variable{Name: nameTok.Text, Kind: Local, Type: typ, ClassName: className, Span: nameTok.Span})
		if p.token.Kind != Comma {
			break
		}
		p.advance()
	}

	end, err := p.expect(Semicolon, "';'")
	if err != nil {
		return nil, err
	}
	return VarDeclStmt{Vars: vars, Span: start.Merge(end.Span)}, nil
}

func (p *Parser) parseLetStmt() (Statement, error) {
	start := p.advance().Span // 'let'
	nameTok, err := p.expect(Identifier, "variable name")
	if err != nil {
		return nil, err
	}

	var target Expression = VarExpr{Name: nameTok.Text, Span: nameTok.Span}
	if p.token.Kind == LBracket {
		p.advance()
		idx, err := p.parseExpression(1)
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(RBracket, "']'")
		if err != nil {
			return nil, err
		}
		target = IndexExpr{Name: nameTok.Text, Index: idx, Span: nameTok.Span.Merge(closeTok.Span)}
	}

	if _, err := p.expect(Eq, "'='"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(1)
	if err != nil {
		return nil, err
	}
	end, err := p.expect(Semicolon, "';'")
	if err != nil {
		return nil, err
	}
	return LetStmt{Target: target, Value: value, Span: start.Merge(end.Span)}, nil
}

func (p *Parser) parseIfStmt() (Statement, error) {
	start := p.advance().Span // 'if'
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(RBrace, "'}'")
	if err != nil {
		return nil, err
	}

	var elseBlock []Statement
	if p.isKeyword("else") {
		p.advance()
		if _, err := p.expect(LBrace, "'{'"); err != nil {
			return nil, err
		}
		elseBlock, err = p.parseStatements()
		if err != nil {
			return nil, err
		}
		end, err = p.expect(RBrace, "'}'")
		if err != nil {
			return nil, err
		}
	}

	return IfStmt{Cond: cond, Then: thenBlock, Else: elseBlock, Span: start.Merge(end.Span)}, nil
}

func (p *Parser) parseWhileStmt() (Statement, error) {
	start := p.advance().Span // 'while'
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(RBrace, "'}'")
	if err != nil {
		return nil, err
	}
	return WhileStmt{Cond: cond, Body: body, Span: start.Merge(end.Span)}, nil
}

func (p *Parser) parseDoStmt() (Statement, error) {
	start := p.advance().Span // 'do'
	call, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(Semicolon, "';'")
	if err != nil {
		return nil, err
	}
	return DoStmt{Call: call, Span: start.Merge(end.Span)}, nil
}

func (p *Parser) parseReturnStmt() (Statement, error) {
	start := p.advance().Span // 'return'

	var value Expression
	if p.token.Kind != Semicolon {
		var err error
		value, err = p.parseExpression(1)
		if err != nil {
			return nil, err
		}
	}
	end, err := p.expect(Semicolon, "';'")
	if err != nil {
		return nil, err
	}
	return ReturnStmt{Value: value, Span: start.Merge(end.Span)}, nil
}

// parseCall parses "name(args)" or "receiver.name(args)", used both as a
// do-statement target and as a call term inside expressions.
func (p *Parser) parseCall() (CallExpr, error) {
	firstTok, err := p.expect(Identifier, "subroutine or receiver name")
	if err != nil {
		return CallExpr{}, err
	}

	call := CallExpr{Name: firstTok.Text, Span: firstTok.Span}
	if p.token.Kind == Dot {
		p.advance()
		nameTok, err := p.expect(Identifier, "subroutine name")
		if err != nil {
			return CallExpr{}, err
		}
		call.HasReceiver = true
		call.Receiver = firstTok.Text
		call.Name = nameTok.Text
	}

	if _, err := p.expect(LParen, "'('"); err != nil {
		return CallExpr{}, err
	}
	if p.token.Kind != RParen {
		for {
			arg, err := p.parseExpression(1)
			if err != nil {
				return CallExpr{}, err
			}
			call.Args = append(call.Args, arg)
			if p.token.Kind != Comma {
				break
			}
			p.advance()
		}
	}
	closeTok, err := p.expect(RParen, "')'")
	if err != nil {
		return CallExpr{}, err
	}
	call.Span = call.Span.Merge(closeTok.Span)
	return call, nil
}

// ----------------------------------------------------------------------------
// Expressions: precedence-climbing

// binaryPrecedence maps each binary operator token kind to its precedence
// level. Per the language's (deliberately non-C-like) precedence table,
// relational operators bind loosest and bitwise &,| bind tighter than
// arithmetic; unary -,~ are handled separately in parseUnary and bind
// tighter than any binary operator.
var binaryPrecedence = map[Kind]int{
	Lt: 1, Gt: 1, Eq: 1,
	Plus: 2, Minus: 2,
	Star: 3, Slash: 3,
	Amp: 4, Pipe: 4,
}

var binaryOp = map[Kind]BinaryOp{
	Lt: LessThan, Gt: GreatThan, Eq: Equal,
	Plus: Add, Minus: Sub, Star: Mul, Slash: Div,
	Amp: BitAnd, Pipe: BitOr,
}

// parseExpression implements precedence climbing: it parses a unary/primary
// term, then repeatedly folds in any following binary operator whose
// precedence is at least minPrec, recursing at prec+1 so equal-precedence
// chains associate left (e.g. "a-b-c" parses as "(a-b)-c").
func (p *Parser) parseExpression(minPrec int) (Expression, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, isBinary := binaryPrecedence[p.token.Kind]
		if !isBinary || prec < minPrec {
			return lhs, nil
		}
		opTok := p.advance()
		rhs, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = BinaryExpr{Op: binaryOp[opTok.Kind], Lhs: lhs, Rhs: rhs, Span: lhs.SourceSpan().Merge(rhs.SourceSpan())}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	switch p.token.Kind {
	case Minus:
		opTok := p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: Neg, Rhs: rhs, Span: opTok.Span.Merge(rhs.SourceSpan())}, nil
	case Tilde:
		opTok := p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: BoolNeg, Rhs: rhs, Span: opTok.Span.Merge(rhs.SourceSpan())}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (Expression, error) {
	switch p.token.Kind {
	case Number:
		tok := p.advance()
		n, err := strconv.ParseUint(tok.Text, 10, 16)
		if err != nil {
			return nil, p.errorAt(fmt.Sprintf("integer literal '%s' out of range", tok.Text), tok.Span)
		}
		return IntLiteral{Value: uint16(n), Span: tok.Span}, nil

	case String:
		tok := p.advance()
		for _, r := range tok.Text {
			if r > 127 {
				return nil, p.errorAt("string literal must contain only ASCII characters", tok.Span)
			}
		}
		return StringLiteral{Value: tok.Text, Span: tok.Span}, nil

	case LParen:
		p.advance()
		inner, err := p.parseExpression(1)
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(RParen, "')'")
		if err != nil {
			return nil, err
		}
		switch e := inner.(type) {
		case IntLiteral:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case StringLiteral:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case BoolLiteral:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case NullLiteral:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case VarExpr:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case IndexExpr:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case UnaryExpr:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case BinaryExpr:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		case CallExpr:
			e.Span = e.Span.Merge(closeTok.Span)
			return e, nil
		default:
			return inner, nil
		}

	case Identifier:
		switch p.token.Text {
		case "true":
			tok := p.advance()
			return BoolLiteral{Value: true, Span: tok.Span}, nil
		case "false":
			tok := p.advance()
			return BoolLiteral{Value: false, Span: tok.Span}, nil
		case "null":
			tok := p.advance()
			return NullLiteral{Span: tok.Span}, nil
		}

		// Distinguish "name", "name[expr]", "name(args)" and "recv.name(args)"
		// by looking one token ahead of the identifier just read.
		if p.peek().Kind == LBracket {
			nameTok := p.advance()
			p.advance() // '['
			idx, err := p.parseExpression(1)
			if err != nil {
				return nil, err
			}
			closeTok, err := p.expect(RBracket, "']'")
			if err != nil {
				return nil, err
			}
			return IndexExpr{Name: nameTok.Text, Index: idx, Span: nameTok.Span.Merge(closeTok.Span)}, nil
		}
		if p.peek().Kind == LParen || p.peek().Kind == Dot {
			return p.parseCall()
		}
		tok := p.advance()
		return VarExpr{Name: tok.Text, Span: tok.Span}, nil

	default:
		return nil, p.unexpectedToken("expression")
	}
}
