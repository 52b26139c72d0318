package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar (protocol subset):
//
//	file        = decl* EOF
//	decl        = include | enumeration | structure | machine
//	machine     = "machine" "(" IDENT pairs ")" "{" member* "}"
//	member      = state_declaration | enumeration | varDecl | in_port | out_port | action | transition
//	transition  = "transition" "(" idset "," idset ["," IDENT] pairs ")" ("{" (IDENT ";")* "}" | ";")
//	statement   = assign | if | enqueue | peek | trigger | wakeUpDependents | wakeUpAllDependents | exprStmt
//	expression  = logical_or
//	logical_or  = logical_and ("||" logical_and)*
//	logical_and = equality ("&&" equality)*
//	equality    = relational (("=="|"!=") relational)*
//	relational  = additive (("<"|">"|"<="|">=") additive)*
//	additive    = unary (("+"|"-") unary)*
//	unary       = ("!"|"-") unary | postfix
//	postfix     = primary ("." IDENT ["(" args ")"])*
//	primary     = INTEGER | STRING | true | false | IDENT ":" IDENT | IDENT "(" args ")" | IDENT | "(" expression ")"
type Parser struct {
	tokens      []Token
	pos         int
	file        string
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string, file string) *Parser {
	return &Parser{tokens: tokens, file: file, sourceLines: strings.Split(rawSource, "\n")}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	e := errorf(SyntaxError, p.at(tok), format, args...)
	lineIdx := tok.Line - 1
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		e.Snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}
	return e
}

func (p *Parser) at(tok Token) Pos {
	return Pos{File: p.file, Line: tok.Line}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// accept consumes the current token when it matches tt.
func (p *Parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

// parsePairs handles the trailing  , key="value"  list of a declaration header.
func (p *Parser) parsePairs() (Pairs, error) {
	var pairs Pairs
	for p.peek().Type == COMMA && p.peekAt(1).Type == IDENTIFIER && p.peekAt(2).Type == PAIR_EQ {
		p.advance()
		key := p.advance()
		p.advance()
		val, err := p.expect(STRING)
		if err != nil {
			return nil, err
		}
		if _, dup := pairs.Get(key.Lexeme); dup {
			return nil, p.fmtError(key, "duplicate annotation %q", key.Lexeme)
		}
		pairs = append(pairs, Pair{Key: key.Lexeme, Value: val.Lexeme})
	}
	return pairs, nil
}

// parseMembers handles { A; B, desc="..."; } for enumerations and state declarations.
func (p *Parser) parseMembers() ([]EnumMember, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var members []EnumMember
	for p.peek().Type != RBRACE {
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		pairs, err := p.parsePairs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		members = append(members, EnumMember{Pos: p.at(name), Name: name.Lexeme, Pairs: pairs})
	}
	p.advance()
	return members, nil
}

// parseHeader handles  "(" IDENT pairs ")"  shared by most declarations.
func (p *Parser) parseHeader() (Token, Pairs, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return Token{}, nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return Token{}, nil, err
	}
	pairs, err := p.parsePairs()
	if err != nil {
		return Token{}, nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return Token{}, nil, err
	}
	return name, pairs, nil
}

func (p *Parser) parseInclude() (Decl, error) {
	kw := p.advance()
	path, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &IncludeDecl{Pos: p.at(kw), Path: path.Lexeme}, nil
}

func (p *Parser) parseEnumeration() (*EnumDecl, error) {
	kw := p.advance()
	name, pairs, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	members, err := p.parseMembers()
	if err != nil {
		return nil, err
	}
	return &EnumDecl{Pos: p.at(kw), Name: name.Lexeme, Pairs: pairs, Members: members}, nil
}

func (p *Parser) parseStructure() (Decl, error) {
	kw := p.advance()
	name, pairs, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	decl := &StructDecl{Pos: p.at(kw), Name: name.Lexeme, Pairs: pairs}
	for p.peek().Type != RBRACE {
		typ, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		field, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		fpairs, err := p.parsePairs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, FieldDecl{Pos: p.at(typ), TypeName: typ.Lexeme, Name: field.Lexeme, Pairs: fpairs})
	}
	p.advance()
	return decl, nil
}

func (p *Parser) parseMachine() (Decl, error) {
	kw := p.advance()
	name, pairs, err := p.parseHeader()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	m := &MachineDecl{Pos: p.at(kw), Name: name.Lexeme, Pairs: pairs}
	for p.peek().Type != RBRACE {
		if p.peek().Type == EOF {
			return nil, p.fmtError(p.peek(), "unterminated machine %q", m.Name)
		}
		member, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		m.Members = append(m.Members, member)
	}
	p.advance()
	return m, nil
}

func (p *Parser) parseMember() (MachineMember, error) {
	switch p.peek().Type {
	case STATE_DECLARATION:
		kw := p.advance()
		name, pairs, err := p.parseHeader()
		if err != nil {
			return nil, err
		}
		members, err := p.parseMembers()
		if err != nil {
			return nil, err
		}
		return &StateDecl{Pos: p.at(kw), TypeName: name.Lexeme, Pairs: pairs, Members: members}, nil
	case ENUMERATION:
		return p.parseEnumeration()
	case IN_PORT:
		return p.parseInPort()
	case OUT_PORT:
		return p.parseOutPort()
	case ACTION:
		return p.parseAction()
	case TRANSITION:
		return p.parseTransition()
	case IDENTIFIER:
		typ := p.advance()
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		pairs, err := p.parsePairs()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &VarDecl{Pos: p.at(typ), TypeName: typ.Lexeme, Name: name.Lexeme, Pairs: pairs}, nil
	}
	tok := p.peek()
	return nil, p.fmtError(tok, "unexpected %s (%q) in machine body", tok.Type, tok.Lexeme)
}

// parsePortHeader handles "(" name "," MsgType pairs ")".
func (p *Parser) parsePortHeader() (Token, Token, Pairs, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return Token{}, Token{}, nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return Token{}, Token{}, nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return Token{}, Token{}, nil, err
	}
	msg, err := p.expect(IDENTIFIER)
	if err != nil {
		return Token{}, Token{}, nil, err
	}
	pairs, err := p.parsePairs()
	if err != nil {
		return Token{}, Token{}, nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return Token{}, Token{}, nil, err
	}
	return name, msg, pairs, nil
}

func (p *Parser) parseInPort() (MachineMember, error) {
	kw := p.advance()
	name, msg, pairs, err := p.parsePortHeader()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &InPortDecl{Pos: p.at(kw), Name: name.Lexeme, MsgType: msg.Lexeme, Pairs: pairs, Body: body}, nil
}

func (p *Parser) parseOutPort() (MachineMember, error) {
	kw := p.advance()
	name, msg, pairs, err := p.parsePortHeader()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &OutPortDecl{Pos: p.at(kw), Name: name.Lexeme, MsgType: msg.Lexeme, Pairs: pairs}, nil
}

func (p *Parser) parseAction() (MachineMember, error) {
	kw := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	short, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	pairs, err := p.parsePairs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ActionDecl{Pos: p.at(kw), Name: name.Lexeme, Short: short.Lexeme, Pairs: pairs, Body: body}, nil
}

// parseIdentSet handles  IDENT  or  "{" IDENT ("," IDENT)* "}".
func (p *Parser) parseIdentSet() ([]string, error) {
	if !p.accept(LBRACE) {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		return []string{tok.Lexeme}, nil
	}
	var names []string
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Lexeme)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseTransition() (MachineMember, error) {
	kw := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	states, err := p.parseIdentSet()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	events, err := p.parseIdentSet()
	if err != nil {
		return nil, err
	}
	t := &TransitionDecl{Pos: p.at(kw), States: states, Events: events}
	if p.peek().Type == COMMA && p.peekAt(1).Type == IDENTIFIER && p.peekAt(2).Type != PAIR_EQ {
		p.advance()
		t.Next = p.advance().Lexeme
	}
	if t.Pairs, err = p.parsePairs(); err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if p.accept(SEMICOLON) {
		return t, nil
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	for !p.accept(RBRACE) {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		t.Actions = append(t.Actions, ActionRef{Pos: p.at(tok), Name: tok.Lexeme})
	}
	return t, nil
}

// parseBlock handles { statement* }
func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.peek().Type != RBRACE {
		if p.peek().Type == EOF {
			return nil, p.fmtError(p.peek(), "unterminated block")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance()
	return stmts, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case IF:
		return p.parseIf()
	case ENQUEUE:
		return p.parseEnqueue()
	case PEEK:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		port, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA); err != nil {
			return nil, err
		}
		msg, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &PeekStmt{Pos: p.at(tok), Port: port.Lexeme, MsgType: msg.Lexeme, Body: body}, nil
	case TRIGGER:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		ev, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA); err != nil {
			return nil, err
		}
		addr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectCallEnd(); err != nil {
			return nil, err
		}
		return &TriggerStmt{Pos: p.at(tok), Event: ev, Addr: addr}, nil
	case WAKEUP_DEPENDENTS:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		addr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectCallEnd(); err != nil {
			return nil, err
		}
		return &WakeUpDependentsStmt{Pos: p.at(tok), Addr: addr}, nil
	case WAKEUP_ALL_DEPENDENTS:
		p.advance()
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		if err := p.expectCallEnd(); err != nil {
			return nil, err
		}
		return &WakeUpAllDependentsStmt{Pos: p.at(tok)}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.accept(ASSIGN) {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &AssignStmt{Pos: p.at(tok), Left: expr, Right: value}, nil
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ExprStmt{Pos: p.at(tok), Expr: expr}, nil
}

// expectCallEnd consumes the ");" closing a statement-form call.
func (p *Parser) expectCallEnd() error {
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	_, err := p.expect(SEMICOLON)
	return err
}

func (p *Parser) parseIf() (Stmt, error) {
	kw := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &IfStmt{Pos: p.at(kw), Cond: cond, Then: then}
	if !p.accept(ELSE) {
		return s, nil
	}
	if p.peek().Type == IF {
		elseIf, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		s.Else = []Stmt{elseIf}
		return s, nil
	}
	if s.Else, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseEnqueue() (Stmt, error) {
	kw := p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	port, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	msg, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	s := &EnqueueStmt{Pos: p.at(kw), Port: port.Lexeme, MsgType: msg.Lexeme}
	if p.accept(COMMA) {
		if s.Latency, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if s.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseBinary(0)
}

// precedence levels, lowest first.
var binaryLevels = [][]TokenType{
	{OR_LOGICAL},
	{AND_LOGICAL},
	{EQUALS, NOT_EQ},
	{LESS, GREATER, LESS_EQ, GREATER_EQ},
	{PLUS, MINUS},
}

func hasOp(ops []TokenType, tt TokenType) bool {
	for _, op := range ops {
		if op == tt {
			return true
		}
	}
	return false
}

// parseBinary handles one precedence level and recurses into the next.
func (p *Parser) parseBinary(level int) (Expr, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	expr, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for hasOp(binaryLevels[level], p.peek().Type) {
		opTok := p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Pos: p.at(opTok), Op: opTok.Type, Left: expr, Right: right}
	}
	return expr, nil
}

// parseUnary handles ! and unary -
func (p *Parser) parseUnary() (Expr, error) {
	if p.peek().Type == NOT || p.peek().Type == MINUS {
		opTok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: p.at(opTok), Op: opTok.Type, X: x}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles .field and .method(args)
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == DOT {
		dot := p.advance()
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if p.peek().Type == LPAREN {
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			expr = &MethodCall{Pos: p.at(dot), X: expr, Method: name.Lexeme, Args: args}
			continue
		}
		expr = &FieldExpr{Pos: p.at(dot), X: expr, Field: name.Lexeme}
	}
	return expr, nil
}

// parseCallArgs handles "(" [expr ("," expr)*] ")"
func (p *Parser) parseCallArgs() ([]Expr, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var args []Expr
	if p.accept(RPAREN) {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	pos := p.at(tok)
	switch tok.Type {
	case INTEGER:
		val, err := strconv.ParseInt(tok.Lexeme, 0, 64)
		if err != nil {
			return nil, p.fmtError(tok, "invalid integer %q", tok.Lexeme)
		}
		return &IntLit{Pos: pos, Value: val}, nil
	case STRING:
		return &StringLit{Pos: pos, Value: tok.Lexeme}, nil
	case TRUE, FALSE:
		return &BoolLit{Pos: pos, Value: tok.Type == TRUE}, nil
	case IDENTIFIER:
		switch p.peek().Type {
		case COLON:
			p.advance()
			member, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			return &EnumLit{Pos: pos, TypeName: tok.Lexeme, Member: member.Lexeme}, nil
		case LPAREN:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Pos: pos, Name: tok.Lexeme, Args: args}, nil
		}
		return &Ident{Pos: pos, Name: tok.Lexeme}, nil
	case LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.fmtError(tok, "unexpected %s (%q) in expression", tok.Type, tok.Lexeme)
}

func (p *Parser) parseDecl() (Decl, error) {
	switch p.peek().Type {
	case INCLUDE:
		return p.parseInclude()
	case ENUMERATION:
		return p.parseEnumeration()
	case STRUCTURE:
		return p.parseStructure()
	case MACHINE:
		return p.parseMachine()
	}
	tok := p.peek()
	return nil, p.fmtError(tok, "unexpected %s (%q) at file scope", tok.Type, tok.Lexeme)
}

// Parse builds the declarations of one source file.
func Parse(tokens []Token, rawSource string, file string) ([]Decl, error) {
	p := NewParser(tokens, rawSource, file)
	var decls []Decl
	for p.peek().Type != EOF {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// ParseSource lexes and parses one named source text.
func ParseSource(file, src string) ([]Decl, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("%s: syntax error: %w", file, err)
	}
	return Parse(tokens, src, file)
}
