package parser

import (
	"strings"

	"github.com/antdb/antdb/internal/sql/lexer"
	"github.com/antdb/antdb/internal/sql/sqlerr"
)

// Parser consumes tokens from a Lexer and builds the AST. Each grammar
// rule is one method; the lexer's single token of lookahead is enough
// to pick between the alternatives at every decision point.
type Parser struct {
	lexer *lexer.Lexer
}

// New creates a Parser for the given lexer.
func New(l *lexer.Lexer) *Parser {
	return &Parser{lexer: l}
}

// peekIs reports whether the next token has the given type, without
// consuming it.
func (p *Parser) peekIs(tt lexer.TokenType) (bool, error) {
	tok, err := p.lexer.Peek()
	if err != nil {
		return false, err
	}
	return tok.Type == tt, nil
}

// eat consumes the next token and requires it to have the given type.
func (p *Parser) eat(tt lexer.TokenType) (lexer.Token, error) {
	tok, err := p.lexer.Next()
	if err != nil {
		return lexer.Token{}, err
	}
	if tok.Type != tt {
		return lexer.Token{}, sqlerr.New("parser: want %s, got %s", lexer.Token{Type: tt}, tok)
	}
	return tok, nil
}

// eof requires the input to be exhausted.
func (p *Parser) eof() error {
	tok, err := p.lexer.Peek()
	if err != nil {
		return err
	}
	if tok.Type != lexer.TokenEOF {
		return sqlerr.New("parser: expected eof, got %s", tok)
	}
	return nil
}

// Statement parses a complete statement: a SELECT, a CREATE TABLE, or
// a CREATE INDEX, selected by the leading tokens.
func (p *Parser) Statement() (Statement, error) {
	isCreate, err := p.peekIs(lexer.TokenCreate)
	if err != nil {
		return nil, err
	}
	if !isCreate {
		return p.Select()
	}
	if _, err := p.eat(lexer.TokenCreate); err != nil {
		return nil, err
	}
	isTable, err := p.peekIs(lexer.TokenTable)
	if err != nil {
		return nil, err
	}
	if isTable {
		return p.createTableBody()
	}
	return p.createIndexBody()
}

// Select parses SELECT exprs FROM table (WHERE cond)? EOF.
func (p *Parser) Select() (*SelectStatement, error) {
	if _, err := p.eat(lexer.TokenSelect); err != nil {
		return nil, err
	}

	var columns []Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		columns = append(columns, e)
		atFrom, err := p.peekIs(lexer.TokenFrom)
		if err != nil {
			return nil, err
		}
		if atFrom {
			break
		}
		if _, err := p.eat(lexer.TokenComma); err != nil {
			return nil, err
		}
	}

	if _, err := p.eat(lexer.TokenFrom); err != nil {
		return nil, err
	}
	table, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}

	stmt := &SelectStatement{Columns: columns, From: table.Literal}
	hasWhere, err := p.peekIs(lexer.TokenWhere)
	if err != nil {
		return nil, err
	}
	if hasWhere {
		filter, err := p.cond()
		if err != nil {
			return nil, err
		}
		stmt.Filter = filter
	}
	if err := p.eof(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// expr parses one expression: a string literal, the `*` wildcard, or
// an identifier which becomes a function call when followed by `(` and
// a column reference otherwise.
func (p *Parser) expr() (Expr, error) {
	tok, err := p.lexer.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.TokenStr:
		return StrLiteral{Value: tok.Literal}, nil
	case lexer.TokenStar:
		return Star{}, nil
	case lexer.TokenIdent:
		isCall, err := p.peekIs(lexer.TokenLParen)
		if err != nil {
			return nil, err
		}
		if isCall {
			return p.fnCall(tok.Literal)
		}
		return ColumnName{Name: tok.Literal}, nil
	default:
		return nil, sqlerr.New("parser: bad expression: %s", tok)
	}
}

// fnCall parses the parenthesized single argument of a function call.
// Function names are lower-cased so `COUNT(*)` and `count(*)` agree.
func (p *Parser) fnCall(name string) (Expr, error) {
	if _, err := p.eat(lexer.TokenLParen); err != nil {
		return nil, err
	}
	arg, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return FnCall{Function: strings.ToLower(name), Args: []Expr{arg}}, nil
}

// cond parses WHERE col = literal.
func (p *Parser) cond() (*Filter, error) {
	if _, err := p.eat(lexer.TokenWhere); err != nil {
		return nil, err
	}
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	column, ok := left.(ColumnName)
	if !ok {
		return nil, sqlerr.New("parser: want column name, got %#v", left)
	}
	if _, err := p.eat(lexer.TokenEq); err != nil {
		return nil, err
	}
	right, err := p.expr()
	if err != nil {
		return nil, err
	}
	literal, ok := right.(Literal)
	if !ok {
		return nil, sqlerr.New("parser: want literal, got %#v", right)
	}
	return &Filter{Column: column, Value: literal}, nil
}

// CreateTable parses a full CREATE TABLE statement. The storage layer
// calls this directly to bootstrap table schemas out of the schema
// table.
func (p *Parser) CreateTable() (*CreateTableStatement, error) {
	if _, err := p.eat(lexer.TokenCreate); err != nil {
		return nil, err
	}
	return p.createTableBody()
}

func (p *Parser) createTableBody() (*CreateTableStatement, error) {
	if _, err := p.eat(lexer.TokenTable); err != nil {
		return nil, err
	}
	name, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokenLParen); err != nil {
		return nil, err
	}

	var columns []ColumnDef
	for {
		atEnd, err := p.peekIs(lexer.TokenRParen)
		if err != nil {
			return nil, err
		}
		if atEnd {
			break
		}
		col, err := p.columnDefinition()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		atEnd, err = p.peekIs(lexer.TokenRParen)
		if err != nil {
			return nil, err
		}
		if atEnd {
			break
		}
		if _, err := p.eat(lexer.TokenComma); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(lexer.TokenRParen); err != nil {
		return nil, err
	}
	if err := p.eof(); err != nil {
		return nil, err
	}
	return &CreateTableStatement{Name: name.Literal, Columns: columns}, nil
}

// columnDefinition parses one column: its name plus the type and
// constraint words that follow, accumulated as lower-cased modifiers.
func (p *Parser) columnDefinition() (ColumnDef, error) {
	name, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return ColumnDef{}, err
	}
	var modifiers []string
	for {
		atComma, err := p.peekIs(lexer.TokenComma)
		if err != nil {
			return ColumnDef{}, err
		}
		atEnd, err := p.peekIs(lexer.TokenRParen)
		if err != nil {
			return ColumnDef{}, err
		}
		if atComma || atEnd {
			break
		}
		mod, err := p.eat(lexer.TokenIdent)
		if err != nil {
			return ColumnDef{}, err
		}
		modifiers = append(modifiers, strings.ToLower(mod.Literal))
	}
	return ColumnDef{Name: name.Literal, Modifiers: modifiers}, nil
}

// CreateIndex parses a full CREATE INDEX statement. The storage layer
// calls this directly to bootstrap index schemas.
func (p *Parser) CreateIndex() (*CreateIndexStatement, error) {
	if _, err := p.eat(lexer.TokenCreate); err != nil {
		return nil, err
	}
	return p.createIndexBody()
}

func (p *Parser) createIndexBody() (*CreateIndexStatement, error) {
	if _, err := p.eat(lexer.TokenIndex); err != nil {
		return nil, err
	}
	name, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokenOn); err != nil {
		return nil, err
	}
	table, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokenLParen); err != nil {
		return nil, err
	}
	column, err := p.eat(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(lexer.TokenRParen); err != nil {
		return nil, err
	}
	if err := p.eof(); err != nil {
		return nil, err
	}
	return &CreateIndexStatement{
		Name:   name.Literal,
		Table:  table.Literal,
		Column: column.Literal,
	}, nil
}
