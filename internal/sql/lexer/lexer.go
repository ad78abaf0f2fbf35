// Package lexer implements the SQL tokenizer.
//
// EDUCATIONAL NOTES:
// ------------------
// The lexer is the first phase of query processing. It reads the raw
// input string and converts it into a stream of tokens with one token
// of lookahead, which is all the recursive-descent parser needs.
//
// The language surface here is deliberately small: the keywords
// SELECT, FROM, CREATE, TABLE, INDEX, WHERE, and ON; the punctuation
// , = ( ) *; identifiers; double-quoted identifiers taken verbatim;
// and single-quoted string literals. Any other byte is a SQL error.
package lexer

import (
	"fmt"
	"strings"

	"github.com/antdb/antdb/internal/sql/sqlerr"
)

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota

	// Literals
	TokenIdent
	TokenStr

	// Keywords
	TokenSelect
	TokenFrom
	TokenCreate
	TokenTable
	TokenIndex
	TokenWhere
	TokenOn

	// Punctuation
	TokenComma
	TokenEq
	TokenLParen
	TokenRParen
	TokenStar
)

// tokenNames renders token types for diagnostics.
var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenIdent:  "IDENT",
	TokenStr:    "STR",
	TokenSelect: "SELECT",
	TokenFrom:   "FROM",
	TokenCreate: "CREATE",
	TokenTable:  "TABLE",
	TokenIndex:  "INDEX",
	TokenWhere:  "WHERE",
	TokenOn:     "ON",
	TokenComma:  "COMMA",
	TokenEq:     "EQ",
	TokenLParen: "LPAREN",
	TokenRParen: "RPAREN",
	TokenStar:   "STAR",
}

// keywords maps upper-cased identifier text to keyword token types.
var keywords = map[string]TokenType{
	"SELECT": TokenSelect,
	"FROM":   TokenFrom,
	"CREATE": TokenCreate,
	"TABLE":  TokenTable,
	"INDEX":  TokenIndex,
	"WHERE":  TokenWhere,
	"ON":     TokenOn,
}

// Token is one lexical token. Literal carries the identifier text or
// the string-literal contents; it is empty for keywords, punctuation,
// and EOF.
type Token struct {
	Type    TokenType
	Literal string
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	name, ok := tokenNames[t.Type]
	if !ok {
		name = fmt.Sprintf("UNKNOWN(%d)", t.Type)
	}
	if t.Literal == "" {
		return name
	}
	return fmt.Sprintf("%s(%q)", name, t.Literal)
}

// Lexer tokenizes SQL input with one token of lookahead.
type Lexer struct {
	input  string
	pos    int
	peeked *Token
}

// New creates a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Peek returns the next token without consuming it. At end of input it
// returns a TokenEOF token.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked == nil {
		tok, err := l.scan()
		if err != nil {
			return Token{}, err
		}
		l.peeked = &tok
	}
	return *l.peeked, nil
}

// Next consumes and returns the next token. At end of input it returns
// a TokenEOF token.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *Lexer) scan() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF}, nil
	}

	switch c := l.input[l.pos]; c {
	case ',':
		l.pos++
		return Token{Type: TokenComma}, nil
	case '=':
		l.pos++
		return Token{Type: TokenEq}, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen}, nil
	case '*':
		l.pos++
		return Token{Type: TokenStar}, nil
	case '\'':
		text, err := l.quoted(c)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenStr, Literal: text}, nil
	case '"':
		// Double-quoted identifiers are taken verbatim.
		text, err := l.quoted(c)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenIdent, Literal: text}, nil
	default:
		if isIdentStart(c) {
			return l.identifier(), nil
		}
		return Token{}, sqlerr.New("scanner: bad token: %q", string(c))
	}
}

// quoted reads a delimited literal, consuming both delimiters.
func (l *Lexer) quoted(delim byte) (string, error) {
	l.pos++ // opening delimiter
	begin := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != delim {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return "", sqlerr.New("scanner: unterminated %q literal", string(delim))
	}
	text := l.input[begin:l.pos]
	l.pos++ // closing delimiter
	return text, nil
}

// identifier reads an identifier or keyword.
func (l *Lexer) identifier() Token {
	begin := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	text := l.input[begin:l.pos]
	if tt, ok := keywords[strings.ToUpper(text)]; ok {
		return Token{Type: tt}
	}
	return Token{Type: TokenIdent, Literal: text}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n':
			l.pos++
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
