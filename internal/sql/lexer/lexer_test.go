package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanAll drains the lexer up to EOF.
func scanAll(t *testing.T, input string) []Token {
	t.Helper()
	l := New(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func TestScanWhitespace(t *testing.T) {
	assert.Empty(t, scanAll(t, "    \n   \t  "))
	assert.Equal(t, []Token{{Type: TokenWhere}}, scanAll(t, "   where  \n"))
}

func TestScan(t *testing.T) {
	tokens := scanAll(t, "select from ()* create table index,where on= foo \"bar baz\" 'blah'")
	assert.Equal(t, []Token{
		{Type: TokenSelect},
		{Type: TokenFrom},
		{Type: TokenLParen},
		{Type: TokenRParen},
		{Type: TokenStar},
		{Type: TokenCreate},
		{Type: TokenTable},
		{Type: TokenIndex},
		{Type: TokenComma},
		{Type: TokenWhere},
		{Type: TokenOn},
		{Type: TokenEq},
		{Type: TokenIdent, Literal: "foo"},
		{Type: TokenIdent, Literal: "bar baz"},
		{Type: TokenStr, Literal: "blah"},
	}, tokens)
}

func TestScanKeywordsCaseInsensitive(t *testing.T) {
	tokens := scanAll(t, "SeLeCt name FROM users")
	assert.Equal(t, []Token{
		{Type: TokenSelect},
		{Type: TokenIdent, Literal: "name"},
		{Type: TokenFrom},
		{Type: TokenIdent, Literal: "users"},
	}, tokens)
}

func TestScanIdentifierWithDigits(t *testing.T) {
	tokens := scanAll(t, "tbl_2 _x9")
	assert.Equal(t, []Token{
		{Type: TokenIdent, Literal: "tbl_2"},
		{Type: TokenIdent, Literal: "_x9"},
	}, tokens)
}

func TestScanErrors(t *testing.T) {
	for _, input := range []string{" ^  ", " 'foo  ", " \"foo   ", "5abc"} {
		l := New(input)
		var err error
		for err == nil {
			var tok Token
			tok, err = l.Next()
			if err == nil && tok.Type == TokenEOF {
				t.Fatalf("input %q: expected scan error, got eof", input)
			}
		}
		assert.Error(t, err, "input %q", input)
	}
}

func TestPeek(t *testing.T) {
	l := New(" foo ")

	tok, err := l.Peek()
	require.NoError(t, err)
	assert.Equal(t, Token{Type: TokenIdent, Literal: "foo"}, tok)

	// Peeking again returns the same token without consuming it.
	tok, err = l.Peek()
	require.NoError(t, err)
	assert.Equal(t, Token{Type: TokenIdent, Literal: "foo"}, tok)

	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, Token{Type: TokenIdent, Literal: "foo"}, tok)

	tok, err = l.Peek()
	require.NoError(t, err)
	assert.Equal(t, TokenEOF, tok.Type)
}
