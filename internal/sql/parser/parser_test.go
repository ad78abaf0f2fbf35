package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antdb/antdb/internal/sql/lexer"
)

func parseStatement(t *testing.T, sql string) Statement {
	t.Helper()
	stmt, err := New(lexer.New(sql)).Statement()
	require.NoError(t, err)
	return stmt
}

func TestParseSelect(t *testing.T) {
	stmt := parseStatement(t, "SELECT id, name FROM users")
	sel, ok := stmt.(*SelectStatement)
	require.True(t, ok)

	assert.Equal(t, "users", sel.From)
	assert.Nil(t, sel.Filter)
	assert.Equal(t, []Expr{
		ColumnName{Name: "id"},
		ColumnName{Name: "name"},
	}, sel.Columns)
}

func TestParseSelectWithWhere(t *testing.T) {
	stmt := parseStatement(t, "SELECT name FROM users WHERE country = 'peru'")
	sel, ok := stmt.(*SelectStatement)
	require.True(t, ok)

	require.NotNil(t, sel.Filter)
	assert.Equal(t, ColumnName{Name: "country"}, sel.Filter.Column)
	assert.Equal(t, StrLiteral{Value: "peru"}, sel.Filter.Value)
}

func TestParseSelectCount(t *testing.T) {
	stmt := parseStatement(t, "SELECT COUNT(*) FROM users")
	sel, ok := stmt.(*SelectStatement)
	require.True(t, ok)

	require.Len(t, sel.Columns, 1)
	// Function names are lower-cased regardless of the input spelling.
	assert.Equal(t, FnCall{Function: "count", Args: []Expr{Star{}}}, sel.Columns[0])
}

func TestParseCreateTable(t *testing.T) {
	stmt := parseStatement(t, "CREATE TABLE users (id INTEGER PRIMARY KEY, name Text, country text)")
	create, ok := stmt.(*CreateTableStatement)
	require.True(t, ok)

	assert.Equal(t, "users", create.Name)
	assert.Equal(t, []ColumnDef{
		{Name: "id", Modifiers: []string{"integer", "primary", "key"}},
		{Name: "name", Modifiers: []string{"text"}},
		{Name: "country", Modifiers: []string{"text"}},
	}, create.Columns)
}

func TestParseCreateTableBareColumns(t *testing.T) {
	stmt := parseStatement(t, "CREATE TABLE sqlite_sequence(name,seq)")
	create, ok := stmt.(*CreateTableStatement)
	require.True(t, ok)
	assert.Equal(t, []ColumnDef{
		{Name: "name"},
		{Name: "seq"},
	}, create.Columns)
}

func TestParseCreateTableQuotedIdentifiers(t *testing.T) {
	stmt := parseStatement(t, `CREATE TABLE companies ("id" integer primary key, "name" text)`)
	create, ok := stmt.(*CreateTableStatement)
	require.True(t, ok)
	assert.Equal(t, "id", create.Columns[0].Name)
	assert.Equal(t, "name", create.Columns[1].Name)
}

func TestParseCreateIndex(t *testing.T) {
	stmt := parseStatement(t, "CREATE INDEX idx_users_country ON users (country)")
	create, ok := stmt.(*CreateIndexStatement)
	require.True(t, ok)

	assert.Equal(t, "idx_users_country", create.Name)
	assert.Equal(t, "users", create.Table)
	assert.Equal(t, "country", create.Column)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"missing from", "SELECT name users"},
		{"bad expression", "SELECT FROM users"},
		{"where needs column", "SELECT name FROM users WHERE 'x' = 'y'"},
		{"where needs literal", "SELECT name FROM users WHERE name = country"},
		{"trailing tokens", "SELECT name FROM users extra"},
		{"unterminated string", "SELECT name FROM users WHERE name = 'dave"},
		{"create without table or index", "CREATE VIEW v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(lexer.New(tt.sql)).Statement()
			assert.Error(t, err)
		})
	}
}

func TestCreateTableDirect(t *testing.T) {
	create, err := New(lexer.New("CREATE TABLE t (a text)")).CreateTable()
	require.NoError(t, err)
	assert.Equal(t, "t", create.Name)

	_, err = New(lexer.New("SELECT a FROM t")).CreateTable()
	assert.Error(t, err)
}

func TestCreateIndexDirect(t *testing.T) {
	create, err := New(lexer.New("CREATE INDEX i ON t (a)")).CreateIndex()
	require.NoError(t, err)
	assert.Equal(t, "i", create.Name)

	_, err = New(lexer.New("CREATE INDEX i ON t (a) extra")).CreateIndex()
	assert.Error(t, err)
}
