// Package executor evaluates parsed SQL against the storage engine.
//
// EDUCATIONAL NOTES:
// ------------------
// The executor is where the query plan, such as it is, gets chosen.
// There is exactly one optimization: when a SELECT carries a WHERE
// clause and some index covers the filtered column, the filter is
// answered by walking the index B-tree for the matching row ids and
// point-looking-up each row, instead of scanning the whole table. Any
// other filter falls back to a full scan with the predicate applied in
// memory. Projection happens last, with count(*) collapsing the row
// set to a single output row.
package executor

import (
	"github.com/pkg/errors"

	"github.com/antdb/antdb/internal/sql/lexer"
	"github.com/antdb/antdb/internal/sql/parser"
	"github.com/antdb/antdb/internal/sql/sqlerr"
	"github.com/antdb/antdb/internal/storage"
)

// Row is one output row of a query.
type Row []storage.Value

// InvariantError marks a broken cross-structure invariant, such as an
// indexed row id that is absent from its table. It is fatal: the file
// is internally inconsistent and no recovery is attempted.
type InvariantError struct {
	err error
}

func (e *InvariantError) Error() string {
	return e.err.Error()
}

func (e *InvariantError) Unwrap() error {
	return e.err
}

// Executor binds parsed statements to a storage engine.
type Executor struct {
	storage *storage.StorageEngine
}

// New creates an Executor over the given storage engine.
func New(s *storage.StorageEngine) *Executor {
	return &Executor{storage: s}
}

// Evaluate parses and runs one SQL statement, returning the output
// rows.
func (e *Executor) Evaluate(sql string) ([]Row, error) {
	stmt, err := parser.New(lexer.New(sql)).Statement()
	if err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *parser.CreateTableStatement:
		return nil, sqlerr.New("table creation not supported")
	case *parser.CreateIndexStatement:
		return nil, sqlerr.New("index creation not supported")
	case *parser.SelectStatement:
		return e.evaluateSelect(s)
	default:
		return nil, sqlerr.New("unsupported statement: %T", stmt)
	}
}

func (e *Executor) evaluateSelect(stmt *parser.SelectStatement) ([]Row, error) {
	table, err := e.storage.Table(stmt.From)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, sqlerr.New("no such table: %s", stmt.From)
	}

	var rows []storage.Row
	if stmt.Filter != nil {
		rows, err = e.filteredRows(table, stmt.Filter)
	} else {
		rows, err = table.Rows()
	}
	if err != nil {
		return nil, err
	}
	return project(stmt.Columns, rows)
}

// filteredRows answers a WHERE clause, through an index when one covers
// the filtered column and by full scan otherwise.
func (e *Executor) filteredRows(table *storage.Table, filter *parser.Filter) ([]storage.Row, error) {
	index, err := e.findIndexForFilter(table, filter)
	if err != nil {
		return nil, err
	}
	if index != nil {
		return e.rowsByIndex(table, index, filter)
	}
	return scanRows(table, filter)
}

// findIndexForFilter returns the first index of the queried table whose
// indexed column is the filtered column, or nil.
func (e *Executor) findIndexForFilter(table *storage.Table, filter *parser.Filter) (*storage.Index, error) {
	indices, err := e.storage.Indices()
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if idx.Table().Name() == table.Name() && idx.Column() == filter.Column.Name {
			return idx, nil
		}
	}
	return nil, nil
}

// rowsByIndex resolves the filter through the index, then point-looks
// up each matching row id. An id the index knows but the table does not
// is an invariant violation.
func (e *Executor) rowsByIndex(table *storage.Table, index *storage.Index, filter *parser.Filter) ([]storage.Row, error) {
	ids, err := index.FindMatchingRecordIds(filter.Column.Name, literalValue(filter.Value))
	if err != nil {
		return nil, err
	}
	rows := make([]storage.Row, 0, len(ids))
	for _, id := range ids {
		row, ok, err := table.Get(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InvariantError{
				err: errors.Errorf("row not found in table %s for indexed id %d", table.Name(), id),
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// scanRows walks the whole table and keeps the rows matching the
// filter.
func scanRows(table *storage.Table, filter *parser.Filter) ([]storage.Row, error) {
	all, err := table.Rows()
	if err != nil {
		return nil, err
	}
	var rows []storage.Row
	for _, row := range all {
		v, ok := row.Get(filter.Column.Name)
		if !ok {
			return nil, sqlerr.New("no such column: %s", filter.Column.Name)
		}
		if v.Equals(literalValue(filter.Value)) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func literalValue(lit parser.Literal) storage.Value {
	switch l := lit.(type) {
	case parser.StrLiteral:
		return storage.TextValue(l.Value)
	default:
		// The grammar admits only string literals today.
		return storage.NullValue()
	}
}

// project evaluates the column expressions over the row set. A function
// call anywhere in the list makes the whole projection aggregate,
// producing a single output row; otherwise each input row yields one
// output row.
func project(columns []parser.Expr, rows []storage.Row) ([]Row, error) {
	aggregate := false
	for _, col := range columns {
		if _, ok := col.(parser.FnCall); ok {
			aggregate = true
			break
		}
	}

	if aggregate {
		out := make(Row, 0, len(columns))
		for _, col := range columns {
			v, err := evaluateAggregate(col, rows)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return []Row{out}, nil
	}

	results := make([]Row, 0, len(rows))
	for _, row := range rows {
		out := make(Row, 0, len(columns))
		for _, col := range columns {
			v, err := evaluateExpr(col, row)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		results = append(results, out)
	}
	return results, nil
}

// evaluateAggregate evaluates one expression over the whole row set:
// count collapses to the cardinality, anything else evaluates over the
// first row, or Null when there are no rows.
func evaluateAggregate(expr parser.Expr, rows []storage.Row) (storage.Value, error) {
	if fn, ok := expr.(parser.FnCall); ok && fn.Function == "count" {
		return storage.IntValue(int64(len(rows))), nil
	}
	if len(rows) == 0 {
		return storage.NullValue(), nil
	}
	return evaluateExpr(expr, rows[0])
}

// evaluateExpr evaluates one expression against one row. Only column
// references and string literals are valid here.
func evaluateExpr(expr parser.Expr, row storage.Row) (storage.Value, error) {
	switch ex := expr.(type) {
	case parser.ColumnName:
		v, ok := row.Get(ex.Name)
		if !ok {
			return storage.Value{}, sqlerr.New("no such column: %s", ex.Name)
		}
		return v, nil
	case parser.StrLiteral:
		return storage.TextValue(ex.Value), nil
	default:
		return storage.Value{}, sqlerr.New("invalid expression: %#v", expr)
	}
}
