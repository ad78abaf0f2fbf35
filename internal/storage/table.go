package storage

import (
	"github.com/antdb/antdb/internal/sql/lexer"
	"github.com/antdb/antdb/internal/sql/parser"
)

// Table pairs a parsed CREATE TABLE schema with the root page of the
// table's B-tree and walks the tree to enumerate or point-look-up rows.
type Table struct {
	storage *StorageEngine
	name    string
	root    TablePage
	def     *parser.CreateTableStatement
}

// NewTable parses the table's CREATE TABLE text and wraps its root
// page. The schema text comes straight out of the schema table, so it
// goes through the same parser as user queries.
func NewTable(storage *StorageEngine, name string, root TablePage, schema string) (*Table, error) {
	def, err := parser.New(lexer.New(schema)).CreateTable()
	if err != nil {
		return nil, err
	}
	return &Table{storage: storage, name: name, root: root, def: def}, nil
}

// Row is one table row: its row id plus the column values keyed by the
// column names of the CREATE TABLE that produced it.
type Row struct {
	RowID  int64
	values map[string]Value
}

// Get returns the value of the named column. The second result is
// false when the table has no such column.
func (r Row) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.def.Columns))
	for i, col := range t.def.Columns {
		names[i] = col.Name
	}
	return names
}

// isIntegerPK reports whether a column is declared INTEGER PRIMARY KEY.
// Such a column takes its value from the row id rather than from the
// record body, which stores a null placeholder in its position.
func isIntegerPK(col parser.ColumnDef) bool {
	var integer, primary, key bool
	for _, mod := range col.Modifiers {
		switch mod {
		case "integer":
			integer = true
		case "primary":
			primary = true
		case "key":
			key = true
		}
	}
	return integer && primary && key
}

// parseRow maps a decoded record onto the declared columns.
func (t *Table) parseRow(rowID int64, rec Record) Row {
	values := make(map[string]Value, len(t.def.Columns))
	for i, col := range t.def.Columns {
		switch {
		case isIntegerPK(col):
			values[col.Name] = IntValue(rowID)
		case i < len(rec.Values):
			values[col.Name] = rec.Values[i]
		default:
			// Rows written before an ALTER TABLE ADD COLUMN carry
			// fewer values than the schema declares.
			values[col.Name] = NullValue()
		}
	}
	return Row{RowID: rowID, values: values}
}

// Rows returns every row of the table in left-to-right depth-first
// traversal order of the B-tree.
func (t *Table) Rows() ([]Row, error) {
	var rows []Row
	if err := t.collect(t.root, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *Table) collect(p TablePage, rows *[]Row) error {
	switch page := p.(type) {
	case *TableLeafPage:
		for i := 0; i < page.NumRows(); i++ {
			rowID, rec, err := page.Row(i)
			if err != nil {
				return err
			}
			*rows = append(*rows, t.parseRow(rowID, rec))
		}
		return nil
	case *TableInteriorPage:
		for i := 0; i < page.NumPointers(); i++ {
			ptr, err := page.Pointer(i)
			if err != nil {
				return err
			}
			child, err := t.storage.getTablePage(int(ptr.Child))
			if err != nil {
				return err
			}
			if err := t.collect(child, rows); err != nil {
				return err
			}
		}
		return nil
	default:
		return Errorf("unexpected table page type %#x", p.pageType())
	}
}

// Get point-looks-up a row by its row id. The second result is false
// when no row with that id exists.
func (t *Table) Get(rowID int64) (Row, bool, error) {
	return t.lookup(t.root, rowID)
}

// rowIDInRange tests a child pointer's bounds: an unbounded side always
// matches, a bounded side matches when left <= rowID <= right.
func rowIDInRange(ptr Pointer[int64], rowID int64) bool {
	if ptr.Left != nil && rowID < *ptr.Left {
		return false
	}
	return ptr.Right == nil || rowID <= *ptr.Right
}

func (t *Table) lookup(p TablePage, rowID int64) (Row, bool, error) {
	switch page := p.(type) {
	case *TableLeafPage:
		for i := 0; i < page.NumRows(); i++ {
			id, rec, err := page.Row(i)
			if err != nil {
				return Row{}, false, err
			}
			if id == rowID {
				return t.parseRow(id, rec), true, nil
			}
		}
		return Row{}, false, nil
	case *TableInteriorPage:
		for i := 0; i < page.NumPointers(); i++ {
			ptr, err := page.Pointer(i)
			if err != nil {
				return Row{}, false, err
			}
			if !rowIDInRange(ptr, rowID) {
				continue
			}
			child, err := t.storage.getTablePage(int(ptr.Child))
			if err != nil {
				return Row{}, false, err
			}
			return t.lookup(child, rowID)
		}
		return Row{}, false, nil
	default:
		return Row{}, false, Errorf("unexpected table page type %#x", p.pageType())
	}
}
