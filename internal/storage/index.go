package storage

import (
	"github.com/antdb/antdb/internal/sql/lexer"
	"github.com/antdb/antdb/internal/sql/parser"
	"github.com/antdb/antdb/internal/sql/sqlerr"
)

// Index pairs a parsed CREATE INDEX schema with the root page of the
// index's B-tree and answers equality searches on the indexed column
// with the matching row ids.
//
// EDUCATIONAL NOTES:
// ------------------
// A SQLite index is its own B-tree whose keys are (indexed column
// values..., row id). Unlike table B-trees, interior index pages store
// real entries, not just separators: a key sitting in an interior cell
// belongs to the result set just as much as one sitting in a leaf. An
// equality search therefore collects row ids from both levels and
// deduplicates, since the same cell key bounds two adjacent child
// pointers.
type Index struct {
	storage *StorageEngine
	name    string
	table   *Table
	root    IndexPage
	def     *parser.CreateIndexStatement
}

// NewIndex parses the index's CREATE INDEX text and wraps its root
// page.
func NewIndex(storage *StorageEngine, name string, table *Table, root IndexPage, schema string) (*Index, error) {
	def, err := parser.New(lexer.New(schema)).CreateIndex()
	if err != nil {
		return nil, err
	}
	return &Index{storage: storage, name: name, table: table, root: root, def: def}, nil
}

// Name returns the index name.
func (x *Index) Name() string {
	return x.name
}

// Table returns the table this index covers.
func (x *Index) Table() *Table {
	return x.table
}

// Column returns the indexed column name.
func (x *Index) Column() string {
	return x.def.Column
}

// FindMatchingRecordIds returns the row ids of every index entry whose
// first key component equals value. The ids are deduplicated and come
// back in unspecified order. Asking for a column this index does not
// cover is a SQL error.
func (x *Index) FindMatchingRecordIds(column string, value Value) ([]int64, error) {
	if column != x.def.Column {
		return nil, sqlerr.New("index %s does not cover column %s", x.name, column)
	}
	seen := make(map[int64]struct{})
	if err := x.collect(x.root, seen, value); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

// keyMatches reports whether a key's first component equals the sought
// value.
func keyMatches(key IndexKey, value Value) bool {
	first, ok := key.First()
	return ok && first.Equals(value)
}

// pointerContains tests whether value could lie inside a child
// pointer's key range, comparing against the first component of each
// bounded endpoint. Unbounded sides always match.
func pointerContains(ptr Pointer[IndexKey], value Value) (bool, error) {
	if ptr.Left != nil {
		if first, ok := ptr.Left.First(); ok {
			c, err := first.Compare(value)
			if err != nil {
				return false, err
			}
			if c > 0 {
				return false, nil
			}
		}
	}
	if ptr.Right != nil {
		if first, ok := ptr.Right.First(); ok {
			c, err := first.Compare(value)
			if err != nil {
				return false, err
			}
			if c < 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func (x *Index) collect(p IndexPage, seen map[int64]struct{}, value Value) error {
	switch page := p.(type) {
	case *IndexLeafPage:
		for i := 0; i < page.NumKeys(); i++ {
			key, err := page.Key(i)
			if err != nil {
				return err
			}
			if keyMatches(key, value) {
				seen[key.RowID] = struct{}{}
			}
		}
		return nil
	case *IndexInteriorPage:
		for i := 0; i < page.NumPointers(); i++ {
			ptr, err := page.Pointer(i)
			if err != nil {
				return err
			}
			ok, err := pointerContains(ptr, value)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			// Interior cell keys are real index entries; collect them
			// before descending.
			if ptr.Left != nil && keyMatches(*ptr.Left, value) {
				seen[ptr.Left.RowID] = struct{}{}
			}
			if ptr.Right != nil && keyMatches(*ptr.Right, value) {
				seen[ptr.Right.RowID] = struct{}{}
			}
			child, err := x.storage.getIndexPage(int(ptr.Child))
			if err != nil {
				return err
			}
			if err := x.collect(child, seen, value); err != nil {
				return err
			}
		}
		return nil
	default:
		return Errorf("unexpected index page type %#x", p.pageType())
	}
}
