package storage

import (
	"encoding/binary"
)

// schemaSQL is the definition of the schema table rooted at page 1. It
// is parsed through the same SQL parser used for user queries, so the
// engine bootstraps its catalog without a second schema representation.
const schemaSQL = `CREATE TABLE antdb_schema(
	type text,
	name text,
	tbl_name text,
	rootpage integer,
	sql text
)`

// SchemaObject is one row of the schema table, rendered for display.
type SchemaObject struct {
	Type     string
	Name     string
	TblName  string
	RootPage string
	SQL      string
}

// InfoField is one `.dbinfo` line. Fields keep their print order.
type InfoField struct {
	Key   string
	Value interface{}
}

// StorageEngine owns the backing file and the header-derived geometry,
// resolves page numbers to typed Page views, and enumerates the schema
// objects (tables and indices) of the database.
type StorageEngine struct {
	file      *BackingFile
	pageSize  int
	pageCount uint32
	enc       TextEncoding
}

// NewStorageEngine reads the 100-byte file header and prepares the
// engine. Fields consumed from the header: page size (u16 big-endian at
// byte 16, interpreted unsigned), page count (u32 at byte 28), and text
// encoding (u32 at byte 56, one of 1 UTF-8, 2 UTF-16LE, 3 UTF-16BE).
func NewStorageEngine(file *BackingFile) (*StorageEngine, error) {
	header := make([]byte, 100)
	f, err := file.Seek(0)
	if err != nil {
		return nil, err
	}
	n, err := f.Read(header)
	if err != nil {
		return nil, err
	}
	if n != len(header) {
		return nil, Errorf("invalid header: must contain 100 bytes, got %d", n)
	}

	pageSize := int(binary.BigEndian.Uint16(header[16:]))
	if pageSize < 100 {
		// pageSize of 1 means 65536-byte pages; not handled here.
		return nil, Errorf("unsupported page size: %d", pageSize)
	}
	enc := TextEncoding(binary.BigEndian.Uint32(header[56:]))
	switch enc {
	case EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE:
	default:
		return nil, Errorf("bad encoding: %d", enc)
	}

	return &StorageEngine{
		file:      file,
		pageSize:  pageSize,
		pageCount: binary.BigEndian.Uint32(header[28:]),
		enc:       enc,
	}, nil
}

// PageSize returns the database page size from the header.
func (s *StorageEngine) PageSize() int {
	return s.pageSize
}

// PageCount returns the database size in pages from the header.
func (s *StorageEngine) PageCount() uint32 {
	return s.pageCount
}

// GetPage reads page n (pages are numbered from 1) and returns its
// typed view. Every call is a fresh seek plus read; no page cache sits
// in between.
func (s *StorageEngine) GetPage(n int) (Page, error) {
	if n < 1 {
		return nil, Errorf("invalid page number: %d", n)
	}
	buf := make([]byte, s.pageSize)
	f, err := s.file.Seek(int64(n-1) * int64(s.pageSize))
	if err != nil {
		return nil, err
	}
	read, err := f.Read(buf)
	if err != nil {
		return nil, err
	}
	if read != s.pageSize {
		return nil, Errorf("bad page size: want %d, got %d", s.pageSize, read)
	}
	base := 0
	if n == 1 {
		base = 100
	}
	return NewPage(buf, base, s.enc)
}

func (s *StorageEngine) getTablePage(n int) (TablePage, error) {
	p, err := s.GetPage(n)
	if err != nil {
		return nil, err
	}
	return asTablePage(p)
}

func (s *StorageEngine) getIndexPage(n int) (IndexPage, error) {
	p, err := s.GetPage(n)
	if err != nil {
		return nil, err
	}
	return asIndexPage(p)
}

// Schema returns the schema table rooted at page 1.
func (s *StorageEngine) Schema() (*Table, error) {
	root, err := s.getTablePage(1)
	if err != nil {
		return nil, err
	}
	return NewTable(s, "antdb_schema", root, schemaSQL)
}

// Tables returns every table recorded in the schema table.
func (s *StorageEngine) Tables() ([]*Table, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}
	rows, err := schema.Rows()
	if err != nil {
		return nil, err
	}

	var tables []*Table
	for _, row := range rows {
		typ, _ := row.Get("type")
		if text, _ := typ.AsText(); text != "table" {
			continue
		}
		table, err := s.tableFromSchemaRow(row)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// Table returns the named table, or nil when the schema does not record
// one.
func (s *StorageEngine) Table(name string) (*Table, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, nil
}

// Indices returns every index recorded in the schema table.
func (s *StorageEngine) Indices() ([]*Index, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}
	rows, err := schema.Rows()
	if err != nil {
		return nil, err
	}

	var indices []*Index
	for _, row := range rows {
		typ, _ := row.Get("type")
		if text, _ := typ.AsText(); text != "index" {
			continue
		}
		name := schemaText(row, "name")
		tblName := schemaText(row, "tbl_name")
		table, err := s.Table(tblName)
		if err != nil {
			return nil, err
		}
		if table == nil {
			return nil, Errorf("index %s: table does not exist: %s", name, tblName)
		}
		rootPage, err := schemaRootPage(row)
		if err != nil {
			return nil, err
		}
		root, err := s.getIndexPage(rootPage)
		if err != nil {
			return nil, err
		}
		index, err := NewIndex(s, name, table, root, schemaText(row, "sql"))
		if err != nil {
			return nil, err
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// Objects returns every schema row (tables and indices) rendered for
// the `.schema` listing.
func (s *StorageEngine) Objects() ([]SchemaObject, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}
	rows, err := schema.Rows()
	if err != nil {
		return nil, err
	}

	objects := make([]SchemaObject, 0, len(rows))
	for _, row := range rows {
		rootpage, _ := row.Get("rootpage")
		objects = append(objects, SchemaObject{
			Type:     schemaText(row, "type"),
			Name:     schemaText(row, "name"),
			TblName:  schemaText(row, "tbl_name"),
			RootPage: rootpage.Display(),
			SQL:      schemaText(row, "sql"),
		})
	}
	return objects, nil
}

// Info returns the `.dbinfo` fields in print order.
func (s *StorageEngine) Info() ([]InfoField, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}
	return []InfoField{
		{Key: "database page size", Value: s.pageSize},
		{Key: "number of tables", Value: len(tables)},
	}, nil
}

func (s *StorageEngine) tableFromSchemaRow(row Row) (*Table, error) {
	name := schemaText(row, "name")
	rootPage, err := schemaRootPage(row)
	if err != nil {
		return nil, err
	}
	root, err := s.getTablePage(rootPage)
	if err != nil {
		return nil, err
	}
	return NewTable(s, name, root, schemaText(row, "sql"))
}

func schemaText(row Row, column string) string {
	v, _ := row.Get(column)
	text, _ := v.AsText()
	return text
}

func schemaRootPage(row Row) (int, error) {
	v, _ := row.Get("rootpage")
	n, ok := v.AsInt()
	if !ok {
		return 0, Errorf("schema rootpage is not an integer: %s", v.Display())
	}
	return int(n), nil
}
