package storage

import (
	"encoding/binary"
)

// B-tree page type bytes from the file format.
const (
	typeIndexInterior = 0x02
	typeTableInterior = 0x05
	typeIndexLeaf     = 0x0a
	typeTableLeaf     = 0x0d
)

const (
	leafHeaderSize     = 8
	interiorHeaderSize = 12
)

// Page is a typed, read-only view over one fixed-size page buffer.
// There are four concrete variants: table and index pages, each in leaf
// and interior form.
//
// Every page starts with a type byte, carries its cell count as a
// big-endian u16 at base+3, and is followed by the cell pointer array
// (one big-endian u16 offset per cell, measured from the start of the
// page). Interior pages additionally store their right-most child page
// number as a u32 at base+8. On page 1 the base is 100 to skip the file
// header; everywhere else it is 0.
type Page interface {
	pageType() byte
}

// TablePage is a page belonging to a table B-tree.
type TablePage interface {
	Page
	tablePage()
}

// IndexPage is a page belonging to an index B-tree.
type IndexPage interface {
	Page
	indexPage()
}

// page is the state shared by all four variants.
type page struct {
	buf      []byte
	base     int
	numCells int
	enc      TextEncoding
}

func (p *page) cellOffset(headerSize, i int) (int, error) {
	ptr := p.base + headerSize + i*2
	if ptr+2 > len(p.buf) {
		return 0, Errorf("cell pointer %d out of page bounds", i)
	}
	off := int(binary.BigEndian.Uint16(p.buf[ptr:]))
	if off >= len(p.buf) {
		return 0, Errorf("cell %d offset %d out of page bounds", i, off)
	}
	return off, nil
}

// NewPage constructs the typed view for a page buffer. base is 100 for
// page 1 and 0 for every other page. An unknown type byte is a storage
// error.
func NewPage(buf []byte, base int, enc TextEncoding) (Page, error) {
	if base+interiorHeaderSize > len(buf) {
		return nil, Errorf("page too small: %d bytes", len(buf))
	}
	p := page{
		buf:      buf,
		base:     base,
		numCells: int(binary.BigEndian.Uint16(buf[base+3:])),
		enc:      enc,
	}
	switch typ := buf[base]; typ {
	case typeTableLeaf:
		return &TableLeafPage{page: p}, nil
	case typeTableInterior:
		return &TableInteriorPage{page: p, rightChild: binary.BigEndian.Uint32(buf[base+8:])}, nil
	case typeIndexLeaf:
		return &IndexLeafPage{page: p}, nil
	case typeIndexInterior:
		return &IndexInteriorPage{page: p, rightChild: binary.BigEndian.Uint32(buf[base+8:])}, nil
	default:
		return nil, Errorf("invalid page type: %#x", typ)
	}
}

func asTablePage(p Page) (TablePage, error) {
	tp, ok := p.(TablePage)
	if !ok {
		return nil, Errorf("wanted table page, got type %#x", p.pageType())
	}
	return tp, nil
}

func asIndexPage(p Page) (IndexPage, error) {
	ip, ok := p.(IndexPage)
	if !ok {
		return nil, Errorf("wanted index page, got type %#x", p.pageType())
	}
	return ip, nil
}

// payloadAt reads a length-prefixed record payload at off. Payloads
// that would spill onto overflow pages are not handled and error out.
func (p *page) payloadAt(off int) ([]byte, error) {
	size, n, err := ParseVarInt(p.buf[off:])
	if err != nil {
		return nil, err
	}
	off += n
	if size < 0 || off+int(size) > len(p.buf) {
		return nil, Errorf("cell payload of %d bytes overflows page", size)
	}
	return p.buf[off : off+int(size)], nil
}

// ============================================================================
// Table pages
// ============================================================================

// TableLeafPage holds table rows. Each cell is a payload-size varint, a
// row-id varint, and a record payload.
type TableLeafPage struct {
	page
}

func (p *TableLeafPage) pageType() byte { return typeTableLeaf }
func (p *TableLeafPage) tablePage()     {}

// NumRows returns the number of rows stored in this leaf.
func (p *TableLeafPage) NumRows() int {
	return p.numCells
}

// Row parses the i-th cell into its row id and decoded record.
func (p *TableLeafPage) Row(i int) (int64, Record, error) {
	off, err := p.cellOffset(leafHeaderSize, i)
	if err != nil {
		return 0, Record{}, err
	}
	size, n, err := ParseVarInt(p.buf[off:])
	if err != nil {
		return 0, Record{}, err
	}
	off += n
	rowID, n, err := ParseVarInt(p.buf[off:])
	if err != nil {
		return 0, Record{}, err
	}
	off += n
	if size < 0 || off+int(size) > len(p.buf) {
		return 0, Record{}, Errorf("cell payload of %d bytes overflows page", size)
	}
	rec, err := ParseRecord(p.buf[off:off+int(size)], p.enc)
	if err != nil {
		return 0, Record{}, err
	}
	return rowID, rec, nil
}

// TableInteriorPage routes row-id lookups to child pages. Each cell is
// a u32 child page number followed by a row-id varint; the keys are
// monotone increasing left to right.
type TableInteriorPage struct {
	page
	rightChild uint32
}

func (p *TableInteriorPage) pageType() byte { return typeTableInterior }
func (p *TableInteriorPage) tablePage()     {}

// NumPointers returns the number of child pointers, one more than the
// cell count.
func (p *TableInteriorPage) NumPointers() int {
	return p.numCells + 1
}

// Pointer returns the i-th child pointer with its row-id bounds.
func (p *TableInteriorPage) Pointer(i int) (Pointer[int64], error) {
	return interiorPointer(i, p.numCells, p.rightChild, p.cell)
}

func (p *TableInteriorPage) cell(i int) (uint32, int64, error) {
	off, err := p.cellOffset(interiorHeaderSize, i)
	if err != nil {
		return 0, 0, err
	}
	if off+4 > len(p.buf) {
		return 0, 0, Errorf("cell %d truncated", i)
	}
	child := binary.BigEndian.Uint32(p.buf[off:])
	rowID, _, err := ParseVarInt(p.buf[off+4:])
	if err != nil {
		return 0, 0, err
	}
	return child, rowID, nil
}

// ============================================================================
// Index pages
// ============================================================================

// IndexKey is the key tuple stored in index cells: the indexed column
// values followed by the row id of the table row they point at. The row
// id is always the last value of the stored record.
type IndexKey struct {
	Columns []Value
	RowID   int64
}

// First returns the first indexed column value, the component equality
// searches compare against.
func (k IndexKey) First() (Value, bool) {
	if len(k.Columns) == 0 {
		return Value{}, false
	}
	return k.Columns[0], true
}

// parseIndexKey decodes an index record payload and splits off the
// trailing row id.
func parseIndexKey(payload []byte, enc TextEncoding) (IndexKey, error) {
	rec, err := ParseRecord(payload, enc)
	if err != nil {
		return IndexKey{}, err
	}
	if len(rec.Values) == 0 {
		return IndexKey{}, Errorf("index record has no values")
	}
	last := rec.Values[len(rec.Values)-1]
	rowID, ok := last.AsInt()
	if !ok {
		return IndexKey{}, Errorf("index record row id is not an integer: %s", last.Display())
	}
	return IndexKey{Columns: rec.Values[:len(rec.Values)-1], RowID: rowID}, nil
}

// IndexLeafPage holds index entries. Each cell is a payload-size varint
// followed by a record whose last value is the row id.
type IndexLeafPage struct {
	page
}

func (p *IndexLeafPage) pageType() byte { return typeIndexLeaf }
func (p *IndexLeafPage) indexPage()     {}

// NumKeys returns the number of index entries in this leaf.
func (p *IndexLeafPage) NumKeys() int {
	return p.numCells
}

// Key parses the i-th index entry.
func (p *IndexLeafPage) Key(i int) (IndexKey, error) {
	off, err := p.cellOffset(leafHeaderSize, i)
	if err != nil {
		return IndexKey{}, err
	}
	payload, err := p.payloadAt(off)
	if err != nil {
		return IndexKey{}, err
	}
	return parseIndexKey(payload, p.enc)
}

// IndexInteriorPage routes key searches to child pages. Each cell is a
// u32 child page number, a payload-size varint, and an index record.
// Unlike table interior pages, the keys held here are real index
// entries, not just separators.
type IndexInteriorPage struct {
	page
	rightChild uint32
}

func (p *IndexInteriorPage) pageType() byte { return typeIndexInterior }
func (p *IndexInteriorPage) indexPage()     {}

// NumPointers returns the number of child pointers, one more than the
// cell count.
func (p *IndexInteriorPage) NumPointers() int {
	return p.numCells + 1
}

// Pointer returns the i-th child pointer with its key bounds.
func (p *IndexInteriorPage) Pointer(i int) (Pointer[IndexKey], error) {
	return interiorPointer(i, p.numCells, p.rightChild, p.cell)
}

func (p *IndexInteriorPage) cell(i int) (uint32, IndexKey, error) {
	off, err := p.cellOffset(interiorHeaderSize, i)
	if err != nil {
		return 0, IndexKey{}, err
	}
	if off+4 > len(p.buf) {
		return 0, IndexKey{}, Errorf("cell %d truncated", i)
	}
	child := binary.BigEndian.Uint32(p.buf[off:])
	payload, err := p.payloadAt(off + 4)
	if err != nil {
		return 0, IndexKey{}, err
	}
	key, err := parseIndexKey(payload, p.enc)
	if err != nil {
		return 0, IndexKey{}, err
	}
	return child, key, nil
}
