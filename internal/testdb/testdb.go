// Package testdb assembles small SQLite database files byte by byte so
// the storage tests can run against real on-disk layouts without
// depending on a SQLite installation. Only the subset of the format the
// engine reads is produced: the 100-byte header and the four B-tree
// page variants, with records encoded in the chosen text encoding.
package testdb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/antdb/antdb/internal/storage"
)

// file wraps a bytes.Reader with a no-op Close so it satisfies the
// backing-file contract.
type file struct {
	*bytes.Reader
}

func (file) Close() error { return nil }

// Open wraps raw database bytes as a BackingFile.
func Open(db []byte) *storage.BackingFile {
	return storage.NewBackingFile(file{bytes.NewReader(db)})
}

// PutVarint encodes v in SQLite's 1-9 byte varint format.
func PutVarint(v int64) []byte {
	u := uint64(v)
	if u <= 0x7f {
		return []byte{byte(u)}
	}
	if u >= 1<<56 {
		// Nine bytes: eight continuation bytes of 7 bits, then a full
		// low byte.
		out := make([]byte, 9)
		out[8] = byte(u)
		u >>= 8
		for i := 7; i >= 0; i-- {
			out[i] = byte(u&0x7f) | 0x80
			u >>= 7
		}
		return out
	}
	var rev []byte
	for u > 0 {
		rev = append(rev, byte(u&0x7f))
		u >>= 7
	}
	out := make([]byte, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		b := rev[i]
		if i != 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// encodeText renders s in the database text encoding.
func encodeText(enc storage.TextEncoding, s string) []byte {
	switch enc {
	case storage.EncodingUTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
		if err != nil {
			panic(err)
		}
		return out
	case storage.EncodingUTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
		if err != nil {
			panic(err)
		}
		return out
	default:
		return []byte(s)
	}
}

// Record encodes one record payload: the serial-type header followed by
// the column bodies. Accepted column values: nil, int/int64, string,
// and []byte.
func Record(enc storage.TextEncoding, cols ...interface{}) []byte {
	var types, bodies []byte
	for _, col := range cols {
		switch v := col.(type) {
		case nil:
			types = append(types, PutVarint(0)...)
		case int:
			t, body := encodeInt(int64(v))
			types = append(types, PutVarint(t)...)
			bodies = append(bodies, body...)
		case int64:
			t, body := encodeInt(v)
			types = append(types, PutVarint(t)...)
			bodies = append(bodies, body...)
		case string:
			body := encodeText(enc, v)
			types = append(types, PutVarint(int64(2*len(body)+13))...)
			bodies = append(bodies, body...)
		case []byte:
			types = append(types, PutVarint(int64(2*len(v)+12))...)
			bodies = append(bodies, v...)
		default:
			panic(fmt.Sprintf("testdb: unsupported column type %T", col))
		}
	}
	// The header length varint includes itself; every header here fits
	// in a single length byte.
	headerSize := 1 + len(types)
	if headerSize > 0x7f {
		panic("testdb: record header too large")
	}
	out := append([]byte{byte(headerSize)}, types...)
	return append(out, bodies...)
}

// encodeInt picks the smallest integer serial type for v.
func encodeInt(v int64) (int64, []byte) {
	switch {
	case v == 0:
		return 8, nil
	case v == 1:
		return 9, nil
	case v >= -(1<<7) && v < 1<<7:
		return 1, []byte{byte(v)}
	case v >= -(1<<15) && v < 1<<15:
		return 2, []byte{byte(v >> 8), byte(v)}
	case v >= -(1<<23) && v < 1<<23:
		return 3, []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	case v >= -(1<<31) && v < 1<<31:
		return 4, []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		panic("testdb: integer too wide for the supported serial types")
	}
}

// TableLeafCell encodes a table leaf cell: payload size, row id,
// record.
func TableLeafCell(rowID int64, record []byte) []byte {
	out := PutVarint(int64(len(record)))
	out = append(out, PutVarint(rowID)...)
	return append(out, record...)
}

// TableInteriorCell encodes a table interior cell: child page number
// and separator row id.
func TableInteriorCell(child uint32, rowID int64) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, child)
	return append(out, PutVarint(rowID)...)
}

// IndexLeafCell encodes an index leaf cell: payload size and record.
func IndexLeafCell(record []byte) []byte {
	out := PutVarint(int64(len(record)))
	return append(out, record...)
}

// IndexInteriorCell encodes an index interior cell: child page number,
// payload size, and record.
func IndexInteriorCell(child uint32, record []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, child)
	out = append(out, PutVarint(int64(len(record)))...)
	return append(out, record...)
}

const (
	typeIndexInterior = 0x02
	typeTableInterior = 0x05
	typeIndexLeaf     = 0x0a
	typeTableLeaf     = 0x0d
)

// buildPage lays out one page: the B-tree header at base, the cell
// pointer array after it, and the cell bodies packed from the end of
// the page downwards.
func buildPage(pageSize int, typ byte, rightChild uint32, cells [][]byte, base int) []byte {
	buf := make([]byte, pageSize)
	interior := typ == typeIndexInterior || typ == typeTableInterior
	headerSize := 8
	if interior {
		headerSize = 12
	}

	buf[base] = typ
	binary.BigEndian.PutUint16(buf[base+3:], uint16(len(cells)))
	if interior {
		binary.BigEndian.PutUint32(buf[base+8:], rightChild)
	}

	content := pageSize
	for i, cell := range cells {
		content -= len(cell)
		if content < base+headerSize+2*len(cells) {
			panic("testdb: page overflow")
		}
		copy(buf[content:], cell)
		binary.BigEndian.PutUint16(buf[base+headerSize+2*i:], uint16(content))
	}
	binary.BigEndian.PutUint16(buf[base+5:], uint16(content))
	return buf
}

// TableLeafPage builds a standalone table leaf page.
func TableLeafPage(pageSize int, cells ...[]byte) []byte {
	return buildPage(pageSize, typeTableLeaf, 0, cells, 0)
}

// TableInteriorPage builds a table interior page.
func TableInteriorPage(pageSize int, rightChild uint32, cells ...[]byte) []byte {
	return buildPage(pageSize, typeTableInterior, rightChild, cells, 0)
}

// IndexLeafPage builds an index leaf page.
func IndexLeafPage(pageSize int, cells ...[]byte) []byte {
	return buildPage(pageSize, typeIndexLeaf, 0, cells, 0)
}

// IndexInteriorPage builds an index interior page.
func IndexInteriorPage(pageSize int, rightChild uint32, cells ...[]byte) []byte {
	return buildPage(pageSize, typeIndexInterior, rightChild, cells, 0)
}

// BuildFile assembles a database file: page 1 is a table leaf holding
// the schema cells behind the 100-byte file header, and every
// subsequent page is appended verbatim.
func BuildFile(pageSize int, enc storage.TextEncoding, schemaCells [][]byte, pages ...[]byte) []byte {
	pageCount := 1 + len(pages)
	page1 := buildPage(pageSize, typeTableLeaf, 0, schemaCells, 100)
	writeHeader(page1, pageSize, uint32(pageCount), enc)

	out := make([]byte, 0, pageCount*pageSize)
	out = append(out, page1...)
	for i, p := range pages {
		if len(p) != pageSize {
			panic(fmt.Sprintf("testdb: page %d has %d bytes, want %d", i+2, len(p), pageSize))
		}
		out = append(out, p...)
	}
	return out
}

// writeHeader fills the consumed fields of the 100-byte file header.
func writeHeader(page1 []byte, pageSize int, pageCount uint32, enc storage.TextEncoding) {
	copy(page1, "SQLite format 3\x00")
	binary.BigEndian.PutUint16(page1[16:], uint16(pageSize))
	binary.BigEndian.PutUint32(page1[28:], pageCount)
	binary.BigEndian.PutUint32(page1[56:], uint32(enc))
}

// schemaCell encodes one row of the schema table.
func schemaCell(enc storage.TextEncoding, rowID int64, typ, name, tblName string, rootPage int64, sql string) []byte {
	return TableLeafCell(rowID, Record(enc, typ, name, tblName, rootPage, sql))
}

// SampleDB builds the canonical UTF-8 fixture:
//
//   - users (rootpage 2, single leaf) with an index on country
//     (rootpage 3, single leaf)
//   - events (rootpage 4, interior over leaves 5 and 6) with an index
//     on city (rootpage 7, interior over leaves 8 and 9)
//   - sqlite_sequence (rootpage 10, empty leaf)
func SampleDB() []byte {
	const pageSize = 4096
	const enc = storage.EncodingUTF8

	schema := [][]byte{
		schemaCell(enc, 1, "table", "users", "users", 2,
			"CREATE TABLE users (id integer primary key, name text, country text)"),
		schemaCell(enc, 2, "index", "idx_users_country", "users", 3,
			"CREATE INDEX idx_users_country ON users (country)"),
		schemaCell(enc, 3, "table", "events", "events", 4,
			"CREATE TABLE events (id integer primary key, city text, attendees integer)"),
		schemaCell(enc, 4, "index", "idx_events_city", "events", 7,
			"CREATE INDEX idx_events_city ON events (city)"),
		schemaCell(enc, 5, "table", "sqlite_sequence", "sqlite_sequence", 10,
			"CREATE TABLE sqlite_sequence(name,seq)"),
	}

	users := TableLeafPage(pageSize,
		TableLeafCell(1, Record(enc, nil, "alice", "france")),
		TableLeafCell(2, Record(enc, nil, "bob", "peru")),
		TableLeafCell(3, Record(enc, nil, "carol", "france")),
		TableLeafCell(4, Record(enc, nil, "dave", "japan")),
	)
	usersIdx := IndexLeafPage(pageSize,
		IndexLeafCell(Record(enc, "france", 1)),
		IndexLeafCell(Record(enc, "france", 3)),
		IndexLeafCell(Record(enc, "japan", 4)),
		IndexLeafCell(Record(enc, "peru", 2)),
	)

	eventsRoot := TableInteriorPage(pageSize, 6,
		TableInteriorCell(5, 4),
	)
	eventsLeft := TableLeafPage(pageSize,
		TableLeafCell(1, Record(enc, nil, "lima", 120)),
		TableLeafCell(2, Record(enc, nil, "oslo", 0)),
		TableLeafCell(3, Record(enc, nil, "lima", -5)),
		TableLeafCell(4, Record(enc, nil, "oslo", 70000)),
	)
	eventsRight := TableLeafPage(pageSize,
		TableLeafCell(5, Record(enc, nil, "lima", 1)),
		TableLeafCell(6, Record(enc, nil, "oslo", 300)),
		TableLeafCell(7, Record(enc, nil, "lima", 2147483000)),
		TableLeafCell(8, Record(enc, nil, "oslo", 7)),
	)

	eventsIdxRoot := IndexInteriorPage(pageSize, 9,
		IndexInteriorCell(8, Record(enc, "lima", 5)),
	)
	eventsIdxLeft := IndexLeafPage(pageSize,
		IndexLeafCell(Record(enc, "lima", 1)),
		IndexLeafCell(Record(enc, "lima", 3)),
	)
	eventsIdxRight := IndexLeafPage(pageSize,
		IndexLeafCell(Record(enc, "lima", 7)),
		IndexLeafCell(Record(enc, "oslo", 2)),
		IndexLeafCell(Record(enc, "oslo", 4)),
		IndexLeafCell(Record(enc, "oslo", 6)),
		IndexLeafCell(Record(enc, "oslo", 8)),
	)

	sequence := TableLeafPage(pageSize)

	return BuildFile(pageSize, enc, schema,
		users, usersIdx,
		eventsRoot, eventsLeft, eventsRight,
		eventsIdxRoot, eventsIdxLeft, eventsIdxRight,
		sequence,
	)
}

// UnicodeDB builds a one-table fixture in the given UTF-16 encoding to
// exercise text decoding, including of the schema SQL itself.
func UnicodeDB(enc storage.TextEncoding) []byte {
	const pageSize = 512

	schema := [][]byte{
		schemaCell(enc, 1, "table", "msgs", "msgs", 2,
			"CREATE TABLE msgs (id integer primary key, body text)"),
	}
	msgs := TableLeafPage(pageSize,
		TableLeafCell(1, Record(enc, nil, "héllo")),
		TableLeafCell(2, Record(enc, nil, "wörld ✓")),
	)
	return BuildFile(pageSize, enc, schema, msgs)
}
