// Package storage implements the read-only SQLite storage subsystem:
// the file header, B-tree page views, record decoding, and the table
// and index walkers built on top of them.
//
// EDUCATIONAL NOTES:
// ------------------
// A SQLite database file is a sequence of fixed-size pages. Page 1
// begins with a 100-byte file header; the remainder of page 1 and every
// other page is a B-tree node. Table data and index data live in
// separate B-trees, and a special table rooted at page 1 (the schema
// table) describes all the others.
//
// Rows and index entries are stored as "records": a header of serial
// types (one varint per column describing the column's type and on-disk
// width) followed by the packed column bodies. Everything multi-byte in
// the format is big-endian.

package storage

import (
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is the database text encoding declared in the file
// header. All text column bodies in the file use this encoding.
type TextEncoding uint32

const (
	EncodingUTF8    TextEncoding = 1
	EncodingUTF16LE TextEncoding = 2
	EncodingUTF16BE TextEncoding = 3
)

// decodeText converts a raw column body into a Go string.
func (e TextEncoding) decodeText(b []byte) (string, error) {
	switch e {
	case EncodingUTF8:
		return string(b), nil
	case EncodingUTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", WrapErr(err, "failed to decode utf-16le text")
		}
		return string(out), nil
	case EncodingUTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", WrapErr(err, "failed to decode utf-16be text")
		}
		return string(out), nil
	default:
		return "", Errorf("bad encoding: %d", e)
	}
}

// Record is the decoded form of a cell payload: the ordered column
// values of one row or index entry.
type Record struct {
	Values []Value
}

// ParseRecord decodes a cell payload.
//
// The payload opens with a varint giving the total header length in
// bytes (inclusive of itself), followed by one serial-type varint per
// column, followed by the packed column bodies in the same order. The
// serial type encodes both the value's type and its body width:
//
//	0            NULL, zero bytes
//	1..4         big-endian signed integer of 1, 2, 3, or 4 bytes
//	8, 9         the integer constants 0 and 1, zero bytes
//	even >= 12   blob of (n-12)/2 bytes
//	odd  >= 13   text of (n-13)/2 bytes in the database encoding
//
// Serial types 5, 6, 7 (wider integers and floats) and 10, 11 are not
// handled by this engine and decode as a storage error.
func ParseRecord(payload []byte, enc TextEncoding) (Record, error) {
	headerSize, headerOffset, err := ParseVarInt(payload)
	if err != nil {
		return Record{}, err
	}
	if headerSize < int64(headerOffset) || headerSize > int64(len(payload)) {
		return Record{}, Errorf("bad record header size: %d", headerSize)
	}

	var values []Value
	contentOffset := int(headerSize)
	for headerOffset < int(headerSize) {
		serialType, n, err := ParseVarInt(payload[headerOffset:])
		if err != nil {
			return Record{}, err
		}
		headerOffset += n

		value, width, err := decodeColumn(payload, contentOffset, serialType, enc)
		if err != nil {
			return Record{}, err
		}
		values = append(values, value)
		contentOffset += width
	}
	return Record{Values: values}, nil
}

// decodeColumn decodes one column body at offset, returning the value
// and the number of body bytes it occupied.
func decodeColumn(payload []byte, offset int, serialType int64, enc TextEncoding) (Value, int, error) {
	width := serialTypeWidth(serialType)
	if width < 0 {
		return Value{}, 0, Errorf("invalid serial type: %d", serialType)
	}
	if offset+width > len(payload) {
		return Value{}, 0, Errorf("record body truncated: serial type %d needs %d bytes", serialType, width)
	}
	body := payload[offset : offset+width]

	switch {
	case serialType == 0:
		return NullValue(), 0, nil
	case serialType >= 1 && serialType <= 4:
		return IntValue(signedBigEndian(body)), width, nil
	case serialType == 8:
		return IntValue(0), 0, nil
	case serialType == 9:
		return IntValue(1), 0, nil
	case serialType%2 == 0:
		blob := make([]byte, width)
		copy(blob, body)
		return BlobValue(blob), width, nil
	default:
		text, err := enc.decodeText(body)
		if err != nil {
			return Value{}, 0, err
		}
		return TextValue(text), width, nil
	}
}

// serialTypeWidth returns the body width in bytes for a serial type, or
// -1 for types this engine does not handle.
func serialTypeWidth(serialType int64) int {
	switch serialType {
	case 0, 8, 9:
		return 0
	case 1, 2, 3, 4:
		return int(serialType)
	case 5, 6, 7, 10, 11:
		return -1
	default:
		if serialType < 12 {
			return -1
		}
		if serialType%2 == 0 {
			return int(serialType-12) / 2
		}
		return int(serialType-13) / 2
	}
}

// signedBigEndian reads a 1-4 byte big-endian two's-complement integer.
func signedBigEndian(body []byte) int64 {
	var v int64
	for _, b := range body {
		v = v<<8 | int64(b)
	}
	// Sign-extend from the top bit of the encoded width.
	shift := uint(64 - 8*len(body))
	return v << shift >> shift
}
