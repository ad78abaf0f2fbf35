package storage

import (
	"bytes"
	"fmt"
	"strings"
)

// ValueKind discriminates the variants of a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindBlob
	KindText
)

// Value is one decoded column value: Null, a 64-bit integer, a blob,
// or text. Values are immutable once decoded from a record.
type Value struct {
	Kind ValueKind
	Int  int64
	Blob []byte
	Text string
}

// NullValue returns the Null variant.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// IntValue returns an integer Value.
func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// BlobValue returns a blob Value.
func BlobValue(b []byte) Value {
	return Value{Kind: KindBlob, Blob: b}
}

// TextValue returns a text Value.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// AsInt returns the integer payload. The second result is false when v
// is not an integer.
func (v Value) AsInt() (int64, bool) {
	return v.Int, v.Kind == KindInt
}

// AsText returns the text payload. The second result is false when v is
// not text.
func (v Value) AsText() (string, bool) {
	return v.Text, v.Kind == KindText
}

// Equals reports structural equality: same kind, same payload.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt:
		return v.Int == other.Int
	case KindBlob:
		return bytes.Equal(v.Blob, other.Blob)
	case KindText:
		return v.Text == other.Text
	default:
		return false
	}
}

// Compare orders two values: Null sorts before everything, integers
// compare numerically, and text compares by code-unit order. Comparing
// an integer against text (or any blob) is a caller error.
func (v Value) Compare(other Value) (int, error) {
	if v.IsNull() || other.IsNull() {
		switch {
		case v.IsNull() && other.IsNull():
			return 0, nil
		case v.IsNull():
			return -1, nil
		default:
			return 1, nil
		}
	}
	if v.Kind != other.Kind || v.Kind == KindBlob {
		return 0, Errorf("cannot compare %s against %s", v.Display(), other.Display())
	}
	switch v.Kind {
	case KindInt:
		switch {
		case v.Int < other.Int:
			return -1, nil
		case v.Int > other.Int:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return strings.Compare(v.Text, other.Text), nil
	}
}

// Display renders the value the way the CLI prints it: NULL for nulls,
// [blob] for blobs, the text or the decimal integer otherwise.
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindBlob:
		return "[blob]"
	default:
		return v.Text
	}
}
