package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antdb/antdb/internal/storage"
	"github.com/antdb/antdb/internal/testdb"
)

func TestParseRecordSerialTypes(t *testing.T) {
	payload := testdb.Record(storage.EncodingUTF8,
		nil,           // serial type 0
		0,             // serial type 8
		1,             // serial type 9
		-5,            // serial type 1
		300,           // serial type 2
		-70000,        // serial type 3
		2147483000,    // serial type 4
		"hello",       // text
		[]byte{1, 2},  // blob
	)

	rec, err := storage.ParseRecord(payload, storage.EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, rec.Values, 9)

	assert.True(t, rec.Values[0].IsNull())
	assert.Equal(t, storage.IntValue(0), rec.Values[1])
	assert.Equal(t, storage.IntValue(1), rec.Values[2])
	assert.Equal(t, storage.IntValue(-5), rec.Values[3])
	assert.Equal(t, storage.IntValue(300), rec.Values[4])
	assert.Equal(t, storage.IntValue(-70000), rec.Values[5])
	assert.Equal(t, storage.IntValue(2147483000), rec.Values[6])
	assert.Equal(t, storage.TextValue("hello"), rec.Values[7])
	assert.Equal(t, storage.BlobValue([]byte{1, 2}), rec.Values[8])
}

func TestParseRecordUTF16(t *testing.T) {
	for _, enc := range []storage.TextEncoding{storage.EncodingUTF16LE, storage.EncodingUTF16BE} {
		payload := testdb.Record(enc, "héllo ✓")
		rec, err := storage.ParseRecord(payload, enc)
		require.NoError(t, err)
		require.Len(t, rec.Values, 1)
		assert.Equal(t, storage.TextValue("héllo ✓"), rec.Values[0])
	}
}

func TestParseRecordRoundTripEquality(t *testing.T) {
	payload := testdb.Record(storage.EncodingUTF8, nil, 42, "x", []byte{9})
	first, err := storage.ParseRecord(payload, storage.EncodingUTF8)
	require.NoError(t, err)
	second, err := storage.ParseRecord(payload, storage.EncodingUTF8)
	require.NoError(t, err)

	require.Len(t, second.Values, len(first.Values))
	for i := range first.Values {
		assert.True(t, first.Values[i].Equals(second.Values[i]))
	}
}

func TestParseRecordInvalidSerialTypes(t *testing.T) {
	for _, serialType := range []byte{5, 6, 7, 10, 11} {
		// Header: size 2 (itself plus one type byte), then the type.
		_, err := storage.ParseRecord([]byte{2, serialType}, storage.EncodingUTF8)
		assert.Error(t, err, "serial type %d", serialType)
	}
}

func TestParseRecordTruncated(t *testing.T) {
	_, err := storage.ParseRecord(nil, storage.EncodingUTF8)
	assert.Error(t, err)

	// Header promises a 4-byte integer with no body following.
	_, err = storage.ParseRecord([]byte{2, 4}, storage.EncodingUTF8)
	assert.Error(t, err)

	// Header size larger than the payload.
	_, err = storage.ParseRecord([]byte{99, 0}, storage.EncodingUTF8)
	assert.Error(t, err)
}
