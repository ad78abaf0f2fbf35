package storage

import (
	"io"
	"os"
)

// BackingFile is the seekable byte source a StorageEngine reads pages
// from. It holds the file's position state and is accessed serially;
// no buffering is layered on top, so every page fetch is a seek plus a
// read against the underlying file.
type BackingFile struct {
	file io.ReadSeekCloser
}

// NewBackingFile wraps an already-open seekable source.
func NewBackingFile(file io.ReadSeekCloser) *BackingFile {
	return &BackingFile{file: file}
}

// OpenBackingFile opens the database file at path read-only.
func OpenBackingFile(path string) (*BackingFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapErrf(err, "failed to open database file %s", path)
	}
	return NewBackingFile(f), nil
}

// Seek repositions the file to an absolute offset and returns the
// receiver so reads can be chained off the new position.
func (b *BackingFile) Seek(pos int64) (*BackingFile, error) {
	if _, err := b.file.Seek(pos, io.SeekStart); err != nil {
		return nil, WrapErrf(err, "failed to seek to offset %d", pos)
	}
	return b, nil
}

// Read fills buf from the current position. Fewer bytes than requested
// is not an error here; callers that require a full buffer check the
// returned count.
func (b *BackingFile) Read(buf []byte) (int, error) {
	n, err := io.ReadFull(b.file, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, nil
	}
	if err != nil {
		return n, WrapErr(err, "failed to read from file")
	}
	return n, nil
}

// Close releases the underlying file.
func (b *BackingFile) Close() error {
	if err := b.file.Close(); err != nil {
		return WrapErr(err, "failed to close backing file")
	}
	return nil
}
