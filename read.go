package arcvault

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/fsblob"
	"github.com/kamiya-labs/arcvault/internal/sectionreader"
	"github.com/kamiya-labs/arcvault/region"
)

// readAt reads exactly n bytes at absolute offset off from the
// backing archive, serialized through a.mu since the buffered ReaderAt
// underneath keeps a mutable read-ahead window.
func (a *Archive) readAt(off int64, n int64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sr := sectionreader.Section(a.back, off, n)
	buf := make([]byte, n)
	if _, err := sr.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func (a *Archive) label(h hash40.Hash40) string {
	if s, ok := h.Label(a.labels); ok {
		return s
	}
	return fmt.Sprintf("%#x", h.AsU64())
}

// ReadNonStreamFile reads and decompresses hash's contents from the
// regular file/shared section (§4.6). It does not fall back to the stream
// tables; use ReadFile for the combined lookup.
func (a *Archive) ReadNonStreamFile(hash hash40.Hash40, r region.Region) ([]byte, error) {
	info, err := a.FileInfoFromHash(hash)
	if err != nil {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: err}
	}
	folderOffset := a.FolderOffset(info, r)
	data := a.FileData(info, r)
	return a.readFileData(hash, data, folderOffset)
}

func (a *Archive) readFileData(hash hash40.Hash40, data fsblob.FileData, folderOffset fsblob.DirectoryOffset) ([]byte, error) {
	offset := a.nonStreamOffset(folderOffset, data)

	if data.Compressed() && !data.UseZstd() {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: ErrUnsupportedCompression}
	}

	if cached, ok := a.cache.Get(int64(offset)); ok {
		return cached, nil
	}

	raw, err := a.readAt(int64(offset), int64(data.CompSize))
	if err != nil {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: err}
	}

	var out bytes.Buffer
	out.Grow(int(data.DecompSize))

	var dec decoder = rawCodec{}
	if data.Compressed() {
		dec = a.zstd
	}
	if err := dec.decode(bytes.NewReader(raw), &out); err != nil {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: err}
	}

	payload := out.Bytes()
	a.cache.Add(int64(offset), payload)
	return payload, nil
}

// ReadStreamFile reads hash's contents from the stream section. Stream
// data is never compressed and is read at its exact recorded length; a
// short read is reported as a wrapped io.ErrUnexpectedEOF, matching the
// reference resolver's exact-length stream read.
func (a *Archive) ReadStreamFile(hash hash40.Hash40) ([]byte, error) {
	sd, err := a.StreamDataFor(hash)
	if err != nil {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sr := sectionreader.Section(a.back, int64(sd.Offset), int64(sd.Size))
	buf := make([]byte, sd.Size)
	if _, err := sr.ReadAt(buf, 0); err != nil {
		return nil, &fileError{Op: "read", HashLabel: a.label(hash), Err: fmt.Errorf("%w: %v", io.ErrUnexpectedEOF, err)}
	}
	return buf, nil
}

// ReadFile resolves hash's contents: non-stream files first, falling back
// to the stream tables on ErrMissing, matching the reference resolver's
// combined lookup order.
func (a *Archive) ReadFile(hash hash40.Hash40, r region.Region) ([]byte, error) {
	data, err := a.ReadNonStreamFile(hash, r)
	if err == nil {
		return data, nil
	}
	fe, ok := err.(*fileError)
	if !ok || fe.Err != ErrMissing {
		return nil, err
	}
	return a.ReadStreamFile(hash)
}
