// Package arcvault reads the packed game-asset archive format described by
// this repository: a single file carrying a compressed filesystem
// description (hash-bucketed path/directory tables, stream asset tables,
// and an optional search index) plus the asset payloads it indexes.
//
// Archive is read-only and safe for concurrent use once Open or New
// returns. Nothing in this package mutates the backing file.
package arcvault

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	bufra "github.com/avvmoto/buf-readerat"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/binreader"
	"github.com/kamiya-labs/arcvault/internal/cache"
	"github.com/kamiya-labs/arcvault/internal/fsblob"
)

// magic identifies a well-formed archive header.
const magic = 0xABCDEF9876543210

const (
	defaultCacheBytes   = 64 * 1024 * 1024
	bufReaderAtBlockSize = 64 * 1024
)

// Archive is an opened, parsed view of one archive file.
type Archive struct {
	mu     sync.Mutex // guards reads through back
	back   io.ReaderAt
	closer io.Closer // non-nil when Open opened the file itself

	streamSectionOffset uint64
	fileSectionOffset   uint64
	sharedSectionOffset uint64
	fileSystemOffset    uint64
	patchSection        uint64

	tables *fsblob.Tables
	zstd   *zstdCodec
	cache  *cache.Payloads
	labels *hash40.Labels
}

// Option configures Open or New.
type Option func(*options)

type options struct {
	cacheBytes int64
	labels     *hash40.Labels
}

// WithCacheBytes sets the byte budget of the decompressed-payload cache
// (C10). The cache converts it to an entry count (see internal/cache); the
// bytes actually held are not tracked.
func WithCacheBytes(n int64) Option {
	return func(o *options) { o.cacheBytes = n }
}

// WithLabels attaches a reverse label dictionary, enabling human-readable
// diagnostics and Glob. Without one, lookups only ever work by raw hash.
func WithLabels(l *hash40.Labels) Option {
	return func(o *options) { o.labels = l }
}

// Open opens the archive file at path.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("arcvault: open %s: %w", path, err)
	}
	a, err := New(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New parses an already-open backing reader. The caller retains ownership
// of r; Close never closes it (use Open for that).
func New(r io.ReaderAt, opts ...Option) (*Archive, error) {
	o := options{cacheBytes: defaultCacheBytes}
	for _, opt := range opts {
		opt(&o)
	}

	back := bufra.NewBufReaderAt(r, bufReaderAtBlockSize)

	zc, err := newZstdCodec()
	if err != nil {
		return nil, err
	}

	a := &Archive{
		back:   back,
		zstd:   zc,
		cache:  cache.New(o.cacheBytes),
		labels: o.labels,
	}

	if err := a.readHeader(); err != nil {
		zc.Close()
		return nil, err
	}
	if err := a.loadFilesystem(); err != nil {
		zc.Close()
		return nil, err
	}
	return a, nil
}

// Close releases resources. If Open opened the backing file, it is closed;
// a reader passed directly to New is left alone.
func (a *Archive) Close() error {
	a.zstd.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// section returns an io.SectionReader over the backing store starting at
// off, unbounded for practical purposes (the archive's actual file size
// cuts reads short with io.EOF from the underlying ReaderAt).
func (a *Archive) section(off uint64) *io.SectionReader {
	return io.NewSectionReader(a.back, int64(off), math.MaxInt64-int64(off))
}

func (a *Archive) readHeader() error {
	r := binreader.New(a.section(0))

	got := r.U64()
	if err := r.Err(); err != nil {
		return fmt.Errorf("arcvault: read header: %w", err)
	}
	if got != magic {
		return fmt.Errorf("arcvault: bad magic %#x, want %#x", got, uint64(magic))
	}

	a.streamSectionOffset = r.U64()
	a.fileSectionOffset = r.U64()
	a.sharedSectionOffset = r.U64()
	a.fileSystemOffset = r.U64()
	a.patchSection = r.U64()
	if err := r.Err(); err != nil {
		return fmt.Errorf("arcvault: read header: %w", err)
	}
	return nil
}

// compressedEnvelope is the fixed preamble in front of the zstd-compressed
// filesystem description. File payloads carry no such preamble: C6 reads
// their compressed bytes directly at the offset their FileData gives.
type compressedEnvelope struct {
	DecompSize   uint32
	CompSize     uint32
	SectionSize  uint32
	Unknown      uint32
}

func readEnvelope(r *binreader.Reader) compressedEnvelope {
	return compressedEnvelope{
		DecompSize:  r.U32(),
		CompSize:    r.U32(),
		SectionSize: r.U32(),
		Unknown:     r.U32(),
	}
}

func (a *Archive) loadFilesystem() error {
	r := binreader.New(a.section(a.fileSystemOffset))
	env := readEnvelope(r)
	if err := r.Err(); err != nil {
		return fmt.Errorf("arcvault: read filesystem envelope: %w", err)
	}

	compressed := r.Bytes(int(env.CompSize))
	if err := r.Err(); err != nil {
		return fmt.Errorf("arcvault: read filesystem payload: %w", err)
	}

	var out bytes.Buffer
	out.Grow(int(env.DecompSize))
	if err := a.zstd.decode(bytes.NewReader(compressed), &out); err != nil {
		return fmt.Errorf("arcvault: decompress filesystem: %w", err)
	}

	tables, err := fsblob.Parse(out.Bytes())
	if err != nil {
		return err
	}
	a.tables = tables
	return nil
}
