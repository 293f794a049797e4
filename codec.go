package arcvault

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoder is the single contract both the filesystem loader (C3) and the
// byte-serving layer (C6) decompress through, so neither imports
// klauspost/compress directly.
type decoder interface {
	decode(r io.Reader, w io.Writer) error
}

// zstdCodec adapts github.com/klauspost/compress/zstd to decoder. Decoders
// are not safe for concurrent use per the library's own docs, so callers
// share one behind a mutex rather than building a fresh one per call.
type zstdCodec struct {
	mu  sync.Mutex
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("arcvault: init zstd decoder: %w", err)
	}
	return &zstdCodec{dec: dec}, nil
}

func (c *zstdCodec) decode(r io.Reader, w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dec.Reset(r); err != nil {
		return fmt.Errorf("arcvault: zstd decode: %w", err)
	}
	if _, err := io.Copy(w, c.dec); err != nil {
		return fmt.Errorf("arcvault: zstd decode: %w", err)
	}
	return nil
}

func (c *zstdCodec) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dec.Close()
}

// rawCodec copies bytes through unchanged, for FileData rows whose
// Compressed flag is clear. Stream data does not pass through a codec.
type rawCodec struct{}

func (rawCodec) decode(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}
