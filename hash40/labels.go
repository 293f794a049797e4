package hash40

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

// Labels is a reverse (hash -> path string) dictionary. It exists purely to
// make lookups and directory listings human-readable; nothing in the
// resolver requires it.
//
// It is backed by an in-memory Pebble instance rather than a plain map, so
// that WithPrefix walks entries in the store's sorted (hash) order. The
// instance lives entirely in memory (vfs.NewMem): NewLabels creates an
// empty one, LoadFile and LoadReader add to it, and Close discards it.
type Labels struct {
	mu sync.RWMutex
	db *pebble.DB
}

// NewLabels returns an empty label table backed by a fresh in-memory store.
func NewLabels() (*Labels, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("hash40: open label store: %w", err)
	}
	return &Labels{db: db}, nil
}

// Close releases the in-memory store. A nil receiver is a no-op.
func (l *Labels) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func key(h Hash40) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], h.AsU64()) // big-endian so byte order sorts numerically
	return b[:]
}

// Add records the label for hash. Re-adding the same hash with a different
// label overwrites the previous one.
func (l *Labels) Add(s string) error {
	h := FromStr(s)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Set(key(h), []byte(s), pebble.Sync)
}

// Get returns the label for h, if one has been added.
func (l *Labels) Get(h Hash40) (string, bool) {
	if l == nil {
		return "", false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	v, closer, err := l.db.Get(key(h))
	if err != nil {
		return "", false
	}
	defer closer.Close()
	return string(v), true
}

// WithPrefix returns every known label string that starts with prefix. It
// walks every entry in sorted-hash order (not path order) and filters by
// string, so the results come back in hash order.
// Useful for diagnostics; the resolver never calls this.
func (l *Labels) WithPrefix(prefix string) []string {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	iter, err := l.db.NewIter(nil)
	if err != nil {
		return nil
	}
	defer iter.Close()

	var out []string
	for valid := iter.First(); valid; valid = iter.Next() {
		if v := string(iter.Value()); strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// LoadFile bulk-loads label lines from a dictionary file: one label string
// per line, with the hash40 recomputed from the string. Every non-blank
// line not starting with "#" is stored whole as a label; lines are not
// split into "hash,label" pairs.
func (l *Labels) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return l.LoadReader(f)
}

// LoadReader is LoadFile without the os.Open, for embedding or testing.
func (l *Labels) LoadReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := l.Add(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
