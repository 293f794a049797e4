// Package cache bounds the set of decompressed file payloads an Archive
// keeps around, so that repeated reads of small, frequently-touched assets
// (shared textures, common sound cues) skip re-seeking and re-inflating
// the backing archive.
package cache

import (
	"strconv"
	"sync"

	"github.com/dgryski/go-tinylfu"
)

// defaultAvgEntryBytes is the assumed average payload size used to convert
// a byte budget into the entry-count tinylfu's constructor wants. Assets in
// this format range from a few hundred bytes to tens of megabytes, so this
// is a coarse estimate, not a guarantee: Payloads does not track the bytes
// it holds, so the entry count is the only bound on admitted payloads.
const defaultAvgEntryBytes = 64 * 1024

// samplesMultiplier is tinylfu's recommended admission-sketch sample count
// relative to its capacity.
const samplesMultiplier = 10

// Payloads caches decompressed file bytes keyed by their absolute offset
// in the backing archive. It is safe for concurrent use.
type Payloads struct {
	mu       sync.Mutex
	t        *tinylfu.T
	byteCap  int64
	curBytes int64
}

// New returns a cache holding at most byteCap/defaultAvgEntryBytes entries
// (at least one). A payload larger than byteCap is never admitted; the
// total bytes held is not tracked and can exceed byteCap.
func New(byteCap int64) *Payloads {
	if byteCap <= 0 {
		byteCap = defaultAvgEntryBytes
	}
	capEntries := int(byteCap / defaultAvgEntryBytes)
	if capEntries < 1 {
		capEntries = 1
	}
	return &Payloads{
		t:       tinylfu.New(capEntries, capEntries*samplesMultiplier),
		byteCap: byteCap,
	}
}

func key(offset int64) string {
	return strconv.FormatInt(offset, 36)
}

// Get returns the cached payload for offset, if present.
func (p *Payloads) Get(offset int64) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.t.Get(key(offset))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Add records payload under offset. A payload larger than the entire
// byte budget is not cached, since it would immediately starve everything
// else admitted alongside it.
func (p *Payloads) Add(offset int64, payload []byte) {
	if int64(len(payload)) > p.byteCap {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.t.Add(key(offset), payload)
}
