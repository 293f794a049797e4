// Package hash40 implements the archive's 40-bit path hash and its optional
// reverse string dictionary.
//
// A Hash40 is carried everywhere as a 64-bit word: the low 40 bits are the
// hash itself (a CRC-32 of the path combined with the path's byte length),
// the high 24 bits are a side payload whose meaning depends on where the
// word was read from (a table index, a side-index, or nothing at all).
// Equality, ordering, and the reverse label lookup only ever look at the
// low 40 bits.
package hash40

import (
	"hash/crc32"
)

// mask40 isolates the 40 significant bits of a packed word.
const mask40 = (uint64(1) << 40) - 1

// SentinelIndex marks an absent side-index/table-index everywhere one is used.
const SentinelIndex uint32 = 0x00FFFFFF

// Hash40 is a 40-bit path hash, optionally carrying a 24-bit side-index in
// its upper bits. The zero value is the hash of the empty path.
type Hash40 uint64

// FromU64 wraps a raw 64-bit word as read from the archive, preserving any
// side-index bits it may carry.
func FromU64(v uint64) Hash40 { return Hash40(v) }

// AsU64 returns the masked 40-bit value: side-index bits are cleared.
func (h Hash40) AsU64() uint64 { return uint64(h) & mask40 }

// SideIndex returns the 24-bit auxiliary value packed into the upper bits
// of the word this Hash40 was constructed from.
func (h Hash40) SideIndex() uint32 { return uint32(uint64(h) >> 40) }

// Equal compares the 40-bit hash values only, ignoring any side-index.
func (h Hash40) Equal(o Hash40) bool { return h.AsU64() == o.AsU64() }

// Less orders two hashes numerically over their 40-bit value.
func (h Hash40) Less(o Hash40) bool { return h.AsU64() < o.AsU64() }

// FromStr computes the archive's canonical hash of a path string: a
// CRC-32 (IEEE polynomial) of the bytes, combined with the byte length in
// bits 32-39. Deterministic and total: equal inputs always hash equal.
func FromStr(s string) Hash40 {
	crc := uint64(crc32.ChecksumIEEE([]byte(s)))
	length := uint64(len(s)) & 0xFF
	return Hash40(crc | (length << 32))
}

// Label looks up the string this hash was computed from, if known.
func (h Hash40) Label(labels *Labels) (string, bool) {
	if labels == nil {
		return "", false
	}
	return labels.Get(h)
}

// HashToIndex is a sorted search-table entry: the same packed-word shape as
// Hash40, but used where the upper 24 bits are always a live table index
// rather than incidental side data.
type HashToIndex uint64

// Hash40 returns the 40-bit key portion, suitable for ordered comparisons.
func (h HashToIndex) Hash40() Hash40 { return Hash40(uint64(h) & mask40) }

// Index returns the 24-bit table index packed into the upper bits.
func (h HashToIndex) Index() uint32 { return uint32(uint64(h) >> 40) }

// Pack builds a HashToIndex word from a hash and an index.
func Pack(hash Hash40, index uint32) HashToIndex {
	return HashToIndex(hash.AsU64() | (uint64(index) << 40))
}
