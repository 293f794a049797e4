// Package fsblob parses the decompressed filesystem description at the
// heart of the archive into a set of in-memory parallel-array tables. Once
// Parse returns, nothing in this package touches the backing reader again:
// every later lookup is offset arithmetic and slice indexing over Tables.
package fsblob

import "github.com/kamiya-labs/arcvault/hash40"

// Opaque indices into their respective Tables slices. Distinct types so
// they cannot be passed to the wrong accessor by mistake.
type (
	FilePathIdx        uint32
	FileInfoIdx        uint32
	FileInfoToDataIdx  uint32
	FileDataIdx        uint32
	FolderOffsetIdx    uint32
	DirInfoIdx         uint32
)

// FileInfoBucket is a contiguous slice of HashToPathIndex, selected by
// hash % len(Buckets). Inside the slice, entries are sorted by Hash40.
type FileInfoBucket struct {
	Start uint32
	Count uint32
}

// Range returns the bucket's [start, end) slice bounds.
func (b FileInfoBucket) Range() (start, end uint32) { return b.Start, b.Start + b.Count }

// FilePath names one archive entry. All four fields pack a Hash40 plus a
// side-index in their upper bits; only Path's side-index is consumed, as
// an index into FileInfoIndices.
type FilePath struct {
	Path     hash40.Hash40
	Ext      hash40.Hash40
	Parent   hash40.Hash40
	FileName hash40.Hash40
}

// FileInfoIndex is a single-field indirection from FilePath.Path's
// side-index to a row of FileInfos.
type FileInfoIndex struct {
	FileInfoIndex uint32
}

const (
	FileInfoRegional uint32 = 1 << 0
	FileInfoLocalized uint32 = 1 << 1
	FileInfoRedirect  uint32 = 1 << 2
)

// FileInfo describes one logical file: its path, the region-aware table it
// selects into, and a handful of flags.
type FileInfo struct {
	FilePathIndex   FilePathIdx
	InfoToDataIndex FileInfoToDataIdx
	Flags           uint32
}

func (f FileInfo) IsRegional() bool  { return f.Flags&FileInfoRegional != 0 }
func (f FileInfo) IsLocalized() bool { return f.Flags&FileInfoLocalized != 0 }
func (f FileInfo) IsRedirect() bool  { return f.Flags&FileInfoRedirect != 0 }

// FileInfoToFileData selects a folder offset and a file data row. When the
// owning FileInfo is regional, the effective row is InfoToDataIndex plus
// the region ordinal, not this row directly.
type FileInfoToFileData struct {
	FolderOffsetIndex FolderOffsetIdx
	FileDataIndex     FileDataIdx
	_reserved         uint32 // unused; mirrors a field the format carries but no operation here reads
}

const (
	FileDataCompressed uint32 = 1 << 0
	FileDataUseZstd    uint32 = 1 << 8
)

// FileData is the physical description of a file's payload within its
// folder: its size(s), compression, and offset relative to the folder.
type FileData struct {
	OffsetInFolder uint32
	CompSize       uint32
	DecompSize     uint32
	Flags          uint32
}

func (f FileData) Compressed() bool { return f.Flags&FileDataCompressed != 0 }
func (f FileData) UseZstd() bool    { return f.Flags&FileDataUseZstd != 0 }

const (
	DirInfoRedirected uint32 = 1 << 0
	DirInfoSymlink    uint32 = 1 << 1
)

// DirInfo is one directory: its own hashes, a range into FileInfos for its
// direct file children, and a range into child directory hashes.
type DirInfo struct {
	Path               hash40.Hash40
	Name               hash40.Hash40
	Parent             hash40.Hash40
	FileInfoStartIndex uint32
	FileCount          uint32
	ChildDirStartIndex uint32
	ChildDirCount      uint32
	Flags              uint32
}

func (d DirInfo) Redirected() bool { return d.Flags&DirInfoRedirected != 0 }
func (d DirInfo) IsSymlink() bool  { return d.Flags&DirInfoSymlink != 0 }

// FileInfoRange returns the [start, end) bounds of this directory's direct
// file children within the FileInfos table.
func (d DirInfo) FileInfoRange() (start, end uint32) {
	return d.FileInfoStartIndex, d.FileInfoStartIndex + d.FileCount
}

// ChildrenRange returns the [start, end) bounds of this directory's child
// directory hashes within ChildDirHashes.
func (d DirInfo) ChildrenRange() (start, end uint32) {
	return d.ChildDirStartIndex, d.ChildDirStartIndex + d.ChildDirCount
}

// DirectoryIndexAbsent marks a DirectoryOffset with no redirection target.
const DirectoryIndexAbsent uint32 = 0x00FFFFFF

// DirectoryOffset is a physical folder: either the home of a plain
// directory's files, or (when reached via redirection) a shared content
// pool another directory's files borrow from.
type DirectoryOffset struct {
	Offset         uint64
	FileStartIndex uint32
	FileCount      uint32
	DirectoryIndex uint32
}

// Range returns the [start, end) bounds of this folder's files within
// FileInfos.
func (d DirectoryOffset) Range() (start, end uint32) {
	return d.FileStartIndex, d.FileStartIndex + d.FileCount
}

// HasRedirectionTarget reports whether DirectoryIndex names a real row
// rather than the "absent" sentinel.
func (d DirectoryOffset) HasRedirectionTarget() bool {
	return d.DirectoryIndex != DirectoryIndexAbsent
}

// QuickDir names a contiguous run of StreamEntries sharing a directory.
// The run's bounds are packed the same way a HashToIndex packs a table
// index: QuickDir reuses that composite word for its own hash+start, with
// Count trailing as a plain field.
type QuickDir struct {
	HashStart hash40.HashToIndex
	Count     uint32
	_reserved uint32
}

func (q QuickDir) Hash40() hash40.Hash40 { return q.HashStart.Hash40() }

// Range returns the [start, end) bounds of this directory's entries within
// StreamEntries.
func (q QuickDir) Range() (start, end uint32) {
	start = q.HashStart.Index()
	return start, start + q.Count
}

// StreamEntry maps one stream asset's hash to an index into
// StreamFileIndices, packed the same way a HashToIndex packs a hash and a
// table index into one word.
type StreamEntry struct {
	HashAndIndex hash40.HashToIndex
}

func (e StreamEntry) Hash40() hash40.Hash40 { return e.HashAndIndex.Hash40() }
func (e StreamEntry) Index() uint32         { return e.HashAndIndex.Index() }

// StreamData is an absolute byte range within the archive, read directly
// with no folder/region indirection.
type StreamData struct {
	Offset uint64
	Size   uint32
}

// FolderPathListEntry is a §4.8 search-index folder entry: a path hash
// plus, packed the same way, the PathListIndices slot of its first child.
type FolderPathListEntry struct {
	PathAndFirstChild hash40.HashToIndex
}

func (e FolderPathListEntry) Hash40() hash40.Hash40 { return e.PathAndFirstChild.Hash40() }
func (e FolderPathListEntry) FirstChildIndex() uint32 {
	return e.PathAndFirstChild.Index()
}

// PathListEntry is a §4.8 search-index file/folder entry: a path hash
// carrying, in its side-index, the PathListIndices slot of the *next*
// sibling (forming a singly-linked chain terminated by the sentinel).
type PathListEntry struct {
	PathAndNextSibling hash40.HashToIndex
	Parent             hash40.Hash40
}

func (e PathListEntry) Hash40() hash40.Hash40      { return e.PathAndNextSibling.Hash40() }
func (e PathListEntry) NextSiblingIndex() uint32 { return e.PathAndNextSibling.Index() }

// Tables is the fully-materialized, immutable view of the archive's
// decompressed filesystem description. Every field is a plain slice; no
// entry in it is ever mutated after Parse returns.
type Tables struct {
	FileInfoBuckets    []FileInfoBucket
	HashToPathIndex    []hash40.HashToIndex
	FilePaths          []FilePath
	FileInfoIndices    []FileInfoIndex
	FileInfos          []FileInfo
	FileInfoToDatas    []FileInfoToFileData
	FileDatas          []FileData
	DirHashToInfoIndex []hash40.HashToIndex
	DirInfos           []DirInfo
	FolderOffsets      []DirectoryOffset
	ChildDirHashes     []hash40.HashToIndex

	QuickDirs            []QuickDir
	StreamHashToEntries  []hash40.HashToIndex
	StreamEntries        []StreamEntry
	StreamFileIndices    []uint32
	StreamDatas          []StreamData

	// Secondary search index (§4.8), optional: zero-length when the
	// archive carries no search section.
	FolderPathToIndex []hash40.HashToIndex
	FolderPathList    []FolderPathListEntry
	PathToIndex       []hash40.HashToIndex
	PathListIndices   []uint32
	PathList          []PathListEntry
}
