package arcvault

import (
	"sort"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/fsblob"
	"github.com/kamiya-labs/arcvault/region"
)

// RedirectionKind distinguishes the two ways a DirInfo can be redirected:
// to another named directory (Symlink), or to a bare shared content pool
// (Shared) carrying no DirInfo of its own.
type RedirectionKind int

const (
	RedirectSymlink RedirectionKind = iota
	RedirectShared
)

// Redirection is the resolved target of a redirected directory.
type Redirection struct {
	Kind   RedirectionKind
	Dir    fsblob.DirInfo         // valid when Kind == RedirectSymlink
	Offset fsblob.DirectoryOffset // valid when Kind == RedirectShared
}

// bucketForHash returns the slice of the hash-to-path-index table that
// hash's bucket covers.
func (a *Archive) bucketForHash(hash hash40.Hash40) []hash40.HashToIndex {
	buckets := a.tables.FileInfoBuckets
	idx := hash.AsU64() % uint64(len(buckets))
	start, end := buckets[idx].Range()
	return a.tables.HashToPathIndex[start:end]
}

// FilePathIndexFromHash resolves a path hash to its index in the FilePaths
// table via the bucketed, per-bucket-sorted hash search of §4.5.1.
func (a *Archive) FilePathIndexFromHash(hash hash40.Hash40) (fsblob.FilePathIdx, error) {
	bucket := a.bucketForHash(hash)
	i := sort.Search(len(bucket), func(i int) bool {
		return !bucket[i].Hash40().Less(hash)
	})
	if i >= len(bucket) || !bucket[i].Hash40().Equal(hash) {
		return 0, ErrMissing
	}
	return fsblob.FilePathIdx(bucket[i].Index()), nil
}

// FileInfoFromPathIndex follows a FilePathIdx through FileInfoIndices to
// its FileInfo (§4.5.2).
func (a *Archive) FileInfoFromPathIndex(idx fsblob.FilePathIdx) fsblob.FileInfo {
	fiIdx := a.tables.FilePaths[idx].Path.SideIndex()
	infoIdx := a.tables.FileInfoIndices[fiIdx].FileInfoIndex
	return a.tables.FileInfos[infoIdx]
}

// FileInfoFromHash resolves a path hash directly to its FileInfo.
func (a *Archive) FileInfoFromHash(hash hash40.Hash40) (fsblob.FileInfo, error) {
	idx, err := a.FilePathIndexFromHash(hash)
	if err != nil {
		return fsblob.FileInfo{}, err
	}
	return a.FileInfoFromPathIndex(idx), nil
}

// fileInFolder selects the FileInfoToFileData row for info in the given
// region, accounting for region-tagged runs (§4.5.3): a regional FileInfo's
// InfoToDataIndex is the base of a run indexed by region ordinal.
func (a *Archive) fileInFolder(info fsblob.FileInfo, r region.Region) fsblob.FileInfoToFileData {
	idx := int(info.InfoToDataIndex)
	if info.IsRegional() {
		idx += int(r)
	}
	return a.tables.FileInfoToDatas[idx]
}

// FolderOffset returns the absolute-offsets-table row backing info's file
// data in the given region.
func (a *Archive) FolderOffset(info fsblob.FileInfo, r region.Region) fsblob.DirectoryOffset {
	fif := a.fileInFolder(info, r)
	return a.tables.FolderOffsets[fif.FolderOffsetIndex]
}

// FileData returns the FileData row backing info's contents in the given
// region.
func (a *Archive) FileData(info fsblob.FileInfo, r region.Region) fsblob.FileData {
	fif := a.fileInFolder(info, r)
	return a.tables.FileDatas[fif.FileDataIndex]
}

// DirInfoFromHash resolves a directory path hash to its DirInfo (§4.5.4).
func (a *Archive) DirInfoFromHash(hash hash40.Hash40) (fsblob.DirInfo, error) {
	table := a.tables.DirHashToInfoIndex
	i := sort.Search(len(table), func(i int) bool {
		return !table[i].Hash40().Less(hash)
	})
	if i >= len(table) || !table[i].Hash40().Equal(hash) {
		return fsblob.DirInfo{}, ErrMissing
	}
	return a.tables.DirInfos[table[i].Index()], nil
}

// DirectoryDependency resolves a redirected directory's target (§4.5.5).
// It returns (Redirection{}, false, nil) when dir is not redirected, and
// ErrMissing wrapped when dir is flagged redirected but carries the
// "absent" sentinel as its target.
func (a *Archive) DirectoryDependency(dir fsblob.DirInfo) (Redirection, bool, error) {
	if !dir.Redirected() {
		return Redirection{}, false, nil
	}

	target := a.tables.FolderOffsets[dir.Path.SideIndex()]
	if !target.HasRedirectionTarget() {
		return Redirection{}, false, nil
	}

	if dir.IsSymlink() {
		return Redirection{Kind: RedirectSymlink, Dir: a.tables.DirInfos[target.DirectoryIndex]}, true, nil
	}
	return Redirection{Kind: RedirectShared, Offset: a.tables.FolderOffsets[target.DirectoryIndex]}, true, nil
}

// SharedFiles returns every path hash that shares hash's file data in
// region, hash itself included, or nil when hash's file is not shared
// (§4.5.6). This is a
// full scan of the hash-to-path-index table, matching the reference
// resolver: sharing is rare enough relative to lookup frequency that no
// reverse index is worth maintaining for it.
func (a *Archive) SharedFiles(hash hash40.Hash40, r region.Region) ([]hash40.Hash40, error) {
	meta, err := a.FileMetadata(hash, r)
	if err != nil {
		return nil, err
	}
	if !meta.IsShared {
		return nil, nil
	}

	info, err := a.FileInfoFromHash(hash)
	if err != nil {
		return nil, err
	}
	fif := a.fileInFolder(info, r)
	wantDataIdx := fif.FileDataIndex

	var out []hash40.Hash40
	for _, htp := range a.tables.HashToPathIndex {
		other := htp.Hash40()
		otherInfo, err := a.FileInfoFromHash(other)
		if err != nil {
			continue
		}
		if a.fileInFolder(otherInfo, r).FileDataIndex == wantDataIdx {
			out = append(out, other)
		}
	}
	return out, nil
}

// streamHashFor maps a stream listing directory name to the hash the
// QuickDir table stores it under (§4.5.8). The three literal names and the
// "stream:/movie" alias are hardcoded the way the reference resolver
// hardcodes them; "stream:/sound/..." strips its fixed 14-character
// prefix ("stream:/sound/") to recover the bare sound sub-path.
func streamHashFor(dir string) (hash40.Hash40, error) {
	switch {
	case dir == "bgm" || dir == "smashappeal" || dir == "movie":
		return hash40.FromStr(dir), nil
	case dir == "stream:/movie":
		return hash40.FromStr("movie"), nil
	case len(dir) > 14 && dir[:14] == "stream:/sound/":
		return hash40.FromStr(dir[14:]), nil
	default:
		return 0, ErrMissing
	}
}

// StreamListing returns every stream entry under the named stream
// directory (§4.5.8). dir is one of "bgm", "smashappeal", "movie",
// "stream:/movie", or a "stream:/sound/..." path.
func (a *Archive) StreamListing(dir string) ([]fsblob.StreamEntry, error) {
	hash, err := streamHashFor(dir)
	if err != nil {
		return nil, err
	}
	for _, qd := range a.tables.QuickDirs {
		if qd.Hash40().Equal(hash) {
			start, end := qd.Range()
			return a.tables.StreamEntries[start:end], nil
		}
	}
	return nil, ErrMissing
}

// StreamDataFor resolves a stream asset's hash to its StreamData row
// (§4.5.7). Entries are not sorted, so this is a linear scan, matching the
// reference resolver.
func (a *Archive) StreamDataFor(hash hash40.Hash40) (fsblob.StreamData, error) {
	for _, entry := range a.tables.StreamEntries {
		if entry.Hash40().Equal(hash) {
			fileIdx := a.tables.StreamFileIndices[entry.Index()]
			return a.tables.StreamDatas[fileIdx], nil
		}
	}
	return fsblob.StreamData{}, ErrMissing
}

// nonStreamOffset computes the absolute file offset read.go reads from,
// per §4.6: the folder's own offset, plus the file section's base offset,
// plus the in-folder offset (stored in 4-byte units).
func (a *Archive) nonStreamOffset(folderOffset fsblob.DirectoryOffset, data fsblob.FileData) uint64 {
	return folderOffset.Offset + a.fileSectionOffset + (uint64(data.OffsetInFolder) << 2)
}

// FileMetadata probes a hash without reading any payload bytes (§7/§8).
// Non-stream files are tried first; ErrMissing there falls back to the
// stream tables, matching the reference resolver's fallback order.
type FileMetadata struct {
	PathHash, ExtHash, ParentHash, FileNameHash hash40.Hash40
	Offset                                      uint64
	CompSize, DecompSize                        uint64
	IsStream, IsShared                          bool
	IsRedirect, IsRegional, IsLocalized          bool
	IsCompressed, UsesZstd                       bool
}

func (a *Archive) FileMetadata(hash hash40.Hash40, r region.Region) (FileMetadata, error) {
	pathIdx, err := a.FilePathIndexFromHash(hash)
	if err == nil {
		path := a.tables.FilePaths[pathIdx]
		info := a.FileInfoFromPathIndex(pathIdx)
		folderOffset := a.FolderOffset(info, r)
		data := a.FileData(info, r)
		offset := a.nonStreamOffset(folderOffset, data)

		return FileMetadata{
			PathHash:      path.Path,
			ExtHash:       path.Ext,
			ParentHash:    path.Parent,
			FileNameHash:  path.FileName,
			Offset:        offset,
			CompSize:      uint64(data.CompSize),
			DecompSize:    uint64(data.DecompSize),
			IsShared:      a.sharedSectionOffset < offset,
			IsRedirect:    info.IsRedirect(),
			IsRegional:    info.IsRegional(),
			IsLocalized:   info.IsLocalized(),
			IsCompressed:  data.Compressed(),
			UsesZstd:      data.UseZstd(),
		}, nil
	}
	if err != ErrMissing {
		return FileMetadata{}, err
	}

	sd, err := a.StreamDataFor(hash)
	if err != nil {
		return FileMetadata{}, err
	}
	return FileMetadata{
		PathHash:   hash,
		Offset:     sd.Offset,
		CompSize:   uint64(sd.Size),
		DecompSize: uint64(sd.Size),
		IsStream:   true,
	}, nil
}
