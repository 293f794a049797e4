package fsblob

import (
	"bytes"
	"fmt"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/binreader"
)

// header is the fixed-size table of row counts that opens the decompressed
// filesystem blob. Every count is a plain uint32, in the same order the
// tables themselves follow in the blob: first the primary file/directory
// tables, then the stream tables, then the optional search-index tables.
//
// This exact layout is not dictated by any single field in the archive's
// documentation; it is the ordering game binaries built with this format
// actually use when they lay the in-memory tables back-to-back (matching
// the pointer order a loaded instance keeps), made concrete here as a flat
// header so Parse can read it with no dependency on file-system offsets
// recorded elsewhere in the archive.
type header struct {
	FileInfoBucketCount    uint32
	HashToPathIndexCount   uint32
	FilePathCount          uint32
	FileInfoIndexCount     uint32
	DirHashToInfoIndexCount uint32
	DirInfoCount           uint32
	FolderOffsetCount      uint32
	ChildDirHashCount      uint32
	FileInfoCount          uint32
	FileInfoToDataCount    uint32
	FileDataCount          uint32

	QuickDirCount           uint32
	StreamHashToEntryCount  uint32
	StreamEntryCount        uint32
	StreamFileIndexCount    uint32
	StreamDataCount         uint32

	HasSearchSection uint32
	FolderPathCount  uint32
	PathIndicesCount uint32
	PathCount        uint32
}

func readHeader(r *binreader.Reader) header {
	var h header
	h.FileInfoBucketCount = r.U32()
	h.HashToPathIndexCount = r.U32()
	h.FilePathCount = r.U32()
	h.FileInfoIndexCount = r.U32()
	h.DirHashToInfoIndexCount = r.U32()
	h.DirInfoCount = r.U32()
	h.FolderOffsetCount = r.U32()
	h.ChildDirHashCount = r.U32()
	h.FileInfoCount = r.U32()
	h.FileInfoToDataCount = r.U32()
	h.FileDataCount = r.U32()
	h.QuickDirCount = r.U32()
	h.StreamHashToEntryCount = r.U32()
	h.StreamEntryCount = r.U32()
	h.StreamFileIndexCount = r.U32()
	h.StreamDataCount = r.U32()
	h.HasSearchSection = r.U32()
	h.FolderPathCount = r.U32()
	h.PathIndicesCount = r.U32()
	h.PathCount = r.U32()
	return h
}

func readHashToIndex(r *binreader.Reader) hash40.HashToIndex {
	return hash40.HashToIndex(r.U64())
}

func readHash40(r *binreader.Reader) hash40.Hash40 {
	return hash40.Hash40(r.U64())
}

// Parse reads the decompressed filesystem blob in its entirety, building
// every parallel-array table it describes. blob is the zstd-decompressed
// buffer, starting with the count header; it is not the raw archive.
func Parse(blob []byte) (*Tables, error) {
	r := binreader.New(bytes.NewReader(blob))
	h := readHeader(r)

	t := &Tables{}

	t.FileInfoBuckets = make([]FileInfoBucket, h.FileInfoBucketCount)
	for i := range t.FileInfoBuckets {
		t.FileInfoBuckets[i] = FileInfoBucket{Start: r.U32(), Count: r.U32()}
	}

	t.HashToPathIndex = make([]hash40.HashToIndex, h.HashToPathIndexCount)
	for i := range t.HashToPathIndex {
		t.HashToPathIndex[i] = readHashToIndex(r)
	}

	t.FilePaths = make([]FilePath, h.FilePathCount)
	for i := range t.FilePaths {
		t.FilePaths[i] = FilePath{
			Path:     readHash40(r),
			Ext:      readHash40(r),
			Parent:   readHash40(r),
			FileName: readHash40(r),
		}
	}

	t.FileInfoIndices = make([]FileInfoIndex, h.FileInfoIndexCount)
	for i := range t.FileInfoIndices {
		t.FileInfoIndices[i] = FileInfoIndex{FileInfoIndex: r.U32()}
	}

	t.DirHashToInfoIndex = make([]hash40.HashToIndex, h.DirHashToInfoIndexCount)
	for i := range t.DirHashToInfoIndex {
		t.DirHashToInfoIndex[i] = readHashToIndex(r)
	}

	t.DirInfos = make([]DirInfo, h.DirInfoCount)
	for i := range t.DirInfos {
		t.DirInfos[i] = DirInfo{
			Path:               readHash40(r),
			Name:               readHash40(r),
			Parent:             readHash40(r),
			FileInfoStartIndex: r.U32(),
			FileCount:          r.U32(),
			ChildDirStartIndex: r.U32(),
			ChildDirCount:      r.U32(),
			Flags:              r.U32(),
		}
	}

	t.FolderOffsets = make([]DirectoryOffset, h.FolderOffsetCount)
	for i := range t.FolderOffsets {
		t.FolderOffsets[i] = DirectoryOffset{
			Offset:         r.U64(),
			FileStartIndex: r.U32(),
			FileCount:      r.U32(),
			DirectoryIndex: r.U32(),
		}
	}

	t.ChildDirHashes = make([]hash40.HashToIndex, h.ChildDirHashCount)
	for i := range t.ChildDirHashes {
		t.ChildDirHashes[i] = readHashToIndex(r)
	}

	t.FileInfos = make([]FileInfo, h.FileInfoCount)
	for i := range t.FileInfos {
		t.FileInfos[i] = FileInfo{
			FilePathIndex:   FilePathIdx(r.U32()),
			InfoToDataIndex: FileInfoToDataIdx(r.U32()),
			Flags:           r.U32(),
		}
	}

	t.FileInfoToDatas = make([]FileInfoToFileData, h.FileInfoToDataCount)
	for i := range t.FileInfoToDatas {
		t.FileInfoToDatas[i] = FileInfoToFileData{
			FolderOffsetIndex: FolderOffsetIdx(r.U32()),
			FileDataIndex:     FileDataIdx(r.U32()),
			_reserved:         r.U32(),
		}
	}

	t.FileDatas = make([]FileData, h.FileDataCount)
	for i := range t.FileDatas {
		t.FileDatas[i] = FileData{
			OffsetInFolder: r.U32(),
			CompSize:       r.U32(),
			DecompSize:     r.U32(),
			Flags:          r.U32(),
		}
	}

	t.QuickDirs = make([]QuickDir, h.QuickDirCount)
	for i := range t.QuickDirs {
		t.QuickDirs[i] = QuickDir{
			HashStart: readHashToIndex(r),
			Count:     r.U32(),
			_reserved: r.U32(),
		}
	}

	t.StreamHashToEntries = make([]hash40.HashToIndex, h.StreamHashToEntryCount)
	for i := range t.StreamHashToEntries {
		t.StreamHashToEntries[i] = readHashToIndex(r)
	}

	t.StreamEntries = make([]StreamEntry, h.StreamEntryCount)
	for i := range t.StreamEntries {
		t.StreamEntries[i] = StreamEntry{HashAndIndex: readHashToIndex(r)}
	}

	t.StreamFileIndices = make([]uint32, h.StreamFileIndexCount)
	for i := range t.StreamFileIndices {
		t.StreamFileIndices[i] = r.U32()
	}

	t.StreamDatas = make([]StreamData, h.StreamDataCount)
	for i := range t.StreamDatas {
		t.StreamDatas[i] = StreamData{Offset: r.U64(), Size: r.U32()}
		_ = r.U32() // alignment padding carried between Offset+Size pairs
	}

	if h.HasSearchSection != 0 {
		t.FolderPathToIndex = make([]hash40.HashToIndex, h.FolderPathCount)
		for i := range t.FolderPathToIndex {
			t.FolderPathToIndex[i] = readHashToIndex(r)
		}

		t.FolderPathList = make([]FolderPathListEntry, h.FolderPathCount)
		for i := range t.FolderPathList {
			t.FolderPathList[i] = FolderPathListEntry{PathAndFirstChild: readHashToIndex(r)}
		}

		t.PathToIndex = make([]hash40.HashToIndex, h.PathCount)
		for i := range t.PathToIndex {
			t.PathToIndex[i] = readHashToIndex(r)
		}

		t.PathListIndices = make([]uint32, h.PathIndicesCount)
		for i := range t.PathListIndices {
			t.PathListIndices[i] = r.U32()
		}

		t.PathList = make([]PathListEntry, h.PathCount)
		for i := range t.PathList {
			t.PathList[i] = PathListEntry{
				PathAndNextSibling: readHashToIndex(r),
				Parent:             readHash40(r),
			}
		}
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("fsblob: parse filesystem tables: %w", err)
	}
	return t, nil
}
