package fsblob

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kamiya-labs/arcvault/hash40"
)

// buildBlob assembles a minimal synthetic filesystem blob: one bucket, one
// path, one dir, one folder offset, one file info/data pair, and no stream
// or search tables. Field order must track readHeader and Parse exactly.
func buildBlob(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := func(v uint32) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("write u32: %v", err)
		}
	}
	w64 := func(v uint64) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("write u64: %v", err)
		}
	}

	// header
	w(1) // FileInfoBucketCount
	w(1) // HashToPathIndexCount
	w(1) // FilePathCount
	w(0) // FileInfoIndexCount
	w(0) // DirHashToInfoIndexCount
	w(1) // DirInfoCount
	w(1) // FolderOffsetCount
	w(0) // ChildDirHashCount
	w(1) // FileInfoCount
	w(1) // FileInfoToDataCount
	w(1) // FileDataCount
	w(0) // QuickDirCount
	w(0) // StreamHashToEntryCount
	w(0) // StreamEntryCount
	w(0) // StreamFileIndexCount
	w(0) // StreamDataCount
	w(0) // HasSearchSection
	w(0) // FolderPathCount
	w(0) // PathIndicesCount
	w(0) // PathCount

	pathHash := hash40.FromStr("fighter/mario/model.nutexb")

	// FileInfoBuckets[0]
	w(0)
	w(1)

	// HashToPathIndex[0]: hash -> path index 0
	w64(uint64(hash40.Pack(pathHash, 0)))

	// FilePaths[0]
	w64(uint64(hash40.Pack(pathHash, 0)))
	w64(uint64(hash40.FromStr("nutexb")))
	w64(uint64(hash40.FromStr("fighter/mario")))
	w64(uint64(hash40.FromStr("model.nutexb")))

	// DirInfos[0]
	w64(uint64(hash40.FromStr("fighter/mario")))
	w64(uint64(hash40.FromStr("mario")))
	w64(uint64(hash40.FromStr("fighter")))
	w(0) // FileInfoStartIndex
	w(1) // FileCount
	w(0) // ChildDirStartIndex
	w(0) // ChildDirCount
	w(0) // Flags

	// FolderOffsets[0]
	w64(0x1000)
	w(0)                      // FileStartIndex
	w(1)                      // FileCount
	w(DirectoryIndexAbsent)   // DirectoryIndex

	// FileInfos[0]
	w(0) // FilePathIndex
	w(0) // InfoToDataIndex
	w(0) // Flags

	// FileInfoToDatas[0]
	w(0) // FolderOffsetIndex
	w(0) // FileDataIndex
	w(0) // reserved

	// FileDatas[0]
	w(0x40)   // OffsetInFolder
	w(0x100)  // CompSize
	w(0x400)  // DecompSize
	w(0)      // Flags

	return buf.Bytes()
}

func TestParseBuildsTables(t *testing.T) {
	blob := buildBlob(t)
	tables, err := Parse(blob)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(tables.FileInfoBuckets) != 1 || len(tables.FilePaths) != 1 || len(tables.DirInfos) != 1 {
		t.Fatalf("unexpected table sizes: %+v", tables)
	}

	bucket := tables.FileInfoBuckets[0]
	start, end := bucket.Range()
	if start != 0 || end != 1 {
		t.Fatalf("bucket range = [%d,%d), want [0,1)", start, end)
	}

	wantHash := hash40.FromStr("fighter/mario/model.nutexb")
	if !tables.HashToPathIndex[0].Hash40().Equal(wantHash) {
		t.Fatalf("HashToPathIndex[0] hash mismatch")
	}
	if tables.HashToPathIndex[0].Index() != 0 {
		t.Fatalf("HashToPathIndex[0].Index() = %d, want 0", tables.HashToPathIndex[0].Index())
	}

	fp := tables.FilePaths[0]
	if !fp.Path.Equal(wantHash) {
		t.Fatalf("FilePaths[0].Path mismatch")
	}

	fo := tables.FolderOffsets[0]
	if fo.HasRedirectionTarget() {
		t.Fatalf("expected no redirection target, got index %d", fo.DirectoryIndex)
	}
	foStart, foEnd := fo.Range()
	if foStart != 0 || foEnd != 1 {
		t.Fatalf("folder offset range = [%d,%d), want [0,1)", foStart, foEnd)
	}

	fd := tables.FileDatas[0]
	if fd.OffsetInFolder != 0x40 || fd.CompSize != 0x100 || fd.DecompSize != 0x400 {
		t.Fatalf("unexpected FileData: %+v", fd)
	}
	if fd.Compressed() || fd.UseZstd() {
		t.Fatalf("expected uncompressed FileData, got %+v", fd)
	}

	if len(tables.FolderPathList) != 0 || len(tables.PathList) != 0 {
		t.Fatalf("expected no search section, got %+v", tables)
	}
}
