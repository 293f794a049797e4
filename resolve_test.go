package arcvault

import (
	"testing"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/fsblob"
	"github.com/kamiya-labs/arcvault/region"
)

// buildTestArchive assembles a minimal in-memory Tables by hand (no
// binary parsing involved) covering: one plain file, one regional file,
// one folder offset with no redirection target, and one stream bgm entry.
func buildTestArchive(t *testing.T) (*Archive, hash40.Hash40, hash40.Hash40) {
	t.Helper()

	plainHash := hash40.FromStr("fighter/mario/model/body/c00/model.nutexb")
	regionalHash := hash40.FromStr("sound/config/bgm_property.bin")
	streamHash := hash40.FromStr("bgm_a10_song")

	tables := &fsblob.Tables{}

	// One bucket covering both plain and regional paths.
	tables.FileInfoBuckets = []fsblob.FileInfoBucket{{Start: 0, Count: 2}}

	type hp struct {
		hash hash40.Hash40
		idx  uint32
	}
	entries := []hp{{plainHash, 0}, {regionalHash, 1}}
	// sorted by masked hash value, ascending
	if entries[0].hash.AsU64() > entries[1].hash.AsU64() {
		entries[0], entries[1] = entries[1], entries[0]
	}
	tables.HashToPathIndex = []hash40.HashToIndex{
		hash40.Pack(entries[0].hash, entries[0].idx),
		hash40.Pack(entries[1].hash, entries[1].idx),
	}

	// Path's side-index points into FileInfoIndices.
	tables.FilePaths = []fsblob.FilePath{
		{Path: hash40.Hash40(hash40.Pack(plainHash, 0))},
		{Path: hash40.Hash40(hash40.Pack(regionalHash, 1))},
	}

	tables.FileInfoIndices = []fsblob.FileInfoIndex{
		{FileInfoIndex: 0}, // -> FileInfos[0], plain
		{FileInfoIndex: 1}, // -> FileInfos[1], regional
	}

	tables.FileInfos = []fsblob.FileInfo{
		{FilePathIndex: 0, InfoToDataIndex: 0, Flags: 0},
		{FilePathIndex: 1, InfoToDataIndex: 1, Flags: fsblob.FileInfoRegional},
	}

	// FileInfoToDatas: index 0 for the plain file; indices 1..1+len(region)
	// for the regional run, enough to cover UsEnglish's ordinal.
	toDatas := make([]fsblob.FileInfoToFileData, 1+int(region.UsEnglish)+1)
	toDatas[0] = fsblob.FileInfoToFileData{FolderOffsetIndex: 0, FileDataIndex: 0}
	toDatas[1+int(region.UsEnglish)] = fsblob.FileInfoToFileData{FolderOffsetIndex: 0, FileDataIndex: 1}
	tables.FileInfoToDatas = toDatas

	tables.FileDatas = []fsblob.FileData{
		{OffsetInFolder: 0, CompSize: 0x100, DecompSize: 0x400, Flags: fsblob.FileDataCompressed | fsblob.FileDataUseZstd},
		{OffsetInFolder: 0x100, CompSize: 0x20, DecompSize: 0x20, Flags: 0},
	}

	tables.FolderOffsets = []fsblob.DirectoryOffset{
		{Offset: 0x1000, FileStartIndex: 0, FileCount: 2, DirectoryIndex: fsblob.DirectoryIndexAbsent},
	}

	// Stream tables: one quick dir "bgm" covering one entry.
	tables.QuickDirs = []fsblob.QuickDir{
		{HashStart: hash40.Pack(hash40.FromStr("bgm"), 0), Count: 1},
	}
	tables.StreamEntries = []fsblob.StreamEntry{
		{HashAndIndex: hash40.Pack(streamHash, 0)},
	}
	tables.StreamFileIndices = []uint32{0}
	tables.StreamDatas = []fsblob.StreamData{
		{Offset: 0x5000, Size: 0x10},
	}

	a := &Archive{
		tables:              tables,
		fileSectionOffset:   0x2000,
		sharedSectionOffset: 0xFFFFFFFF, // nothing is "shared" in this fixture
	}
	return a, plainHash, regionalHash
}

func TestFileInfoFromHashPlain(t *testing.T) {
	a, plainHash, _ := buildTestArchive(t)

	info, err := a.FileInfoFromHash(plainHash)
	if err != nil {
		t.Fatalf("FileInfoFromHash: %v", err)
	}
	if info.IsRegional() {
		t.Fatal("plain file should not be regional")
	}

	data := a.FileData(info, region.None)
	if data.DecompSize != 0x400 {
		t.Fatalf("DecompSize = %#x, want 0x400", data.DecompSize)
	}
}

func TestFileInfoFromHashRegional(t *testing.T) {
	a, _, regionalHash := buildTestArchive(t)

	info, err := a.FileInfoFromHash(regionalHash)
	if err != nil {
		t.Fatalf("FileInfoFromHash: %v", err)
	}
	if !info.IsRegional() {
		t.Fatal("expected regional file")
	}

	data := a.FileData(info, region.UsEnglish)
	if data.DecompSize != 0x20 {
		t.Fatalf("DecompSize = %#x, want 0x20 (region-selected row)", data.DecompSize)
	}
}

func TestFileInfoFromHashMissing(t *testing.T) {
	a, _, _ := buildTestArchive(t)
	_, err := a.FileInfoFromHash(hash40.FromStr("does/not/exist"))
	if err != ErrMissing {
		t.Fatalf("err = %v, want ErrMissing", err)
	}
}

func TestFileMetadataOffsetFormula(t *testing.T) {
	a, plainHash, _ := buildTestArchive(t)

	meta, err := a.FileMetadata(plainHash, region.None)
	if err != nil {
		t.Fatalf("FileMetadata: %v", err)
	}
	// offset = folder_offset(0x1000) + file_section_offset(0x2000) + (offset_in_folder(0) << 2)
	want := uint64(0x1000 + 0x2000)
	if meta.Offset != want {
		t.Fatalf("Offset = %#x, want %#x", meta.Offset, want)
	}
	if meta.IsStream {
		t.Fatal("plain file should not be a stream entry")
	}
	if !meta.IsCompressed || !meta.UsesZstd {
		t.Fatal("plain file fixture is compressed with zstd")
	}
}

func TestFileMetadataStreamFallback(t *testing.T) {
	a, _, _ := buildTestArchive(t)
	streamHash := hash40.FromStr("bgm_a10_song")

	meta, err := a.FileMetadata(streamHash, region.None)
	if err != nil {
		t.Fatalf("FileMetadata: %v", err)
	}
	if !meta.IsStream {
		t.Fatal("expected stream fallback")
	}
	if meta.Offset != 0x5000 || meta.CompSize != 0x10 {
		t.Fatalf("unexpected stream metadata: %+v", meta)
	}
}

func TestStreamListingBgm(t *testing.T) {
	a, _, _ := buildTestArchive(t)

	entries, err := a.StreamListing("bgm")
	if err != nil {
		t.Fatalf("StreamListing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
}

func TestStreamListingSoundPrefix(t *testing.T) {
	a, _, _ := buildTestArchive(t)
	a.tables.QuickDirs[0].HashStart = hash40.Pack(hash40.FromStr("bgm/sub"), 0)

	_, err := a.StreamListing("stream:/sound/bgm/sub")
	if err != nil {
		t.Fatalf("StreamListing: %v", err)
	}
}

func TestStreamListingUnknownDir(t *testing.T) {
	a, _, _ := buildTestArchive(t)
	if _, err := a.StreamListing("not-a-stream-dir"); err != ErrMissing {
		t.Fatalf("err = %v, want ErrMissing", err)
	}
}

func TestDirectoryDependencyNone(t *testing.T) {
	dir := fsblob.DirInfo{} // Flags == 0: not redirected
	a, _, _ := buildTestArchive(t)

	_, ok, err := a.DirectoryDependency(dir)
	if err != nil {
		t.Fatalf("DirectoryDependency: %v", err)
	}
	if ok {
		t.Fatal("expected no redirection")
	}
}

func TestDirectoryDependencyShared(t *testing.T) {
	a, _, _ := buildTestArchive(t)

	// dir.Path's side-index points at FolderOffsets[1], which redirects to
	// FolderOffsets[0] as a shared (non-symlink) pool.
	a.tables.FolderOffsets = append(a.tables.FolderOffsets, fsblob.DirectoryOffset{
		Offset:         0,
		DirectoryIndex: 0,
	})
	dir := fsblob.DirInfo{
		Path:  hash40.Hash40(hash40.Pack(hash40.FromStr("fighter/mario/model/body/c01"), 1)),
		Flags: fsblob.DirInfoRedirected,
	}

	redir, ok, err := a.DirectoryDependency(dir)
	if err != nil {
		t.Fatalf("DirectoryDependency: %v", err)
	}
	if !ok || redir.Kind != RedirectShared {
		t.Fatalf("expected Shared redirection, got %+v (ok=%v)", redir, ok)
	}
	if redir.Offset.Offset != 0x1000 {
		t.Fatalf("redirected offset = %#x, want 0x1000", redir.Offset.Offset)
	}
}
