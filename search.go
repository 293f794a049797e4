package arcvault

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/internal/fsblob"
)

// HasSearchIndex reports whether the archive carries the optional §4.8
// search section. FolderPathEntryFromHash, PathListEntryFromHash and
// FirstChildInFolder return ErrMissing when this is false; Glob does not
// use the search section.
func (a *Archive) HasSearchIndex() bool {
	return len(a.tables.FolderPathList) > 0
}

func binarySearchHashToIndex(table []hash40.HashToIndex, hash hash40.Hash40) (hash40.HashToIndex, error) {
	i := sort.Search(len(table), func(i int) bool {
		return !table[i].Hash40().Less(hash)
	})
	if i >= len(table) || !table[i].Hash40().Equal(hash) {
		return 0, ErrMissing
	}
	return table[i], nil
}

// FolderPathEntryFromHash resolves a folder hash to its search-index
// entry (§4.8).
func (a *Archive) FolderPathEntryFromHash(hash hash40.Hash40) (fsblob.FolderPathListEntry, error) {
	idx, err := binarySearchHashToIndex(a.tables.FolderPathToIndex, hash)
	if err != nil {
		return fsblob.FolderPathListEntry{}, err
	}
	if idx.Index() == hash40.SentinelIndex {
		return fsblob.FolderPathListEntry{}, ErrMissing
	}
	return a.tables.FolderPathList[idx.Index()], nil
}

// PathListEntryFromHash resolves a file or folder hash to its search-index
// entry (§4.8).
func (a *Archive) PathListEntryFromHash(hash hash40.Hash40) (fsblob.PathListEntry, error) {
	idx, err := binarySearchHashToIndex(a.tables.PathToIndex, hash)
	if err != nil {
		return fsblob.PathListEntry{}, err
	}
	if idx.Index() == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	listIdx := a.tables.PathListIndices[idx.Index()]
	if listIdx == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	return a.tables.PathList[listIdx], nil
}

// FirstChildInFolder returns the first entry of folderHash's child chain.
func (a *Archive) FirstChildInFolder(folderHash hash40.Hash40) (fsblob.PathListEntry, error) {
	folder, err := a.FolderPathEntryFromHash(folderHash)
	if err != nil {
		return fsblob.PathListEntry{}, err
	}
	firstIdx := folder.FirstChildIndex()
	if firstIdx == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	listIdx := a.tables.PathListIndices[firstIdx]
	if listIdx == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	return a.tables.PathList[listIdx], nil
}

// NextChildInFolder follows the singly linked sibling chain one step
// forward from current.
func (a *Archive) NextChildInFolder(current fsblob.PathListEntry) (fsblob.PathListEntry, error) {
	nextIdx := current.NextSiblingIndex()
	if nextIdx == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	listIdx := a.tables.PathListIndices[nextIdx]
	if listIdx == hash40.SentinelIndex {
		return fsblob.PathListEntry{}, ErrMissing
	}
	return a.tables.PathList[listIdx], nil
}

// Glob matches pattern (a doublestar-syntax glob, e.g. "fighter/*/model/**/*.nutexb")
// against every label known to the archive's attached label table, and
// returns the hash of each match. It requires labels; with none loaded,
// matching raw hashes against a string pattern is meaningless, so it
// returns ErrMissing wrapped with that explanation.
func (a *Archive) Glob(pattern string) ([]hash40.Hash40, error) {
	if a.labels == nil {
		return nil, &fileError{Op: "glob", HashLabel: pattern, Err: ErrMissing}
	}

	var out []hash40.Hash40
	for _, label := range a.labels.WithPrefix("") {
		ok, err := doublestar.Match(pattern, label)
		if err != nil {
			return nil, &fileError{Op: "glob", HashLabel: pattern, Err: err}
		}
		if ok {
			out = append(out, hash40.FromStr(label))
		}
	}
	return out, nil
}
