package arcvault

import (
	"sort"
	"strings"

	"github.com/kamiya-labs/arcvault/hash40"
)

// FileNodeKind distinguishes a listing entry that names a file from one
// that names a directory.
type FileNodeKind int

const (
	NodeFile FileNodeKind = iota
	NodeDir
)

// FileNode is one entry of a directory listing: either a file or a child
// directory, named by hash.
type FileNode struct {
	Kind FileNodeKind
	Hash hash40.Hash40
}

// DirListing is an optional, opt-in index from directory hash to its
// sorted children, built once from the label table and file path list
// (§4.7). It requires labels: without known path strings, parent
// directories cannot be synthesized from a flat file list.
type DirListing struct {
	children map[hash40.Hash40][]FileNode
}

// Children returns hash's children in sorted order, or (nil, false) if
// hash names no known directory.
func (d *DirListing) Children(hash hash40.Hash40) ([]FileNode, bool) {
	if d == nil {
		return nil, false
	}
	c, ok := d.children[hash]
	return c, ok
}

func insertSorted(list []FileNode, n FileNode) []FileNode {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Hash.AsU64() >= n.Hash.AsU64()
	})
	if i < len(list) && list[i].Hash.Equal(n.Hash) && list[i].Kind == n.Kind {
		return list
	}
	list = append(list, FileNode{})
	copy(list[i+1:], list[i:])
	list[i] = n
	return list
}

// parentsOfDir walks dir's label upward one path segment at a time,
// synthesizing a (parent hash -> FileNode::Dir(child)) pair for every
// level, down to the root "/".
func parentsOfDir(dir hash40.Hash40, labels *hash40.Labels) []struct {
	parent hash40.Hash40
	child  FileNode
} {
	label, ok := dir.Label(labels)
	if !ok {
		return nil
	}

	var out []struct {
		parent hash40.Hash40
		child  FileNode
	}
	last := dir
	label = strings.TrimRight(label, "/")

	for {
		idx := strings.LastIndexByte(label, '/')
		if idx < 0 {
			break
		}
		label = label[:idx]
		hash := hash40.FromStr(label)
		out = append(out, struct {
			parent hash40.Hash40
			child  FileNode
		}{hash, FileNode{Kind: NodeDir, Hash: last}})
		last = hash
	}
	out = append(out, struct {
		parent hash40.Hash40
		child  FileNode
	}{hash40.FromStr("/"), FileNode{Kind: NodeDir, Hash: last}})
	return out
}

// BuildDirListing synthesizes a DirListing from the archive's file paths
// and the given label table. The returned listing is static: it does not
// observe later Labels.Add calls.
func (a *Archive) BuildDirListing(labels *hash40.Labels) *DirListing {
	dl := &DirListing{children: make(map[hash40.Hash40][]FileNode)}

	seenDirs := make(map[hash40.Hash40]struct{})
	for _, fp := range a.tables.FilePaths {
		parent := hash40.FromU64(fp.Parent.AsU64())
		path := hash40.FromU64(fp.Path.AsU64())
		dl.children[parent] = insertSorted(dl.children[parent], FileNode{Kind: NodeFile, Hash: path})
		seenDirs[parent] = struct{}{}
	}

	for dir := range seenDirs {
		for _, pair := range parentsOfDir(dir, labels) {
			dl.children[pair.parent] = insertSorted(dl.children[pair.parent], pair.child)
		}
	}

	return dl
}
