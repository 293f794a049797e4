// Package arcvault reads the packed game-asset archive format: a header
// naming a compressed filesystem description plus three payload sections
// (file, shared, stream), the filesystem description itself holding a
// bucketed hash table over every indexed path and a set of parallel
// tables resolving each path to its bytes.
//
// Open an archive with Open or New, then resolve paths by their Hash40
// (see the hash40 package) through FileMetadata, ReadFile, or the
// lower-level resolver methods in resolve.go. Region-specific files are
// selected with a region.Region. Directory listings and glob search are
// optional, opt-in features requiring a label table (hash40.Labels).
package arcvault
