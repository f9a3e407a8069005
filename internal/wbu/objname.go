// Package wbu implements the write-back disk cache uploader: client writes
// are staged as regular files under a local cache directory and later
// drained to an object store by a background uploader loop.
package wbu

import "strings"

// ObjName uniquely identifies a staged object. When PrefixDepth > 0 the name
// is also a slash-separated relative path on local disk.
type ObjName string

// BelongsToInode reports whether name was generated for the given inode,
// following the convention "<inode>/<rest...>": with PrefixDepth > 0 the
// inode is the first slash-separated component of name. With PrefixDepth == 0 the inode is expected to be the
// leading component of a flat name joined by "_", matching the single-level
// naming the write path uses when no directory hierarchy is requested.
func BelongsToInode(name ObjName, inode string, prefixDepth uint32) bool {
	if inode == "" {
		return false
	}

	s := string(name)
	if prefixDepth > 0 {
		parts := strings.SplitN(s, "/", 2)
		return parts[0] == inode
	}

	parts := strings.SplitN(s, "_", 2)
	return parts[0] == inode
}
