package metastore

import (
	"encoding/binary"

	"github.com/cubefs/diskcache/common/kvstore"
)

// Column families mirror shardserver/catalog's one-CF-per-entity-kind
// layout, generalized from its single dataCF to one CF per Metastore
// entity kind so each can be listed/range-scanned independently.
const (
	cfDentry     kvstore.CF = "dentry"
	cfInode      kvstore.CF = "inode"
	cfXAttr      kvstore.CF = "xattr"
	cfPartition  kvstore.CF = "partition"
	cfVolExtent  kvstore.CF = "volume_extent"
	cfS3Chunk    kvstore.CF = "s3_chunk_info"
	cfDeallocBG  kvstore.CF = "deallocatable_block_group"
)

func allColumnFamilies() []kvstore.CF {
	return []kvstore.CF{cfDentry, cfInode, cfXAttr, cfPartition, cfVolExtent, cfS3Chunk, cfDeallocBG}
}

func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeU64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func dentryKey(parentInode uint64, name string) []byte {
	k := encodeU64(parentInode)
	k = append(k, '/')
	return append(k, []byte(name)...)
}

func dentryPrefix(parentInode uint64) []byte {
	k := encodeU64(parentInode)
	return append(k, '/')
}

func inodeKey(inode uint64) []byte { return encodeU64(inode) }

func xattrKey(inode uint64, key string) []byte {
	k := encodeU64(inode)
	k = append(k, '/')
	return append(k, []byte(key)...)
}

func xattrPrefix(inode uint64) []byte { return append(encodeU64(inode), '/') }

func partitionKey(partitionID uint64) []byte { return encodeU64(partitionID) }

func volExtentKey(inode, sliceID uint64) []byte {
	k := encodeU64(inode)
	return append(k, encodeU64(sliceID)...)
}

func volExtentPrefix(inode uint64) []byte { return encodeU64(inode) }

func s3ChunkKey(inode, chunkID uint64) []byte {
	k := encodeU64(inode)
	return append(k, encodeU64(chunkID)...)
}

func s3ChunkPrefix(inode uint64) []byte { return encodeU64(inode) }

func deallocBGKey(groupID uint64) []byte { return encodeU64(groupID) }
