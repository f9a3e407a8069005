package metastore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDentryKeyPrefixing(t *testing.T) {
	k1 := dentryKey(1, "a")
	k2 := dentryKey(1, "b")
	k3 := dentryKey(2, "a")

	require.True(t, bytes.HasPrefix(k1, dentryPrefix(1)))
	require.True(t, bytes.HasPrefix(k2, dentryPrefix(1)))
	require.False(t, bytes.HasPrefix(k3, dentryPrefix(1)))
	require.NotEqual(t, k1, k2)
}

func TestVolExtentAndS3ChunkKeysOrderByInode(t *testing.T) {
	require.True(t, bytes.HasPrefix(volExtentKey(5, 9), volExtentPrefix(5)))
	require.False(t, bytes.HasPrefix(volExtentKey(5, 9), volExtentPrefix(6)))
	require.True(t, bytes.HasPrefix(s3ChunkKey(5, 9), s3ChunkPrefix(5)))
}

func TestDecodeU64RoundTrip(t *testing.T) {
	require.Equal(t, uint64(123456789), decodeU64(encodeU64(123456789)))
}
