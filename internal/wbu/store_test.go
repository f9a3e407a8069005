package wbu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStagingStore_WriteReadRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStagingStore(dir, 0)
	require.True(t, s.IsValid())

	n, err := s.Write("obj1", []byte("hello"), true)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.True(t, s.Exists("obj1"))

	got, err := s.Read("obj1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	require.NoError(t, s.Remove("obj1"))
	require.False(t, s.Exists("obj1"))

	_, err = s.Read("obj1")
	require.Error(t, err)
}

func TestStagingStore_PrefixDepthHierarchy(t *testing.T) {
	dir := t.TempDir()
	s := NewStagingStore(dir, 2)

	_, err := s.Write("42/chunk/0", []byte("a"), false)
	require.NoError(t, err)
	_, err = s.Write("42/chunk/1", []byte("b"), false)
	require.NoError(t, err)

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Contains(t, all, ObjName("42/chunk/0"))
	require.Contains(t, all, ObjName("42/chunk/1"))
}

func TestStagingStore_RemoveAbsentIsNoOpError(t *testing.T) {
	dir := t.TempDir()
	s := NewStagingStore(dir, 0)

	err := s.Remove("missing")
	require.Error(t, err)
	require.True(t, IsNotExist(err))
}

func TestBelongsToInode(t *testing.T) {
	require.True(t, BelongsToInode("42/chunk/0", "42", 2))
	require.False(t, BelongsToInode("43/chunk/0", "42", 2))
	require.True(t, BelongsToInode("42_chunk0", "42", 0))
	require.False(t, BelongsToInode("420_chunk0", "42", 0))
}
