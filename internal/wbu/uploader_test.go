package wbu

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestUploader(t *testing.T, store *FakeObjectStore) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	u := NewUploader(Config{CacheDir: dir, PeriodMs: 20}, store)
	require.True(t, u.Staging().IsValid())
	return u, dir
}

// Scenario 1: write-then-flush-all.
func TestUploadAll_WriteThenFlush(t *testing.T) {
	store := NewFakeObjectStore()
	u, dir := newTestUploader(t, store)

	require.NoError(t, u.Put("a", []byte("hello"), true))
	require.NoError(t, u.Put("b", []byte("world"), false))

	require.NoError(t, u.UploadAll(context.Background()))

	_, err := os.Stat(dir + "/a")
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir + "/b")
	require.True(t, os.IsNotExist(err))

	require.True(t, store.Has("a"))
	require.True(t, store.Has("b"))
	require.Equal(t, []byte("hello"), store.Objects["a"])
	require.Equal(t, []byte("world"), store.Objects["b"])
}

// Scenario 2: inode fence over files staged by a writer goroutine, which
// finishes before the fence starts.
func TestUploadByInode_AfterWriterGoroutine(t *testing.T) {
	store := NewFakeObjectStore()
	dir := t.TempDir()
	u := NewUploader(Config{CacheDir: dir, PrefixDepth: 2, PeriodMs: 10}, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			name := ObjName("42/chunk/" + string(rune('0'+i)))
			_ = u.Put(name, []byte("data"), false)
			time.Sleep(5 * time.Millisecond)
		}
	}()

	<-done
	require.NoError(t, u.UploadByInode(context.Background(), "42"))

	all, err := u.Staging().ListAll()
	require.NoError(t, err)
	for name := range all {
		require.False(t, BelongsToInode(name, "42", 2))
	}
}

// Scenario 6: upload retry loop.
func TestUpload_RetriesThenSucceeds(t *testing.T) {
	store := NewFakeObjectStore()
	u, _ := newTestUploader(t, store)

	store.FailFirst("k", 3)
	require.NoError(t, u.Put("k", []byte("payload"), false))

	barrier := NewSyncBarrier(1)
	u.upload(context.Background(), "k", barrier)
	barrier.Wait()
	require.False(t, barrier.Failed())

	require.Equal(t, 4, store.Attempts("k"))
	require.False(t, u.Staging().Exists("k"))
}

func TestStartStop_Idempotent(t *testing.T) {
	store := NewFakeObjectStore()
	u, _ := newTestUploader(t, store)

	require.NoError(t, u.Start(context.Background()))
	require.Error(t, u.Start(context.Background()))
	require.NoError(t, u.Stop())
	require.Error(t, u.Stop())
}

func TestStop_DrainsBeforeStopping(t *testing.T) {
	store := NewFakeObjectStore()
	u, _ := newTestUploader(t, store)

	require.NoError(t, u.Put("a", []byte("x"), false))
	require.NoError(t, u.Start(context.Background()))
	require.NoError(t, u.Stop())

	require.True(t, store.Has("a"))
}
