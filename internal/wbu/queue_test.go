package wbu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingQueue_DrainAll(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue("a")
	q.Enqueue("b")

	got := q.Drain("", 0)
	require.ElementsMatch(t, []ObjName{"a", "b"}, got)
	require.Equal(t, 0, q.Len())
}

func TestPendingQueue_DrainByInode(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue("42/chunk/0")
	q.Enqueue("43/chunk/0")
	q.Enqueue("42/chunk/1")

	got := q.Drain("42", 2)
	require.ElementsMatch(t, []ObjName{"42/chunk/0", "42/chunk/1"}, got)
	require.Equal(t, 1, q.Len())

	rest := q.Drain("", 2)
	require.ElementsMatch(t, []ObjName{"43/chunk/0"}, rest)
}

func TestPendingQueue_WaitEmpty(t *testing.T) {
	q := NewPendingQueue()
	q.Enqueue("a")

	waited := make(chan struct{})
	go func() {
		q.WaitEmpty()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("WaitEmpty returned before queue drained")
	case <-time.After(20 * time.Millisecond):
	}

	q.Drain("", 0)

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitEmpty did not observe drain")
	}
}
