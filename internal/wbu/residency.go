package wbu

import (
	"container/list"
	"sync"
)

// ResidencyIndex is an LRU-ordered set tracking which objects currently
// exist on local disk. Insert happens on file creation (by the write path,
// external to this package); RemoveFile moves an entry to the back, marking
// it an eviction candidate for the sibling read-cache subsystem. The index
// itself never shrinks through the uploader's actions.
//
// Grounded on master/catalog/task.go's container/list + map pairing and on
// the pack's lx1036-code inode LRU cache (map[key]*list.Element plus a
// doubly linked list, front = most-recently-touched).
type ResidencyIndex struct {
	mu      sync.Mutex
	entries map[ObjName]*list.Element
	order   *list.List
}

// NewResidencyIndex builds an empty index.
func NewResidencyIndex() *ResidencyIndex {
	return &ResidencyIndex{
		entries: make(map[ObjName]*list.Element),
		order:   list.New(),
	}
}

// Insert records name as resident, at the front (most recent) of the LRU
// order. Re-inserting an already-present name is a no-op on order.
func (idx *ResidencyIndex) Insert(name ObjName) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[name]; ok {
		return
	}
	idx.entries[name] = idx.order.PushFront(name)
}

// MoveToBack moves name to the back of the LRU order (eviction candidate),
// called after a successful RemoveFile. A name absent from the index is a
// no-op.
func (idx *ResidencyIndex) MoveToBack(name ObjName) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if e, ok := idx.entries[name]; ok {
		idx.order.MoveToBack(e)
	}
}

// Contains reports whether name is currently tracked.
func (idx *ResidencyIndex) Contains(name ObjName) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, ok := idx.entries[name]
	return ok
}

// Len reports how many names are tracked.
func (idx *ResidencyIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.order.Len()
}
