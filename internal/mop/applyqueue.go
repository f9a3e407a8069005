package mop

import (
	"hash/fnv"

	"github.com/cubefs/cubefs/blobstore/util/taskpool"
)

// ApplyQueue is a sharded serial executor: FIFO within a shard, concurrent
// across shards. Grounded on master/catalog/task.go and
// shardserver/catalog/catalog.go's taskpool.New(n, n) pools, generalized from
// a single pool to one pool per shard so that two operators hashing to
// different shards never block on each other while same-shard operators
// still apply in submission order.
type ApplyQueue struct {
	shards []taskpool.TaskPool
}

const defaultQueueDepth = 64

// NewApplyQueue builds an ApplyQueue with shardCount independent
// single-worker pools, one per shard.
func NewApplyQueue(shardCount int) *ApplyQueue {
	if shardCount <= 0 {
		shardCount = 1
	}
	q := &ApplyQueue{shards: make([]taskpool.TaskPool, shardCount)}
	for i := range q.shards {
		q.shards[i] = taskpool.New(1, defaultQueueDepth)
	}
	return q
}

func (q *ApplyQueue) shardFor(hashCode uint64) int {
	return int(hashCode % uint64(len(q.shards)))
}

// Run submits fn to the shard selected by hashCode. fn runs after every
// previously-submitted fn on the same shard, and concurrently with fn on
// other shards.
func (q *ApplyQueue) Run(hashCode uint64, fn func()) {
	q.shards[q.shardFor(hashCode)].Run(fn)
}

// HashCode64 folds a partition/shard key into the uint64 space the queue
// shards over. Operators key this on their PartitionID() (or, for
// CreatePartition, on the partition being created).
func HashCode64(key uint64) uint64 {
	if key != 0 {
		return key
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte("zero-partition"))
	return h.Sum64()
}
