package mop

import (
	"context"

	craft "github.com/cubefs/diskcache/common/raft"
)

// fakeNode implements Node directly so operator tests can dictate leader/
// lease state per scenario without standing up a real raft.Group.
type fakeNode struct {
	leader      bool
	leaseStatus LeaseStatus
	appliedIndex uint64
	queue       *ApplyQueue
	store       Metastore

	proposeCalls int
	proposeErr   error
}

func newFakeNode(store Metastore) *fakeNode {
	return &fakeNode{
		leader:      true,
		leaseStatus: LeaseLeader,
		queue:       NewApplyQueue(4),
		store:       store,
	}
}

func (n *fakeNode) PartitionID() uint64 { return 1 }

func (n *fakeNode) IsLeaderTerm() bool { return n.leader }
func (n *fakeNode) LeaderTerm() uint64 { return 1 }
func (n *fakeNode) LeaderID() uint64   { return 1 }

func (n *fakeNode) GetLeaderLeaseStatus() LeaseStatus { return n.leaseStatus }
func (n *fakeNode) IsLeaseLeader(s LeaseStatus) bool  { return s == LeaseLeader }
func (n *fakeNode) IsLeaseExpired(s LeaseStatus) bool { return s == LeaseExpired }

// Propose simulates a synchronous propose-then-apply round trip: it commits
// data at the next index and
// immediately applies it via ApplyFromLog, the same call StateMachine.Apply
// would make for a real backing once the entry commits.
func (n *fakeNode) Propose(ctx context.Context, module string, op craft.Op, data []byte) (interface{}, error) {
	n.proposeCalls++
	if n.proposeErr != nil {
		return nil, n.proposeErr
	}
	n.appliedIndex++
	index := n.appliedIndex
	if err := ApplyFromLog(ctx, n, index, data); err != nil {
		return nil, err
	}
	return index, nil
}

func (n *fakeNode) GetAppliedIndex() uint64 { return n.appliedIndex }
func (n *fakeNode) UpdateAppliedIndex(i uint64) {
	if i > n.appliedIndex {
		n.appliedIndex = i
	}
}

func (n *fakeNode) GetApplyQueue() *ApplyQueue { return n.queue }
func (n *fakeNode) GetMetaStore() Metastore    { return n.store }
func (n *fakeNode) BindGroup(craft.Group)       {}
