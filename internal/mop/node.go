package mop

import (
	"context"
	"sync"
	"time"

	craft "github.com/cubefs/diskcache/common/raft"
)

// Node is the consensus handle an Operator proposes through and reads lease
// state from. Grounded on curvefs's NodeImpl/braft::Node (the GetLeaderLeaseStatus,
// IsLeaseLeader, IsLeaseExpired trio in meta_operator.cpp's Propose), adapted
// onto common/raft.Group's lighter Group/Stat shape rather than wrapping
// etcd/raft/v3 directly.
type Node interface {
	// PartitionID identifies the replicated group this Node serves.
	PartitionID() uint64

	IsLeaderTerm() bool
	LeaderTerm() uint64
	LeaderID() uint64

	GetLeaderLeaseStatus() LeaseStatus
	IsLeaseLeader(LeaseStatus) bool
	IsLeaseExpired(LeaseStatus) bool

	Propose(ctx context.Context, module string, op craft.Op, data []byte) (interface{}, error)

	GetAppliedIndex() uint64
	UpdateAppliedIndex(uint64)

	GetApplyQueue() *ApplyQueue
	GetMetaStore() Metastore

	// BindGroup attaches the consensus Group this Node proposes through and
	// reads Stat() from. Split from construction because the Group's own
	// StateMachine (see StateMachine in statemachine.go) is built from this
	// same Node, so the two must be wired in two steps: NewNode, then
	// craft.NewRaftGroup, then BindGroup.
	BindGroup(craft.Group)
}

// LeaseConfig bounds how long a Propose-confirmed leader may serve reads
// locally before a lease is considered stale. Mirrors braft's election-timeout
// derived lease window.
type LeaseConfig struct {
	LeaseDuration time.Duration `json:"lease_duration"`
}

func (c LeaseConfig) duration() time.Duration {
	if c.LeaseDuration <= 0 {
		return 5 * time.Second
	}
	return c.LeaseDuration
}

// raftNode is the concrete Node backing a single replicated partition.
type raftNode struct {
	partitionID uint64
	group       craft.Group
	leaseCfg    LeaseConfig
	queue       *ApplyQueue
	store       Metastore

	mu             sync.Mutex
	appliedIndex   uint64
	lastLeaderAt   time.Time
	lastLeaderTerm uint64
}

func NewNode(partitionID uint64, leaseCfg LeaseConfig, queue *ApplyQueue, store Metastore) Node {
	return &raftNode{
		partitionID: partitionID,
		leaseCfg:    leaseCfg,
		queue:       queue,
		store:       store,
	}
}

func (n *raftNode) BindGroup(g craft.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.group = g
}

func (n *raftNode) PartitionID() uint64 { return n.partitionID }

func (n *raftNode) stat() *craft.Stat {
	n.mu.Lock()
	g := n.group
	n.mu.Unlock()
	if g == nil {
		return &craft.Stat{}
	}
	st := g.Stat()
	if st == nil {
		return &craft.Stat{}
	}
	return st
}

func (n *raftNode) IsLeaderTerm() bool {
	st := n.stat()
	return st.Leader != 0 && st.Leader == st.Id
}

func (n *raftNode) LeaderTerm() uint64 { return n.stat().Term }

func (n *raftNode) LeaderID() uint64 { return n.stat().Leader }

// GetLeaderLeaseStatus derives a braft-style lease status from term
// continuity rather than a real clock-synced lease protocol: each time this
// replica observes itself as leader for a term it hasn't seen before, the
// lease clock resets; it then reads as LeaseLeader until leaseCfg.duration()
// elapses without reconfirmation, after which reads must go through Propose
// again.
func (n *raftNode) GetLeaderLeaseStatus() LeaseStatus {
	st := n.stat()
	if st.Leader == 0 {
		return LeaseDisabled
	}
	if st.Leader != st.Id {
		return LeaseNotReady
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	if st.Term != n.lastLeaderTerm {
		n.lastLeaderTerm = st.Term
		n.lastLeaderAt = now
	}
	if now.Sub(n.lastLeaderAt) > n.leaseCfg.duration() {
		return LeaseExpired
	}
	return LeaseLeader
}

func (n *raftNode) IsLeaseLeader(s LeaseStatus) bool { return s == LeaseLeader }

// IsLeaseExpired reports only the true-expiry case. LeaseNotReady and
// LeaseDisabled are deliberately not treated as expired: Propose's fall-
// through (operator.go) sends those through the log like a mutating
// operator would, rather than redirecting the caller away.
func (n *raftNode) IsLeaseExpired(s LeaseStatus) bool {
	return s == LeaseExpired
}

// Propose confirms the lease clock on success, since a successful commit in
// this term is the strongest evidence this replica is still the real leader.
func (n *raftNode) Propose(ctx context.Context, module string, op craft.Op, data []byte) (interface{}, error) {
	n.mu.Lock()
	g := n.group
	n.mu.Unlock()
	resp, err := g.Propose(ctx, &craft.ProposeRequest{
		Module:     module,
		Op:         op,
		Data:       data,
		WithResult: true,
	})
	if err != nil {
		return nil, err
	}
	st := n.stat()
	n.mu.Lock()
	n.lastLeaderAt = time.Now()
	n.lastLeaderTerm = st.Term
	n.mu.Unlock()
	if resp == nil {
		return nil, nil
	}
	return resp.Data, nil
}

func (n *raftNode) GetAppliedIndex() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.appliedIndex
}

func (n *raftNode) UpdateAppliedIndex(idx uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if idx > n.appliedIndex {
		n.appliedIndex = idx
	}
}

func (n *raftNode) GetApplyQueue() *ApplyQueue { return n.queue }
func (n *raftNode) GetMetaStore() Metastore    { return n.store }
