package mop

import (
	"context"

	craft "github.com/cubefs/diskcache/common/raft"
	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// StateMachine adapts a Node onto common/raft.StateMachine, so a raftNode's
// Group can be constructed with craft.NewRaftGroup(&craft.Config{SM: sm,
// Raft: realRaft}). Every committed log entry - whatever op/module it was
// proposed under - is handed to ApplyFromLog, which decodes the
// OperatorType tag and replays it against the Node's Metastore.
type StateMachine struct {
	node Node
}

func NewStateMachine(node Node) *StateMachine { return &StateMachine{node: node} }

func (sm *StateMachine) Apply(ctx context.Context, module string, op craft.Op, data []byte, index uint64) (interface{}, error) {
	if err := ApplyFromLog(ctx, sm.node, index, data); err != nil {
		return nil, errors.Info(err, "apply from log", module)
	}
	return index, nil
}

func (sm *StateMachine) ApplyMemberChange(cc craft.ConfChange, index uint64) error {
	sm.node.UpdateAppliedIndex(index)
	return nil
}

func (sm *StateMachine) Snapshot() (craft.Snapshot, error) {
	return nil, errors.New("snapshot not supported by this metastore state machine")
}

func (sm *StateMachine) ApplySnapshot(st craft.Snapshot) error {
	return errors.New("snapshot install not supported by this metastore state machine")
}

func (sm *StateMachine) LeaderChange(leader uint64, addr string) error {
	return nil
}
