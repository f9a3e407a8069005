package mop

import (
	"context"
	"encoding/json"
	"time"
)

// wireReplayFuncs fills in ReplayFunc for every mutating variant, leaving it
// nil for the six read-only/bypass-capable variants (GetDentry, ListDentry,
// GetInode, BatchGetInodeAttr, BatchGetXAttr, GetVolumeExtent): they reach
// the log only when proposed without a valid lease, and have no durable side
// effect to reproduce, so replaying a log entry for them is a no-op,
// mirroring meta_operator.cpp's READONLY_OPERATOR_ON_APPLY_FROM_LOG
// macro.
func wireReplayFuncs() {
	for t, v := range registry {
		if CanBypassPropose(t) || v.apply == nil {
			continue
		}
		apply := v.apply
		v.replay = func(ctx context.Context, n Node, req Request, resp Response) error {
			return apply(ctx, n, req, resp)
		}
		registry[t] = v
	}

	// GetOrModifyS3ChunkInfo replays with streaming forced off: a replica
	// catching up on log entries has no live RPC connection to stream
	// results over, so it only needs the durable side effect applied.
	s3v := registry[OpGetOrModifyS3ChunkInfo]
	s3v.replay = func(ctx context.Context, n Node, req Request, resp Response) error {
		r := *req.(*GetOrModifyS3ChunkInfoRequest)
		r.ReturnS3ChunkInfoMap = false
		r.SupportStreaming = false
		return n.GetMetaStore().GetOrModifyS3ChunkInfo(ctx, &r, resp.(*GetOrModifyS3ChunkInfoResponse))
	}
	registry[OpGetOrModifyS3ChunkInfo] = s3v
}

// newRequestFor allocates a zero-valued, concrete per-variant request for t,
// as a target for DecodeLogEntryBody.
func newRequestFor(t OperatorType) Request {
	switch t {
	case OpGetDentry:
		return &GetDentryRequest{}
	case OpListDentry:
		return &ListDentryRequest{}
	case OpGetInode:
		return &GetInodeRequest{}
	case OpBatchGetInodeAttr:
		return &BatchGetInodeAttrRequest{}
	case OpBatchGetXAttr:
		return &BatchGetXAttrRequest{}
	case OpGetVolumeExtent:
		return &GetVolumeExtentRequest{}
	case OpCreateDentry:
		return &CreateDentryRequest{}
	case OpDeleteDentry:
		return &DeleteDentryRequest{}
	case OpCreateInode:
		return &CreateInodeRequest{}
	case OpUpdateInode:
		return &UpdateInodeRequest{}
	case OpDeleteInode:
		return &DeleteInodeRequest{}
	case OpCreateRootInode:
		return &CreateRootInodeRequest{}
	case OpCreateManageInode:
		return &CreateManageInodeRequest{}
	case OpCreatePartition:
		return &CreatePartitionRequest{}
	case OpDeletePartition:
		return &DeletePartitionRequest{}
	case OpPrepareRenameTx:
		return &PrepareRenameTxRequest{}
	case OpUpdateVolumeExtent:
		return &UpdateVolumeExtentRequest{}
	case OpUpdateDeallocatableBlockGroup:
		return &UpdateDeallocatableBlockGroupRequest{}
	case OpGetOrModifyS3ChunkInfo:
		return &GetOrModifyS3ChunkInfoRequest{}
	default:
		return nil
	}
}

func newResponseFor(t OperatorType) Response {
	switch t {
	case OpGetDentry:
		return &GetDentryResponse{}
	case OpListDentry:
		return &ListDentryResponse{}
	case OpGetInode:
		return &GetInodeResponse{}
	case OpBatchGetInodeAttr:
		return &BatchGetInodeAttrResponse{}
	case OpBatchGetXAttr:
		return &BatchGetXAttrResponse{}
	case OpGetVolumeExtent:
		return &GetVolumeExtentResponse{}
	case OpCreateDentry:
		return &CreateDentryResponse{}
	case OpDeleteDentry:
		return &DeleteDentryResponse{}
	case OpCreateInode:
		return &CreateInodeResponse{}
	case OpUpdateInode:
		return &UpdateInodeResponse{}
	case OpDeleteInode:
		return &DeleteInodeResponse{}
	case OpCreateRootInode:
		return &CreateRootInodeResponse{}
	case OpCreateManageInode:
		return &CreateManageInodeResponse{}
	case OpCreatePartition:
		return &CreatePartitionResponse{}
	case OpDeletePartition:
		return &DeletePartitionResponse{}
	case OpPrepareRenameTx:
		return &PrepareRenameTxResponse{}
	case OpUpdateVolumeExtent:
		return &UpdateVolumeExtentResponse{}
	case OpUpdateDeallocatableBlockGroup:
		return &UpdateDeallocatableBlockGroupResponse{}
	case OpGetOrModifyS3ChunkInfo:
		return &GetOrModifyS3ChunkInfoResponse{}
	default:
		return nil
	}
}

// ApplyFromLog applies one committed log entry. If the proposalEntry's
// ReqID names an Operator still waiting locally on this proposal (the
// common case: this replica's own leader-propose path), the registered
// ApplyFunc runs directly against that Operator's own Req/Resp and closes
// its Done - the caller gets the metastore's real result, not a scratch
// copy. Otherwise this is true catch-up replay with no live caller (a
// standby replica applying entries committed by another leader, or this
// replica restarting), so a scratch request/response pair is allocated and
// the variant's ReplayFunc runs instead (a no-op for read-only variants).
// The applied index advances in every case, even on failure, since a failed
// replay of an already-committed entry must not block later entries.
func ApplyFromLog(ctx context.Context, node Node, index uint64, raw []byte) error {
	start := time.Now()
	reqID, t, body, err := DecodeProposal(raw)
	if err != nil {
		node.UpdateAppliedIndex(index)
		return err
	}

	if live, ok := pendingOps.Load(reqID); ok && reqID != "" {
		pendingOps.Delete(reqID)
		o := live.(*Operator)

		v, ok := registry[t]
		if !ok || v.apply == nil {
			node.UpdateAppliedIndex(index)
			o.OnFailed(StatusUnknownError)
			return nil
		}

		applyErr := v.apply(ctx, node, o.Req, o.Resp)
		applyFromLogSeconds.WithLabelValues(t.String()).Observe(time.Since(start).Seconds())
		node.UpdateAppliedIndex(index)
		if applyErr != nil {
			if isStreamAcceptError(applyErr) {
				o.OnFailed(StatusRPCStreamError)
				return nil
			}
			o.OnFailed(StatusUnknownError)
			return applyErr
		}
		// A failure code the Metastore set on the response is left as is.
		if o.Resp.GetStatusCode() == StatusOK {
			o.Resp.SetAppliedIndex(index)
		}
		o.finish()
		return nil
	}

	v, ok := registry[t]
	if !ok {
		node.UpdateAppliedIndex(index)
		return nil
	}
	if v.replay == nil {
		node.UpdateAppliedIndex(index)
		return nil
	}

	req := newRequestFor(t)
	resp := newResponseFor(t)
	if req == nil || resp == nil {
		node.UpdateAppliedIndex(index)
		return nil
	}
	if err := json.Unmarshal(body, req); err != nil {
		node.UpdateAppliedIndex(index)
		return err
	}

	replayErr := v.replay(ctx, node, req, resp)
	applyFromLogSeconds.WithLabelValues(t.String()).Observe(time.Since(start).Seconds())
	node.UpdateAppliedIndex(index)
	return replayErr
}
