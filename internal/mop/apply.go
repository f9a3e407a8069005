package mop

import "context"

// init wires the dispatch table: one ApplyFunc per OperatorType, each a thin
// adapter from the generic Request/Response pair down to the concrete
// per-variant types and the matching Metastore method. Grounded on
// meta_operator.cpp's OPERATOR_ON_APPLY macro, which does exactly this same
// cast-and-call for every variant.
func init() {
	register(OpGetDentry, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().GetDentry(ctx, req.(*GetDentryRequest), resp.(*GetDentryResponse))
		},
	})
	register(OpListDentry, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().ListDentry(ctx, req.(*ListDentryRequest), resp.(*ListDentryResponse))
		},
	})
	register(OpGetInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().GetInode(ctx, req.(*GetInodeRequest), resp.(*GetInodeResponse))
		},
	})
	register(OpBatchGetInodeAttr, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().BatchGetInodeAttr(ctx, req.(*BatchGetInodeAttrRequest), resp.(*BatchGetInodeAttrResponse))
		},
	})
	register(OpBatchGetXAttr, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().BatchGetXAttr(ctx, req.(*BatchGetXAttrRequest), resp.(*BatchGetXAttrResponse))
		},
	})
	// GetVolumeExtent is both lease-fast-path-capable and streaming-capable:
	// it reads extents via the Metastore as normal, then - if req.Streaming
	// is set - hands the slices to the Streaming Responder instead of
	// returning them inline, clearing resp.Slices first so the RPC response
	// frame the client sees is empty (spec's streaming-after-done ordering).
	register(OpGetVolumeExtent, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			r := req.(*GetVolumeExtentRequest)
			rsp := resp.(*GetVolumeExtentResponse)
			if err := n.GetMetaStore().GetVolumeExtent(ctx, r, rsp); err != nil {
				return err
			}
			if !r.Streaming {
				return nil
			}
			slices := rsp.Slices
			rsp.Slices = nil

			conn, ok := StreamConnFromContext(ctx)
			if !ok {
				return errStreamAccept
			}
			done, err := EncodeLogEntry(OpGetVolumeExtent, rsp)
			if err != nil {
				return err
			}
			return SendVolumeExtent(conn, done, slices)
		},
	})

	register(OpCreateDentry, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().CreateDentry(ctx, req.(*CreateDentryRequest), resp.(*CreateDentryResponse))
		},
	})
	register(OpDeleteDentry, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().DeleteDentry(ctx, req.(*DeleteDentryRequest), resp.(*DeleteDentryResponse))
		},
	})
	register(OpCreateInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().CreateInode(ctx, req.(*CreateInodeRequest), resp.(*CreateInodeResponse))
		},
	})
	register(OpUpdateInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().UpdateInode(ctx, req.(*UpdateInodeRequest), resp.(*UpdateInodeResponse))
		},
	})
	register(OpDeleteInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().DeleteInode(ctx, req.(*DeleteInodeRequest), resp.(*DeleteInodeResponse))
		},
	})
	register(OpCreateRootInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().CreateRootInode(ctx, req.(*CreateRootInodeRequest), resp.(*CreateRootInodeResponse))
		},
	})
	register(OpCreateManageInode, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().CreateManageInode(ctx, req.(*CreateManageInodeRequest), resp.(*CreateManageInodeResponse))
		},
	})
	register(OpCreatePartition, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().CreatePartition(ctx, req.(*CreatePartitionRequest), resp.(*CreatePartitionResponse))
		},
	})
	register(OpDeletePartition, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().DeletePartition(ctx, req.(*DeletePartitionRequest), resp.(*DeletePartitionResponse))
		},
	})
	register(OpPrepareRenameTx, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().PrepareRenameTx(ctx, req.(*PrepareRenameTxRequest), resp.(*PrepareRenameTxResponse))
		},
	})
	register(OpUpdateVolumeExtent, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().UpdateVolumeExtent(ctx, req.(*UpdateVolumeExtentRequest), resp.(*UpdateVolumeExtentResponse))
		},
	})
	register(OpUpdateDeallocatableBlockGroup, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			return n.GetMetaStore().UpdateDeallocatableBlockGroup(ctx, req.(*UpdateDeallocatableBlockGroupRequest), resp.(*UpdateDeallocatableBlockGroupResponse))
		},
	})
	// GetOrModifyS3ChunkInfo is the streaming special case: when the request
	// both wants the chunk-info map AND advertises streaming support, the
	// Streaming Responder pushes ChunkInfo incrementally instead of
	// returning it all in one response; the Metastore call underneath is the
	// same either way.
	register(OpGetOrModifyS3ChunkInfo, variant{
		apply: func(ctx context.Context, n Node, req Request, resp Response) error {
			r := req.(*GetOrModifyS3ChunkInfoRequest)
			rsp := resp.(*GetOrModifyS3ChunkInfoResponse)
			if err := n.GetMetaStore().GetOrModifyS3ChunkInfo(ctx, r, rsp); err != nil {
				return err
			}
			if !r.ReturnS3ChunkInfoMap || !r.SupportStreaming {
				return nil
			}
			chunks := rsp.ChunkInfo
			rsp.ChunkInfo = nil

			conn, ok := StreamConnFromContext(ctx)
			if !ok {
				return errStreamAccept
			}
			done, err := EncodeLogEntry(OpGetOrModifyS3ChunkInfo, rsp)
			if err != nil {
				return err
			}
			return SendS3ChunkInfo(conn, done, chunks)
		},
	})

	wireReplayFuncs()
}
