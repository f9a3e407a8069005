package mop

import "context"

// Metastore is the durable metadata store each Operator's OnApply/
// OnApplyFromLog arm ultimately calls into. Defined here, in mop, rather
// than in the metastore package: metastore implements this interface, mop
// does not import metastore, avoiding an import cycle between the operator
// dispatch tables and the storage layer they drive.
type Metastore interface {
	GetDentry(ctx context.Context, req *GetDentryRequest, resp *GetDentryResponse) error
	ListDentry(ctx context.Context, req *ListDentryRequest, resp *ListDentryResponse) error
	CreateDentry(ctx context.Context, req *CreateDentryRequest, resp *CreateDentryResponse) error
	DeleteDentry(ctx context.Context, req *DeleteDentryRequest, resp *DeleteDentryResponse) error

	GetInode(ctx context.Context, req *GetInodeRequest, resp *GetInodeResponse) error
	BatchGetInodeAttr(ctx context.Context, req *BatchGetInodeAttrRequest, resp *BatchGetInodeAttrResponse) error
	BatchGetXAttr(ctx context.Context, req *BatchGetXAttrRequest, resp *BatchGetXAttrResponse) error
	CreateInode(ctx context.Context, req *CreateInodeRequest, resp *CreateInodeResponse) error
	UpdateInode(ctx context.Context, req *UpdateInodeRequest, resp *UpdateInodeResponse) error
	DeleteInode(ctx context.Context, req *DeleteInodeRequest, resp *DeleteInodeResponse) error
	CreateRootInode(ctx context.Context, req *CreateRootInodeRequest, resp *CreateRootInodeResponse) error
	CreateManageInode(ctx context.Context, req *CreateManageInodeRequest, resp *CreateManageInodeResponse) error

	CreatePartition(ctx context.Context, req *CreatePartitionRequest, resp *CreatePartitionResponse) error
	DeletePartition(ctx context.Context, req *DeletePartitionRequest, resp *DeletePartitionResponse) error

	PrepareRenameTx(ctx context.Context, req *PrepareRenameTxRequest, resp *PrepareRenameTxResponse) error

	GetVolumeExtent(ctx context.Context, req *GetVolumeExtentRequest, resp *GetVolumeExtentResponse) error
	UpdateVolumeExtent(ctx context.Context, req *UpdateVolumeExtentRequest, resp *UpdateVolumeExtentResponse) error

	UpdateDeallocatableBlockGroup(ctx context.Context, req *UpdateDeallocatableBlockGroupRequest, resp *UpdateDeallocatableBlockGroupResponse) error

	GetOrModifyS3ChunkInfo(ctx context.Context, req *GetOrModifyS3ChunkInfoRequest, resp *GetOrModifyS3ChunkInfoResponse) error
}
