package mop

// Domain value types. Kept intentionally small: this repo's concern is the
// operator pipeline around these values, not a full metadata schema.

type Dentry struct {
	ParentInode uint64
	Name        string
	ChildInode  uint64
	Type        uint32
}

type InodeAttr struct {
	Inode uint64
	Size  uint64
	Mode  uint32
	Nlink uint32
	Ctime int64
	Mtime int64
}

type XAttr struct {
	Inode uint64
	Key   string
	Value []byte
}

type S3ChunkInfo struct {
	ChunkID   uint64
	Offset    uint64
	Len       uint64
	ObjectKey string
}

type VolumeExtentSlice struct {
	SliceID uint64
	Offset  uint64
	Len     uint64
}

type Partition struct {
	PartitionID uint64
	Start       uint64
	End         uint64
}

type DeallocatableBlockGroup struct {
	BlockGroupID uint64
	DeallocSize  uint64
}

// --- request/response header plumbing -------------------------------------

type RequestHeader struct {
	PartID uint64
}

func (h RequestHeader) PartitionID() uint64 { return h.PartID }

// --- read-only, lease-fast-path-capable variants ---------------------------

type GetDentryRequest struct {
	RequestHeader
	ParentInode uint64
	Name        string
}
type GetDentryResponse struct {
	ResponseHeader
	Dentry Dentry
}

type ListDentryRequest struct {
	RequestHeader
	ParentInode uint64
	Start       string
	Limit       uint32
}
type ListDentryResponse struct {
	ResponseHeader
	Dentries []Dentry
}

type GetInodeRequest struct {
	RequestHeader
	Inode uint64
}
type GetInodeResponse struct {
	ResponseHeader
	Attr InodeAttr
}

type BatchGetInodeAttrRequest struct {
	RequestHeader
	Inodes []uint64
}
type BatchGetInodeAttrResponse struct {
	ResponseHeader
	Attrs []InodeAttr
}

type BatchGetXAttrRequest struct {
	RequestHeader
	Inode uint64
	Keys  []string
}
type BatchGetXAttrResponse struct {
	ResponseHeader
	XAttrs []XAttr
}

// GetVolumeExtent is both lease-fast-path-capable and streaming-capable.
type GetVolumeExtentRequest struct {
	RequestHeader
	Inode     uint64
	Streaming bool
}
type GetVolumeExtentResponse struct {
	ResponseHeader
	Slices []VolumeExtentSlice
}

// --- mutating variants -----------------------------------------------------

type CreateDentryRequest struct {
	RequestHeader
	Dentry Dentry
}
type CreateDentryResponse struct{ ResponseHeader }

type DeleteDentryRequest struct {
	RequestHeader
	ParentInode uint64
	Name        string
}
type DeleteDentryResponse struct{ ResponseHeader }

type CreateInodeRequest struct {
	RequestHeader
	Attr InodeAttr
}
type CreateInodeResponse struct {
	ResponseHeader
	Inode uint64
}

type UpdateInodeRequest struct {
	RequestHeader
	Attr InodeAttr
}
type UpdateInodeResponse struct{ ResponseHeader }

type DeleteInodeRequest struct {
	RequestHeader
	Inode uint64
}
type DeleteInodeResponse struct{ ResponseHeader }

type CreateRootInodeRequest struct {
	RequestHeader
	Attr InodeAttr
}
type CreateRootInodeResponse struct{ ResponseHeader }

type CreateManageInodeRequest struct {
	RequestHeader
	Attr InodeAttr
}
type CreateManageInodeResponse struct{ ResponseHeader }

// CreatePartitionRequest's hash code reaches through Partition instead of
// RequestHeader - a different accessor path, per spec.md §4.11.
type CreatePartitionRequest struct {
	Partition Partition
}

func (r CreatePartitionRequest) PartitionID() uint64 { return r.Partition.PartitionID }

type CreatePartitionResponse struct{ ResponseHeader }

type DeletePartitionRequest struct {
	RequestHeader
	PartitionIDToDelete uint64
}
type DeletePartitionResponse struct{ ResponseHeader }

type PrepareRenameTxRequest struct {
	RequestHeader
	Dentries []Dentry
}
type PrepareRenameTxResponse struct{ ResponseHeader }

type UpdateVolumeExtentRequest struct {
	RequestHeader
	Inode  uint64
	Slices []VolumeExtentSlice
}
type UpdateVolumeExtentResponse struct{ ResponseHeader }

type UpdateDeallocatableBlockGroupRequest struct {
	RequestHeader
	Group DeallocatableBlockGroup
}
type UpdateDeallocatableBlockGroupResponse struct{ ResponseHeader }

// --- streaming special variant ---------------------------------------------

type GetOrModifyS3ChunkInfoRequest struct {
	RequestHeader
	Inode               uint64
	Modifications       []S3ChunkInfo
	ReturnS3ChunkInfoMap bool
	SupportStreaming    bool
}
type GetOrModifyS3ChunkInfoResponse struct {
	ResponseHeader
	ChunkInfo []S3ChunkInfo
}
