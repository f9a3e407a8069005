// Package mop implements the metaserver operator pipeline: every metadata
// RPC is wrapped in an operator that is fast-applied under a valid lease,
// proposed through the replicated log, or redirected when this replica
// isn't the leader.
//
// Grounded on curvefs's metaserver/copyset/meta_operator.{h,cpp}, translated
// from per-variant C++ macros into a Go tagged-variant-plus-table design
// per spec.md's own Design Notes.
package mop

// StatusCode is carried on every operator response.
type StatusCode int32

const (
	StatusOK StatusCode = iota
	StatusRedirected
	StatusUnknownError
	StatusRPCStreamError
	StatusNotFound
	StatusExists
	StatusInvalidArg
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "OK"
	case StatusRedirected:
		return "REDIRECTED"
	case StatusUnknownError:
		return "UNKNOWN_ERROR"
	case StatusRPCStreamError:
		return "RPC_STREAM_ERROR"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusExists:
		return "EXISTS"
	case StatusInvalidArg:
		return "INVALID_ARG"
	default:
		return "UNKNOWN"
	}
}

// OperatorType tags each of the 19 operator variants. The request/response
// pair per variant is the discriminator; OperatorType is only used to pick
// the right dispatch-table entry and Apply Queue metric bucket.
type OperatorType int32

const (
	OpGetDentry OperatorType = iota + 1
	OpListDentry
	OpGetInode
	OpBatchGetInodeAttr
	OpBatchGetXAttr
	OpGetVolumeExtent
	OpCreateDentry
	OpDeleteDentry
	OpCreateInode
	OpUpdateInode
	OpDeleteInode
	OpCreateRootInode
	OpCreateManageInode
	OpCreatePartition
	OpDeletePartition
	OpPrepareRenameTx
	OpUpdateVolumeExtent
	OpUpdateDeallocatableBlockGroup
	OpGetOrModifyS3ChunkInfo
)

var operatorTypeNames = map[OperatorType]string{
	OpGetDentry:                     "GetDentry",
	OpListDentry:                    "ListDentry",
	OpGetInode:                      "GetInode",
	OpBatchGetInodeAttr:             "BatchGetInodeAttr",
	OpBatchGetXAttr:                 "BatchGetXAttr",
	OpGetVolumeExtent:               "GetVolumeExtent",
	OpCreateDentry:                  "CreateDentry",
	OpDeleteDentry:                  "DeleteDentry",
	OpCreateInode:                   "CreateInode",
	OpUpdateInode:                   "UpdateInode",
	OpDeleteInode:                   "DeleteInode",
	OpCreateRootInode:               "CreateRootInode",
	OpCreateManageInode:             "CreateManageInode",
	OpCreatePartition:               "CreatePartition",
	OpDeletePartition:               "DeletePartition",
	OpPrepareRenameTx:               "PrepareRenameTx",
	OpUpdateVolumeExtent:            "UpdateVolumeExtent",
	OpUpdateDeallocatableBlockGroup: "UpdateDeallocatableBlockGroup",
	OpGetOrModifyS3ChunkInfo:        "GetOrModifyS3ChunkInfo",
}

func (t OperatorType) String() string {
	if n, ok := operatorTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// canBypassPropose lists the read-only variants allowed to take the
// lease-fast-path instead of going through the replicated log. Mirrors
// meta_operator.cpp's OPERATOR_CAN_BY_PASS_PROPOSE macro invocations.
var canBypassPropose = map[OperatorType]bool{
	OpGetDentry:         true,
	OpListDentry:        true,
	OpGetInode:          true,
	OpBatchGetInodeAttr: true,
	OpBatchGetXAttr:     true,
	OpGetVolumeExtent:   true,
}

// CanBypassPropose reports whether t may take the lease read fast-path.
func CanBypassPropose(t OperatorType) bool { return canBypassPropose[t] }

// LeaseStatus mirrors braft::LeaderLeaseStatus as reported by the
// consensus Node.
type LeaseStatus int32

const (
	LeaseDisabled LeaseStatus = iota
	LeaseNotReady
	LeaseLeader
	LeaseExpired
)

// Request is implemented by every per-variant request struct.
type Request interface {
	// PartitionID is the Apply Queue shard key for every variant except
	// CreatePartition, which reaches into its embedded Partition instead
	// (a different accessor path, per spec.md §4.11).
	PartitionID() uint64
}

// Response is implemented by every per-variant response struct.
type Response interface {
	GetStatusCode() StatusCode
	SetStatusCode(StatusCode)
	SetAppliedIndex(uint64)
}

// ResponseHeader is embedded by every response struct.
type ResponseHeader struct {
	StatusCode   StatusCode
	AppliedIndex uint64
}

func (h *ResponseHeader) GetStatusCode() StatusCode    { return h.StatusCode }
func (h *ResponseHeader) SetStatusCode(c StatusCode)   { h.StatusCode = c }
func (h *ResponseHeader) SetAppliedIndex(idx uint64)   { h.AppliedIndex = idx }
