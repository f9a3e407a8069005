package mop

import (
	"context"
	"sync"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/google/uuid"

	craft "github.com/cubefs/diskcache/common/raft"
)

// pendingOps correlates an in-flight proposal back to the live Operator that
// issued it, keyed by the proposalEntry's ReqID. ApplyFromLog consults this
// before falling back to a scratch request/response pair, so a mutating
// operator's own caller-supplied Resp - not a throwaway copy - carries the
// metastore's real result, mirroring the C++ MetaOperatorClosure's role of
// completing the original RPC once its proposed entry commits.
var pendingOps sync.Map // reqID string -> *Operator

// ApplyFunc runs a request against the Metastore and fills in resp,
// returning a non-nil error on failure. One ApplyFunc is
// registered per OperatorType; it is what both FastApplyTask (via the
// Apply Queue) and the replicated log replay path (OnApplyFromLog) invoke.
type ApplyFunc func(ctx context.Context, node Node, req Request, resp Response) error

// ReplayFunc re-applies a previously-committed log entry during raft catch-up.
// Read-only variants have no durable side effect to reproduce and register a
// nil ReplayFunc; OnApplyFromLog treats that as a no-op.
type ReplayFunc func(ctx context.Context, node Node, req Request, resp Response) error

// variant bundles everything the dispatch table needs to drive one
// OperatorType through Propose, fast-apply, log replay and hashing.
type variant struct {
	apply  ApplyFunc
	replay ReplayFunc
}

var registry = map[OperatorType]variant{}

func register(t OperatorType, v variant) { registry[t] = v }

// Operator drives a single request through Propose: lease fast-path,
// propose-through-log, or redirect. Grounded on meta_operator.cpp's
// MetaOperator base class; Propose/FastApplyTask/ProposeTask/Redirect/
// OnFailed/HashCode map 1:1 onto its namesake methods, generalized from
// per-variant macro-generated C++ classes into one struct plus a registry
// lookup by OperatorType.
type Operator struct {
	Type OperatorType
	Node Node
	Req  Request
	Resp Response

	// Done is closed once Resp is ready to read, whether by fast-apply,
	// log-applied propose, or a synchronous redirect/failure.
	Done chan struct{}
}

// NewOperator builds an Operator for t. The caller supplies req/resp already
// populated/zeroed for the variant; t must have been registered via
// register (done in apply.go's init).
func NewOperator(t OperatorType, node Node, req Request, resp Response) *Operator {
	return &Operator{
		Type: t,
		Node: node,
		Req:  req,
		Resp: resp,
		Done: make(chan struct{}),
	}
}

func (o *Operator) finish() {
	select {
	case <-o.Done:
	default:
		close(o.Done)
	}
}

// HashCode returns the Apply Queue shard key for this operator. Every
// variant hashes on its Request's PartitionID() except CreatePartition,
// whose PartitionID() already reaches through its embedded Partition (see
// CreatePartitionRequest.PartitionID in requests.go) - so HashCode needs no
// per-variant override, unlike the C++ PARTITION_OPERATOR_HASH_CODE macro.
func (o *Operator) HashCode() uint64 {
	return HashCode64(o.Req.PartitionID())
}

// CanBypassPropose reports whether this operator's type may take the lease
// read fast-path.
func (o *Operator) CanBypassPropose() bool { return CanBypassPropose(o.Type) }

// Redirect marks the response REDIRECTED without touching the Metastore.
func (o *Operator) Redirect() {
	o.Resp.SetStatusCode(StatusRedirected)
	redirectsTotal.WithLabelValues(o.Type.String()).Inc()
	o.finish()
}

// OnFailed marks the response with an explicit failure status.
func (o *Operator) OnFailed(code StatusCode) {
	o.Resp.SetStatusCode(code)
	o.finish()
}

// Propose is the operator pipeline's entry point: every inbound request
// passes through this exactly once.
func (o *Operator) Propose(ctx context.Context) {
	if !o.Node.IsLeaderTerm() {
		o.Redirect()
		return
	}

	if o.CanBypassPropose() {
		status := o.Node.GetLeaderLeaseStatus()

		if o.Node.IsLeaseLeader(status) {
			o.FastApplyTask(ctx)
			return
		}

		if o.Node.IsLeaseExpired(status) {
			o.Redirect()
			return
		}
		// LeaseNotReady or LeaseDisabled: fall through and propose
		// through the log like a mutating operator would.
	}

	o.ProposeTask(ctx)
}

// FastApplyTask runs a lease-bypass read directly against the current
// Metastore state, via the Apply Queue so it still serializes with any
// log-applied writes on the same partition.
func (o *Operator) FastApplyTask(ctx context.Context) {
	start := time.Now()
	appliedIndex := o.Node.GetAppliedIndex()
	o.Node.GetApplyQueue().Run(o.HashCode(), func() {
		queueWaitSeconds.WithLabelValues(o.Type.String()).Observe(time.Since(start).Seconds())
		o.runApply(ctx, appliedIndex)
	})
}

// ProposeTask encodes the request and proposes it through the replicated
// log, registering this Operator under a fresh correlation id first so
// ApplyFromLog can find it again once the entry commits. ApplyFromLog -
// whether a Node's Propose invokes it synchronously before returning, or the
// Group's StateMachine (statemachine.go) invokes it later once the entry
// commits - runs the registered ApplyFunc against this same o.Req/o.Resp and closes
// Done; ProposeTask itself only ever has to handle the encode/propose
// failure paths.
func (o *Operator) ProposeTask(ctx context.Context) {
	reqID := uuid.NewString()
	raw, err := EncodeProposal(reqID, o.Type, o.Req)
	if err != nil {
		span := trace.SpanFromContext(ctx)
		if span != nil {
			span.Errorf("encode operator %s failed: %s", o.Type, err)
		}
		proposeFailuresTotal.WithLabelValues(o.Type.String()).Inc()
		o.OnFailed(StatusUnknownError)
		return
	}

	pendingOps.Store(reqID, o)
	if _, err := o.Node.Propose(ctx, "mop", craft.Op(o.Type), raw); err != nil {
		pendingOps.Delete(reqID)
		proposeFailuresTotal.WithLabelValues(o.Type.String()).Inc()
		o.OnFailed(StatusUnknownError)
		return
	}
	// Success: ApplyFromLog has populated o.Resp and closed o.Done by the
	// time a synchronous backing's Propose returns; for an asynchronous
	// backing, the caller's own <-o.Done wait covers the remaining delay.
}

func (o *Operator) runApply(ctx context.Context, index uint64) {
	start := time.Now()
	v, ok := registry[o.Type]
	if !ok || v.apply == nil {
		o.OnFailed(StatusUnknownError)
		return
	}
	err := v.apply(ctx, o.Node, o.Req, o.Resp)
	executeSeconds.WithLabelValues(o.Type.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		if isStreamAcceptError(err) {
			o.OnFailed(StatusRPCStreamError)
			return
		}
		o.OnFailed(StatusUnknownError)
		return
	}
	if o.Resp.GetStatusCode() != StatusOK {
		// The Metastore already set its own failure code on the response.
		o.finish()
		return
	}
	o.Node.UpdateAppliedIndex(index)
	o.Resp.SetAppliedIndex(maxU64(index, o.Node.GetAppliedIndex()))
	o.Resp.SetStatusCode(StatusOK)
	o.finish()
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
