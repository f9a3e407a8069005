package mop

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// StreamFrame is one unit pushed over a StreamConnection. Response carries
// the encoded LogEntry for the owning RPC's completion and is always sent
// first - the spec's streaming-after-done ordering invariant holds at the
// frame level regardless of which variant is streaming: the client decodes
// Response (status, applied index, already-cleared payload field) before any
// VolumeExtent/S3ChunkInfo batch arrives. Final marks the end of the stream.
type StreamFrame struct {
	Response     []byte              `json:",omitempty"`
	VolumeExtent []VolumeExtentSlice `json:",omitempty"`
	S3ChunkInfo  []S3ChunkInfo       `json:",omitempty"`
	Final        bool                `json:",omitempty"`
}

// connStream is the minimal interface a gRPC server-stream must satisfy to
// carry StreamFrames - grounded on raft/snapshot.go's outgoingSnapshotStream,
// generalized from *RaftSnapshotRequest to StreamFrame.
type connStream interface {
	Send(frame *StreamFrame) error
}

// StreamConnection is accepted once per streaming-capable request
// (GetVolumeExtent with Streaming set, or GetOrModifyS3ChunkInfo with
// SupportStreaming set) and used to push the payload in batches instead of
// returning it inline on the RPC response.
type StreamConnection struct {
	stream connStream
}

// StreamServer accepts inbound streaming connections. A real deployment
// backs this with the gRPC stream handed to the RPC method; tests can supply
// a fake connStream.
type StreamServer struct{}

func NewStreamServer() *StreamServer { return &StreamServer{} }

// Accept wraps stream for use by SendVolumeExtent/SendS3ChunkInfo. Mirrors
// curvefs's StreamServer::Accept(cntl), which hands back nil on failure
// rather than an error - GRPCServer.ExecuteStream checks that and fails the
// RPC with a gRPC Internal error.
func (s *StreamServer) Accept(stream connStream) *StreamConnection {
	if stream == nil {
		return nil
	}
	return &StreamConnection{stream: stream}
}

const streamBatchSize = 256

// SendVolumeExtent sends doneResp (the already-encoded LogEntry response,
// with Slices cleared by the caller) as the first frame, then the real
// slices in fixed-size batches, then a final empty frame.
func SendVolumeExtent(conn *StreamConnection, doneResp []byte, slices []VolumeExtentSlice) error {
	if err := conn.stream.Send(&StreamFrame{Response: doneResp}); err != nil {
		return errors.Info(err, "send volume extent rpc-done frame")
	}
	for len(slices) > 0 {
		n := streamBatchSize
		if n > len(slices) {
			n = len(slices)
		}
		if err := conn.stream.Send(&StreamFrame{VolumeExtent: slices[:n]}); err != nil {
			return errors.Info(err, "send volume extent batch")
		}
		slices = slices[n:]
	}
	return conn.stream.Send(&StreamFrame{Final: true})
}

// SendS3ChunkInfo mirrors SendVolumeExtent for GetOrModifyS3ChunkInfo.
func SendS3ChunkInfo(conn *StreamConnection, doneResp []byte, chunks []S3ChunkInfo) error {
	if err := conn.stream.Send(&StreamFrame{Response: doneResp}); err != nil {
		return errors.Info(err, "send s3 chunk info rpc-done frame")
	}
	for len(chunks) > 0 {
		n := streamBatchSize
		if n > len(chunks) {
			n = len(chunks)
		}
		if err := conn.stream.Send(&StreamFrame{S3ChunkInfo: chunks[:n]}); err != nil {
			return errors.Info(err, "send s3 chunk info batch")
		}
		chunks = chunks[n:]
	}
	return conn.stream.Send(&StreamFrame{Final: true})
}

// streamAcceptError is what a streaming-capable ApplyFunc returns when it
// could not obtain a stream connection. The operator pipeline (operator.go's
// runApply, replay.go's ApplyFromLog) maps it to StatusRPCStreamError instead
// of the StatusUnknownError every other ApplyFunc failure gets.
type streamAcceptError struct{}

func (streamAcceptError) Error() string { return "stream accept failed" }

// errStreamAccept is the sentinel value ApplyFuncs return on accept failure.
var errStreamAccept error = streamAcceptError{}

// isStreamAcceptError reports whether err came from a stream-accept failure.
func isStreamAcceptError(err error) bool {
	_, ok := err.(streamAcceptError)
	return ok
}

// streamConnKey threads an accepted StreamConnection through Propose's ctx
// down into the registered ApplyFunc, which is the only place that knows
// whether req.Streaming/SupportStreaming is actually set. Set by
// GRPCServer.ExecuteStream before calling Operator.Propose.
type streamConnKey struct{}

func ContextWithStreamConn(ctx context.Context, conn *StreamConnection) context.Context {
	return context.WithValue(ctx, streamConnKey{}, conn)
}

// StreamConnFromContext reports whether ctx carries an accepted stream
// connection. A streaming-capable ApplyFunc treats a false ok the same as
// Accept returning nil: a stream accept failure, answered with
// StatusRPCStreamError.
func StreamConnFromContext(ctx context.Context) (*StreamConnection, bool) {
	conn, ok := ctx.Value(streamConnKey{}).(*StreamConnection)
	return conn, ok && conn != nil
}
