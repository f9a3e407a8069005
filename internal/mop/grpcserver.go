package mop

import (
	"context"
	"encoding/json"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cubefs/diskcache/metrics"
)

// reqIdKey is the grpc metadata key carrying the caller's trace id, the
// same convention server/rpcserver.go's unaryInterceptorWithTracer used.
const reqIdKey = "req-id"

// GRPCServer exposes every registered OperatorType over grpc. Grounded on
// server/rpcserver.go's per-operator method dispatch, but collapsed to one
// unary Execute RPC that carries a LogEntry envelope (type tag plus JSON
// body) wrapped in a wrapperspb.BytesValue, plus one server-streaming
// ExecuteStream RPC for the two streaming-capable variants - the teacher's
// own proto package has no protoc-generated service stubs to dispatch
// through (see DESIGN.md), so these two hand-written methods stand in for
// the 19 would-be per-operator RPCs without fabricating codegen.
type GRPCServer struct {
	node Node
}

// NewGRPCServer builds a GRPCServer bound to node.
func NewGRPCServer(node Node) *GRPCServer {
	return &GRPCServer{node: node}
}

// Execute decodes the envelope, builds the matching Operator, drives it
// through Propose, and waits for Done before re-encoding the response.
func (s *GRPCServer) Execute(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	t, body, err := DecodeLogEntry(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	req := newRequestFor(t)
	if req == nil {
		return nil, status.Errorf(codes.Unimplemented, "unknown operator type %d", t)
	}
	if err := DecodeLogEntryBody(body, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp := newResponseFor(t)

	op := NewOperator(t, s.node, req, resp)
	op.Propose(ctx)
	<-op.Done

	out, err := EncodeLogEntry(t, resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(out), nil
}

// grpcConnStream adapts a grpc.ServerStream to connStream (streaming.go):
// every StreamFrame is JSON-marshaled and carried as a wrapperspb.BytesValue,
// the same envelope convention Execute uses for its unary request/response.
type grpcConnStream struct {
	stream grpc.ServerStream
	sent   int // frames handed to the stream so far
}

func (g *grpcConnStream) Send(frame *StreamFrame) error {
	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	g.sent++
	return g.stream.SendMsg(wrapperspb.Bytes(raw))
}

// ExecuteStream is the streaming counterpart to Execute: it accepts one
// LogEntry envelope naming a streaming-capable OperatorType (GetVolumeExtent,
// GetOrModifyS3ChunkInfo), accepts the grpc stream itself as the Streaming
// Responder's connection, and drives the Operator through Propose with that
// connection reachable from its ApplyFunc via StreamConnFromContext. The
// ApplyFunc pushes every frame - including the RPC-done frame - directly
// onto the stream, so ExecuteStream itself sends nothing once Propose
// returns if any frame went out; if the apply pushed no frame at all, it
// sends the response itself as a single final frame.
func (s *GRPCServer) ExecuteStream(in *wrapperspb.BytesValue, stream grpc.ServerStream) error {
	t, body, err := DecodeLogEntry(in.GetValue())
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if t != OpGetVolumeExtent && t != OpGetOrModifyS3ChunkInfo {
		return status.Errorf(codes.InvalidArgument, "operator %s is not streaming-capable", t)
	}

	req := newRequestFor(t)
	if req == nil {
		return status.Errorf(codes.Unimplemented, "unknown operator type %d", t)
	}
	if err := DecodeLogEntryBody(body, req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	resp := newResponseFor(t)

	gs := &grpcConnStream{stream: stream}
	conn := NewStreamServer().Accept(gs)
	if conn == nil {
		return status.Error(codes.Internal, "stream accept failed")
	}
	ctx := ContextWithStreamConn(stream.Context(), conn)

	op := NewOperator(t, s.node, req, resp)
	op.Propose(ctx)
	<-op.Done

	if gs.sent > 0 {
		// The ApplyFunc already pushed the RPC-done frame plus its data
		// frames directly onto the stream; nothing left to send here.
		return nil
	}

	// No frame went out: the operator was redirected or failed (including
	// StatusRPCStreamError when the ApplyFunc found no stream connection),
	// or the request did not ask for streaming. The response is delivered
	// as a single done frame so the client observes its status instead of
	// a silently closed stream.
	out, err := EncodeLogEntry(t, resp)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return gs.Send(&StreamFrame{Response: out, Final: true})
}

func executeStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(wrapperspb.BytesValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(streamExecutor).ExecuteStream(in, stream)
}

// serviceDesc is hand-written rather than protoc-generated: it still gives
// grpc a real ServiceDesc to dispatch Execute/ExecuteStream through, exactly
// as a generated one would.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "diskcache.mop.Operator",
	HandlerType: (*executor)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(wrapperspb.BytesValue)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(executor).Execute(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/diskcache.mop.Operator/Execute"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(executor).Execute(ctx, req.(*wrapperspb.BytesValue))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ExecuteStream",
			Handler:       executeStreamHandler,
			ServerStreams: true,
		},
	},
}

type executor interface {
	Execute(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type streamExecutor interface {
	ExecuteStream(in *wrapperspb.BytesValue, stream grpc.ServerStream) error
}

// NewGRPCServerRegistrar builds a *grpc.Server with the tracer and
// grpc-prometheus interceptors chained, registers srv on it, and returns it
// ready for Serve. grpc-prometheus's handling-count/latency metrics land on
// metrics.Registry so diskcached's profile http server can expose them
// alongside the uploader and operator gauges.
func NewGRPCServerRegistrar(srv *GRPCServer) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		unaryInterceptorWithTracer,
		metrics.GRPCMetrics.UnaryServerInterceptor(),
	))
	s.RegisterService(&serviceDesc, srv)
	return s
}

func unaryInterceptorWithTracer(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		_, ctx = trace.StartSpanFromContext(ctx, info.FullMethod)
		return handler(ctx, req)
	}

	if ids := md.Get(reqIdKey); len(ids) > 0 {
		_, ctx = trace.StartSpanFromContextWithTraceID(ctx, info.FullMethod, ids[0])
	} else {
		_, ctx = trace.StartSpanFromContext(ctx, info.FullMethod)
	}
	return handler(ctx, req)
}
