package simd

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// google.protobuf.Struct values carrying the same JSON documents as the
// HTTP API, so no generated code is needed on either side.
const ServiceName = "seqlearn.v1.SequentialLearningService"

// SequentialLearningServer is the server side of the service
type SequentialLearningServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRunHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRunSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchRun(*structpb.Struct, WatchRunServer) error
}

// WatchRunServer streams run snapshots to a client
type WatchRunServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchRunServer struct {
	grpc.ServerStream
}

func (x *watchRunServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

type unaryCall func(SequentialLearningServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SequentialLearningServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SequentialLearningServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchRunHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SequentialLearningServer).WatchRun(in, &watchRunServer{stream})
}

// ServiceDesc describes SequentialLearningService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SequentialLearningServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRun", Handler: unaryHandler("CreateRun", SequentialLearningServer.CreateRun)},
		{MethodName: "GetRun", Handler: unaryHandler("GetRun", SequentialLearningServer.GetRun)},
		{MethodName: "ListRuns", Handler: unaryHandler("ListRuns", SequentialLearningServer.ListRuns)},
		{MethodName: "StopRun", Handler: unaryHandler("StopRun", SequentialLearningServer.StopRun)},
		{MethodName: "GetRunHistory", Handler: unaryHandler("GetRunHistory", SequentialLearningServer.GetRunHistory)},
		{MethodName: "GetRunSummary", Handler: unaryHandler("GetRunSummary", SequentialLearningServer.GetRunSummary)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchRun", Handler: watchRunHandler, ServerStreams: true},
	},
	Metadata: "seqlearn/v1/seqlearn.proto",
}

// RegisterSequentialLearningServer registers srv on s
func RegisterSequentialLearningServer(s grpc.ServiceRegistrar, srv SequentialLearningServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// SequentialLearningClient calls the service over a client connection
type SequentialLearningClient struct {
	cc grpc.ClientConnInterface
}

func NewSequentialLearningClient(cc grpc.ClientConnInterface) *SequentialLearningClient {
	return &SequentialLearningClient{cc: cc}
}

func (c *SequentialLearningClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SequentialLearningClient) CreateRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateRun", in, opts...)
}

func (c *SequentialLearningClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRun", in, opts...)
}

func (c *SequentialLearningClient) ListRuns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRuns", in, opts...)
}

func (c *SequentialLearningClient) StopRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StopRun", in, opts...)
}

func (c *SequentialLearningClient) GetRunHistory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRunHistory", in, opts...)
}

func (c *SequentialLearningClient) GetRunSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRunSummary", in, opts...)
}

// WatchRunClient receives run snapshots until the run is terminal
type WatchRunClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type watchRunClient struct {
	grpc.ClientStream
}

func (x *watchRunClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *SequentialLearningClient) WatchRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (WatchRunClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/WatchRun", opts...)
	if err != nil {
		return nil, err
	}
	x := &watchRunClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ToStruct converts any JSON-encodable value into a Struct
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return out, nil
}

// FromStruct decodes a Struct into dst through its JSON form
func FromStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		in = new(structpb.Struct)
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
