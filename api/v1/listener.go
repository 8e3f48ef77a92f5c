// Package v1 rawlink.v1.Listener gRPC service built on well-known protobuf types
package v1

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "rawlink.v1.Listener"

	methodGetState = "/" + ServiceName + "/GetState"
	methodSend     = "/" + ServiceName + "/Send"
	methodFrames   = "/" + ServiceName + "/Frames"
)

// ListenerServer control API of a running listener
type ListenerServer interface {
	// GetState returns the listener statistic
	GetState(context.Context, *empty.Empty) (*structpb.Struct, error)
	// Send injects a raw Ethernet frame
	Send(context.Context, *wrapperspb.BytesValue) (*empty.Empty, error)
	// Frames streams received frames, each message is one byte of
	// compression type followed by the frame
	Frames(*empty.Empty, Listener_FramesServer) error
}

type Listener_FramesServer interface {
	Send(*wrapperspb.BytesValue) error
	grpc.ServerStream
}

type listenerFramesServer struct {
	grpc.ServerStream
}

func (x *listenerFramesServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterListenerServer(s grpc.ServiceRegistrar, srv ListenerServer) {
	s.RegisterService(&ListenerServiceDesc, srv)
}

var ListenerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ListenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler:    getStateHandler,
		},
		{
			MethodName: "Send",
			Handler:    sendHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Frames",
			Handler:       framesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "rawlink/v1/listener.proto",
}

func getStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListenerServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodGetState,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ListenerServer).GetState(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func sendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListenerServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: methodSend,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ListenerServer).Send(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func framesHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(empty.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ListenerServer).Frames(m, &listenerFramesServer{stream})
}

// ListenerClient client side of ListenerServer
type ListenerClient interface {
	GetState(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*empty.Empty, error)
	Frames(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (Listener_FramesClient, error)
}

type Listener_FramesClient interface {
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ClientStream
}

type listenerClient struct {
	cc grpc.ClientConnInterface
}

func NewListenerClient(cc grpc.ClientConnInterface) ListenerClient {
	return &listenerClient{cc}
}

func (c *listenerClient) GetState(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetState, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *listenerClient) Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*empty.Empty, error) {
	out := new(empty.Empty)
	if err := c.cc.Invoke(ctx, methodSend, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *listenerClient) Frames(ctx context.Context, in *empty.Empty, opts ...grpc.CallOption) (Listener_FramesClient, error) {
	stream, err := c.cc.NewStream(ctx, &ListenerServiceDesc.Streams[0], methodFrames, opts...)
	if err != nil {
		return nil, err
	}
	x := &listenerFramesClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type listenerFramesClient struct {
	grpc.ClientStream
}

func (x *listenerFramesClient) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
