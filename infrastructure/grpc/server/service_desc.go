package server

import (
	"context"
	"pairchat/infrastructure/grpc/wire"

	"google.golang.org/grpc"
)

// PairChatServer is the handler contract bound by ServiceDesc.
type PairChatServer interface {
	Register(context.Context, *wire.RegisterRequest) (*wire.UserResponse, error)
	SignIn(context.Context, *wire.SignInRequest) (*wire.UserResponse, error)
	ListUsers(context.Context, *wire.ListUsersRequest) (*wire.UsersResponse, error)
	SearchUsers(context.Context, *wire.SearchUsersRequest) (*wire.UsersResponse, error)
	SendMessage(context.Context, *wire.SendMessageRequest) (*wire.SendMessageResponse, error)
	FetchConversation(context.Context, *wire.FetchConversationRequest) (*wire.FetchConversationResponse, error)
	Roster(context.Context, *wire.RosterRequest) (*wire.RosterResponse, error)
}

var _ PairChatServer = (*ChatServer)(nil)

// ServiceDesc is what protoc-gen-go-grpc would emit for the PairChat service,
// declared by hand because the bodies travel with the JSON codec.
// Only the "json" content-subtype (wire.CodecName) is understood: callers using the
// proto default, such as grpcurl without a JSON content-type, get a codec error.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*PairChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(wire.MethodRegister, PairChatServer.Register),
		unary(wire.MethodSignIn, PairChatServer.SignIn),
		unary(wire.MethodListUsers, PairChatServer.ListUsers),
		unary(wire.MethodSearchUsers, PairChatServer.SearchUsers),
		unary(wire.MethodSendMessage, PairChatServer.SendMessage),
		unary(wire.MethodFetchConversation, PairChatServer.FetchConversation),
		unary(wire.MethodRoster, PairChatServer.Roster),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pairchat.v1",
}

func RegisterPairChatServer(s grpc.ServiceRegistrar, srv PairChatServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](method string,
	call func(PairChatServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PairChatServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: wire.FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PairChatServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
