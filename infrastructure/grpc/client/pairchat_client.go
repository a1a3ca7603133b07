package client

import (
	"context"
	"pairchat/errors"
	"pairchat/infrastructure/grpc/wire"

	"google.golang.org/grpc"
)

// PairChatClient calls the PairChat service. Failures come back with their
// taxonomy kind restored, so callers branch with errors.Is as they would in process.
type PairChatClient struct {
	conn grpc.ClientConnInterface
}

func NewPairChatClient(conn grpc.ClientConnInterface) *PairChatClient {
	return &PairChatClient{conn: conn}
}

func (c *PairChatClient) Register(ctx context.Context, handle, email, password string) (wire.User, error) {
	var resp wire.UserResponse
	err := c.invoke(ctx, wire.MethodRegister, &wire.RegisterRequest{Handle: handle, Email: email, Password: password}, &resp)
	return resp.User, err
}

func (c *PairChatClient) SignIn(ctx context.Context, handle, password string) (wire.User, error) {
	var resp wire.UserResponse
	err := c.invoke(ctx, wire.MethodSignIn, &wire.SignInRequest{Handle: handle, Password: password}, &resp)
	return resp.User, err
}

func (c *PairChatClient) ListUsers(ctx context.Context) ([]wire.User, error) {
	var resp wire.UsersResponse
	err := c.invoke(ctx, wire.MethodListUsers, &wire.ListUsersRequest{}, &resp)
	return resp.Users, err
}

func (c *PairChatClient) SearchUsers(ctx context.Context, query string) ([]wire.User, error) {
	var resp wire.UsersResponse
	err := c.invoke(ctx, wire.MethodSearchUsers, &wire.SearchUsersRequest{Query: query}, &resp)
	return resp.Users, err
}

func (c *PairChatClient) SendMessage(ctx context.Context, req wire.SendMessageRequest) (wire.SendMessageResponse, error) {
	var resp wire.SendMessageResponse
	err := c.invoke(ctx, wire.MethodSendMessage, &req, &resp)
	return resp, err
}

func (c *PairChatClient) FetchConversation(ctx context.Context, from, to string) ([]wire.HistoryMessage, error) {
	var resp wire.FetchConversationResponse
	err := c.invoke(ctx, wire.MethodFetchConversation, &wire.FetchConversationRequest{From: from, To: to}, &resp)
	return resp.Messages, err
}

func (c *PairChatClient) Roster(ctx context.Context, handle string) ([]wire.RosterEntry, error) {
	var resp wire.RosterResponse
	err := c.invoke(ctx, wire.MethodRoster, &wire.RosterRequest{Handle: handle}, &resp)
	return resp.Entries, err
}

func (c *PairChatClient) invoke(ctx context.Context, method string, in, out any) error {
	err := c.conn.Invoke(ctx, wire.FullMethod(method), in, out, grpc.CallContentSubtype(wire.CodecName))
	return errors.FromGRPCError(err)
}
