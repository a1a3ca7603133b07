package server

import (
	"context"
	"log/slog"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/infrastructure/grpc/wire"
	"pairchat/services"

	"github.com/samber/lo"
)

// ChatServer exposes the directory and conversation services over gRPC.
type ChatServer struct {
	chatService      services.IChatService
	directoryService services.IDirectoryService
	log              *slog.Logger
}

func NewChatServer(log *slog.Logger, chatService services.IChatService,
	directoryService services.IDirectoryService) *ChatServer {
	return &ChatServer{chatService: chatService, directoryService: directoryService, log: log}
}

func (s *ChatServer) Register(ctx context.Context, req *wire.RegisterRequest) (*wire.UserResponse, error) {
	user, err := s.directoryService.Register(ctx, domain.RegisterCommand{
		Handle:   req.Handle,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.UserResponse{User: toUser(user)}, nil
}

func (s *ChatServer) SignIn(ctx context.Context, req *wire.SignInRequest) (*wire.UserResponse, error) {
	user, err := s.directoryService.SignIn(ctx, req.Handle, req.Password)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.UserResponse{User: toUser(user)}, nil
}

func (s *ChatServer) ListUsers(ctx context.Context, _ *wire.ListUsersRequest) (*wire.UsersResponse, error) {
	users, err := s.directoryService.ListUsers(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.UsersResponse{Users: toUsers(users)}, nil
}

func (s *ChatServer) SearchUsers(ctx context.Context, req *wire.SearchUsersRequest) (*wire.UsersResponse, error) {
	users, err := s.chatService.SearchUsers(ctx, req.Query)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.UsersResponse{Users: toUsers(users)}, nil
}

// SendMessage appends synchronously: a success means the message is durably stored.
func (s *ChatServer) SendMessage(ctx context.Context, req *wire.SendMessageRequest) (*wire.SendMessageResponse, error) {
	message, err := s.chatService.SendMessage(ctx, domain.SendMessageCommand{
		From:    req.From,
		To:      req.To,
		Content: req.Content,
		Type:    req.Type,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.SendMessageResponse{
		MessageID: message.ID.String(),
		Position:  message.Position,
		CreatedAt: message.CreatedAt,
	}, nil
}

func (s *ChatServer) FetchConversation(ctx context.Context, req *wire.FetchConversationRequest) (*wire.FetchConversationResponse, error) {
	entries, err := s.chatService.FetchConversation(ctx, req.From, req.To)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.FetchConversationResponse{
		Messages: lo.Map(entries, func(item domain.HistoryEntry, _ int) wire.HistoryMessage {
			return wire.HistoryMessage{
				Sender:    item.SenderHandle,
				Content:   item.Content,
				Type:      string(item.Type),
				CreatedAt: item.CreatedAt,
			}
		}),
	}, nil
}

func (s *ChatServer) Roster(ctx context.Context, req *wire.RosterRequest) (*wire.RosterResponse, error) {
	entries, err := s.chatService.Roster(ctx, req.Handle)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.RosterResponse{
		Entries: lo.Map(entries, func(item domain.RosterEntry, _ int) wire.RosterEntry {
			return wire.RosterEntry{Contact: toUser(item.Contact), LatestMessage: item.LatestMessage}
		}),
	}, nil
}

func toUser(user domain.UserRef) wire.User {
	return wire.User{ID: user.ID, Handle: user.Handle}
}

func toUsers(users []domain.UserRef) []wire.User {
	return lo.Map(users, func(item domain.UserRef, _ int) wire.User { return toUser(item) })
}
