package services

import (
	"context"
	"log/slog"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	FetchConversation(ctx context.Context, from, to string) ([]domain.HistoryEntry, error)
	Roster(ctx context.Context, handle string) ([]domain.RosterEntry, error)
	SearchUsers(ctx context.Context, query string) ([]domain.UserRef, error)
}

// ChatService is the only write path into the conversation store.
type ChatService struct {
	userRepository         repositories.IUserRepository
	conversationRepository repositories.IConversationRepository
	roster                 RosterSource
	maxContentLength       int
	log                    *slog.Logger
}

func NewChatService(log *slog.Logger, users repositories.IUserRepository,
	conversations repositories.IConversationRepository, roster RosterSource, maxContentLength int) *ChatService {
	return &ChatService{
		userRepository:         users,
		conversationRepository: conversations,
		roster:                 roster,
		maxContentLength:       maxContentLength,
		log:                    log,
	}
}

// SendMessage resolves both handles, validates the payload, then appends to the pair's
// conversation, creating it on first contact. An unknown handle is reported before a bad
// payload, and nothing is written in either case.
func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	from, to, err := s.resolve(cmd.From, cmd.To)
	if err != nil {
		return domain.Message{}, err
	}
	if err := domain.ValidateContent(cmd.Content, s.maxContentLength); err != nil {
		return domain.Message{}, err
	}
	messageType, err := domain.ParseMessageType(cmd.Type)
	if err != nil {
		return domain.Message{}, err
	}
	pair, err := domain.NewPair(from.ID, to.ID)
	if err != nil {
		return domain.Message{}, err
	}
	conversation, err := s.conversationRepository.GetOrCreateConversation(pair)
	if err != nil {
		return domain.Message{}, err
	}
	message, err := s.conversationRepository.AppendMessage(conversation, from.ID, cmd.Content, messageType)
	if err != nil {
		return domain.Message{}, err
	}
	s.log.DebugContext(ctx, "Message sent",
		"conversation_id", conversation.ID,
		"from", from.Handle,
		"to", to.Handle,
		"position", message.Position)
	return message, nil
}

// FetchConversation returns the pair's history with sender handles resolved now,
// so a renamed user shows its current handle in old messages.
func (s *ChatService) FetchConversation(ctx context.Context, from, to string) ([]domain.HistoryEntry, error) {
	fromUser, toUser, err := s.resolve(from, to)
	if err != nil {
		return nil, err
	}
	pair, err := domain.NewPair(fromUser.ID, toUser.ID)
	if err != nil {
		return nil, err
	}
	messages, err := s.conversationRepository.ListMessages(pair)
	if err != nil {
		return nil, err
	}

	handles := map[string]string{}
	entries := make([]domain.HistoryEntry, 0, len(messages))
	for _, message := range messages {
		handle, ok := handles[message.SenderID]
		if !ok {
			handle, err = s.senderHandle(ctx, message.SenderID)
			if err != nil {
				return nil, err
			}
			handles[message.SenderID] = handle
		}
		entries = append(entries, domain.HistoryEntry{
			SenderHandle: handle,
			Content:      message.Content,
			Type:         message.Type,
			CreatedAt:    message.CreatedAt,
		})
	}
	return entries, nil
}

func (s *ChatService) Roster(_ context.Context, handle string) ([]domain.RosterEntry, error) {
	user, err := s.userRepository.GetUserByHandle(handle)
	if err != nil {
		return nil, err
	}
	return s.roster.Build(user.Ref())
}

func (s *ChatService) SearchUsers(_ context.Context, query string) ([]domain.UserRef, error) {
	users, err := s.userRepository.SearchUsers(query)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.UserRef { return u.Ref() }), nil
}

// resolve looks both handles up and reports a single failure when either is unknown.
func (s *ChatService) resolve(fromHandle, toHandle string) (repositories.User, repositories.User, error) {
	from, fromErr := s.userRepository.GetUserByHandle(fromHandle)
	to, toErr := s.userRepository.GetUserByHandle(toHandle)
	for _, err := range []error{fromErr, toErr} {
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return repositories.User{}, repositories.User{}, err
		}
	}
	if fromErr != nil || toErr != nil {
		return repositories.User{}, repositories.User{}, errors.ErrUsersNotFound
	}
	return from, to, nil
}

func (s *ChatService) senderHandle(ctx context.Context, senderID string) (string, error) {
	user, err := s.userRepository.GetUserByID(senderID)
	if errors.Is(err, errors.ErrNotFound) {
		s.log.DebugContext(ctx, "Sender no longer in directory", "sender_id", senderID)
		return domain.UnknownSender, nil
	}
	if err != nil {
		return "", err
	}
	return user.Handle, nil
}
