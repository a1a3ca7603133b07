package services

import (
	"pairchat/domain"
	"pairchat/repositories"

	"github.com/samber/lo"
)

// RosterSource derives the contact list of a user.
// The scan below costs one conversation lookup per directory entry; an indexed
// "most recent conversations" view can replace it behind this interface.
type RosterSource interface {
	Build(forUser domain.UserRef) ([]domain.RosterEntry, error)
}

type ScanRoster struct {
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
}

func NewScanRoster(users repositories.IUserRepository, conversations repositories.IConversationRepository) ScanRoster {
	return ScanRoster{users: users, conversations: conversations}
}

// Build returns one entry per other user, in directory order.
func (s ScanRoster) Build(forUser domain.UserRef) ([]domain.RosterEntry, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return nil, err
	}
	others := lo.Filter(users, func(u repositories.User, _ int) bool { return u.ID != forUser.ID })

	entries := make([]domain.RosterEntry, 0, len(others))
	for _, other := range others {
		entry := domain.RosterEntry{Contact: other.Ref()}
		pair, err := domain.NewPair(forUser.ID, other.ID)
		if err != nil {
			return nil, err
		}
		conversation, found, err := s.conversations.FindConversation(pair)
		if err != nil {
			return nil, err
		}
		if found {
			if latest, ok := conversation.LatestMessage(); ok {
				entry.LatestMessage = lo.ToPtr(latest.Content)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
