package e2e

import (
	"context"
	"testing"

	"pairchat/errors"
	"pairchat/infrastructure/grpc/client"
	"pairchat/infrastructure/grpc/wire"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testConversationSuite struct {
	BaseGrpcSuite
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, &testConversationSuite{})
}

func (s *testConversationSuite) TestFirstContactFlow() {
	// Unique handles so the scenario can run against a long-lived server
	suffix := uuid.NewString()[:8]
	alice, bob := "alice-"+suffix, "bob-"+suffix

	s.Run("Step 1: Register both users", func() {
		s.WithServer("Register", func(ctx context.Context, c *client.PairChatClient) {
			for _, handle := range []string{alice, bob} {
				_, err := c.Register(ctx, handle, handle+"@e2e.pairchat.dev", "correct horse")
				s.Require().NoError(err)
			}
		})
	})

	s.Run("Step 2: No history before the first message", func() {
		s.WithServer("Empty history", func(ctx context.Context, c *client.PairChatClient) {
			messages, err := c.FetchConversation(ctx, bob, alice)
			s.Require().NoError(err)
			s.Require().Empty(messages)
		})
	})

	s.Run("Step 3: Exchange messages in both directions", func() {
		s.WithServer("Send", func(ctx context.Context, c *client.PairChatClient) {
			_, err := c.SendMessage(ctx, wire.SendMessageRequest{From: alice, To: bob, Content: "hey"})
			s.Require().NoError(err)
			_, err = c.SendMessage(ctx, wire.SendMessageRequest{From: bob, To: alice, Content: "👋", Type: "emoji"})
			s.Require().NoError(err)
		})
	})

	s.Run("Step 4: Both sides read the same ordered history", func() {
		s.WithServer("History", func(ctx context.Context, c *client.PairChatClient) {
			fromAlice, err := c.FetchConversation(ctx, alice, bob)
			s.Require().NoError(err)
			fromBob, err := c.FetchConversation(ctx, bob, alice)
			s.Require().NoError(err)
			s.Require().Equal(fromAlice, fromBob)
			s.Require().Len(fromAlice, 2)
			s.Require().Equal(alice, fromAlice[0].Sender)
			s.Require().Equal("emoji", fromAlice[1].Type)
		})
	})

	s.Run("Step 5: Roster shows the latest content", func() {
		s.WithServer("Roster", func(ctx context.Context, c *client.PairChatClient) {
			entries, err := c.Roster(ctx, alice)
			s.Require().NoError(err)
			for _, entry := range entries {
				if entry.Contact.Handle == bob {
					s.Require().NotNil(entry.LatestMessage)
					s.Require().Equal("👋", *entry.LatestMessage)
					return
				}
			}
			s.Fail("bob missing from alice's roster")
		})
	})

	s.Run("Step 6: Unknown recipient writes nothing", func() {
		s.WithServer("Unknown recipient", func(ctx context.Context, c *client.PairChatClient) {
			_, err := c.SendMessage(ctx, wire.SendMessageRequest{From: alice, To: "ghost-" + suffix, Content: "hello?"})
			s.Require().ErrorIs(err, errors.ErrNotFound)
		})
	})
}
