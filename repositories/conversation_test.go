package repositories

import (
	"bytes"
	"fmt"
	"log/slog"
	"pairchat/domain"
	"pairchat/errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestPair(t *testing.T) (string, string, domain.Pair) {
	t.Helper()
	alice, bob := uuid.NewString(), uuid.NewString()
	pair, err := domain.NewPair(alice, bob)
	require.NoError(t, err)
	return alice, bob, pair
}

func Test_Find_Conversation_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	alice, bob, _ := newTestPair(t)

	// Given alice writes to bob first
	ab, err := domain.NewPair(alice, bob)
	req.NoError(err)
	conversation, err := repository.GetOrCreateConversation(ab)
	req.NoError(err)
	_, err = repository.AppendMessage(conversation, alice, "hey", domain.MessageTypeText)
	req.NoError(err)

	// When bob looks the conversation up from his side
	ba, err := domain.NewPair(bob, alice)
	req.NoError(err)
	fromBob, found, err := repository.FindConversation(ba)

	// Then both sides see the same record
	req.NoError(err)
	req.True(found)
	fromAlice, found, err := repository.FindConversation(ab)
	req.NoError(err)
	req.True(found)
	req.Equal(fromAlice, fromBob)
	req.Equal(conversation.ID, fromBob.ID)
}

func Test_Find_Conversation_Absent(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	_, _, pair := newTestPair(t)

	_, found, err := repository.FindConversation(pair)

	req.NoError(err)
	req.False(found)

	messages, err := repository.ListMessages(pair)
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)

	_, _, err = repository.FindConversation(domain.Pair{})
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func Test_Get_Or_Create_Conversation_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, bob, pair := newTestPair(t)

	first, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)
	reversed, err := domain.NewPair(bob, alice)
	req.NoError(err)
	second, err := repository.GetOrCreateConversation(reversed)
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Equal(first.Pair, second.Pair)
	req.True(first.CreatedAt.Equal(second.CreatedAt))
	req.Empty(second.Messages)
}

func Test_Concurrent_First_Contact_Creates_One_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, bob, _ := newTestPair(t)

	const senders = 32
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, senders)
	errs := make([]error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := alice, bob
			if i%2 == 1 {
				from, to = bob, alice
			}
			pair, err := domain.NewPair(from, to)
			if err != nil {
				errs[i] = err
				return
			}
			conversation, err := repository.GetOrCreateConversation(pair)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conversation.ID
			_, errs[i] = repository.AppendMessage(conversation, from, fmt.Sprintf("message %d", i), domain.MessageTypeText)
		}(i)
	}
	wg.Wait()

	for i := 0; i < senders; i++ {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i])
	}
	ab, err := domain.NewPair(alice, bob)
	req.NoError(err)
	messages, err := repository.ListMessages(ab)
	req.NoError(err)
	req.Len(messages, senders)
}

func Test_Concurrent_Appends_Keep_A_Total_Order(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, bob, pair := newTestPair(t)
	conversation, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)

	const appends = 50
	var wg sync.WaitGroup
	errs := make([]error, appends)
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := alice
			if i%2 == 0 {
				sender = bob
			}
			_, errs[i] = repository.AppendMessage(conversation, sender, fmt.Sprintf("%d", i), domain.MessageTypeText)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		req.NoError(err)
	}

	messages, err := repository.ListMessages(pair)
	req.NoError(err)
	req.Len(messages, appends)

	seen := make(map[string]struct{}, appends)
	for i, message := range messages {
		req.Equal(uint64(i+1), message.Position)
		seen[message.Content] = struct{}{}
		if i > 0 {
			req.False(message.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}
	req.Len(seen, appends)
}

func Test_Append_Message_Keeps_Timestamps_Non_Decreasing(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, bob, pair := newTestPair(t)
	conversation, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)

	// Given a clock that jumps backwards between two appends
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{at, at.Add(-time.Minute)}
	repository.now = func() time.Time {
		now := clock[0]
		clock = clock[1:]
		return now
	}

	first, err := repository.AppendMessage(conversation, alice, "hey", domain.MessageTypeText)
	req.NoError(err)
	second, err := repository.AppendMessage(conversation, bob, "yo", domain.MessageTypeEmoji)
	req.NoError(err)

	req.True(first.CreatedAt.Equal(at))
	req.True(second.CreatedAt.Equal(at))
	req.Equal(uint64(1), first.Position)
	req.Equal(uint64(2), second.Position)
	req.Equal(domain.MessageTypeEmoji, second.Type)
}

func Test_Append_Message_Preconditions(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, _, pair := newTestPair(t)
	conversation, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)

	_, err = repository.AppendMessage(conversation, uuid.NewString(), "hey", domain.MessageTypeText)
	req.ErrorIs(err, errors.ErrSenderNotParticipant)

	_, err = repository.AppendMessage(conversation, alice, "   ", domain.MessageTypeText)
	req.ErrorIs(err, errors.ErrEmptyContent)

	_, err = repository.AppendMessage(conversation, alice, "hey", "image")
	req.ErrorIs(err, errors.ErrInvalidArgument)

	message, err := repository.AppendMessage(conversation, alice, "hey", "")
	req.NoError(err)
	req.Equal(domain.MessageTypeText, message.Type)

	messages, err := repository.ListMessages(pair)
	req.NoError(err)
	req.Len(messages, 1)
}

func Test_Append_Message_To_Unknown_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, _, pair := newTestPair(t)

	_, err := repository.AppendMessage(domain.Conversation{ID: uuid.New(), Pair: pair}, alice, "hey", domain.MessageTypeText)

	req.ErrorIs(err, errors.ErrNotFound)
	_, found, err := repository.FindConversation(pair)
	req.NoError(err)
	req.False(found)
}

func Test_Closed_Database_Is_Storage_Unavailable(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository := NewConversationRepository(db, slog.Default())
	_, _, pair := newTestPair(t)
	req.NoError(db.Close())

	_, err = repository.GetOrCreateConversation(pair)

	req.ErrorIs(err, errors.ErrStorageUnavailable)
}

func Test_List_Conversations(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, bob, ab := newTestPair(t)
	carol := uuid.NewString()
	ac, err := domain.NewPair(carol, alice)
	req.NoError(err)

	empty, err := repository.ListConversations()
	req.NoError(err)
	req.NotNil(empty)
	req.Empty(empty)

	first, err := repository.GetOrCreateConversation(ab)
	req.NoError(err)
	_, err = repository.AppendMessage(first, bob, "hey", domain.MessageTypeText)
	req.NoError(err)
	_, err = repository.GetOrCreateConversation(ac)
	req.NoError(err)

	conversations, err := repository.ListConversations()
	req.NoError(err)
	req.Len(conversations, 2)
	byKey := map[string]domain.Conversation{}
	for _, conversation := range conversations {
		byKey[conversation.Pair.Key()] = conversation
	}
	req.Len(byKey[ab.Key()].Messages, 1)
	req.Empty(byKey[ac.Key()].Messages)
}

func Test_Conversation_Grows_Past_The_Value_Size_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewConversationRepository(db, slog.Default())
	alice, bob, pair := newTestPair(t)
	conversation, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)

	// 400 messages of 4096 emoji add up to several MiB, far above the in-memory value cap
	content := strings.Repeat("🙂", 4096)
	const appends = 400
	for i := 0; i < appends; i++ {
		sender := alice
		if i%2 == 1 {
			sender = bob
		}
		_, err := repository.AppendMessage(conversation, sender, content, domain.MessageTypeEmoji)
		req.NoError(err, "append %d", i+1)
	}

	messages, err := repository.ListMessages(pair)
	req.NoError(err)
	req.Len(messages, appends)
	req.Equal(uint64(appends), messages[appends-1].Position)

	// The header stays small: each message lives under its own key
	err = db.View(func(txn *badger.Txn) error {
		header, err := txn.Get(conversationKey(pair))
		if err != nil {
			return err
		}
		req.Less(header.ValueSize(), int64(256))
		_, err = txn.Get(messageKey(pair, appends))
		return err
	})
	req.NoError(err)
}

func Test_Append_Message_Too_Large_To_Store(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t), slog.Default())
	alice, _, pair := newTestPair(t)
	conversation, err := repository.GetOrCreateConversation(pair)
	req.NoError(err)

	_, err = repository.AppendMessage(conversation, alice, strings.Repeat("a", 2<<20), domain.MessageTypeText)

	req.ErrorIs(err, errors.ErrMessageTooLarge)
	req.ErrorIs(err, errors.ErrInvalidArgument)
	messages, err := repository.ListMessages(pair)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Message_Keys_Follow_Log_Order(t *testing.T) {
	req := require.New(t)
	_, _, pair := newTestPair(t)

	req.True(bytes.Compare(messageKey(pair, 9), messageKey(pair, 10)) < 0)
	req.True(bytes.HasPrefix(messageKey(pair, 1), conversationKey(pair)))
	req.True(isMessageKey(messageKey(pair, 1)))
	req.False(isMessageKey(conversationKey(pair)))
}
