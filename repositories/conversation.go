//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"bytes"
	"fmt"
	"log/slog"
	"pairchat/domain"
	"pairchat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/moby/locker"
	"github.com/samber/lo"
)

// IConversationRepository is the conversation store: one record per unordered pair,
// each holding its own ordered message log.
type IConversationRepository interface {
	FindConversation(pair domain.Pair) (domain.Conversation, bool, error)
	GetOrCreateConversation(pair domain.Pair) (domain.Conversation, error)
	AppendMessage(conversation domain.Conversation, senderID, content string, messageType domain.MessageType) (domain.Message, error)
	ListMessages(pair domain.Pair) ([]domain.Message, error)
}

// A conversation is a header at "conv:{low_id}:{high_id}" followed by one key per message,
// "conv:{low_id}:{high_id}:msg:{position}", position zero padded so key order is log order.
const (
	conversationPrefix = "conv:"
	messageInfix       = ":msg:"
)

type ConversationRepository struct {
	db           *badger.DB
	log          *slog.Logger
	locks        *locker.Locker
	now          func() time.Time
	maxValueSize int64
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:           db,
		log:          log,
		locks:        locker.New(),
		now:          time.Now,
		maxValueSize: maxValueSize(db.Opts()),
	}
}

// maxValueSize is the largest value badger accepts with these options.
// In-memory stores cannot spill to the value log, so the value threshold is the cap.
func maxValueSize(opts badger.Options) int64 {
	if opts.InMemory && opts.ValueThreshold < opts.ValueLogFileSize {
		return opts.ValueThreshold
	}
	return opts.ValueLogFileSize
}

func conversationKey(pair domain.Pair) []byte {
	return []byte(conversationPrefix + pair.Key())
}

func messagePrefix(pair domain.Pair) []byte {
	return []byte(conversationPrefix + pair.Key() + messageInfix)
}

func messageKey(pair domain.Pair, position uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", messagePrefix(pair), position))
}

func isMessageKey(key []byte) bool {
	return bytes.Contains(key[len(conversationPrefix):], []byte(messageInfix))
}

// FindConversation looks the pair up by its normalized key.
func (r *ConversationRepository) FindConversation(pair domain.Pair) (domain.Conversation, bool, error) {
	if pair.IsZero() {
		return domain.Conversation{}, false, errors.InvalidArgument("conversation pair is empty")
	}
	var (
		record   conversationRecord
		messages []messageRecord
		found    bool
	)
	err := view(r.db, func(txn *badger.Txn) error {
		var err error
		record, found, err = getConversation(txn, conversationKey(pair))
		if err != nil || !found {
			return err
		}
		messages, err = scanMessages(txn, pair)
		return err
	})
	if err != nil || !found {
		return domain.Conversation{}, false, err
	}
	conversation, err := toConversation(record, messages)
	return conversation, err == nil, err
}

// GetOrCreateConversation returns the pair's conversation, creating an empty one the first time.
// Creation is serialized per pair in process, and badger rejects the commit of a concurrent
// creator that read the key before it was written, so the replay re-reads the winner's record.
func (r *ConversationRepository) GetOrCreateConversation(pair domain.Pair) (domain.Conversation, error) {
	if pair.IsZero() {
		return domain.Conversation{}, errors.InvalidArgument("conversation pair is empty")
	}
	key := conversationKey(pair)
	r.locks.Lock(string(key))
	defer r.locks.Unlock(string(key))

	var (
		record  conversationRecord
		created bool
	)
	err := update(r.db, r.log, func(txn *badger.Txn) error {
		existing, found, err := getConversation(txn, key)
		if err != nil {
			return err
		}
		if found {
			record, created = existing, false
			return nil
		}
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		low, high := pair.Members()
		record = conversationRecord{
			ID:              id,
			ParticipantLow:  low,
			ParticipantHigh: high,
			CreatedAt:       r.now().UTC(),
		}
		created = true
		return txn.Set(key, marshalConversation(record))
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	if created {
		r.log.Info("Conversation created", "conversation_id", record.ID, "pair", pair.Key())
		return toConversation(record, nil)
	}
	return r.loadMessages(record, pair)
}

func (r *ConversationRepository) loadMessages(record conversationRecord, pair domain.Pair) (domain.Conversation, error) {
	var messages []messageRecord
	err := view(r.db, func(txn *badger.Txn) error {
		var err error
		messages, err = scanMessages(txn, pair)
		return err
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(record, messages)
}

// AppendMessage adds one message at the end of the conversation's log.
// The timestamp never goes below the previous message's, so log order and time order agree.
func (r *ConversationRepository) AppendMessage(conversation domain.Conversation, senderID, content string,
	messageType domain.MessageType) (domain.Message, error) {
	if !conversation.Pair.Contains(senderID) {
		return domain.Message{}, errors.ErrSenderNotParticipant
	}
	if err := domain.ValidateContent(content, 0); err != nil {
		return domain.Message{}, err
	}
	messageType, err := domain.ParseMessageType(string(messageType))
	if err != nil {
		return domain.Message{}, err
	}

	key := conversationKey(conversation.Pair)
	r.locks.Lock(string(key))
	defer r.locks.Unlock(string(key))

	var appended messageRecord
	err = update(r.db, r.log, func(txn *badger.Txn) error {
		record, found, err := getConversation(txn, key)
		if err != nil {
			return err
		}
		if !found || record.ID != conversation.ID {
			return errors.ErrConversationNotFound
		}
		at := r.now().UTC()
		if record.MessageCount > 0 && at.Before(record.LastMessageAt) {
			at = record.LastMessageAt
		}
		appended = messageRecord{
			ID:        uuid.New(),
			Position:  record.MessageCount + 1,
			SenderID:  senderID,
			Content:   content,
			Type:      string(messageType),
			CreatedAt: at,
		}
		value := marshalMessage(appended)
		if int64(len(value)) > r.maxValueSize {
			return errors.ErrMessageTooLarge
		}
		if err := txn.Set(messageKey(conversation.Pair, appended.Position), value); err != nil {
			return err
		}
		record.MessageCount, record.LastMessageAt = appended.Position, at
		return txn.Set(key, marshalConversation(record))
	})
	if err != nil {
		return domain.Message{}, err
	}
	r.log.Debug("Message appended",
		"conversation_id", conversation.ID,
		"position", appended.Position,
		"sender_id", senderID)
	return toMessage(appended), nil
}

// ListMessages reads the whole log of the pair, empty when they never talked.
func (r *ConversationRepository) ListMessages(pair domain.Pair) ([]domain.Message, error) {
	conversation, found, err := r.FindConversation(pair)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Message{}, nil
	}
	return conversation.Messages, nil
}

// ListConversations walks every stored conversation in key order, for offline inspection.
func (r *ConversationRepository) ListConversations() ([]domain.Conversation, error) {
	conversations := []domain.Conversation{}
	err := view(r.db, func(txn *badger.Txn) error {
		var headers []conversationRecord
		err := scanPrefix(txn, []byte(conversationPrefix), func(key, v []byte) error {
			if isMessageKey(key) {
				return nil
			}
			record, err := unmarshalConversation(v)
			if err != nil {
				return err
			}
			headers = append(headers, record)
			return nil
		})
		if err != nil {
			return err
		}
		for _, record := range headers {
			pair, err := recordPair(record)
			if err != nil {
				return err
			}
			messages, err := scanMessages(txn, pair)
			if err != nil {
				return err
			}
			conversation, err := toConversation(record, messages)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// scanMessages reads the pair's log in position order.
func scanMessages(txn *badger.Txn, pair domain.Pair) ([]messageRecord, error) {
	var messages []messageRecord
	err := scanPrefix(txn, messagePrefix(pair), func(_, v []byte) error {
		message, err := unmarshalMessage(v)
		if err != nil {
			return err
		}
		messages = append(messages, message)
		return nil
	})
	return messages, err
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = defaultPrefetches
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if err := item.Value(func(v []byte) error { return fn(item.Key(), v) }); err != nil {
			return err
		}
	}
	return nil
}

func getConversation(txn *badger.Txn, key []byte) (conversationRecord, bool, error) {
	v, err := getValue(txn, key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return conversationRecord{}, false, nil
	}
	if err != nil {
		return conversationRecord{}, false, err
	}
	record, err := unmarshalConversation(v)
	if err != nil {
		return conversationRecord{}, false, err
	}
	return record, true, nil
}

func recordPair(record conversationRecord) (domain.Pair, error) {
	pair, err := domain.NewPair(record.ParticipantLow, record.ParticipantHigh)
	if err != nil {
		return domain.Pair{}, errors.StorageUnavailable(
			fmt.Errorf("corrupt conversation record %s: %v", record.ID, err))
	}
	return pair, nil
}

func toConversation(record conversationRecord, messages []messageRecord) (domain.Conversation, error) {
	pair, err := recordPair(record)
	if err != nil {
		return domain.Conversation{}, err
	}
	return domain.Conversation{
		ID:        record.ID,
		Pair:      pair,
		CreatedAt: record.CreatedAt,
		Messages: lo.Map(messages, func(item messageRecord, _ int) domain.Message {
			return toMessage(item)
		}),
	}, nil
}

func toMessage(record messageRecord) domain.Message {
	return domain.Message{
		ID:        record.ID,
		Position:  record.Position,
		SenderID:  record.SenderID,
		Content:   record.Content,
		Type:      domain.MessageType(record.Type),
		CreatedAt: record.CreatedAt,
	}
}
