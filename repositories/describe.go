package repositories

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a human readable summary of one stored key, used by the inspection tools.
type Entry struct {
	Key    string
	Kind   string
	ID     string
	At     time.Time
	Detail string
}

// DescribeEntry decodes a raw badger key/value pair of this store.
// Keys it does not own come back as RAW with their size.
func DescribeEntry(key string, value []byte) (Entry, error) {
	entry := Entry{Key: key, Kind: "RAW", Detail: fmt.Sprintf("Size: %d bytes", len(value))}
	switch {
	case strings.HasPrefix(key, conversationPrefix) && isMessageKey([]byte(key)):
		record, err := unmarshalMessage(value)
		if err != nil {
			return entry, err
		}
		entry.Kind = "MESSAGE"
		entry.ID = record.ID.String()
		entry.At = record.CreatedAt
		entry.Detail = fmt.Sprintf("#%d %s: %q", record.Position, record.Type, record.Content)
	case strings.HasPrefix(key, conversationPrefix):
		record, err := unmarshalConversation(value)
		if err != nil {
			return entry, err
		}
		entry.Kind = "CONVERSATION"
		entry.ID = record.ID.String()
		entry.At = record.CreatedAt
		entry.Detail = fmt.Sprintf("%d message(s)", record.MessageCount)
	case strings.HasPrefix(key, userPrefix):
		record, err := unmarshalUser(value)
		if err != nil {
			return entry, err
		}
		entry.Kind = "USER"
		entry.ID = record.ID
		entry.At = record.CreatedAt
		entry.Detail = record.Handle
	case strings.HasPrefix(key, userHandlePrefix), strings.HasPrefix(key, userEmailPrefix):
		entry.Kind = "INDEX"
		entry.ID = string(value)
		entry.Detail = "-> " + userPrefix + string(value)
	}
	return entry, nil
}
