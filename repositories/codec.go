package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored as protobuf wire messages so the layout stays forward compatible:
// unknown fields are skipped on read.
//
//	conversation { 1: id, 2: participant_low, 3: participant_high, 4: created_at (unix nano),
//	               6: message_count, 7: last_message_at (unix nano) }
//	message      { 1: id, 2: position, 3: sender_id, 4: content, 5: type, 6: created_at (unix nano) }
//
// Field 5 of conversation is reserved: messages live under their own keys.
//	user         { 1: id, 2: handle, 3: email, 4: password_hash, 5: created_at (unix nano) }

type conversationRecord struct {
	ID              uuid.UUID
	ParticipantLow  string
	ParticipantHigh string
	CreatedAt       time.Time
	MessageCount    uint64
	LastMessageAt   time.Time
}

type messageRecord struct {
	ID        uuid.UUID
	Position  uint64
	SenderID  string
	Content   string
	Type      string
	CreatedAt time.Time
}

type userRecord struct {
	ID           string
	Handle       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func marshalConversation(c conversationRecord) []byte {
	var b []byte
	b = appendString(b, 1, c.ID.String())
	b = appendString(b, 2, c.ParticipantLow)
	b = appendString(b, 3, c.ParticipantHigh)
	b = appendTime(b, 4, c.CreatedAt)
	if c.MessageCount > 0 {
		b = protowire.AppendTag(b, 6, protowire.VarintType)
		b = protowire.AppendVarint(b, c.MessageCount)
		b = appendTime(b, 7, c.LastMessageAt)
	}
	return b
}

func marshalMessage(m messageRecord) []byte {
	var b []byte
	b = appendString(b, 1, m.ID.String())
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Position)
	b = appendString(b, 3, m.SenderID)
	b = appendString(b, 4, m.Content)
	b = appendString(b, 5, m.Type)
	b = appendTime(b, 6, m.CreatedAt)
	return b
}

func marshalUser(u userRecord) []byte {
	var b []byte
	b = appendString(b, 1, u.ID)
	b = appendString(b, 2, u.Handle)
	b = appendString(b, 3, u.Email)
	b = appendString(b, 4, u.PasswordHash)
	b = appendTime(b, 5, u.CreatedAt)
	return b
}

func unmarshalConversation(b []byte) (conversationRecord, error) {
	var c conversationRecord
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeUUID(b, &c.ID)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &c.ParticipantLow)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &c.ParticipantHigh)
		case num == 4 && typ == protowire.VarintType:
			return consumeTime(b, &c.CreatedAt)
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c.MessageCount = v
			return n, nil
		case num == 7 && typ == protowire.VarintType:
			return consumeTime(b, &c.LastMessageAt)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return c, err
}

func unmarshalMessage(b []byte) (messageRecord, error) {
	var m messageRecord
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeUUID(b, &m.ID)
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Position = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &m.SenderID)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == 5 && typ == protowire.BytesType:
			return consumeString(b, &m.Type)
		case num == 6 && typ == protowire.VarintType:
			return consumeTime(b, &m.CreatedAt)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, err
}

func unmarshalUser(b []byte) (userRecord, error) {
	var u userRecord
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &u.ID)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &u.Handle)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &u.Email)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(b, &u.PasswordHash)
		case num == 5 && typ == protowire.VarintType:
			return consumeTime(b, &u.CreatedAt)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return u, err
}

// consumeFields walks a wire message, handing each field body to fn.
// fn returns the number of bytes it consumed, negative on a wire error.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

func consumeString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeString(b)
	*dst = v
	return n, nil
}

func consumeUUID(b []byte, dst *uuid.UUID) (int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return n, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return 0, err
	}
	*dst = id
	return n, nil
}

func consumeTime(b []byte, dst *time.Time) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	*dst = time.Unix(0, int64(v)).UTC()
	return n, nil
}
