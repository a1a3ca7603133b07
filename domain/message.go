// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"pairchat/errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeEmoji MessageType = "emoji"
)

// ParseMessageType maps raw input to a MessageType, an empty value meaning text.
func ParseMessageType(raw string) (MessageType, error) {
	switch MessageType(raw) {
	case "", MessageTypeText:
		return MessageTypeText, nil
	case MessageTypeEmoji:
		return MessageTypeEmoji, nil
	}
	return "", errors.ErrInvalidMessageType
}

// Message represents an immutable entry of a conversation log.
// Position starts at 1 and grows by one per append.
type Message struct {
	ID        uuid.UUID
	Position  uint64
	SenderID  string
	Content   string
	Type      MessageType
	CreatedAt time.Time
}

// ValidateContent rejects blank content and content longer than maxLength runes.
// A maxLength of zero disables the length check.
func ValidateContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrEmptyContent
	}
	if maxLength > 0 && len([]rune(content)) > maxLength {
		return errors.ErrContentTooLong
	}
	return nil
}
