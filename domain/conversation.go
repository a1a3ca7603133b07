// Package domain contains core concepts of the chat system.
// This file defines Conversations and the unordered pair they are keyed by.
package domain

import (
	"pairchat/errors"
	"time"

	"github.com/google/uuid"
)

// Pair is an unordered pair of distinct user ids.
// It is always stored with the lower id first so {A,B} and {B,A} are the same value.
type Pair struct {
	low  string
	high string
}

// NewPair normalizes two user ids into a Pair.
func NewPair(a, b string) (Pair, error) {
	if a == "" || b == "" {
		return Pair{}, errors.InvalidArgument("a conversation needs two user ids")
	}
	if a == b {
		return Pair{}, errors.ErrSelfConversation
	}
	if b < a {
		a, b = b, a
	}
	return Pair{low: a, high: b}, nil
}

// Key is the storage key of the pair, identical for both orderings.
func (p Pair) Key() string {
	return p.low + ":" + p.high
}

// Members returns both ids, lower first.
func (p Pair) Members() (string, string) {
	return p.low, p.high
}

// Contains reports whether id is one of the two participants.
func (p Pair) Contains(id string) bool {
	return id != "" && (id == p.low || id == p.high)
}

// Other returns the participant that is not id.
func (p Pair) Other(id string) string {
	if id == p.low {
		return p.high
	}
	return p.low
}

// IsZero reports whether p is the zero Pair, which no NewPair call returns.
func (p Pair) IsZero() bool {
	return p.low == "" && p.high == ""
}

// Conversation is the single record holding everything ever exchanged by one pair.
// Messages are kept in append order.
type Conversation struct {
	ID        uuid.UUID
	Pair      Pair
	CreatedAt time.Time
	Messages  []Message
}

// LatestMessage returns the highest-position message, if any.
func (c Conversation) LatestMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
