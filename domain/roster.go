package domain

import "time"

// RosterEntry is a derived view: one contact and the latest content exchanged with it.
// LatestMessage is nil when the pair never exchanged anything.
type RosterEntry struct {
	Contact       UserRef
	LatestMessage *string
}

// HistoryEntry is a message joined with its sender's current handle.
type HistoryEntry struct {
	SenderHandle string
	Content      string
	Type         MessageType
	CreatedAt    time.Time
}
