// Package domain contains core concepts of the chat system.
// This file defines the participant reference borrowed from the user directory.
// No runtime, network, or UI logic should be added here.
package domain

// UserRef identifies a user issued by the directory.
// The core only compares and hashes it, it never owns the identity behind it.
type UserRef struct {
	ID     string
	Handle string
}

// UnknownSender is rendered in place of a handle the directory can no longer resolve.
const UnknownSender = "Unknown"
