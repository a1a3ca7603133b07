// Package errors holds the failure taxonomy shared by the stores, the services and the transports.
// Every specific error wraps exactly one kind so callers can branch with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kinds.
var (
	ErrNotFound           = stderrors.New("not found")
	ErrInvalidArgument    = stderrors.New("invalid argument")
	ErrConflict           = stderrors.New("conflict")
	ErrStorageUnavailable = stderrors.New("storage unavailable")
	ErrUnauthenticated    = stderrors.New("unauthenticated")
)

var (
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrUsersNotFound        = newError(ErrNotFound, "user(s) not found")
	ErrConversationNotFound = newError(ErrNotFound, "conversation not found")
	ErrEmptyContent         = newError(ErrInvalidArgument, "message content is empty")
	ErrContentTooLong       = newError(ErrInvalidArgument, "message content is too long")
	ErrInvalidMessageType   = newError(ErrInvalidArgument, "message type must be text or emoji")
	ErrMessageTooLarge      = newError(ErrInvalidArgument, "message is too large to store")
	ErrSenderNotParticipant = newError(ErrInvalidArgument, "sender is not a participant of the conversation")
	ErrSelfConversation     = newError(ErrInvalidArgument, "a conversation needs two distinct users")
	ErrMissingFields        = newError(ErrInvalidArgument, "all fields are required")
	ErrUserAlreadyExists    = newError(ErrConflict, "email or username already exists")
	ErrInvalidCredentials   = newError(ErrUnauthenticated, "invalid credentials")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)

// Error is a failure with a client-safe message attached to a kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// InvalidArgument builds an ErrInvalidArgument failure with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return newError(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// StorageUnavailable wraps a persistence failure. The cause stays reachable with errors.Is
// but never reaches a client message, and its text is cut to one short line.
func StorageUnavailable(cause error) error {
	return &storageFailure{cause: cause}
}

// maxCauseLength bounds the cause text of a storage failure; badger may embed whole values in it.
const maxCauseLength = 200

type storageFailure struct {
	cause error
}

func (e *storageFailure) Error() string {
	return ErrStorageUnavailable.Error() + ": " + summarize(e.cause.Error())
}

func (e *storageFailure) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.cause}
}

func summarize(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if runes := []rune(msg); len(runes) > maxCauseLength {
		msg = string(runes[:maxCauseLength]) + "..."
	}
	return msg
}

var kinds = []error{
	ErrNotFound,
	ErrInvalidArgument,
	ErrConflict,
	ErrStorageUnavailable,
	ErrUnauthenticated,
}

// Kind returns the kind err belongs to, or nil when err is not part of the taxonomy.
func Kind(err error) error {
	for _, k := range kinds {
		if stderrors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Public returns the single message a client is allowed to see for err.
func Public(err error) string {
	kind := Kind(err)
	switch kind {
	case nil:
		return "internal error"
	case ErrStorageUnavailable:
		return ErrStorageUnavailable.Error()
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.msg
	}
	return kind.Error()
}

// Is, As and New re-export the standard helpers so callers importing this package
// under its own name don't need a second alias.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
