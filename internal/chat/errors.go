package chat

import "errors"

var (
	// ErrNotFound means the referenced conversation or message does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotParticipant means the caller does not belong to the conversation
	ErrNotParticipant = errors.New("not a conversation participant")

	// ErrNotSender means the caller tried to modify someone else's message
	ErrNotSender = errors.New("only the sender can modify a message")

	// ErrStorage wraps failures of the underlying persistence layer. The
	// service never retries; re-sending is the client's call.
	ErrStorage = errors.New("storage failure")
)
