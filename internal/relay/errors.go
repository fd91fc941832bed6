package relay

import "errors"

var (
	ErrInvalidIdentity       = errors.New("invalid display name")
	ErrInvalidRoom           = errors.New("invalid room")
	ErrEmptyMessage          = errors.New("message is empty")
	ErrMessageTooLong        = errors.New("message too long")
	ErrRecipientNotConnected = errors.New("recipient not connected")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrNotIdentified         = errors.New("identify before sending events")
	ErrInternal              = errors.New("server error")

	ErrAlreadyIdentified = errors.New("identity already established")
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrNotFound          = errors.New("connection not found")
	ErrPeerQueueFull     = errors.New("peer queue is full")
)
