package types

import "errors"

// Protocol error types shared across decoding and validation.
var (
	ErrMalformedFrame   = errors.New("malformed wire frame")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidUsername  = errors.New("username must be 1-32 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidRoom      = errors.New("room must be a named channel or a derived private room id")
	ErrEmptyText        = errors.New("message text cannot be empty")
	ErrEmptyFile        = errors.New("file attachment requires a name and data")
	ErrInvalidReaction  = errors.New("reaction requires a message id and a symbol")
)
