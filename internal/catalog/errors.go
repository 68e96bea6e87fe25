package catalog

import "errors"

// Catalog error types.
var (
	ErrStoreClosed        = errors.New("catalog store is closed")
	ErrInvalidChannelName = errors.New("channel name must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrChannelExists      = errors.New("channel already declared")
)
