package router

import "errors"

// Router-specific error types. These are logged server-side only; no
// error ever flows back to the originating client.
var (
	ErrEventRateExceeded = errors.New("event rate limit exceeded")
)
