package httpclient

import "errors"

// ErrContentTooLarge is returned when a body exceeds MaxContentSize.
// A truncated page would diff as a change, so it is never returned partially.
var ErrContentTooLarge = errors.New("response body exceeds max content size")
