package host

import "errors"

// ErrClosed is returned by Call after Close.
var ErrClosed = errors.New("host loop closed")
