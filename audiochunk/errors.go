package audiochunk

import "errors"

// ErrChunkerClosed is returned by Write after Close has been called.
var ErrChunkerClosed = errors.New("audiochunk: write after close")
