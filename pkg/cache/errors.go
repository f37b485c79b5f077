package cache

import "errors"

// ErrClosed is returned by a MemoryCache used after Close.
var ErrClosed = errors.New("cache closed")
