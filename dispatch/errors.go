package dispatch

import "errors"

// ErrGroupNotFound is returned when a dispatch references an unknown group
// id. It is a configuration error: nothing was invoked.
var ErrGroupNotFound = errors.New("dispatch group not found")

// ErrInvalidGroup is returned by CreateGroup for group definitions missing an
// id or carrying an unknown mode.
var ErrInvalidGroup = errors.New("invalid dispatch group")
