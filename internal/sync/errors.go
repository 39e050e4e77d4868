package sync

import "errors"

// Failure taxonomy for the sync pipeline. Every error leaving the
// codec, transport or store wraps one of these so the engine's
// top-level catch can classify with errors.Is.
var (
	// ErrTransport marks a remote call that did not succeed.
	ErrTransport = errors.New("transport failure")

	// ErrParse marks malformed backup text.
	ErrParse = errors.New("malformed backup")

	// ErrStore marks a local store read or transactional write failure.
	ErrStore = errors.New("store failure")

	// ErrValidation marks structurally invalid caller input.
	ErrValidation = errors.New("invalid input")
)
