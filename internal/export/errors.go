package export

import "errors"

// Error taxonomy for a single export. All of these are per-file: the batch
// worker folds them into its failure count and keeps going.
var (
	// ErrInvalidRequest means the request does not carry exactly one byte
	// source. This is a programmer error and fails immediately.
	ErrInvalidRequest = errors.New("export request must carry exactly one source")

	// ErrNoSource means neither the local path nor the remote ref resolved
	// to a readable stream.
	ErrNoSource = errors.New("no readable export source")

	// ErrNoAvailableName means the collision rename loop exhausted its
	// attempt budget without reserving a destination slot.
	ErrNoAvailableName = errors.New("no available destination name")

	// ErrIOFailure means the streaming copy was interrupted. Partially
	// written bytes may remain at the destination; they are not rolled back.
	ErrIOFailure = errors.New("i/o failure during export copy")
)
