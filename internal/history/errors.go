package history

import "errors"

var (
	// ErrStateNotFound is returned by a backend that has nothing stored yet.
	ErrStateNotFound = errors.New("history state not found")

	// ErrPersistenceRead indicates stored state could not be read or parsed.
	ErrPersistenceRead = errors.New("history read failed")

	// ErrPersistenceWrite indicates the durable write failed. The in-memory
	// history is still updated.
	ErrPersistenceWrite = errors.New("history write failed")
)
