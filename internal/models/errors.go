package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
)
