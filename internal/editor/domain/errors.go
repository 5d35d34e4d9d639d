package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("editor session not found")
	ErrSessionClosed   = errors.New("editor session closed")
	ErrInvalidSnapshot = errors.New("invalid editor snapshot")
)
