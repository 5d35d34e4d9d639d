package domain

import "errors"

var (
	ErrImageNotFound = errors.New("image not found")
	ErrImageExists   = errors.New("image already exists")
)
