package models

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidScore = errors.New("score must be between 1 and 5")
	ErrInvalidKind  = errors.New("invalid item kind")
)
