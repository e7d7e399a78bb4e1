package domain

import "errors"

var (
	ErrDuplicateProfile = errors.New("profile with the requested identifiers already exists")
	ErrInvalidData      = errors.New("invalid data provided for profile operations")
	ErrProfileNotFound  = errors.New("profile not found")
	// ErrConflict signals a stale etag precondition on update.
	ErrConflict = errors.New("profile etag does not match the current version")
)
