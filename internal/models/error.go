package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("resource conflict")

	// Guard decisions
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidLoginInput = errors.New("invalid login input")
)
