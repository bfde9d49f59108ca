package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	// ErrUpstreamData marks failures of the stores this engine reads
	// from but does not own.
	ErrUpstreamData = errors.New("upstream data unavailable")
)
