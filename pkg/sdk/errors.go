package searchbridge

import "github.com/kailas-cloud/searchbridge/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrIndexNotFound     = domain.ErrIndexNotFound
	ErrUnknownClass      = domain.ErrUnknownClass
	ErrUnknownField      = domain.ErrUnknownField
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrWriteFailed       = domain.ErrWriteFailed
	ErrEngineUnavailable = domain.ErrEngineUnavailable
)
