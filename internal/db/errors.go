package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrUnavailable   = errors.New("db: backend unavailable")
)

// Op constants name engine endpoints and Redis commands for error context.
const (
	OpPing          = "ping"
	OpSearch        = "search"
	OpBulk          = "bulk"
	OpDeleteByQuery = "delete_by_query"
	OpIndexExists   = "indices.exists"
	OpCreateIndex   = "indices.create"
	OpPutMapping    = "indices.put_mapping"
	OpDeleteIndex   = "indices.delete"
	OpHDel          = "HDEL"
	OpHGetAll       = "HGETALL"
	OpHSet          = "HSET"
	OpScan          = "SCAN"
	OpSAdd          = "SADD"
	OpSMembers      = "SMEMBERS"
	OpSRem          = "SREM"
	OpSCard         = "SCARD"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ResponseError is an error reply from the search engine.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("engine status %d", e.Status)
	}
	return fmt.Sprintf("engine status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Is maps engine error types onto sentinels.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrIndexNotFound:
		return e.Type == "index_not_found_exception"
	case ErrIndexExists:
		return e.Type == "resource_already_exists_exception"
	case ErrUnavailable:
		return e.Status >= 500
	}
	return false
}
