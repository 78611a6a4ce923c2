package storage

import "errors"

var (
	ErrUnreachable       = errors.New("storage backend unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnknownPartition  = errors.New("partition schema not ensured")
	ErrUnknownBackend    = errors.New("unknown storage backend")
)
