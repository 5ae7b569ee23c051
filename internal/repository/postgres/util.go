package postgres

import "errors"

// ErrNotFound is the storage-agnostic miss every repo returns; callers
// branch on it with errors.Is instead of inspecting pgx internals.
var ErrNotFound = errors.New("not found")
