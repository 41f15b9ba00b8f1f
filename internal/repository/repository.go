// Package repository contains data access layer abstractions for books, their
// snapshot history, votes and the asset delete queue.
// Implementations live in subpackages (postgres, redis, memory) inside this directory.
// Repositories hold no business logic: they persist and load, nothing more.
package repository

import "errors"

// ErrNotFound is returned by repositories when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// PageQuery holds start/count pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}
