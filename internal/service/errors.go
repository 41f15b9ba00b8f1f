package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCancelled          = errors.New("operation cancelled")
)

// NotFoundError reports a missing book, content or snapshot along with the
// identifiers that were requested.
type NotFoundError struct {
	Kind string
	IDs  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, strings.Join(e.IDs, "/"))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(kind string, ids ...string) error {
	return &NotFoundError{Kind: kind, IDs: ids}
}

// BadRequestError reports caller supplied data that violates an invariant.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string        { return "bad request: " + e.Reason }
func (e *BadRequestError) Is(target error) bool { return target == ErrBadRequest }

func badRequest(format string, args ...any) error {
	return &BadRequestError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failure of a persistence collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// cancelledError matches both ErrCancelled and the underlying context error.
type cancelledError struct {
	op  string
	err error
}

func (e *cancelledError) Error() string        { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *cancelledError) Unwrap() error        { return e.err }
func (e *cancelledError) Is(target error) bool { return target == ErrCancelled }

// storageErr classifies a collaborator error. Context errors become
// cancellations; everything else is a storage failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &cancelledError{op: op, err: err}
	}
	return &StorageError{Op: op, Err: err}
}

func formatContentID(id int64) string { return strconv.FormatInt(id, 10) }
