// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsbridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FS is the filesystem collaborator. Paths are absolute host paths.
// Implementations must be safe for concurrent use across distinct
// paths.
type FS interface {
	// ReadFile returns the full contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces path with data atomically, creating parent
	// directories as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Exists reports whether path exists. A missing file is not an
	// error.
	Exists(ctx context.Context, path string) (bool, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(ctx context.Context, path string) error

	// Copy duplicates source to destination byte for byte, creating
	// destination's parent directories. An existing destination is
	// replaced.
	Copy(ctx context.Context, source, destination string) error

	// Move renames source to destination, creating destination's
	// parent directories.
	Move(ctx context.Context, source, destination string) error

	// Remove deletes path. Removing a missing file fails with
	// CodeNotFound so callers can decide whether absence matters.
	Remove(ctx context.Context, path string) error

	// Hash returns the hex content hash of the file at path.
	Hash(ctx context.Context, path string) (string, error)
}

// Code classifies a filesystem failure.
type Code string

const (
	CodeNotFound   Code = "not_found"
	CodePermission Code = "permission"
	CodeExists     Code = "exists"
	CodeCanceled   Code = "canceled"
	CodeIO         Code = "io"
)

// Error is the structured {code, message} failure returned by every
// FS operation.
type Error struct {
	Code    Code
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an FS error with CodeNotFound.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// CodeOf returns the FS error code carried by err, or "" when err is
// not an *Error.
func CodeOf(err error) Code {
	var fsError *Error
	if errors.As(err, &fsError) {
		return fsError.Code
	}
	return ""
}

// newError classifies an os-level error into an *Error.
func newError(op, path string, err error) *Error {
	code := CodeIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = CodeNotFound
	case errors.Is(err, fs.ErrPermission):
		code = CodePermission
	case errors.Is(err, fs.ErrExist):
		code = CodeExists
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCanceled
	}

	message := err.Error()
	var pathError *os.PathError
	if errors.As(err, &pathError) {
		message = pathError.Err.Error()
	}
	return &Error{Code: code, Op: op, Path: path, Message: message, Err: err}
}
