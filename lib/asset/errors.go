// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies engine failures. Callers branch on the code
// (via errors.Is against the sentinels below), never on message text.
type ErrorCode string

const (
	// CodeNotFound: an asset or group id is unknown in its kind.
	CodeNotFound ErrorCode = "not_found"

	// CodeValidationFailed: extension or content mismatch, invalid
	// structured data, or an empty file.
	CodeValidationFailed ErrorCode = "validation_failed"

	// CodeIOFailure: the filesystem collaborator failed.
	CodeIOFailure ErrorCode = "io_failure"

	// CodeConflict: cyclic group move, non-empty group deleted without
	// the recursive flag, or a name already in use.
	CodeConflict ErrorCode = "conflict"

	// CodeUnsupported: remote sources and kinds with no reader.
	CodeUnsupported ErrorCode = "unsupported"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrValidationFailed = &Error{Code: CodeValidationFailed}
	ErrIOFailure        = &Error{Code: CodeIOFailure}
	ErrConflict         = &Error{Code: CodeConflict}
	ErrUnsupported      = &Error{Code: CodeUnsupported}
)

// Error is the typed failure every engine operation returns. Op names
// the operation ("import", "move group"), Subject names the offending
// path or id, and Message carries the specific mismatch so a person
// can diagnose a misnamed or corrupted file from the message alone.
type Error struct {
	Code    ErrorCode
	Op      string
	Subject string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var builder strings.Builder
	if e.Op != "" {
		builder.WriteString(e.Op)
		builder.WriteString(": ")
	}
	if e.Subject != "" {
		builder.WriteString(e.Subject)
		builder.WriteString(": ")
	}
	if e.Message != "" {
		builder.WriteString(e.Message)
	} else {
		builder.WriteString(string(e.Code))
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so
// errors.Is(err, asset.ErrNotFound) works through wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && other.Op == "" && other.Subject == "" && other.Message == ""
}

// Errorf builds an *Error with a formatted message.
func Errorf(code ErrorCode, op, subject, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around a lower-level cause.
func Wrap(code ErrorCode, op, subject string, err error) *Error {
	return &Error{Code: code, Op: op, Subject: subject, Err: err}
}

// CodeOf extracts the code from err, or "" when err is nil or not an
// engine error.
func CodeOf(err error) ErrorCode {
	var engineError *Error
	if errors.As(err, &engineError) {
		return engineError.Code
	}
	return ""
}

// NotFound is shorthand for the most common failure: an unknown id.
func NotFound(op string, kind Kind, id string) *Error {
	return Errorf(CodeNotFound, op, id, "no %s with id %q", kind, id)
}
