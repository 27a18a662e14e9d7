// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

package update

import "fmt"

// FormatError reports a payload that is structurally invalid: bad magic,
// unsupported format version, oversized or truncated manifest, or offsets
// that contradict the container layout. Nothing has been written to the
// target when a FormatError surfaces.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "payload format: " + e.Msg + ": " + e.Err.Error()
	}
	return "payload format: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrf(format string, args ...interface{}) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// SecurityError reports a payload whose pinned size or hash does not match
// the downloaded bytes, or whose signature verifies under no trusted key.
// The payload is discarded whole; nothing has been written to the target.
type SecurityError struct {
	Msg string
}

func (e *SecurityError) Error() string { return "payload rejected: " + e.Msg }

func securityErrf(format string, args ...interface{}) *SecurityError {
	return &SecurityError{Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a per-operation data hash mismatch or a wrong
// produced byte count discovered while applying. Operations applied before
// the failure remain on the (inactive) target; the rest are abandoned.
type IntegrityError struct {
	Operation int
	Msg       string
}

func (e *IntegrityError) Error() string {
	if e.Operation < 0 {
		return e.Msg
	}
	return fmt.Sprintf("operation %d: %s", e.Operation, e.Msg)
}

// OutOfBoundsError reports an extent that falls outside the target's
// declared capacity.
type OutOfBoundsError struct {
	Start, End, Capacity int64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("extent [%d,%d) exceeds target capacity %d",
		e.Start, e.End, e.Capacity)
}
