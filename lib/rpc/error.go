// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import "fmt"

// Standard protocol error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server error codes (-32000 to -32099, implementation defined).
const (
	// CodeDocumentLocked rejects a request that needs the document
	// while another request holds it.
	CodeDocumentLocked = -32000

	// CodeOwnershipLost is returned to a request whose document token
	// was reclaimed by the idle sweep before it finished.
	CodeOwnershipLost = -32001
)

// Application error codes (-1000 and below, handler defined).
const (
	// CodeEngineFailure is a generic document engine fault.
	CodeEngineFailure = -1000

	// CodeNoProject rejects document operations before any project
	// has been created or loaded.
	CodeNoProject = -1001

	// CodeUnknownLayer rejects operations naming a layer the document
	// does not have.
	CodeUnknownLayer = -1002

	// CodeInvalidSnapshot rejects load/export of a file that is not a
	// valid snapshot.
	CodeInvalidSnapshot = -1003
)

// ReservedMethodPrefix marks method names reserved for protocol
// extensions. Requests naming such a method are rejected before
// dispatch.
const ReservedMethodPrefix = "rpc."

// Error is the wire error object carried in a response: a stable
// integer code clients can branch on, a human-readable message, and
// an optional structured detail payload.
//
// Error implements the error interface so handlers can return one
// directly; the dispatch layer passes it through to the response
// unchanged instead of wrapping it in an internal error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewError returns an Error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf returns an Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of the error carrying a structured detail
// payload.
func (e *Error) WithData(data any) *Error {
	clone := *e
	clone.Data = data
	return &clone
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
