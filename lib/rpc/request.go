// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ProtocolVersion is the required value of the envelope version tag.
const ProtocolVersion = "2.0"

// Request is a validated, fully-owned request envelope. A Request
// holds no references into the buffer it was decoded from.
type Request struct {
	Method string
	Params Params
	ID     ID
}

// IsNotification reports whether the request has no id and therefore
// must not produce a response.
func (r *Request) IsNotification() bool { return r.ID.IsAbsent() }

// DecodeError describes a rejected envelope.
type DecodeError struct {
	// Err is the wire error object for the rejection.
	Err *Error

	// ID is the id to carry on the error response. NullID when the
	// envelope's own id was unrecoverable.
	ID ID

	// Respond is false when the envelope was a notification: per the
	// protocol contract a notification never produces a response,
	// successful or otherwise. The rejection is logged instead.
	Respond bool
}

func (e *DecodeError) Error() string { return e.Err.Error() }

// wireRequest is the raw envelope shape. Id and params stay raw so
// they can be validated and copied explicitly.
type wireRequest struct {
	Version string          `json:"version"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// DecodeRequest parses and validates a single request envelope. The
// returned Request owns copies of its id and parameter bytes; data
// may be reused or discarded as soon as DecodeRequest returns.
//
// On failure the DecodeError carries the standard error code, the
// response id (null when the envelope's id was unrecoverable), and
// whether a response should be written at all.
func DecodeRequest(data []byte) (*Request, *DecodeError) {
	var wire wireRequest
	if err := json.Unmarshal(data, &wire); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &DecodeError{
				Err:     Errorf(CodeParseError, "parse error: %v", err),
				ID:      NullID,
				Respond: true,
			}
		}
		// Valid JSON with the wrong shape (a non-object envelope or a
		// mistyped field). Recover the id if the envelope was at
		// least an object carrying one.
		id, respond := recoverID(data)
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "invalid request envelope: %v", err),
			ID:      id,
			Respond: respond,
		}
	}

	id, ok := parseID(wire.ID)
	if !ok {
		// The id itself is unusable, so the error response gets null.
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "invalid id: must be a number or string"),
			ID:      NullID,
			Respond: true,
		}
	}
	respond := !id.IsAbsent()

	if wire.Version != ProtocolVersion {
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "unsupported protocol version %q", wire.Version),
			ID:      id,
			Respond: respond,
		}
	}

	if wire.Method == "" {
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "missing method"),
			ID:      id,
			Respond: respond,
		}
	}

	params, ok := parseParams(wire.Params)
	if !ok {
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "params must be an array or object"),
			ID:      id,
			Respond: respond,
		}
	}

	if strings.HasPrefix(wire.Method, ReservedMethodPrefix) {
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidParams, "method name %q uses the reserved prefix %q", wire.Method, ReservedMethodPrefix),
			ID:      id,
			Respond: respond,
		}
	}

	return &Request{Method: wire.Method, Params: params, ID: id}, nil
}

// recoverID makes a best effort to extract an id from an envelope
// that failed shape validation. The second return value is false when
// the envelope was identifiably a notification, in which case no
// error response is written.
func recoverID(data []byte) (ID, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return NullID, true
	}
	raw, present := fields["id"]
	if !present {
		return ID{}, false
	}
	id, ok := parseID(raw)
	if !ok {
		return NullID, true
	}
	if id.IsAbsent() {
		return ID{}, false
	}
	return id, true
}

// IsBatch reports whether the message is a batch array rather than a
// single envelope.
func IsBatch(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// BatchItem is one element of a decoded batch: either a valid request
// or the rejection that replaces it.
type BatchItem struct {
	Request *Request
	Fail    *DecodeError
}

// DecodeBatch parses a batch array into individually validated items,
// preserving order. A rejected element with a recoverable id yields a
// BatchItem whose Fail should be answered in the batch response; a
// rejected element with no recoverable id (Fail.Respond false) is
// logged by the caller and contributes no response entry.
//
// An empty batch and a syntactically broken batch are outer failures:
// no items are returned and the DecodeError answers the whole
// message.
func DecodeBatch(data []byte) ([]BatchItem, *DecodeError) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &DecodeError{
				Err:     Errorf(CodeParseError, "parse error: %v", err),
				ID:      NullID,
				Respond: true,
			}
		}
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "invalid batch: %v", err),
			ID:      NullID,
			Respond: true,
		}
	}

	if len(elements) == 0 {
		return nil, &DecodeError{
			Err:     Errorf(CodeInvalidRequest, "empty batch"),
			ID:      NullID,
			Respond: true,
		}
	}

	items := make([]BatchItem, 0, len(elements))
	for _, element := range elements {
		request, fail := DecodeRequest(element)
		items = append(items, BatchItem{Request: request, Fail: fail})
	}
	return items, nil
}
