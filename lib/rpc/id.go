// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IDKind classifies a request correlation id.
type IDKind uint8

const (
	// IDAbsent means the request carried no id field: a notification.
	IDAbsent IDKind = iota

	// IDNull is an explicit JSON null id. Valid only on responses to
	// unparseable requests; a request carrying one is rejected.
	IDNull

	// IDNumber is a JSON number id.
	IDNumber

	// IDString is a JSON string id.
	IDString
)

// ID is a request correlation id. It preserves the exact bytes of the
// incoming literal so that ids round-trip through decode and encode
// unchanged ("1.00" stays "1.00", escapes stay escaped).
//
// The zero value is the absent id.
type ID struct {
	kind IDKind
	raw  []byte
}

// NullID is the id attached to responses for requests whose own id
// could not be recovered.
var NullID = ID{kind: IDNull}

// NumberID returns a numeric id. Used by the framed protocol, whose
// correlation ids are wire integers rather than JSON values.
func NumberID(n uint32) ID {
	return ID{kind: IDNumber, raw: []byte(strconv.FormatUint(uint64(n), 10))}
}

// parseID classifies raw id bytes and takes an owned copy. The empty
// input is the absent id. Explicit null, booleans, objects, arrays,
// and malformed literals return false: the envelope is invalid.
func parseID(raw json.RawMessage) (ID, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ID{}, true
	}

	switch trimmed[0] {
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) != nil {
			return ID{}, false
		}
		return ID{kind: IDString, raw: bytes.Clone(trimmed)}, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if json.Unmarshal(trimmed, &n) != nil {
			return ID{}, false
		}
		return ID{kind: IDNumber, raw: bytes.Clone(trimmed)}, true
	default:
		return ID{}, false
	}
}

// Kind returns the id's kind.
func (id ID) Kind() IDKind { return id.kind }

// IsAbsent reports whether the id is absent, which makes its request
// a notification.
func (id ID) IsAbsent() bool { return id.kind == IDAbsent }

// Equal reports whether two ids have the same kind and the same
// value. Numbers compare numerically, so 1 and 1.0 are equal even
// though they round-trip with different bytes.
func (id ID) Equal(other ID) bool {
	if id.kind != other.kind {
		return false
	}
	switch id.kind {
	case IDAbsent, IDNull:
		return true
	case IDString:
		return bytes.Equal(id.raw, other.raw)
	case IDNumber:
		if bytes.Equal(id.raw, other.raw) {
			return true
		}
		a, errA := strconv.ParseFloat(string(id.raw), 64)
		b, errB := strconv.ParseFloat(string(other.raw), 64)
		return errA == nil && errB == nil && a == b
	}
	return false
}

// String renders the id for log output.
func (id ID) String() string {
	switch id.kind {
	case IDAbsent:
		return "(absent)"
	case IDNull:
		return "null"
	default:
		return string(id.raw)
	}
}

// MarshalJSON writes the original id bytes. Absent and null ids both
// encode as null: a response is never written for a notification, so
// an absent id only reaches encoding on parse-failure responses.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.kind == IDAbsent || id.kind == IDNull {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON captures the raw id bytes. Used by the client side
// when decoding responses; request decoding goes through parseID for
// validation.
func (id *ID) UnmarshalJSON(data []byte) error {
	parsed, ok := parseID(data)
	if !ok {
		trimmed := bytes.TrimSpace(data)
		if bytes.Equal(trimmed, []byte("null")) {
			*id = NullID
			return nil
		}
		return fmt.Errorf("invalid id literal: %s", trimmed)
	}
	*id = parsed
	return nil
}
