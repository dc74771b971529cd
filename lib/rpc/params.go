// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ParamsKind classifies a request's parameters.
type ParamsKind uint8

const (
	// ParamsAbsent means the request carried no params field (or an
	// explicit null, which is treated the same).
	ParamsAbsent ParamsKind = iota

	// ParamsList is a JSON array of positional parameters.
	ParamsList

	// ParamsMap is a JSON object of named parameters.
	ParamsMap
)

// Parameter access errors. Each failure mode is distinct so handlers
// can report exactly what was wrong instead of a generic fault.
var (
	// ErrNoParams is returned when a handler needs parameters and the
	// request has none.
	ErrNoParams = errors.New("no parameters")

	// ErrNotList is returned by positional access on named parameters.
	ErrNotList = errors.New("parameters are not positional")

	// ErrNotMap is returned by named access on positional parameters.
	ErrNotMap = errors.New("parameters are not named")
)

// Params holds a request's decoded parameters: absent, a positional
// list, or a named map. The underlying bytes are owned by the Params
// value, copied out of the input buffer at decode time.
//
// The zero value is the absent params.
type Params struct {
	kind ParamsKind
	raw  []byte
	list []json.RawMessage
	keys map[string]json.RawMessage
}

// ParseParams builds a Params value from raw JSON. Explicit null and
// empty input yield the absent params. Anything other than an array
// or object is rejected. The returned Params owns a copy of raw.
//
// Request decoding uses this internally. It is exported for callers
// that synthesize requests, such as protocol translators.
func ParseParams(raw json.RawMessage) (Params, error) {
	params, ok := parseParams(raw)
	if !ok {
		return Params{}, errors.New("params must be an array or object")
	}
	return params, nil
}

// parseParams classifies raw params bytes, takes an owned copy, and
// indexes the elements. Explicit null and empty input are absent.
// Anything other than an array or object returns false.
func parseParams(raw json.RawMessage) (Params, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Params{}, true
	}

	owned := bytes.Clone(trimmed)
	switch owned[0] {
	case '[':
		var list []json.RawMessage
		if json.Unmarshal(owned, &list) != nil {
			return Params{}, false
		}
		return Params{kind: ParamsList, raw: owned, list: list}, true
	case '{':
		var keys map[string]json.RawMessage
		if json.Unmarshal(owned, &keys) != nil {
			return Params{}, false
		}
		return Params{kind: ParamsMap, raw: owned, keys: keys}, true
	default:
		return Params{}, false
	}
}

// Kind returns the parameter form.
func (p Params) Kind() ParamsKind { return p.kind }

// IsAbsent reports whether the request carried no parameters.
func (p Params) IsAbsent() bool { return p.kind == ParamsAbsent }

// Len returns the number of positional parameters or named keys.
func (p Params) Len() int {
	switch p.kind {
	case ParamsList:
		return len(p.list)
	case ParamsMap:
		return len(p.keys)
	default:
		return 0
	}
}

// Param returns the raw JSON of positional parameter i. Fails with
// ErrNoParams when the request has no parameters, ErrNotList when the
// parameters are named, and an out-of-range error otherwise.
func (p Params) Param(i int) (json.RawMessage, error) {
	switch p.kind {
	case ParamsAbsent:
		return nil, ErrNoParams
	case ParamsMap:
		return nil, ErrNotList
	}
	if i < 0 || i >= len(p.list) {
		return nil, fmt.Errorf("parameter %d out of range (have %d)", i, len(p.list))
	}
	return p.list[i], nil
}

// NamedParam returns the raw JSON of the named parameter. Fails with
// ErrNoParams when the request has no parameters, ErrNotMap when the
// parameters are positional, and a missing-key error otherwise.
func (p Params) NamedParam(name string) (json.RawMessage, error) {
	switch p.kind {
	case ParamsAbsent:
		return nil, ErrNoParams
	case ParamsList:
		return nil, ErrNotMap
	}
	value, ok := p.keys[name]
	if !ok {
		return nil, fmt.Errorf("missing parameter %q", name)
	}
	return value, nil
}

// Decode unmarshals the whole parameter value into v. Returns
// ErrNoParams when the request has no parameters, so handlers that
// require arguments can map the absence to an invalid-params response.
func (p Params) Decode(v any) error {
	if p.kind == ParamsAbsent {
		return ErrNoParams
	}
	return json.Unmarshal(p.raw, v)
}

// Raw returns the owned raw JSON of the parameters, or nil when
// absent.
func (p Params) Raw() json.RawMessage { return p.raw }
