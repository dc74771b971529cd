// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"bytes"
	"encoding/json"

	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/rpc"
)

// argReader reads handler arguments by position or by name, whichever
// form the request used. Positional access consumes arguments in the
// order the handler asks for them, so handlers read arguments in their
// documented order. A JSON null argument counts as absent.
type argReader struct {
	params rpc.Params
	index  int
}

func newArgs(params rpc.Params) *argReader {
	return &argReader{params: params}
}

func (a *argReader) raw(name string) (json.RawMessage, bool) {
	var value json.RawMessage
	var err error
	switch a.params.Kind() {
	case rpc.ParamsList:
		value, err = a.params.Param(a.index)
		a.index++
	case rpc.ParamsMap:
		value, err = a.params.NamedParam(name)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, false
	}
	return value, true
}

// value decodes the argument into v. Absent arguments return (false,
// nil); present arguments of the wrong type return an invalid-params
// error naming the parameter.
func (a *argReader) value(name string, v any, want string) (bool, *rpc.Error) {
	raw, ok := a.raw(name)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, rpc.Errorf(rpc.CodeInvalidParams, "parameter %q must be %s", name, want)
	}
	return true, nil
}

func missingParam(name string) *rpc.Error {
	return rpc.Errorf(rpc.CodeInvalidParams, "missing required parameter %q", name)
}

func (a *argReader) requireString(name string) (string, *rpc.Error) {
	var s string
	ok, rpcErr := a.value(name, &s, "a string")
	if rpcErr != nil {
		return "", rpcErr
	}
	if !ok {
		return "", missingParam(name)
	}
	return s, nil
}

func (a *argReader) optionalString(name, fallback string) (string, *rpc.Error) {
	var s string
	ok, rpcErr := a.value(name, &s, "a string")
	if rpcErr != nil {
		return "", rpcErr
	}
	if !ok {
		return fallback, nil
	}
	return s, nil
}

func (a *argReader) optionalInt(name string, fallback int) (int, *rpc.Error) {
	var n int
	ok, rpcErr := a.value(name, &n, "an integer")
	if rpcErr != nil {
		return 0, rpcErr
	}
	if !ok {
		return fallback, nil
	}
	return n, nil
}

// pos reads the x, y, z coordinate triple, all required.
func (a *argReader) pos() (document.Pos, *rpc.Error) {
	var p document.Pos
	for _, coord := range []struct {
		name string
		dst  *int32
	}{
		{"x", &p.X},
		{"y", &p.Y},
		{"z", &p.Z},
	} {
		ok, rpcErr := a.value(coord.name, coord.dst, "an integer")
		if rpcErr != nil {
			return document.Pos{}, rpcErr
		}
		if !ok {
			return document.Pos{}, missingParam(coord.name)
		}
	}
	return p, nil
}

// color reads an optional hex color argument.
func (a *argReader) color(name string, fallback document.Color) (document.Color, *rpc.Error) {
	var s string
	ok, rpcErr := a.value(name, &s, `a color string like "#RRGGBB"`)
	if rpcErr != nil {
		return document.Color{}, rpcErr
	}
	if !ok {
		return fallback, nil
	}
	parsed, err := document.ParseColor(s)
	if err != nil {
		return document.Color{}, rpc.Errorf(rpc.CodeInvalidParams, "parameter %q: %v", name, err)
	}
	return parsed, nil
}
