// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/voxforge/voxd/lib/rpc"
)

// Request is the decoded payload of a request frame: a tool name and
// its argument object.
type Request struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// Translate decodes a request frame's payload and rewrites it as a
// registry request. The frame's message id becomes the request's
// correlation id, so the eventual response maps back to its frame
// without any per-connection state.
//
// Failures come back as wire error objects ready for an error frame:
// parse and shape faults with the standard codes, unknown tools with
// method-not-found, untranslatable arguments with invalid-params.
func Translate(frameID uint32, payload []byte) (*rpc.Request, *rpc.Error) {
	var call Request
	if err := json.Unmarshal(payload, &call); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, rpc.Errorf(rpc.CodeParseError, "parse error: %v", err)
		}
		return nil, rpc.Errorf(rpc.CodeInvalidRequest, "invalid tool call: %v", err)
	}
	if call.Tool == "" {
		return nil, rpc.NewError(rpc.CodeInvalidRequest, "missing tool")
	}

	entry, ok := mappings[call.Tool]
	if !ok {
		return nil, rpc.Errorf(rpc.CodeMethodNotFound, "unknown tool %q", call.Tool)
	}

	params, rpcErr := translateArguments(entry, call.Arguments)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return &rpc.Request{
		Method: entry.method,
		Params: params,
		ID:     rpc.NumberID(frameID),
	}, nil
}

// translateArguments turns a tool's raw arguments into registry
// params. Absent and null arguments stay absent; the handler decides
// whether it needs any. Present arguments must be an object.
func translateArguments(entry mapping, raw json.RawMessage) (rpc.Params, *rpc.Error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return rpc.Params{}, nil
	}
	if trimmed[0] != '{' {
		return rpc.Params{}, rpc.NewError(rpc.CodeInvalidParams, "arguments must be an object")
	}

	if entry.translate != nil {
		var args map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return rpc.Params{}, rpc.Errorf(rpc.CodeInvalidParams, "invalid arguments: %v", err)
		}
		translated, err := entry.translate(args)
		if err != nil {
			return rpc.Params{}, rpc.Errorf(rpc.CodeInvalidParams, "invalid arguments: %v", err)
		}
		encoded, err := json.Marshal(translated)
		if err != nil {
			return rpc.Params{}, rpc.Errorf(rpc.CodeInternalError, "encoding translated arguments: %v", err)
		}
		trimmed = encoded
	}

	params, err := rpc.ParseParams(trimmed)
	if err != nil {
		return rpc.Params{}, rpc.Errorf(rpc.CodeInvalidParams, "invalid arguments: %v", err)
	}
	return params, nil
}

// ResultPayload builds the payload of a response frame, mirroring the
// result member of a line-protocol response.
func ResultPayload(result any) ([]byte, error) {
	return json.Marshal(struct {
		Result any `json:"result"`
	}{Result: result})
}

// ErrorPayload builds the payload of an error frame, mirroring the
// error member of a line-protocol response. It cannot fail: an error
// whose data payload does not serialize is replaced by an internal
// error rather than dropped.
func ErrorPayload(rpcErr *rpc.Error) []byte {
	type body struct {
		Error *rpc.Error `json:"error"`
	}
	data, err := json.Marshal(body{Error: rpcErr})
	if err != nil {
		fallback := rpc.Errorf(rpc.CodeInternalError, "error %d response not serializable", rpcErr.Code)
		data, _ = json.Marshal(body{Error: fallback})
	}
	return data
}
