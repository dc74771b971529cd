// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"encoding/json"
	"fmt"
)

// Response is a response envelope ready for encoding. Exactly one of
// Result and Err must be set.
type Response struct {
	ID     ID
	Result any
	Err    *Error
}

// ResultResponse builds a success response.
func ResultResponse(id ID, result any) Response {
	return Response{ID: id, Result: result}
}

// ErrorResponse builds an error response.
func ErrorResponse(id ID, err *Error) Response {
	return Response{ID: id, Err: err}
}

// wireResponse fixes the wire field order: version, then result or
// error, then id.
type wireResponse struct {
	Version string `json:"version"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      ID     `json:"id"`
}

// EncodeResponse serializes a response envelope. It enforces the
// result-xor-error contract: a response carrying both or neither is a
// programming error surfaced here rather than put on the wire.
func EncodeResponse(response Response) ([]byte, error) {
	if response.Err == nil && response.Result == nil {
		return nil, fmt.Errorf("response %s has neither result nor error", response.ID)
	}
	if response.Err != nil && response.Result != nil {
		return nil, fmt.Errorf("response %s has both result and error", response.ID)
	}
	data, err := json.Marshal(wireResponse{
		Version: ProtocolVersion,
		Result:  response.Result,
		Error:   response.Err,
		ID:      response.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding response %s: %w", response.ID, err)
	}
	return data, nil
}

// EncodeBatch serializes an ordered batch response array. The caller
// is responsible for excluding notification slots; an empty batch
// response must not be written at all, so encoding one is an error.
func EncodeBatch(responses []Response) ([]byte, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("empty batch response")
	}
	encoded := make([]json.RawMessage, len(responses))
	for i, response := range responses {
		data, err := EncodeResponse(response)
		if err != nil {
			return nil, fmt.Errorf("batch entry %d: %w", i, err)
		}
		encoded[i] = data
	}
	return json.Marshal(encoded)
}

// ClientResponse is the client-side view of a decoded response.
// Result stays raw so callers can decode it into their own types.
type ClientResponse struct {
	Version string          `json:"version"`
	Result  json.RawMessage `json:"result"`
	Err     *Error          `json:"error"`
	ID      ID              `json:"id"`
}

// DecodeResponse parses a response envelope received from a daemon.
func DecodeResponse(data []byte) (*ClientResponse, error) {
	var response ClientResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if response.Version != ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %q in response", response.Version)
	}
	if response.Err == nil && len(response.Result) == 0 {
		return nil, fmt.Errorf("response %s has neither result nor error", response.ID)
	}
	return &response, nil
}
