// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeResultResponse(t *testing.T) {
	request, fail := DecodeRequest([]byte(`{"version":"2.0","method":"echo","params":{"message":"hi"},"id":1}`))
	if fail != nil {
		t.Fatalf("DecodeRequest failed: %v", fail)
	}

	data, err := EncodeResponse(ResultResponse(request.ID, request.Params.Raw()))
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}

	want := `{"version":"2.0","result":{"message":"hi"},"id":1}`
	if string(data) != want {
		t.Errorf("encoded = %s, want %s", data, want)
	}
}

func TestEncodeErrorResponse(t *testing.T) {
	id, _ := parseID(json.RawMessage("2"))
	data, err := EncodeResponse(ErrorResponse(id, NewError(CodeInvalidRequest, "unsupported protocol version \"1.0\"")))
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}

	var decoded struct {
		Version string `json:"version"`
		Error   *Error `json:"error"`
		ID      int    `json:"id"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != CodeInvalidRequest {
		t.Errorf("error = %+v", decoded.Error)
	}
	if decoded.ID != 2 {
		t.Errorf("id = %d, want 2", decoded.ID)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Error("error response carries a result field")
	}
}

func TestEncodeResponseEnforcesResultXorError(t *testing.T) {
	id, _ := parseID(json.RawMessage("1"))

	if _, err := EncodeResponse(Response{ID: id}); err == nil {
		t.Error("response with neither result nor error should fail to encode")
	}
	if _, err := EncodeResponse(Response{ID: id, Result: map[string]any{}, Err: NewError(CodeInternalError, "boom")}); err == nil {
		t.Error("response with both result and error should fail to encode")
	}
}

func TestEncodeBatch(t *testing.T) {
	first, _ := parseID(json.RawMessage("1"))
	third, _ := parseID(json.RawMessage("3"))

	data, err := EncodeBatch([]Response{
		ResultResponse(first, map[string]any{}),
		ErrorResponse(third, NewError(CodeMethodNotFound, "unknown method: nope")),
	})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("batch entries = %d, want 2", len(entries))
	}
}

func TestEncodeBatchRejectsEmpty(t *testing.T) {
	if _, err := EncodeBatch(nil); err == nil {
		t.Error("empty batch response should fail to encode")
	}
}

func TestDecodeResponse(t *testing.T) {
	response, err := DecodeResponse([]byte(`{"version":"2.0","result":{"pong":true},"id":7}`))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if response.Err != nil {
		t.Errorf("unexpected error object: %+v", response.Err)
	}
	if response.ID.String() != "7" {
		t.Errorf("id = %s, want 7", response.ID)
	}
	var result struct {
		Pong bool `json:"pong"`
	}
	if err := json.Unmarshal(response.Result, &result); err != nil || !result.Pong {
		t.Errorf("result = %s (err %v)", response.Result, err)
	}
}

func TestDecodeResponseError(t *testing.T) {
	response, err := DecodeResponse([]byte(`{"version":"2.0","error":{"code":-32601,"message":"unknown method"},"id":null}`))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if response.Err == nil || response.Err.Code != CodeMethodNotFound {
		t.Errorf("error = %+v", response.Err)
	}
	if response.ID.Kind() != IDNull {
		t.Errorf("id kind = %d, want null", response.ID.Kind())
	}
}

func TestDecodeResponseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong version", `{"version":"1.0","result":{},"id":1}`},
		{"neither result nor error", `{"version":"2.0","id":1}`},
		{"malformed", `{"version":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeResponse([]byte(tt.input)); err == nil {
				t.Errorf("DecodeResponse accepted %q", tt.input)
			}
		})
	}
}
