// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"encoding/json"
	"testing"

	"github.com/voxforge/voxd/lib/rpc"
)

func mustTranslate(t *testing.T, frameID uint32, payload string) *rpc.Request {
	t.Helper()
	request, rpcErr := Translate(frameID, []byte(payload))
	if rpcErr != nil {
		t.Fatalf("Translate(%s) failed: %v", payload, rpcErr)
	}
	return request
}

func translateErr(t *testing.T, payload string) *rpc.Error {
	t.Helper()
	request, rpcErr := Translate(1, []byte(payload))
	if rpcErr == nil {
		t.Fatalf("Translate(%s) = %+v, want error", payload, request)
	}
	return rpcErr
}

func TestTranslateDirectTools(t *testing.T) {
	tests := []struct {
		tool   string
		method string
	}{
		{"voxel_create_project", "vox.create_project"},
		{"voxel_open_file", "vox.load_project"},
		{"voxel_save_file", "vox.save_project"},
		{"voxel_export_file", "vox.export_model"},
		{"voxel_new_layer", "vox.create_layer"},
		{"voxel_list_layers", "vox.list_layers"},
		{"ping", "ping"},
		{"version", "version"},
		{"list_methods", "list_methods"},
	}
	for _, test := range tests {
		t.Run(test.tool, func(t *testing.T) {
			payload, err := json.Marshal(Request{Tool: test.tool})
			if err != nil {
				t.Fatalf("marshaling payload: %v", err)
			}
			request := mustTranslate(t, 42, string(payload))
			if request.Method != test.method {
				t.Errorf("method = %q, want %q", request.Method, test.method)
			}
			if !request.ID.Equal(rpc.NumberID(42)) {
				t.Errorf("id = %s, want 42", request.ID)
			}
			if !request.Params.IsAbsent() {
				t.Errorf("params = %s, want absent", request.Params.Raw())
			}
		})
	}
}

func TestTranslatePassesDirectArgumentsThrough(t *testing.T) {
	request := mustTranslate(t, 1,
		`{"tool": "voxel_create_project", "arguments": {"name": "castle", "width": 64}}`)

	var got struct {
		Name  string `json:"name"`
		Width int    `json:"width"`
	}
	if err := request.Params.Decode(&got); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if got.Name != "castle" || got.Width != 64 {
		t.Errorf("params = %+v, want name castle width 64", got)
	}
}

func TestTranslateUnknownTool(t *testing.T) {
	rpcErr := translateErr(t, `{"tool": "voxel_paint_sphere"}`)
	if rpcErr.Code != rpc.CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeMethodNotFound)
	}
}

func TestTranslateRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode int
	}{
		{"malformed json", `{"tool": `, rpc.CodeParseError},
		{"array payload", `[1, 2]`, rpc.CodeInvalidRequest},
		{"missing tool", `{"arguments": {}}`, rpc.CodeInvalidRequest},
		{"non-string tool", `{"tool": 42}`, rpc.CodeInvalidRequest},
		{"array arguments", `{"tool": "ping", "arguments": [1]}`, rpc.CodeInvalidParams},
		{"string arguments", `{"tool": "ping", "arguments": "loud"}`, rpc.CodeInvalidParams},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rpcErr := translateErr(t, test.payload)
			if rpcErr.Code != test.wantCode {
				t.Errorf("code = %d, want %d", rpcErr.Code, test.wantCode)
			}
		})
	}
}

func TestTranslateNullArgumentsAreAbsent(t *testing.T) {
	request := mustTranslate(t, 1, `{"tool": "ping", "arguments": null}`)
	if !request.Params.IsAbsent() {
		t.Errorf("params = %s, want absent", request.Params.Raw())
	}
}

func TestTranslateFlattensVoxelArguments(t *testing.T) {
	request := mustTranslate(t, 9, `{
		"tool": "voxel_add_voxels",
		"arguments": {
			"position": {"x": 1, "y": -2, "z": 3},
			"color": {"r": 255, "g": 0, "b": 0},
			"layer": "walls"
		}
	}`)
	if request.Method != "vox.add_voxel" {
		t.Fatalf("method = %q, want vox.add_voxel", request.Method)
	}

	var got struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Z     int    `json:"z"`
		Color string `json:"color"`
		Layer string `json:"layer"`
	}
	if err := request.Params.Decode(&got); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if got.X != 1 || got.Y != -2 || got.Z != 3 {
		t.Errorf("position = (%d,%d,%d), want (1,-2,3)", got.X, got.Y, got.Z)
	}
	if got.Color != "#FF0000" {
		t.Errorf("color = %q, want #FF0000", got.Color)
	}
	if got.Layer != "walls" {
		t.Errorf("layer = %q, want walls", got.Layer)
	}
	if _, err := request.Params.NamedParam("position"); err == nil {
		t.Error("position survived flattening")
	}
}

func TestTranslateColorForms(t *testing.T) {
	tests := []struct {
		name      string
		color     string
		want      string
		wantError bool
	}{
		{"string passes through", `"#00ff00"`, "#00ff00", false},
		{"channel object", `{"r": 255, "g": 0, "b": 0, "a": 128}`, "#FF000080", false},
		{"opaque alpha folds away", `{"r": 0, "g": 128, "b": 255, "a": 255}`, "#0080FF", false},
		{"absent channels default opaque white", `{}`, "#FFFFFF", false},
		{"channel out of range", `{"r": 300}`, "", true},
		{"fractional channel", `{"r": 1.5}`, "", true},
		{"array color", `[255, 0, 0]`, "", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := `{"tool": "voxel_add_voxels", "arguments": {"x": 0, "y": 0, "z": 0, "color": ` + test.color + `}}`
			request, rpcErr := Translate(1, []byte(payload))
			if test.wantError {
				if rpcErr == nil {
					t.Fatalf("Translate succeeded as %+v, want invalid params", request)
				}
				if rpcErr.Code != rpc.CodeInvalidParams {
					t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeInvalidParams)
				}
				return
			}
			if rpcErr != nil {
				t.Fatalf("Translate failed: %v", rpcErr)
			}
			var got struct {
				Color string `json:"color"`
			}
			if err := request.Params.Decode(&got); err != nil {
				t.Fatalf("decoding params: %v", err)
			}
			if got.Color != test.want {
				t.Errorf("color = %q, want %q", got.Color, test.want)
			}
		})
	}
}

func TestTranslateRejectsMalformedPosition(t *testing.T) {
	rpcErr := translateErr(t, `{"tool": "voxel_get_voxel", "arguments": {"position": [1, 2, 3]}}`)
	if rpcErr.Code != rpc.CodeInvalidParams {
		t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeInvalidParams)
	}
}

func TestTranslateFlatArgumentsNeedNoPosition(t *testing.T) {
	request := mustTranslate(t, 1,
		`{"tool": "voxel_remove_voxels", "arguments": {"x": 4, "y": 5, "z": 6}}`)

	var got struct {
		X, Y, Z int
	}
	if err := request.Params.Decode(&got); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if got.X != 4 || got.Y != 5 || got.Z != 6 {
		t.Errorf("position = (%d,%d,%d), want (4,5,6)", got.X, got.Y, got.Z)
	}
}

func TestTranslateBatchOperations(t *testing.T) {
	request := mustTranslate(t, 3, `{
		"tool": "voxel_batch_operations",
		"arguments": {"operations": [
			{"type": "add", "position": {"x": 1, "y": 2, "z": 3}, "color": {"r": 0, "g": 255, "b": 0}},
			{"type": "remove", "position": {"x": 1, "y": 2, "z": 3}}
		]}
	}`)
	if request.Method != "vox.batch_operations" {
		t.Fatalf("method = %q, want vox.batch_operations", request.Method)
	}

	var got struct {
		Operations []struct {
			Type  string `json:"type"`
			X     int    `json:"x"`
			Y     int    `json:"y"`
			Z     int    `json:"z"`
			Color string `json:"color"`
		} `json:"operations"`
	}
	if err := request.Params.Decode(&got); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if len(got.Operations) != 2 {
		t.Fatalf("got %d operations, want 2", len(got.Operations))
	}
	add := got.Operations[0]
	if add.Type != "add" || add.X != 1 || add.Y != 2 || add.Z != 3 || add.Color != "#00FF00" {
		t.Errorf("add entry = %+v, want flattened add at (1,2,3) #00FF00", add)
	}
	remove := got.Operations[1]
	if remove.Type != "remove" || remove.X != 1 || remove.Color != "" {
		t.Errorf("remove entry = %+v, want flattened remove without color", remove)
	}
}

func TestTranslateBatchRejections(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"missing operations", `{}`},
		{"operations not an array", `{"operations": {"type": "add"}}`},
		{"entry not an object", `{"operations": [{"type": "add"}, 7]}`},
		{"entry with bad color", `{"operations": [{"type": "add", "color": {"r": -1}}]}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := `{"tool": "voxel_batch_operations", "arguments": ` + test.args + `}`
			rpcErr := translateErr(t, payload)
			if rpcErr.Code != rpc.CodeInvalidParams {
				t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeInvalidParams)
			}
		})
	}
}

func TestResultPayload(t *testing.T) {
	payload, err := ResultPayload(map[string]string{"message": "pong"})
	if err != nil {
		t.Fatalf("ResultPayload failed: %v", err)
	}
	want := `{"result":{"message":"pong"}}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestErrorPayload(t *testing.T) {
	payload := ErrorPayload(rpc.NewError(rpc.CodeMethodNotFound, "unknown tool"))
	want := `{"error":{"code":-32601,"message":"unknown tool"}}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestErrorPayloadSurvivesBadData(t *testing.T) {
	rpcErr := rpc.NewError(rpc.CodeInternalError, "boom").WithData(make(chan int))
	payload := ErrorPayload(rpcErr)

	var decoded struct {
		Error *rpc.Error `json:"error"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("fallback payload is not valid JSON: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != rpc.CodeInternalError {
		t.Errorf("fallback = %s, want internal error", payload)
	}
}
