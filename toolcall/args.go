// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/voxforge/voxd/document"
)

// translateVoxelArgs reshapes the arguments of the single-voxel
// tools. A nested position object becomes top-level x/y/z members,
// and a color object with r/g/b/a channels becomes the hex string the
// registry takes. Colors already given as strings and all remaining
// members pass through unchanged.
func translateVoxelArgs(args map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(args)+2)

	for key, value := range args {
		switch key {
		case "position":
			if err := flattenPosition(value, out); err != nil {
				return nil, err
			}
		case "color":
			rewritten, err := rewriteColor(value)
			if err != nil {
				return nil, err
			}
			out["color"] = rewritten
		default:
			out[key] = value
		}
	}
	return out, nil
}

// flattenPosition copies the x, y, and z members of a position object
// into out. Component values pass through raw; the handler validates
// that they are integers.
func flattenPosition(raw json.RawMessage, out map[string]json.RawMessage) error {
	var position map[string]json.RawMessage
	if err := json.Unmarshal(raw, &position); err != nil {
		return fmt.Errorf("position must be an object with x, y, z members")
	}
	for _, axis := range []string{"x", "y", "z"} {
		if value, ok := position[axis]; ok {
			out[axis] = value
		}
	}
	return nil
}

// rewriteColor converts a color argument to the registry's hex string
// form. Channel objects default absent channels to 255, so a bare {}
// means opaque white. A string color is assumed to be hex already and
// passes through for the handler to validate.
func rewriteColor(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) > 0 && raw[0] == '"' {
		return raw, nil
	}

	channels := struct {
		R uint8 `json:"r"`
		G uint8 `json:"g"`
		B uint8 `json:"b"`
		A uint8 `json:"a"`
	}{R: 255, G: 255, B: 255, A: 255}
	if err := json.Unmarshal(raw, &channels); err != nil {
		return nil, fmt.Errorf("color must be a hex string or an object with r, g, b, a channels 0-255")
	}

	hex := document.Color{R: channels.R, G: channels.G, B: channels.B, A: channels.A}.String()
	encoded, err := json.Marshal(hex)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// translateBatchArgs reshapes batch arguments: each entry of the
// operations array is rewritten like a single-voxel argument object,
// with its type member passing through. The result carries only the
// operations list.
func translateBatchArgs(args map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	raw, ok := args["operations"]
	if !ok {
		return nil, fmt.Errorf("missing operations")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("operations must be an array")
	}

	rewritten := make([]json.RawMessage, len(entries))
	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			return nil, fmt.Errorf("operation %d must be an object", i)
		}
		translated, err := translateVoxelArgs(fields)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		encoded, err := json.Marshal(translated)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		rewritten[i] = encoded
	}

	operations, err := json.Marshal(rewritten)
	if err != nil {
		return nil, err
	}
	return map[string]json.RawMessage{"operations": operations}, nil
}
