// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import "encoding/json"

// translator rewrites a tool's decoded arguments into the registry
// method's parameter shape. Translators only reshape; argument
// validation belongs to the handler behind the method.
type translator func(args map[string]json.RawMessage) (map[string]json.RawMessage, error)

// mapping pairs a registry method with its argument translator. A nil
// translator passes arguments through unchanged.
type mapping struct {
	method    string
	translate translator
}

// mappings is the flat tool table. Tools whose argument shape already
// matches the registry map directly; the voxel tools nest position
// and color objects that the registry takes flattened, so they carry
// a translator.
var mappings = map[string]mapping{
	"voxel_create_project": {method: "vox.create_project"},
	"voxel_open_file":      {method: "vox.load_project"},
	"voxel_save_file":      {method: "vox.save_project"},
	"voxel_export_file":    {method: "vox.export_model"},

	"voxel_get_voxel":     {method: "vox.get_voxel", translate: translateVoxelArgs},
	"voxel_add_voxels":    {method: "vox.add_voxel", translate: translateVoxelArgs},
	"voxel_remove_voxels": {method: "vox.remove_voxel", translate: translateVoxelArgs},

	"voxel_batch_operations": {method: "vox.batch_operations", translate: translateBatchArgs},

	"voxel_new_layer":   {method: "vox.create_layer"},
	"voxel_list_layers": {method: "vox.list_layers"},

	"ping":         {method: "ping"},
	"version":      {method: "version"},
	"list_methods": {method: "list_methods"},
}
