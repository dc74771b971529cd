// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

// Engine is the document operation surface handlers invoke. The daemon
// core is engine-agnostic: it admits requests through the guard and
// calls these methods, nothing more. Implementations synchronize
// internally so that Stats and Layers stay safe for the lock-free
// status path.
//
// The layer argument on voxel operations selects a layer by name; an
// empty string means the active layer for mutations and the merged
// visible view for reads.
type Engine interface {
	// NewProject replaces the current document with an empty project.
	// Non-positive dimensions fall back to the 32-unit default canvas.
	NewProject(name string, width, height, depth int) error

	// Open loads a snapshot file and replaces the current document.
	Open(path string) error

	// Save writes the project snapshot. An empty path reuses the
	// project's remembered path and fails with ErrNoSavePath when
	// there is none. Returns the resolved path written.
	Save(path string) (string, error)

	// Export writes a snapshot with the named compression format
	// without touching the project's remembered path or dirty flag.
	// Returns the resolved path written.
	Export(path, format string) (string, error)

	// AddVoxel sets one voxel.
	AddVoxel(layer string, pos Pos, color Color) error

	// RemoveVoxel clears one voxel. Reports whether a voxel was
	// actually there.
	RemoveVoxel(layer string, pos Pos) (bool, error)

	// GetVoxel reads one voxel. The bool reports presence.
	GetVoxel(layer string, pos Pos) (Color, bool, error)

	// CreateLayer appends a layer and makes it active. Layer names are
	// unique within a project.
	CreateLayer(name string) error

	// Layers lists layers in creation order.
	Layers() ([]LayerInfo, error)

	// Stats summarizes the document. Never fails: with no project open
	// it returns Stats{Open: false}.
	Stats() Stats
}
