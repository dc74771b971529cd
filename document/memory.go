// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// defaultCanvas is the per-axis dimension used when a project is
// created without explicit dimensions.
const defaultCanvas = 32

// defaultLayerName is the layer every new project starts with.
const defaultLayerName = "background"

// Memory is the in-memory Engine: sparse voxel maps per layer, whole
// document serialized to a snapshot file on save. All methods are safe
// for concurrent use; the guard serializes mutators at the request
// level, and the internal mutex keeps the lock-free status path
// consistent.
type Memory struct {
	mu  sync.Mutex
	dir string
	tag CompressionTag

	project *project
}

// project is the mutable document state behind the engine mutex.
type project struct {
	name   string
	width  int
	height int
	depth  int
	layers []*layer
	active int
	path   string
	dirty  bool
}

type layer struct {
	name    string
	visible bool
	voxels  map[Pos]Color
}

// NewMemory returns an empty engine. Relative snapshot paths resolve
// against dir (empty means the working directory); tag is the codec
// used by Save.
func NewMemory(dir string, tag CompressionTag) *Memory {
	return &Memory{dir: dir, tag: tag}
}

var _ Engine = (*Memory)(nil)

// NewProject implements Engine.
func (m *Memory) NewProject(name string, width, height, depth int) error {
	if width <= 0 {
		width = defaultCanvas
	}
	if height <= 0 {
		height = defaultCanvas
	}
	if depth <= 0 {
		depth = defaultCanvas
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.project = &project{
		name:   name,
		width:  width,
		height: height,
		depth:  depth,
		layers: []*layer{{name: defaultLayerName, visible: true, voxels: map[Pos]Color{}}},
		active: 0,
		dirty:  true,
	}
	return nil
}

// Open implements Engine.
func (m *Memory) Open(path string) error {
	resolved := m.resolve(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", resolved, err)
	}
	p, err := decodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("opening %s: %w", resolved, err)
	}
	p.path = resolved

	m.mu.Lock()
	defer m.mu.Unlock()
	m.project = p
	return nil
}

// Save implements Engine.
func (m *Memory) Save(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return "", ErrNoProject
	}
	resolved := m.project.path
	if path != "" {
		resolved = m.resolve(path)
	} else if resolved == "" {
		return "", ErrNoSavePath
	}

	data, err := encodeSnapshot(m.project, m.tag)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(resolved, data); err != nil {
		return "", err
	}
	m.project.path = resolved
	m.project.dirty = false
	return resolved, nil
}

// Export implements Engine.
func (m *Memory) Export(path, format string) (string, error) {
	tag, err := ParseCompression(format)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return "", ErrNoProject
	}
	if path == "" {
		return "", fmt.Errorf("export path is required")
	}
	resolved := m.resolve(path)

	data, err := encodeSnapshot(m.project, tag)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(resolved, data); err != nil {
		return "", err
	}
	return resolved, nil
}

// AddVoxel implements Engine.
func (m *Memory) AddVoxel(layerName string, pos Pos, color Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.mutableLayer(layerName)
	if err != nil {
		return err
	}
	l.voxels[pos] = color
	m.project.dirty = true
	return nil
}

// RemoveVoxel implements Engine.
func (m *Memory) RemoveVoxel(layerName string, pos Pos) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.mutableLayer(layerName)
	if err != nil {
		return false, err
	}
	if _, ok := l.voxels[pos]; !ok {
		return false, nil
	}
	delete(l.voxels, pos)
	m.project.dirty = true
	return true, nil
}

// GetVoxel implements Engine.
func (m *Memory) GetVoxel(layerName string, pos Pos) (Color, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return Color{}, false, ErrNoProject
	}
	if layerName != "" {
		l := m.project.findLayer(layerName)
		if l == nil {
			return Color{}, false, fmt.Errorf("%w: %q", ErrUnknownLayer, layerName)
		}
		color, ok := l.voxels[pos]
		return color, ok, nil
	}
	// Merged view: later layers sit on top of earlier ones.
	for i := len(m.project.layers) - 1; i >= 0; i-- {
		l := m.project.layers[i]
		if !l.visible {
			continue
		}
		if color, ok := l.voxels[pos]; ok {
			return color, true, nil
		}
	}
	return Color{}, false, nil
}

// CreateLayer implements Engine.
func (m *Memory) CreateLayer(name string) error {
	if name == "" {
		return fmt.Errorf("layer name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return ErrNoProject
	}
	if m.project.findLayer(name) != nil {
		return fmt.Errorf("layer %q already exists", name)
	}
	m.project.layers = append(m.project.layers, &layer{
		name:    name,
		visible: true,
		voxels:  map[Pos]Color{},
	})
	m.project.active = len(m.project.layers) - 1
	m.project.dirty = true
	return nil
}

// Layers implements Engine.
func (m *Memory) Layers() ([]LayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return nil, ErrNoProject
	}
	infos := make([]LayerInfo, len(m.project.layers))
	for i, l := range m.project.layers {
		infos[i] = LayerInfo{
			Name:    l.name,
			Visible: l.visible,
			Voxels:  len(l.voxels),
			Active:  i == m.project.active,
		}
	}
	return infos, nil
}

// Stats implements Engine.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return Stats{}
	}
	p := m.project
	stats := Stats{
		Open:   true,
		Name:   p.name,
		Width:  p.width,
		Height: p.height,
		Depth:  p.depth,
		Layers: len(p.layers),
		Dirty:  p.dirty,
		Path:   p.path,
	}
	for _, l := range p.layers {
		stats.Voxels += len(l.voxels)
		for pos := range l.voxels {
			if stats.Bounds == nil {
				stats.Bounds = &Box{Min: pos, Max: pos}
				continue
			}
			stats.Bounds.extend(pos)
		}
	}
	return stats
}

// mutableLayer resolves the layer a mutation targets: the named layer,
// or the active one for an empty name. Callers hold m.mu.
func (m *Memory) mutableLayer(name string) (*layer, error) {
	if m.project == nil {
		return nil, ErrNoProject
	}
	if name == "" {
		return m.project.layers[m.project.active], nil
	}
	l := m.project.findLayer(name)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	return l, nil
}

func (p *project) findLayer(name string) *layer {
	for _, l := range p.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

// resolve turns a possibly relative snapshot path into the path used
// for file operations.
func (m *Memory) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}
