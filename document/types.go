// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Pos is a voxel coordinate. Coordinates are unbounded; project
// dimensions are a canvas hint, not a constraint.
type Pos struct {
	X, Y, Z int32
}

// String returns "(x,y,z)" for logs and errors.
func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Color is an RGBA voxel color.
type Color struct {
	R, G, B, A uint8
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA" hex notation, case
// insensitive. A six-digit color gets full opacity.
func ParseColor(s string) (Color, error) {
	if !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Errorf("color %q must start with '#'", s)
	}
	digits := s[1:]
	if len(digits) != 6 && len(digits) != 8 {
		return Color{}, fmt.Errorf("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	decoded, err := hex.DecodeString(digits)
	if err != nil {
		return Color{}, fmt.Errorf("color %q is not valid hex: %w", s, err)
	}
	c := Color{R: decoded[0], G: decoded[1], B: decoded[2], A: 0xff}
	if len(decoded) == 4 {
		c.A = decoded[3]
	}
	return c, nil
}

// String returns the canonical hex form: "#RRGGBB" for opaque colors,
// "#RRGGBBAA" otherwise.
func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// Box is an axis-aligned bounding box, inclusive on both ends.
type Box struct {
	Min, Max Pos
}

// extend grows the box to include p.
func (b *Box) extend(p Pos) {
	b.Min.X = min(b.Min.X, p.X)
	b.Min.Y = min(b.Min.Y, p.Y)
	b.Min.Z = min(b.Min.Z, p.Z)
	b.Max.X = max(b.Max.X, p.X)
	b.Max.Y = max(b.Max.Y, p.Y)
	b.Max.Z = max(b.Max.Z, p.Z)
}

// LayerInfo describes one layer for listing and status calls.
type LayerInfo struct {
	Name    string
	Visible bool
	Voxels  int
	Active  bool
}

// Stats is a point-in-time summary of the document.
type Stats struct {
	// Open reports whether a project is loaded. The remaining fields
	// are zero when it is false.
	Open   bool
	Name   string
	Width  int
	Height int
	Depth  int
	Layers int
	Voxels int
	// Dirty reports unsaved changes since the last save or open.
	Dirty bool
	// Path is where the project was last saved or opened from.
	Path string
	// Bounds covers every voxel in every layer; nil when the project
	// is empty.
	Bounds *Box
}
