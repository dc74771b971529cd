// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/voxforge/voxd/lib/codec"
)

// Snapshot file layout:
//
//	offset  size  field
//	0       8     magic "VOXSNAP1"
//	8       1     compression tag
//	9       4     uncompressed body size, big-endian uint32
//	13      32    keyed BLAKE3 digest of the uncompressed body
//	45      ...   compressed canonical-CBOR body
//
// The digest is computed over the uncompressed body so it survives a
// change of compression codec. Canonical CBOR plus sorted voxel order
// makes the body (and therefore the digest) reproducible for an
// unchanged document.
const (
	snapshotMagic      = "VOXSNAP1"
	snapshotHeaderSize = 8 + 1 + 4 + 32

	// maxSnapshotBody caps the uncompressed body size accepted from a
	// header, bounding the allocation a corrupt file can cause.
	maxSnapshotBody = 1 << 30
)

// snapshotDomainKey is the BLAKE3 key for snapshot digests. The byte
// values are the ASCII domain name zero-padded to 32 bytes, so the key
// is readable in hex dumps; keyed mode treats it as opaque either way.
var snapshotDomainKey = [32]byte{
	'v', 'o', 'x', 'd', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// snapshotBody is the CBOR document inside a snapshot file.
type snapshotBody struct {
	Name   string          `cbor:"name"`
	Width  int             `cbor:"width"`
	Height int             `cbor:"height"`
	Depth  int             `cbor:"depth"`
	Active int             `cbor:"active"`
	Layers []snapshotLayer `cbor:"layers"`
}

type snapshotLayer struct {
	Name    string          `cbor:"name"`
	Visible bool            `cbor:"visible"`
	Voxels  []snapshotVoxel `cbor:"voxels"`
}

type snapshotVoxel struct {
	X int32   `cbor:"x"`
	Y int32   `cbor:"y"`
	Z int32   `cbor:"z"`
	C [4]byte `cbor:"c"`
}

// encodeSnapshot serializes a project to snapshot file bytes.
func encodeSnapshot(p *project, tag CompressionTag) ([]byte, error) {
	body := snapshotBody{
		Name:   p.name,
		Width:  p.width,
		Height: p.height,
		Depth:  p.depth,
		Active: p.active,
		Layers: make([]snapshotLayer, len(p.layers)),
	}
	for i, l := range p.layers {
		voxels := make([]snapshotVoxel, 0, len(l.voxels))
		for pos, color := range l.voxels {
			voxels = append(voxels, snapshotVoxel{
				X: pos.X, Y: pos.Y, Z: pos.Z,
				C: [4]byte{color.R, color.G, color.B, color.A},
			})
		}
		// Map iteration order is random; sort so identical documents
		// produce identical bytes and digests.
		slices.SortFunc(voxels, func(a, b snapshotVoxel) int {
			if c := cmp.Compare(a.Z, b.Z); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Y, b.Y); c != 0 {
				return c
			}
			return cmp.Compare(a.X, b.X)
		})
		body.Layers[i] = snapshotLayer{Name: l.name, Visible: l.visible, Voxels: voxels}
	}

	raw, err := codec.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot body: %w", err)
	}
	if uint64(len(raw)) > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot body is %d bytes, exceeds format limit", len(raw))
	}
	digest := snapshotDigest(raw)

	compressed, usedTag, err := compressBody(raw, tag)
	if err != nil {
		return nil, err
	}

	out := make([]byte, snapshotHeaderSize+len(compressed))
	copy(out[0:8], snapshotMagic)
	out[8] = byte(usedTag)
	binary.BigEndian.PutUint32(out[9:13], uint32(len(raw)))
	copy(out[13:45], digest[:])
	copy(out[snapshotHeaderSize:], compressed)
	return out, nil
}

// decodeSnapshot parses and validates snapshot file bytes into a
// project. All structural failures wrap ErrInvalidSnapshot.
func decodeSnapshot(data []byte) (*project, error) {
	if len(data) < snapshotHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidSnapshot, len(data))
	}
	if string(data[0:8]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidSnapshot, data[0:8])
	}
	tag := CompressionTag(data[8])
	size := binary.BigEndian.Uint32(data[9:13])
	if size > maxSnapshotBody {
		return nil, fmt.Errorf("%w: body size %d exceeds limit", ErrInvalidSnapshot, size)
	}
	var digest [32]byte
	copy(digest[:], data[13:45])

	raw, err := decompressBody(data[snapshotHeaderSize:], tag, int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if actual := snapshotDigest(raw); !bytes.Equal(actual[:], digest[:]) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrInvalidSnapshot)
	}

	var body snapshotBody
	if err := codec.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %v", ErrInvalidSnapshot, err)
	}
	if len(body.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidSnapshot)
	}
	if body.Active < 0 || body.Active >= len(body.Layers) {
		return nil, fmt.Errorf("%w: active layer %d out of range", ErrInvalidSnapshot, body.Active)
	}

	p := &project{
		name:   body.Name,
		width:  body.Width,
		height: body.Height,
		depth:  body.Depth,
		active: body.Active,
		layers: make([]*layer, len(body.Layers)),
	}
	for i, sl := range body.Layers {
		l := &layer{
			name:    sl.Name,
			visible: sl.Visible,
			voxels:  make(map[Pos]Color, len(sl.Voxels)),
		}
		for _, v := range sl.Voxels {
			l.voxels[Pos{X: v.X, Y: v.Y, Z: v.Z}] = Color{R: v.C[0], G: v.C[1], B: v.C[2], A: v.C[3]}
		}
		p.layers[i] = l
	}
	return p, nil
}

// snapshotDigest computes the snapshot-domain keyed BLAKE3 digest.
func snapshotDigest(data []byte) [32]byte {
	// NewKeyed only fails on wrong key length, which the fixed-size
	// array rules out.
	hasher, err := blake3.NewKeyed(snapshotDomainKey[:])
	if err != nil {
		panic("document: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// crashed save never leaves a half-written snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".voxsnap-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot to %s: %w", path, err)
	}

	success = true
	return nil
}
