// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the codec applied to a snapshot body. The
// tag is stored in the snapshot header (1 byte). These values are
// format constants; changing them breaks existing snapshot files.
type CompressionTag uint8

const (
	// CompressionNone stores the CBOR body uncompressed. Also the
	// fallback when a body turns out incompressible.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression. Fast saves for large
	// documents at a modest ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at the default level. The standard
	// choice: voxel bodies are repetitive and compress well.
	CompressionZstd CompressionTag = 2
)

// String returns the codec name used in config and export formats.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompression parses a codec name as it appears in config and in
// export format parameters.
func ParseCompression(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression format: %q", name)
	}
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("document: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("document: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBody compresses a snapshot body with the requested codec.
// Returns the bytes to store and the tag actually used: incompressible
// bodies fall back to CompressionNone so the file never grows past the
// raw encoding.
func compressBody(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// decompressBody reverses compressBody. The uncompressedSize from the
// snapshot header must match the output length exactly; a mismatch is
// an error, not a truncation.
func decompressBody(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed body: size %d does not match expected %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		destination := make([]byte, 0, uncompressedSize)
		result, err := zstdDecoder.DecodeAll(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
