package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ImageVersion is the chunk image format version. Bump on any change to
// the opcode numbering or the Value encoding.
const ImageVersion = 1

// image is the on-disk envelope around a compiled chunk.
type image struct {
	Version int    `cbor:"version"`
	Chunk   *Chunk `cbor:"chunk"`
}

// Canonical mode keeps encoding deterministic: compiling the same source
// twice produces byte-identical images.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a chunk to CBOR image bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	return cborEncMode.Marshal(image{Version: ImageVersion, Chunk: c})
}

// UnmarshalChunk deserializes a chunk from CBOR image bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal chunk: %w", err)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("vm: unsupported image version %d", img.Version)
	}
	if img.Chunk == nil {
		return nil, fmt.Errorf("vm: image has no chunk")
	}
	if len(img.Chunk.Code) != len(img.Chunk.Lines) {
		return nil, fmt.Errorf("vm: corrupt image: %d code bytes, %d line records",
			len(img.Chunk.Code), len(img.Chunk.Lines))
	}
	return img.Chunk, nil
}
