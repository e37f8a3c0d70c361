package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Headers above this size are rejected as corrupt.
const maxHeaderSize = 16 << 20

// ReadModel loads a layer stack from an .ldnn file, validating the
// data-section checksum.
func ReadModel(path string) ([]LayerRecord, error) {
	layers, _, err := ReadModelWithHeader(path)
	return layers, err
}

// ReadModelWithHeader loads a layer stack and returns the parsed
// header alongside it.
func ReadModelWithHeader(path string) ([]LayerRecord, *Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic)
	}

	var version uint32
	if err := binary.Read(file, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var stored [ChecksumSize]byte
	if _, err := io.ReadFull(file, stored[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to read checksum: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	pos := int64(len(MagicBytes)) + 4 + ChecksumSize + 8 + int64(headerSize)
	dataOffset := pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment

	info, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	dataSize := info.Size() - dataOffset
	if dataSize < 0 {
		return nil, nil, fmt.Errorf("%w: truncated file", ErrOutOfBounds)
	}

	data := make([]byte, dataSize)
	if _, err := file.ReadAt(data, dataOffset); err != nil {
		return nil, nil, fmt.Errorf("failed to read layer data: %w", err)
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, nil, err
	}

	layers := make([]LayerRecord, 0, len(header.Layers))
	for i, meta := range header.Layers {
		if meta.Kind != KindAffine && meta.Kind != KindSoftmax {
			return nil, nil, fmt.Errorf("layer %d: %w: unknown kind %q", i, ErrBadLayerMeta, meta.Kind)
		}
		if meta.Rows <= 0 || meta.Cols <= 0 {
			return nil, nil, fmt.Errorf("layer %d: %w: shape %dx%d", i, ErrBadLayerMeta, meta.Rows, meta.Cols)
		}
		want := int64(meta.Rows) * int64(meta.Cols) * 4
		if meta.Size != want {
			return nil, nil, fmt.Errorf("layer %d: %w: %d bytes for %dx%d weight",
				i, ErrBadLayerMeta, meta.Size, meta.Rows, meta.Cols)
		}
		if meta.Offset < 0 || meta.Offset+meta.Size > dataSize {
			return nil, nil, fmt.Errorf("layer %d: %w", i, ErrOutOfBounds)
		}

		values := make([]float32, meta.Rows*meta.Cols)
		for j := range values {
			bits := binary.LittleEndian.Uint32(data[meta.Offset+int64(j)*4:])
			values[j] = math.Float32frombits(bits)
		}
		layers = append(layers, LayerRecord{
			Kind:        meta.Kind,
			Rows:        meta.Rows,
			Cols:        meta.Cols,
			OutputLayer: meta.OutputLayer,
			Data:        values,
		})
	}
	return layers, &header, nil
}
