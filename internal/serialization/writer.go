package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// WriteModel serializes a layer stack to path in .ldnn format.
func WriteModel(path string, layers []LayerRecord) error {
	return WriteModelWithMetadata(path, layers, nil)
}

// WriteModelWithMetadata serializes a layer stack with custom metadata
// entries in the header.
func WriteModelWithMetadata(path string, layers []LayerRecord, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
		Layers:        make([]LayerMeta, 0, len(layers)),
	}

	// Lay out the data section and build it in memory; weight
	// matrices are small enough that staging them whole is fine.
	var offset int64
	for i, l := range layers {
		if l.Kind != KindAffine && l.Kind != KindSoftmax {
			return fmt.Errorf("layer %d: unknown kind %q", i, l.Kind)
		}
		if len(l.Data) != l.Rows*l.Cols {
			return fmt.Errorf("layer %d: %w: %d values for %dx%d weight",
				i, ErrBadLayerMeta, len(l.Data), l.Rows, l.Cols)
		}
		size := int64(len(l.Data)) * 4
		header.Layers = append(header.Layers, LayerMeta{
			Kind:        l.Kind,
			Rows:        l.Rows,
			Cols:        l.Cols,
			OutputLayer: l.OutputLayer,
			Offset:      offset,
			Size:        size,
		})
		offset += size
	}

	data := make([]byte, offset)
	for i, l := range layers {
		pos := header.Layers[i].Offset
		for _, v := range l.Data {
			binary.LittleEndian.PutUint32(data[pos:], math.Float32bits(v))
			pos += 4
		}
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if _, err := file.Write(checksum[:]); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(len(MagicBytes)) + 4 + ChecksumSize + 8 + int64(len(headerJSON))
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write layer data: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}
