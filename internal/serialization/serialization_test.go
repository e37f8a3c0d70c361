package serialization_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycktw/libdnn/internal/serialization"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ldnn")

	in := []serialization.LayerRecord{
		{
			Kind: serialization.KindAffine,
			Rows: 3, Cols: 2,
			Data: []float32{0.1, 0.2, 0.3, -0.1, -0.2, -0.3},
		},
		{
			Kind: serialization.KindSoftmax,
			Rows: 3, Cols: 4,
			OutputLayer: true,
			Data: []float32{
				1, 2, 3, 4, 5, 6,
				7, 8, 9, 10, 11, 12,
			},
		},
	}
	require.NoError(t, serialization.WriteModel(path, in))

	out, header, err := serialization.ReadModelWithHeader(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, serialization.FormatVersion, header.FormatVersion)

	assert.Equal(t, in[0].Data, out[0].Data)
	assert.Equal(t, serialization.KindAffine, out[0].Kind)
	assert.False(t, out[0].OutputLayer)

	assert.Equal(t, in[1].Data, out[1].Data)
	assert.Equal(t, serialization.KindSoftmax, out[1].Kind)
	assert.True(t, out[1].OutputLayer)
	assert.Equal(t, 3, out[1].Rows)
	assert.Equal(t, 4, out[1].Cols)
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ldnn")

	layers := []serialization.LayerRecord{
		{Kind: serialization.KindAffine, Rows: 2, Cols: 1, Data: []float32{1, 2}},
	}
	meta := map[string]string{"trained_on": "xor"}
	require.NoError(t, serialization.WriteModelWithMetadata(path, layers, meta))

	_, header, err := serialization.ReadModelWithHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "xor", header.Metadata["trained_on"])
}

func TestWriteRejectsBadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ldnn")

	err := serialization.WriteModel(path, []serialization.LayerRecord{
		{Kind: serialization.KindAffine, Rows: 2, Cols: 2, Data: []float32{1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, serialization.ErrBadLayerMeta)

	err = serialization.WriteModel(path, []serialization.LayerRecord{
		{Kind: "conv", Rows: 1, Cols: 1, Data: []float32{1}},
	})
	require.Error(t, err)
}

func TestReadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ldnn")
	require.NoError(t, os.WriteFile(path, []byte("NOPE....junk"), 0o644))

	_, err := serialization.ReadModel(path)
	assert.ErrorIs(t, err, serialization.ErrInvalidMagic)
}

func TestReadDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ldnn")

	layers := []serialization.LayerRecord{
		{Kind: serialization.KindAffine, Rows: 2, Cols: 2, Data: []float32{1, 2, 3, 4}},
	}
	require.NoError(t, serialization.WriteModel(path, layers))

	// Flip a byte in the data section (the last byte of the file).
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = serialization.ReadModel(path)
	assert.True(t, errors.Is(err, serialization.ErrChecksumMismatch))
}

func TestChecksum(t *testing.T) {
	a := serialization.ComputeChecksum([]byte("hello"))
	b := serialization.ComputeChecksum([]byte("hello"))
	c := serialization.ComputeChecksum([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NoError(t, serialization.ValidateChecksum(a, b))
	assert.ErrorIs(t, serialization.ValidateChecksum(a, c), serialization.ErrChecksumMismatch)
}
