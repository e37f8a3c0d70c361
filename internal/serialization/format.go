package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "LDNN"
	FormatVersion   = 1
	HeaderAlignment = 64 // layer data starts on a 64-byte boundary
	ChecksumSize    = 32 // SHA-256
)

// Layer kinds stored in the header.
const (
	KindAffine  = "affine"
	KindSoftmax = "softmax"
)

// Header is the JSON header of an .ldnn file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Layers        []LayerMeta       `json:"layers"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// LayerMeta describes one layer in the file.
type LayerMeta struct {
	Kind        string `json:"kind"` // "affine" or "softmax"
	Rows        int    `json:"rows"` // weight rows (input dim + 1)
	Cols        int    `json:"cols"` // weight cols (output dim)
	OutputLayer bool   `json:"output_layer"`
	Offset      int64  `json:"offset"` // bytes from start of data section
	Size        int64  `json:"size"`   // bytes
}

// LayerRecord is the in-memory form of a serialized layer. Data holds
// the column-major weight values.
type LayerRecord struct {
	Kind        string
	Rows        int
	Cols        int
	OutputLayer bool
	Data        []float32
}
