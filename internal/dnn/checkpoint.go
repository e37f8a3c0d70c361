package dnn

import (
	"fmt"

	"github.com/ycktw/libdnn/internal/mat"
	"github.com/ycktw/libdnn/internal/serialization"
)

// SaveModel writes a layer stack to an .ldnn file. Weights are read
// back from the device once per layer.
func SaveModel(path string, layers []FeatureTransform) error {
	records := make([]serialization.LayerRecord, 0, len(layers))
	for i, layer := range layers {
		w := layer.W()
		rec := serialization.LayerRecord{
			Rows: w.Rows(),
			Cols: w.Cols(),
			Data: w.Data(),
		}
		switch l := layer.(type) {
		case *Softmax:
			rec.Kind = serialization.KindSoftmax
			rec.OutputLayer = l.OutputLayer()
		case *AffineTransform:
			rec.Kind = serialization.KindAffine
			rec.OutputLayer = l.OutputLayer()
		default:
			return fmt.Errorf("dnn: cannot serialize layer %d (%T)", i, layer)
		}
		records = append(records, rec)
	}
	return serialization.WriteModel(path, records)
}

// LoadModel reads a layer stack from an .ldnn file, allocating the
// weights on the given backend. Gradients start zeroed.
func LoadModel(path string, b mat.Backend) ([]FeatureTransform, error) {
	records, err := serialization.ReadModel(path)
	if err != nil {
		return nil, err
	}

	layers := make([]FeatureTransform, 0, len(records))
	for i, rec := range records {
		w, err := mat.FromSlice(rec.Data, rec.Rows, rec.Cols, b)
		if err != nil {
			return nil, fmt.Errorf("dnn: layer %d: %w", i, err)
		}
		switch rec.Kind {
		case serialization.KindSoftmax:
			l := NewSoftmax(w)
			l.SetOutputLayer(rec.OutputLayer)
			layers = append(layers, l)
		case serialization.KindAffine:
			l := NewAffine(w)
			l.SetOutputLayer(rec.OutputLayer)
			layers = append(layers, l)
		default:
			return nil, fmt.Errorf("dnn: layer %d: unknown kind %q", i, rec.Kind)
		}
	}
	return layers, nil
}
