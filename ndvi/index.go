// Package ndvi computes the Normalized Difference Vegetation Index of a
// scene from its red and near-infrared bands.
package ndvi

import (
	"fmt"
)

// Index returns (nir - red) / (nir + red) for every pixel. Division follows
// IEEE 754: pixels where both bands are zero are NaN, and NaN inputs
// propagate.
func Index(red, nir []float32) ([]float32, error) {
	if len(red) != len(nir) {
		return nil, fmt.Errorf("band size mismatch: red has %d pixels, nir has %d", len(red), len(nir))
	}

	out := make([]float32, len(red))
	for i := range red {
		out[i] = (nir[i] - red[i]) / (nir[i] + red[i])
	}
	return out, nil
}
