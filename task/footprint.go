package task

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/util/fsutil"
	"github.com/paulmach/orb/geojson"
)

// WriteFootprint writes the scene geometry as "<output>.geojson" in dir and
// returns the written path.
func WriteFootprint(dir string, scene catalog.Scene) (string, error) {
	if scene.Geometry == nil {
		return "", fmt.Errorf("scene %s has no geometry", scene.ID)
	}

	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}

	b, err := geojson.NewGeometry(scene.Geometry).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding footprint of scene %s: %w", scene.ID, err)
	}

	p := filepath.Join(dir, OutputName(scene.ID)+".geojson")
	if err := os.WriteFile(p, b, 0644); err != nil {
		return "", fmt.Errorf("writing footprint of scene %s: %w", scene.ID, err)
	}
	return p, nil
}
