package ndvi

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/raster"
)

// Signer returns a fetchable URL for a catalog asset href.
type Signer interface {
	Sign(ctx context.Context, href string) (string, error)
}

// Reader reads the first band of a raster.
type Reader interface {
	ReadBand(ctx context.Context, href string) (*raster.Band, error)
}

// Writer writes a single band raster.
type Writer interface {
	WriteBand(path string, b *raster.Band) error
}

// Task computes the index raster of one scene. It runs once per scene on a
// compute node. Failures are returned as is: the platform decides whether
// the task is retried.
type Task struct {
	signer Signer
	reader Reader
	writer Writer
	log    *logger.Logger
}

// NewTask returns a new Task.
func NewTask(signer Signer, reader Reader, writer Writer, log *logger.Logger) *Task {
	return &Task{signer: signer, reader: reader, writer: writer, log: log}
}

// Run reads the red and near-infrared bands, computes the index and writes
// it to "<output>.tif". It returns the written path.
func (t *Task) Run(ctx context.Context, redHref, nirHref, output string) (string, error) {
	start := time.Now()

	red, err := t.read(ctx, "red", redHref)
	if err != nil {
		return "", err
	}
	nir, err := t.read(ctx, "nir", nirHref)
	if err != nil {
		return "", err
	}
	if !red.SameGrid(nir) {
		return "", fmt.Errorf("band dimensions differ: red is %dx%d, nir is %dx%d",
			red.Width, red.Height, nir.Width, nir.Height)
	}

	data, err := Index(red.Data, nir.Data)
	if err != nil {
		return "", err
	}

	path := output + ".tif"
	err = t.writer.WriteBand(path, &raster.Band{
		Width:        red.Width,
		Height:       red.Height,
		Data:         data,
		GeoTransform: red.GeoTransform,
		Projection:   red.Projection,
		Metadata:     red.Metadata,
		NoData:       math.NaN(),
		HasNoData:    true,
	})
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	t.log.Info("Wrote index raster",
		"path", path,
		"width", red.Width,
		"height", red.Height,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return path, nil
}

func (t *Task) read(ctx context.Context, name, href string) (*raster.Band, error) {
	signed, err := t.signer.Sign(ctx, href)
	if err != nil {
		return nil, fmt.Errorf("signing %s band: %w", name, err)
	}
	b, err := t.reader.ReadBand(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("reading %s band: %w", name, err)
	}
	t.log.Debug("Read band", "band", name, "width", b.Width, "height", b.Height)
	return b, nil
}
