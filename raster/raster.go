// Package raster reads and writes single band rasters with GDAL.
package raster

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

// Band is one raster band read as float32, with the georeferencing of the
// dataset it came from.
type Band struct {
	Width  int
	Height int
	// Data holds Height rows of Width pixels.
	Data         []float32
	GeoTransform [6]float64
	Projection   string
	Metadata     map[string]string
	NoData       float64
	HasNoData    bool
}

// SameGrid reports whether both bands have the same dimensions.
func (b *Band) SameGrid(o *Band) bool {
	return b.Width == o.Width && b.Height == o.Height
}

var registerOnce sync.Once

// GDAL reads rasters from local paths and http(s) URLs and writes
// LZW-compressed GeoTIFFs.
type GDAL struct {
	// ConfigOptions are GDAL configuration options (KEY=VALUE) applied when
	// opening remote rasters.
	ConfigOptions []string
}

// NewGDAL registers the GDAL drivers and returns a new GDAL.
func NewGDAL() *GDAL {
	registerOnce.Do(godal.RegisterAll)
	return &GDAL{
		ConfigOptions: []string{
			"GDAL_DISABLE_READDIR_ON_OPEN=EMPTY_DIR",
			"CPL_VSIL_CURL_ALLOWED_EXTENSIONS=.tif,.TIF,.tiff",
		},
	}
}

// VSIPath returns the GDAL path for href. http(s) URLs are read through
// the /vsicurl/ virtual file system.
func VSIPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

// ReadBand reads the first band of the raster at href.
func (g *GDAL) ReadBand(ctx context.Context, href string) (*Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts []godal.OpenOption
	if len(g.ConfigOptions) > 0 {
		opts = append(opts, godal.ConfigOption(g.ConfigOptions...))
	}
	ds, err := godal.Open(VSIPath(href), opts...)
	if err != nil {
		return nil, fmt.Errorf("opening raster %s: %w", redact(href), err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %s has no bands", redact(href))
	}
	st := ds.Structure()

	b := &Band{
		Width:      st.SizeX,
		Height:     st.SizeY,
		Data:       make([]float32, st.SizeX*st.SizeY),
		Projection: ds.Projection(),
		Metadata:   ds.Metadatas(),
	}
	if err := bands[0].Read(0, 0, b.Data, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("reading raster %s: %w", redact(href), err)
	}
	if gt, err := ds.GeoTransform(); err == nil {
		b.GeoTransform = gt
	}
	if nd, ok := bands[0].NoData(); ok {
		b.NoData, b.HasNoData = nd, true
	}
	return b, nil
}

// WriteBand writes b as a single band float32 GeoTIFF with LZW compression.
func (g *GDAL) WriteBand(path string, b *Band) error {
	if len(b.Data) != b.Width*b.Height {
		return fmt.Errorf("band has %d pixels, expected %dx%d", len(b.Data), b.Width, b.Height)
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, b.Width, b.Height,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	werr := write(ds, b)
	if err := ds.Close(); err != nil && werr == nil {
		werr = fmt.Errorf("closing %s: %w", path, err)
	}
	return werr
}

func write(ds *godal.Dataset, b *Band) error {
	if b.GeoTransform != ([6]float64{}) {
		if err := ds.SetGeoTransform(b.GeoTransform); err != nil {
			return err
		}
	}
	if b.Projection != "" {
		if err := ds.SetProjection(b.Projection); err != nil {
			return err
		}
	}
	for k, v := range b.Metadata {
		if err := ds.SetMetadata(k, v); err != nil {
			return err
		}
	}

	band := ds.Bands()[0]
	if b.HasNoData {
		if err := band.SetNoData(b.NoData); err != nil {
			return err
		}
	}
	return band.Write(0, 0, b.Data, b.Width, b.Height)
}

// redact drops the query string, which may hold a SAS token.
func redact(href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		return href[:i]
	}
	return href
}
