// Package catalog searches a STAC catalog for satellite scenes and signs
// the asset hrefs of the scenes it finds.
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/paulmach/orb"
)

// DateLayout is the layout of search date range input.
const DateLayout = "2006-01-02"

// Sentinel2L2A is the only supported collection.
const Sentinel2L2A = "sentinel-2-l2a"

// NDVI is the only supported post-processing kind.
const NDVI = "NDVI"

// DefaultArea is the bounding box of the Netherlands, used whenever the
// coordinate input is missing or invalid.
var DefaultArea = orb.Polygon{orb.Ring{
	{7.09205325687, 50.803721015},
	{3.31497114423, 50.803721015},
	{3.31497114423, 53.5104033474},
	{7.09205325687, 53.5104033474},
	{7.09205325687, 50.803721015},
}}

// DefaultStart is the first day of the default date range. The default
// range ends today.
var DefaultStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

var collections = map[string]string{
	"sentinel2":      Sentinel2L2A,
	"sentinel-2":     Sentinel2L2A,
	"sentinel-2-l2a": Sentinel2L2A,
}

// Filter selects the scenes tasks are created for. It is built once per run
// by NewFilter and never mutated.
type Filter struct {
	Collection     string
	PostProcessing string
	Area           orb.Polygon
	Start          time.Time
	End            time.Time
	// CloudCover is the exclusive upper bound on scene cloud cover, in percent.
	CloudCover float64

	// Defaulted records which inputs were replaced by their defaults.
	Defaulted []string
}

// NewFilter builds a Filter from raw search input.
//
// Invalid coordinates, dates or cloud cover never fail: they are replaced by
// DefaultArea, DefaultStart through today, and 100 respectively. Only an
// unsupported satellite or post-processing value is an error.
func NewFilter(in config.Search, now time.Time) (Filter, error) {
	f := Filter{}

	col, err := parseCollection(in.Satellite)
	if err != nil {
		return f, err
	}
	f.Collection = col

	pp, err := parsePostProcessing(in.PostProcessing)
	if err != nil {
		return f, err
	}
	f.PostProcessing = pp

	if area, ok := parseArea(in.Coordinates); ok {
		f.Area = area
	} else {
		f.Area = DefaultArea
		f.Defaulted = append(f.Defaulted, "coordinates")
	}

	if start, end, ok := parseDates(in.DateRangeStart, in.DateRangeEnd); ok {
		f.Start, f.End = start, end
	} else {
		f.Start = DefaultStart
		f.End = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		f.Defaulted = append(f.Defaulted, "dates")
	}

	f.CloudCover = parseCloudCover(in.CloudCover)
	return f, nil
}

// DateRange returns the range as "start/end" dates.
func (f Filter) DateRange() string {
	return f.Start.Format(DateLayout) + "/" + f.End.Format(DateLayout)
}

// Datetime returns the STAC datetime interval covering every day of the
// range, from the start of the first day to the end of the last.
func (f Filter) Datetime() string {
	end := f.End.Add(24*time.Hour - time.Second)
	return f.Start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)
}

func parseCollection(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return Sentinel2L2A, nil
	}
	col, ok := collections[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unsupported satellite %q", s)
	}
	return col, nil
}

func parsePostProcessing(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", NDVI:
		return NDVI, nil
	default:
		return "", fmt.Errorf("unsupported post-processing %q", s)
	}
}

// parseArea parses "ll_lat,ll_lon,ur_lat,ur_lon" into a closed polygon ring.
func parseArea(s string) (orb.Polygon, bool) {
	parts := strings.SplitN(s, ",", 4)
	if len(parts) != 4 {
		return nil, false
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		v[i] = f
	}

	llLat, llLon, urLat, urLon := v[0], v[1], v[2], v[3]
	if !validCoordinate(llLat, llLon) || !validCoordinate(urLat, urLon) {
		return nil, false
	}
	// A box with zero width or height is treated as invalid input and falls
	// back to the default area, instead of being searched as a zero-area
	// polygon.
	if llLat == urLat || llLon == urLon {
		return nil, false
	}

	return orb.Polygon{orb.Ring{
		{llLon, llLat},
		{urLon, llLat},
		{urLon, urLat},
		{llLon, urLat},
		{llLon, llLat},
	}}, true
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// unpaddedDateLayout accepts month and day without a leading zero.
const unpaddedDateLayout = "2006-1-2"

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.Parse(unpaddedDateLayout, s)
	}
	return t, err
}

func parseDates(start, end string) (time.Time, time.Time, bool) {
	s, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	e, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}

func parseCloudCover(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 100
	}
	switch {
	case f > 100:
		return 100
	case f < 0:
		return 0
	}
	return f
}
