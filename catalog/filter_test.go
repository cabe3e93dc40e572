package catalog

import (
	"testing"
	"time"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)

func search(coords, start, end, cloud string) config.Search {
	return config.Search{
		Satellite:      "Sentinel2",
		PostProcessing: "NDVI",
		Coordinates:    coords,
		DateRangeStart: start,
		DateRangeEnd:   end,
		CloudCover:     cloud,
	}
}

func TestFilterCoordinates(t *testing.T) {
	f, err := NewFilter(search("51.5,4.25,52,5", "", "", "10"), testNow)
	require.NoError(t, err)

	expected := orb.Polygon{orb.Ring{
		{4.25, 51.5}, {5, 51.5}, {5, 52}, {4.25, 52}, {4.25, 51.5},
	}}
	assert.Equal(t, expected, f.Area)
	assert.NotContains(t, f.Defaulted, "coordinates")
}

func TestFilterInvalidCoordinatesFallBack(t *testing.T) {
	for _, coords := range []string{
		"",
		"a,b,c,d",
		"51,4,52",
		"1,2,3,4,5",
		"91,4,92,5",
		"51,181,52,5",
		"-91,4,52,5",
		"51,4,52,-180.5",
		"NaN,4,52,5",
		"51,4,52,Inf",
		"51,4,51,5",
		"51,4,52,4",
	} {
		f, err := NewFilter(search(coords, "", "", "10"), testNow)
		require.NoError(t, err, coords)
		assert.Equal(t, DefaultArea, f.Area, coords)
		assert.Contains(t, f.Defaulted, "coordinates", coords)
	}
}

func TestFilterDates(t *testing.T) {
	f, err := NewFilter(search("", "2023-05-01", "2023-06-01", "10"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-01/2023-06-01", f.DateRange())
	assert.Equal(t, "2023-05-01T00:00:00Z/2023-06-01T23:59:59Z", f.Datetime())
	assert.NotContains(t, f.Defaulted, "dates")
}

func TestFilterUnpaddedDates(t *testing.T) {
	f, err := NewFilter(search("", "2023-5-1", "2023-6-1", "10"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-01/2023-06-01", f.DateRange())
	assert.NotContains(t, f.Defaulted, "dates")

	f, err = NewFilter(search("", "2023-05-1", " 2023-6-01", "10"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-01/2023-06-01", f.DateRange())
	assert.NotContains(t, f.Defaulted, "dates")
}

func TestFilterInvalidDatesFallBack(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"2023-06-01", "2023-05-01"},
		{"2023-06-01", "2023-06-01"},
		{"2023/05/01", "2023-06-01"},
		{"2023-05-01", "tomorrow"},
		{"2023-02-30", "2023-06-01"},
	}
	for _, c := range cases {
		f, err := NewFilter(search("", c[0], c[1], "10"), testNow)
		require.NoError(t, err)
		assert.Equal(t, DefaultStart, f.Start, c)
		assert.Equal(t, "2023-01-01/2024-03-15", f.DateRange(), c)
		assert.Contains(t, f.Defaulted, "dates", c)
	}
}

func TestFilterCloudCover(t *testing.T) {
	cases := map[string]float64{
		"10":    10,
		"25.5":  25.5,
		"0":     0,
		"100":   100,
		"150":   100,
		"-5":    0,
		"abc":   100,
		"":      100,
		"NaN":   100,
		"+Inf":  100,
		" 42 ":  42,
		"1e400": 100,
	}
	for in, expected := range cases {
		f, err := NewFilter(search("", "", "", in), testNow)
		require.NoError(t, err)
		assert.Equal(t, expected, f.CloudCover, in)
	}
}

func TestFilterSatellite(t *testing.T) {
	for _, sat := range []string{"Sentinel2", "sentinel2", "sentinel-2-l2a", ""} {
		s := search("", "", "", "10")
		s.Satellite = sat
		f, err := NewFilter(s, testNow)
		require.NoError(t, err, sat)
		assert.Equal(t, Sentinel2L2A, f.Collection)
	}

	s := search("", "", "", "10")
	s.Satellite = "Landsat8"
	_, err := NewFilter(s, testNow)
	assert.EqualError(t, err, `unsupported satellite "Landsat8"`)
}

func TestFilterPostProcessing(t *testing.T) {
	s := search("", "", "", "10")
	s.PostProcessing = "ndvi"
	f, err := NewFilter(s, testNow)
	require.NoError(t, err)
	assert.Equal(t, NDVI, f.PostProcessing)

	s.PostProcessing = "EVI"
	_, err = NewFilter(s, testNow)
	assert.EqualError(t, err, `unsupported post-processing "EVI"`)
}
