package catalog

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Scene is one catalog item: a single satellite observation with multiple
// band assets. Scenes are immutable once retrieved.
type Scene struct {
	ID         string
	Collection string
	Geometry   orb.Geometry
	Datetime   time.Time
	CloudCover float64
	// Assets maps asset keys (e.g. "B04") to fetchable hrefs.
	Assets map[string]string
}

// Asset returns the href of the named asset.
func (s Scene) Asset(name string) (string, error) {
	href, ok := s.Assets[name]
	if !ok || href == "" {
		return "", fmt.Errorf("scene %s has no asset %q", s.ID, name)
	}
	return href, nil
}

// item is a STAC item as returned by the search endpoint.
type item struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties struct {
		Datetime   *time.Time `json:"datetime"`
		CloudCover *float64   `json:"eo:cloud_cover"`
	} `json:"properties"`
	Assets map[string]struct {
		Href string `json:"href"`
		Type string `json:"type"`
	} `json:"assets"`
}

func (i item) scene() Scene {
	s := Scene{
		ID:         i.ID,
		Collection: i.Collection,
		Assets:     make(map[string]string, len(i.Assets)),
	}
	if i.Geometry != nil {
		s.Geometry = i.Geometry.Geometry()
	}
	if i.Properties.Datetime != nil {
		s.Datetime = *i.Properties.Datetime
	}
	if i.Properties.CloudCover != nil {
		s.CloudCover = *i.Properties.CloudCover
	}
	for k, a := range i.Assets {
		s.Assets[k] = a.Href
	}
	return s
}

type link struct {
	Rel    string                 `json:"rel"`
	Href   string                 `json:"href"`
	Method string                 `json:"method"`
	Body   map[string]interface{} `json:"body"`
	Merge  bool                   `json:"merge"`
}

// itemCollection is one page of search results.
type itemCollection struct {
	Features []item `json:"features"`
	Links    []link `json:"links"`
}

func (c itemCollection) next() *link {
	for i := range c.Links {
		if c.Links[i].Rel == "next" {
			return &c.Links[i]
		}
	}
	return nil
}
