package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/go-resty/resty/v2"
	"github.com/paulmach/orb/geojson"
)

// Client searches a STAC API.
type Client struct {
	conf config.Catalog
	http *doer
	log  *logger.Logger
}

// NewClient returns a new STAC search client.
func NewClient(conf config.Catalog, log *logger.Logger) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(conf.URL, "/")).
		SetTimeout(conf.Timeout.AsDuration()).
		SetHeader("Accept", "application/geo+json, application/json")

	if conf.SubscriptionKey != "" {
		rest.SetHeader(subscriptionKeyHeader, conf.SubscriptionKey)
	}

	return &Client{
		conf: conf,
		http: newDoer(rest, conf.MaxRetries, log),
		log:  log,
	}
}

// SearchBody returns the STAC item search request body for the filter.
// Cloud cover is a strict less-than predicate.
func SearchBody(f Filter, limit int) map[string]interface{} {
	body := map[string]interface{}{
		"collections": []string{f.Collection},
		"intersects":  geojson.NewGeometry(f.Area),
		"datetime":    f.Datetime(),
		"query": map[string]interface{}{
			"eo:cloud_cover": map[string]interface{}{"lt": f.CloudCover},
		},
	}
	if limit > 0 {
		body["limit"] = limit
	}
	return body
}

// Search returns every scene matching the filter, following "next" links
// until the catalog reports no more pages.
func (c *Client) Search(ctx context.Context, f Filter) ([]Scene, error) {
	var scenes []Scene

	method := http.MethodPost
	url := "/search"
	body := SearchBody(f, c.conf.PageSize)

	for page := 1; ; page++ {
		var res itemCollection
		var reqBody interface{}
		if body != nil {
			reqBody = body
		}
		if err := c.http.do(ctx, method, url, reqBody, &res); err != nil {
			return nil, fmt.Errorf("searching catalog: %w", err)
		}

		for _, it := range res.Features {
			scenes = append(scenes, it.scene())
		}
		c.log.Debug("catalog page", "page", page, "items", len(res.Features))

		next := res.next()
		if next == nil || next.Href == "" || len(res.Features) == 0 {
			break
		}

		url = next.Href
		switch {
		case strings.EqualFold(next.Method, http.MethodPost) || next.Body != nil:
			method = http.MethodPost
			body = nextBody(body, next)
		default:
			method = http.MethodGet
			body = nil
		}
	}

	return scenes, nil
}

func nextBody(prev map[string]interface{}, next *link) map[string]interface{} {
	if !next.Merge || prev == nil {
		return next.Body
	}
	merged := make(map[string]interface{}, len(prev)+len(next.Body))
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range next.Body {
		merged[k] = v
	}
	return merged
}
