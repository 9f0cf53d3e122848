package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"wikidash/internal/domain/models/wiki"
)

const (
	// DefaultPageviewsURL is the Wikimedia REST per-article pageviews endpoint
	DefaultPageviewsURL = "https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article"
	// DefaultProject is the wiki whose pageviews are requested
	DefaultProject = "en.wikipedia.org"

	pageviewDayLayout = "20060102"
)

// DailyViews is one item of the pageviews API response
type DailyViews struct {
	Date  wiki.Date
	Views int64
}

// PageviewsClient talks to the Wikimedia pageviews REST API
type PageviewsClient struct {
	baseURL string
	project string
	getter  getter
}

// NewPageviewsClient creates a pageviews client for one wiki project
func NewPageviewsClient(baseURL, project string, opts Options) *PageviewsClient {
	if baseURL == "" {
		baseURL = DefaultPageviewsURL
	}
	if project == "" {
		project = DefaultProject
	}
	return &PageviewsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		project: project,
		getter:  newGetter(opts),
	}
}

// Daily returns the daily view counts upstream has for the inclusive range.
// Days without data are simply absent. A 404 means no data for the whole
// range and yields an empty result, not an error.
func (c *PageviewsClient) Daily(ctx context.Context, title string, r wiki.DateRange) ([]DailyViews, error) {
	article := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	endpoint := fmt.Sprintf("%s/%s/all-access/all-agents/%s/daily/%s/%s",
		c.baseURL, c.project, article,
		r.Start.Format(pageviewDayLayout), r.End.Format(pageviewDayLayout))

	body, err := c.getter.get(ctx, endpoint)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	var out []DailyViews
	var parseErr error
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		// timestamps look like 2024020100 (YYYYMMDDHH)
		stamp := item.Get("timestamp").String()
		if len(stamp) < 8 {
			parseErr = fmt.Errorf("%w: timestamp %q", ErrMalformedResponse, stamp)
			return false
		}
		day, err := time.Parse(pageviewDayLayout, stamp[:8])
		if err != nil {
			parseErr = fmt.Errorf("%w: timestamp %q", ErrMalformedResponse, stamp)
			return false
		}
		out = append(out, DailyViews{Date: wiki.NewDate(day), Views: item.Get("views").Int()})
		return true
	})
	return out, parseErr
}
