package external

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultGeoURL is the ip-api.com JSON endpoint
const DefaultGeoURL = "http://ip-api.com/json"

// GeoClient looks up the country of a single IP address
type GeoClient struct {
	baseURL string
	getter  getter
}

// NewGeoClient creates a geolocation client
func NewGeoClient(baseURL string, opts Options) *GeoClient {
	if baseURL == "" {
		baseURL = DefaultGeoURL
	}
	return &GeoClient{baseURL: strings.TrimSuffix(baseURL, "/"), getter: newGetter(opts)}
}

// Country returns the ISO country code for ip. found is false when the
// upstream answered but does not know the address (reserved, unassigned).
func (c *GeoClient) Country(ctx context.Context, ip string) (code string, found bool, err error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status,message,countryCode", c.baseURL, url.PathEscape(ip))

	body, err := c.getter.get(ctx, endpoint)
	if err != nil {
		return "", false, err
	}
	if !gjson.ValidBytes(body) {
		return "", false, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	result := gjson.ParseBytes(body)
	if result.Get("status").String() != "success" {
		return "", false, nil
	}
	code = strings.ToUpper(result.Get("countryCode").String())
	if code == "" {
		return "", false, nil
	}
	return code, true, nil
}
