package external

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"wikidash/internal/retry"
)

const (
	// DefaultWikiAPIURL is the English Wikipedia action API endpoint
	DefaultWikiAPIURL = "https://en.wikipedia.org/w/api.php"

	revisionProps = "ids|timestamp|user|size|comment|sha1|flags"
)

// RevisionPageRequest asks for one page of history, newest first.
type RevisionPageRequest struct {
	Title    string
	Limit    int               // 0 = "max"
	Until    time.Time         // oldest timestamp to include (rvend), zero = none
	Continue map[string]string // continuation parameters from the previous page
}

// RawRevision is a history entry as the action API reports it
type RawRevision struct {
	ID         int64
	ParentID   int64
	Timestamp  time.Time
	User       string
	Anon       bool
	UserHidden bool
	Size       int
	Comment    string
	SHA1       string
}

// RevisionPage is one page of history plus the continuation to the next page.
// Continue is nil on the last page.
type RevisionPage struct {
	Title     string
	Revisions []RawRevision
	Continue  map[string]string
}

// RawSummary is the article intro as the extracts API reports it
type RawSummary struct {
	Title       string
	URL         string
	ExtractHTML string
}

// MediaWikiClient talks to the MediaWiki action API
type MediaWikiClient struct {
	apiURL string
	getter getter
}

// NewMediaWikiClient creates a client for the given api.php endpoint
func NewMediaWikiClient(apiURL string, opts Options) *MediaWikiClient {
	if apiURL == "" {
		apiURL = DefaultWikiAPIURL
	}
	return &MediaWikiClient{apiURL: apiURL, getter: newGetter(opts)}
}

// RevisionPage fetches one page of revisions for a title, newest first.
// Redirects are followed; RevisionPage.Title is the resolved title.
func (c *MediaWikiClient) RevisionPage(ctx context.Context, req RevisionPageRequest) (*RevisionPage, error) {
	params := c.baseParams()
	params.Set("prop", "revisions")
	params.Set("titles", req.Title)
	params.Set("redirects", "1")
	params.Set("rvprop", revisionProps)
	params.Set("rvdir", "older")
	if req.Limit > 0 {
		params.Set("rvlimit", strconv.Itoa(req.Limit))
	} else {
		params.Set("rvlimit", "max")
	}
	if !req.Until.IsZero() {
		params.Set("rvend", req.Until.UTC().Format(time.RFC3339))
	}
	for k, v := range req.Continue {
		params.Set(k, v)
	}

	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	page, err := firstPage(body)
	if err != nil {
		return nil, err
	}

	revs, err := parseRevisions(page.Get("revisions"))
	if err != nil {
		return nil, err
	}

	result := &RevisionPage{Title: page.Get("title").String(), Revisions: revs}
	if cont := gjson.GetBytes(body, "continue"); cont.Exists() {
		result.Continue = make(map[string]string)
		cont.ForEach(func(key, value gjson.Result) bool {
			result.Continue[key.String()] = value.String()
			return true
		})
	}
	return result, nil
}

// RevisionSizes returns the byte size of each requested revision id.
// Deleted or unknown ids are absent from the result.
func (c *MediaWikiClient) RevisionSizes(ctx context.Context, ids []int64) (map[int64]int, error) {
	sizes := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return sizes, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatInt(id, 10)
	}

	params := c.baseParams()
	params.Set("prop", "revisions")
	params.Set("revids", strings.Join(strIDs, "|"))
	params.Set("rvprop", "ids|size")

	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	gjson.GetBytes(body, "query.pages").ForEach(func(_, page gjson.Result) bool {
		page.Get("revisions").ForEach(func(_, rev gjson.Result) bool {
			sizes[rev.Get("revid").Int()] = int(rev.Get("size").Int())
			return true
		})
		return true
	})
	return sizes, nil
}

// Wikitext returns the current wikitext of the main slot.
func (c *MediaWikiClient) Wikitext(ctx context.Context, title string) (string, string, error) {
	params := c.baseParams()
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("redirects", "1")

	body, err := c.query(ctx, params)
	if err != nil {
		return "", "", err
	}

	page, err := firstPage(body)
	if err != nil {
		return "", "", err
	}
	content := page.Get("revisions.0.slots.main.content")
	if !content.Exists() {
		return "", "", fmt.Errorf("%w: no content for %q", ErrMalformedResponse, title)
	}
	return page.Get("title").String(), content.String(), nil
}

// ParsedHTML returns the rendered HTML of the article body.
func (c *MediaWikiClient) ParsedHTML(ctx context.Context, title string) (string, string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("page", title)
	params.Set("prop", "text")
	params.Set("redirects", "1")

	body, err := c.query(ctx, params)
	if err != nil {
		return "", "", err
	}

	text := gjson.GetBytes(body, "parse.text")
	if !text.Exists() {
		return "", "", fmt.Errorf("%w: parse.text missing", ErrMalformedResponse)
	}
	return gjson.GetBytes(body, "parse.title").String(), text.String(), nil
}

// Summary returns the intro extract (HTML) and canonical URL of a page.
func (c *MediaWikiClient) Summary(ctx context.Context, title string) (*RawSummary, error) {
	params := c.baseParams()
	params.Set("prop", "extracts|info")
	params.Set("exintro", "1")
	params.Set("inprop", "url")
	params.Set("titles", title)
	params.Set("redirects", "1")

	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	page, err := firstPage(body)
	if err != nil {
		return nil, err
	}
	return &RawSummary{
		Title:       page.Get("title").String(),
		URL:         page.Get("fullurl").String(),
		ExtractHTML: page.Get("extract").String(),
	}, nil
}

// FirstRevisionTime returns the timestamp of the page's oldest revision.
func (c *MediaWikiClient) FirstRevisionTime(ctx context.Context, title string) (time.Time, error) {
	params := c.baseParams()
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("rvprop", "timestamp")
	params.Set("rvlimit", "1")
	params.Set("rvdir", "newer")

	body, err := c.query(ctx, params)
	if err != nil {
		return time.Time{}, err
	}

	page, err := firstPage(body)
	if err != nil {
		return time.Time{}, err
	}
	ts := page.Get("revisions.0.timestamp")
	if !ts.Exists() {
		return time.Time{}, fmt.Errorf("%w: page has no revisions", ErrMalformedResponse)
	}
	return time.Parse(time.RFC3339, ts.String())
}

func (c *MediaWikiClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	return params
}

// query performs the request and turns API-level errors into Go errors.
func (c *MediaWikiClient) query(ctx context.Context, params url.Values) ([]byte, error) {
	body, err := c.getter.get(ctx, c.apiURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	if apiErr := gjson.GetBytes(body, "error"); apiErr.Exists() {
		code := apiErr.Get("code").String()
		info := apiErr.Get("info").String()
		switch code {
		case "missingtitle", "invalidtitle", "nosuchrevid":
			return nil, fmt.Errorf("%w: %s", ErrPageMissing, info)
		case "maxlag", "ratelimited", "readonly", "internal_api_error_DBQueryError":
			return nil, retry.Transient(fmt.Errorf("api error %s: %s", code, info))
		default:
			return nil, fmt.Errorf("api error %s: %s", code, info)
		}
	}
	return body, nil
}

// firstPage returns query.pages[0], mapping missing/invalid pages to ErrPageMissing
func firstPage(body []byte) (gjson.Result, error) {
	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() {
		return page, fmt.Errorf("%w: no pages in response", ErrMalformedResponse)
	}
	if page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return page, fmt.Errorf("%w: %s", ErrPageMissing, page.Get("title").String())
	}
	return page, nil
}

func parseRevisions(list gjson.Result) ([]RawRevision, error) {
	var out []RawRevision
	var parseErr error
	list.ForEach(func(_, rev gjson.Result) bool {
		ts, err := time.Parse(time.RFC3339, rev.Get("timestamp").String())
		if err != nil {
			parseErr = fmt.Errorf("%w: revision %d timestamp: %v", ErrMalformedResponse, rev.Get("revid").Int(), err)
			return false
		}
		out = append(out, RawRevision{
			ID:         rev.Get("revid").Int(),
			ParentID:   rev.Get("parentid").Int(),
			Timestamp:  ts,
			User:       rev.Get("user").String(),
			Anon:       rev.Get("anon").Bool(),
			UserHidden: rev.Get("userhidden").Bool(),
			Size:       int(rev.Get("size").Int()),
			Comment:    rev.Get("comment").String(),
			SHA1:       rev.Get("sha1").String(),
		})
		return true
	})
	return out, parseErr
}
