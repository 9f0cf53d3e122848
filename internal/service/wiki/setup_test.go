package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wikidash/internal/config"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/service/wiki/converter"
)

const revisionsFixture = `{
	"query": {"pages": [{"pageid": 1, "title": "Go", "revisions": [
		{"revid": 103, "parentid": 102, "user": "Bob", "timestamp": "2024-01-04T10:00:00Z", "size": 500, "sha1": "aaa"},
		{"revid": 102, "parentid": 101, "user": "192.0.2.1", "anon": true, "timestamp": "2024-01-03T10:00:00Z", "size": 900, "sha1": "bbb"},
		{"revid": 101, "parentid": 0, "user": "Alice", "timestamp": "2024-01-02T10:00:00Z", "size": 500, "sha1": "aaa"}
	]}]}
}`

func testConfig(wikiURL string) *config.Config {
	return &config.Config{
		WikiAPIURL:          wikiURL,
		PageviewsAPIURL:     wikiURL,
		PageviewsProject:    "en.wikipedia.org",
		GeoAPIURL:           wikiURL,
		HTTPTimeout:         time.Second,
		RequestTimeout:      5 * time.Second,
		RetryMaxAttempts:    2,
		RetryBaseDelay:      time.Millisecond,
		RetryMaxDelay:       time.Millisecond,
		GeoCacheSize:        16,
		GeoCacheTTL:         time.Hour,
		GeoConcurrency:      2,
		GeoRatePerSec:       100,
		DefaultTopN:         10,
		DefaultTimezone:     "UTC",
		DefaultPageviewDays: 30,
		RevertStrategy:      "first",
		CitationFormat:      "wikitext",
	}
}

func TestRetryPolicy(t *testing.T) {
	cfg := testConfig("")
	cfg.RetryMaxAttempts = 7
	cfg.RetryBaseDelay = 50 * time.Millisecond
	cfg.RetryMaxDelay = time.Second

	p := RetryPolicy(cfg)
	if p.MaxAttempts != 7 || p.BaseDelay != 50*time.Millisecond || p.MaxDelay != time.Second {
		t.Errorf("unexpected policy: %+v", p)
	}
	if p.Multiplier <= 1 {
		t.Errorf("expected exponential growth, got multiplier %v", p.Multiplier)
	}
}

func TestSetupServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(revisionsFixture))
	}))
	defer srv.Close()

	t.Run("invalid strategy", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.RevertStrategy = "sideways"
		if _, err := SetupServices(cfg, converter.NewHTMLConverter(), testLogger); err == nil {
			t.Error("expected error for unknown revert strategy")
		}
	})

	t.Run("wired end to end", func(t *testing.T) {
		services, err := SetupServices(testConfig(srv.URL), converter.NewHTMLConverter(), testLogger)
		if err != nil {
			t.Fatalf("SetupServices: %v", err)
		}
		if services.GeoCache == nil {
			t.Error("geo cache not exposed")
		}

		counts, err := services.Analysis.EditCount(context.Background(), &wikiSvc.AnalysisRequest{Title: "Go"})
		if err != nil {
			t.Fatalf("EditCount: %v", err)
		}
		if counts.Total != 3 || counts.Anonymous != 1 || counts.Reverts != 1 {
			t.Errorf("unexpected counts: %+v", counts)
		}
	})
}
