package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry_Embedded(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	list := r.List()
	if len(list) != len(AnalysisKinds)+2 {
		t.Fatalf("expected %d endpoints, got %d", len(AnalysisKinds)+2, len(list))
	}
	if list[0].Kind != KindIndex || list[1].Kind != KindHealth {
		t.Errorf("file order lost: %s, %s", list[0].Kind, list[1].Kind)
	}

	tests := []struct {
		kind    Kind
		pattern string
		partial bool
	}{
		{KindIndex, "GET /{$}", false},
		{KindArticle, "GET /api/article", true},
		{KindEditors, "GET /api/editors", false},
		{KindEditTimeline, "GET /api/edit-timeline", false},
		{KindCountries, "GET /api/countries", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ep, ok := r.Get(tt.kind)
			if !ok {
				t.Fatalf("kind %s missing", tt.kind)
			}
			if ep.Pattern() != tt.pattern || ep.Partial != tt.partial {
				t.Errorf("got %s partial=%v, want %s partial=%v", ep.Pattern(), ep.Partial, tt.pattern, tt.partial)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	valid := func(extra string) string {
		var b strings.Builder
		b.WriteString("endpoints:\n")
		for _, k := range AnalysisKinds {
			b.WriteString("  " + string(k) + ":\n    method: GET\n    path: /api/" + string(k) + "\n")
		}
		b.WriteString(extra)
		return b.String()
	}

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown kind", valid("  shiny:\n    method: GET\n    path: /api/shiny\n"), "unknown endpoint kind"},
		{"duplicate route", valid("  health:\n    method: GET\n    path: /api/edits\n"), "already used"},
		{"relative path", valid("  health:\n    method: GET\n    path: health\n"), "endpoint \"health\""},
		{"facets on strict endpoint", valid("  health:\n    method: GET\n    path: /health\n    facets: [x]\n"), "endpoint \"health\""},
		{"missing analysis kind", "endpoints:\n  health:\n    method: GET\n    path: /health\n", "no endpoint defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte(valid(""))); err != nil {
		t.Errorf("valid definitions rejected: %v", err)
	}
}

func TestRegistry_Mount(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	handlers := make(map[Kind]http.HandlerFunc)
	for _, ep := range r.List() {
		kind := ep.Kind
		handlers[kind] = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(kind))
		}
	}

	mux := http.NewServeMux()
	if err := r.Mount(mux, handlers); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	for path, want := range map[string]string{"/": "index", "/api/co-editors": "co_editors", "/health": "health"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Body.String() != want {
			t.Errorf("GET %s served by %q, want %q", path, rec.Body.String(), want)
		}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("root pattern must not catch /nope, got %d", rec.Code)
	}

	delete(handlers, KindPageviews)
	if err := r.Mount(http.NewServeMux(), handlers); err == nil {
		t.Error("missing handler must fail")
	}
	handlers[KindPageviews] = handlers[KindHealth]
	handlers["bogus"] = handlers[KindHealth]
	if err := r.Mount(http.NewServeMux(), handlers); err == nil {
		t.Error("handler without endpoint must fail")
	}
}
