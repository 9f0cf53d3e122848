package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"limit=", 0, false},
		{"limit=25", 25, false},
		{"limit=%2025%20", 25, false},
		{"limit=-3", -3, false},
		{"limit=ten", 0, true},
		{"limit=1.5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/editors?"+tt.query, nil)
			got, err := QueryInt(r, "limit")
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("QueryInt = %d, %v, want %d (err %v)", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/reverts?title=x", nil)
	r = WithRequestID(r, "req-1")
	rec := httptest.NewRecorder()

	RespondErrorWithExtras(rec, r, http.StatusServiceUnavailable, "revisions: source unavailable", map[string]interface{}{"source": "revisions"})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]interface{}{
		"type":       "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.4",
		"title":      "Service Unavailable",
		"status":     float64(503),
		"detail":     "revisions: source unavailable",
		"instance":   "/api/reverts",
		"request_id": "req-1",
		"source":     "revisions",
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s = %v, want %v", k, body[k], v)
		}
	}
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
