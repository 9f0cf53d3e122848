package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// QueryString returns the trimmed query parameter, "" when absent
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// QueryInt parses an optional integer query parameter. Absent or empty
// parameters yield 0 so the service applies its default.
func QueryInt(r *http.Request, key string) (int, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
