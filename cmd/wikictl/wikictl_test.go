package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEndpointsCommand(t *testing.T) {
	out, err := run(t, "endpoints")
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	for _, want := range []string{"KIND", "GET /api/co-editors", "countries", "GET /health"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommand_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing title", []string{"analyze", "editors"}, "title"},
		{"unknown kind", []string{"analyze", "popularity", "--title", "Go"}, "unknown kind"},
		{"bad summary format", []string{"analyze", "article", "--title", "Go", "--summary-format", "pdf"}, "pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
