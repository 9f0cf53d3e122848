package converter

import (
	"context"
	"strings"
	"testing"
)

const extract = `<p class="mw-empty-elt"></p><p><b>Go</b> is a <a href="/wiki/Programming_language">programming language</a> designed at Google.<script>alert(1)</script></p>`

func TestHTMLConverter(t *testing.T) {
	out, err := NewHTMLConverter().Convert(context.Background(), extract)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(out, "**Go**") {
		t.Errorf("expected bold markdown, got %q", out)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "<script") {
		t.Errorf("script survived sanitizing: %q", out)
	}
}

func TestTextConverter(t *testing.T) {
	out, err := NewTextConverter().Convert(context.Background(), extract)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := "Go is a programming language designed at Google."
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"", "markdown", false},
		{"markdown", "markdown", false},
		{"TEXT", "plaintext", false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.want)
			}
		})
	}
}
