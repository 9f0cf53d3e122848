package endpoints

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind names one request kind. Each kind is served by exactly one handler.
type Kind string

const (
	KindIndex        Kind = "index"
	KindHealth       Kind = "health"
	KindArticle      Kind = "article"
	KindEdits        Kind = "edits"
	KindEditors      Kind = "editors"
	KindCitations    Kind = "citations"
	KindEditTimeline Kind = "edit_timeline"
	KindReverts      Kind = "reverts"
	KindReverters    Kind = "reverters"
	KindCoEditors    Kind = "co_editors"
	KindPageviews    Kind = "pageviews"
	KindCountries    Kind = "countries"
)

// AnalysisKinds are the kinds backed by an analysis pipeline
var AnalysisKinds = []Kind{
	KindArticle,
	KindEdits,
	KindEditors,
	KindCitations,
	KindEditTimeline,
	KindReverts,
	KindReverters,
	KindCoEditors,
	KindPageviews,
	KindCountries,
}

// Known reports whether k is a kind the server knows how to serve
func Known(k Kind) bool {
	switch k {
	case KindIndex, KindHealth:
		return true
	}
	for _, a := range AnalysisKinds {
		if a == k {
			return true
		}
	}
	return false
}

// Endpoint describes how one request kind is exposed
type Endpoint struct {
	// Kind is set from the YAML key
	Kind Kind `yaml:"-" json:"kind"`

	Method      string `yaml:"method" json:"method"`
	Path        string `yaml:"path" json:"path"`
	Description string `yaml:"description" json:"description"`

	// Partial means the view may be returned incomplete; Facets lists the
	// upstream facets allowed to degrade
	Partial bool     `yaml:"partial" json:"partial"`
	Facets  []string `yaml:"facets" json:"facets,omitempty"`
}

// Pattern returns the net/http ServeMux pattern, e.g. "GET /api/article".
// The root path is pinned with {$} so it does not match every request.
func (e Endpoint) Pattern() string {
	path := e.Path
	if path == "/" {
		path = "/{$}"
	}
	return e.Method + " " + path
}

// endpointFile is the decoded YAML document
type endpointFile struct {
	Endpoints []Endpoint `yaml:"-"`
}

// UnmarshalYAML keeps endpoints in file order
func (f *endpointFile) UnmarshalYAML(node *yaml.Node) error {
	var m struct {
		Endpoints map[string]Endpoint `yaml:"endpoints"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "endpoints" {
			continue
		}
		list := node.Content[i+1]
		for j := 0; j < len(list.Content); j += 2 {
			key := list.Content[j].Value
			ep, ok := m.Endpoints[key]
			if !ok {
				return fmt.Errorf("endpoint %q: empty definition", key)
			}
			ep.Kind = Kind(key)
			f.Endpoints = append(f.Endpoints, ep)
		}
		break
	}
	return nil
}
