package endpoints

import (
	"embed"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const configFile = "config/endpoints.yaml"

// Registry maps request kinds to their HTTP exposure. It is loaded once at
// startup and read-only afterwards.
type Registry struct {
	endpoints []Endpoint
	byKind    map[Kind]Endpoint
}

// NewRegistry loads the embedded endpoint definitions
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML. Unknown kinds, duplicate routes and
// analysis kinds without an endpoint are errors.
func Parse(data []byte) (*Registry, error) {
	var file endpointFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endpoints: %w", err)
	}

	r := &Registry{byKind: make(map[Kind]Endpoint)}
	patterns := make(map[string]Kind)
	for _, ep := range file.Endpoints {
		if !Known(ep.Kind) {
			return nil, fmt.Errorf("unknown endpoint kind %q", ep.Kind)
		}
		ep.Method = strings.ToUpper(ep.Method)
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", ep.Kind, err)
		}
		if other, dup := patterns[ep.Pattern()]; dup {
			return nil, fmt.Errorf("endpoint %q: route %s already used by %q", ep.Kind, ep.Pattern(), other)
		}
		patterns[ep.Pattern()] = ep.Kind
		r.endpoints = append(r.endpoints, ep)
		r.byKind[ep.Kind] = ep
	}

	for _, k := range AnalysisKinds {
		if _, ok := r.byKind[k]; !ok {
			return nil, fmt.Errorf("no endpoint defined for kind %q", k)
		}
	}
	return r, nil
}

func validateEndpoint(ep Endpoint) error {
	return validation.ValidateStruct(&ep,
		validation.Field(&ep.Method, validation.Required, validation.In(http.MethodGet, http.MethodPost)),
		validation.Field(&ep.Path, validation.Required, validation.By(absolutePath)),
		validation.Field(&ep.Facets, validation.When(!ep.Partial, validation.Empty)),
	)
}

func absolutePath(value interface{}) error {
	path, _ := value.(string)
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

// Get returns the endpoint for a kind
func (r *Registry) Get(kind Kind) (Endpoint, bool) {
	ep, ok := r.byKind[kind]
	return ep, ok
}

// List returns all endpoints in definition order
func (r *Registry) List() []Endpoint {
	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Mount registers one handler per endpoint. Every endpoint needs a handler
// and every handler needs an endpoint, so a mismatch fails at startup
// instead of surfacing as a 404.
func (r *Registry) Mount(mux *http.ServeMux, handlers map[Kind]http.HandlerFunc) error {
	for kind := range handlers {
		if _, ok := r.byKind[kind]; !ok {
			return fmt.Errorf("handler for kind %q has no endpoint", kind)
		}
	}
	for _, ep := range r.endpoints {
		h, ok := handlers[ep.Kind]
		if !ok {
			return fmt.Errorf("no handler for endpoint %q (%s)", ep.Kind, ep.Pattern())
		}
		mux.HandleFunc(ep.Pattern(), h)
	}
	return nil
}
