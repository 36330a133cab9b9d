// Package registry holds the backend registry and model catalog loaded from
// a YAML file.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/basel-ax/fakedetect/internal/domain"
)

// File is the on-disk layout of the catalog.
type File struct {
	Backends map[string]BackendEntry `yaml:"backends"`
	Models   []ModelEntry            `yaml:"models"`
}

// BackendEntry describes a backend.
type BackendEntry struct {
	BaseURL string `yaml:"base_url"`
}

// ModelEntry describes a selectable model.
type ModelEntry struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Backend string `yaml:"backend"`
	Label   string `yaml:"label"`
	Enabled *bool  `yaml:"enabled"`
}

// Registry resolves backends and model configuration. It is read-only once
// built and safe for concurrent use.
type Registry struct {
	backends map[string]domain.BackendBinding
	models   []domain.ModelConfig
}

// New builds a registry from already resolved values.
func New(backends map[string]domain.BackendBinding, models []domain.ModelConfig) *Registry {
	b := make(map[string]domain.BackendBinding, len(backends))
	for id, binding := range backends {
		b[id] = binding
	}
	m := make([]domain.ModelConfig, len(models))
	copy(m, models)
	return &Registry{backends: b, models: m}
}

// LoadFile reads a catalog file. An empty path yields an empty registry.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return New(nil, nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: reading %s: %w", path, err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	backends := make(map[string]domain.BackendBinding, len(f.Backends))
	for id, b := range f.Backends {
		backends[id] = domain.BackendBinding{BaseURL: strings.TrimSpace(b.BaseURL)}
	}

	models := make([]domain.ModelConfig, 0, len(f.Models))
	for i, m := range f.Models {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("models[%d]: name is required", i)
		}
		enabled := true
		if m.Enabled != nil {
			enabled = *m.Enabled
		}
		models = append(models, domain.ModelConfig{
			Name:    m.Name,
			Version: m.Version,
			Backend: m.Backend,
			Label:   m.Label,
			Enabled: enabled,
		})
	}

	return &Registry{backends: backends, models: models}, nil
}

// Backend returns the binding of a backend identifier.
func (r *Registry) Backend(id string) (domain.BackendBinding, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// Model resolves the configuration of a model. Catalog entries are matched
// by name and version first, then by name alone. A catalog entry without a
// backend, or a model absent from the catalog, falls back to the backend the
// descriptor declares.
func (r *Registry) Model(m domain.ModelDescriptor) domain.ModelConfig {
	cfg, ok := r.lookup(m)
	if !ok {
		return domain.ModelConfig{Name: m.Name, Version: m.Version, Backend: m.Backend, Enabled: true}
	}
	if cfg.Backend == "" {
		cfg.Backend = m.Backend
	}
	return cfg
}

func (r *Registry) lookup(m domain.ModelDescriptor) (domain.ModelConfig, bool) {
	byName := -1
	for i, cfg := range r.models {
		if cfg.Name != m.Name {
			continue
		}
		if cfg.Version == m.Version {
			return cfg, true
		}
		if byName < 0 {
			byName = i
		}
	}
	if byName >= 0 {
		return r.models[byName], true
	}
	return domain.ModelConfig{}, false
}

// Models returns every catalog entry.
func (r *Registry) Models() []domain.ModelConfig {
	out := make([]domain.ModelConfig, len(r.models))
	copy(out, r.models)
	return out
}

// Enabled returns the descriptors of the enabled catalog entries.
func (r *Registry) Enabled() []domain.ModelDescriptor {
	var out []domain.ModelDescriptor
	for _, cfg := range r.models {
		if cfg.Enabled {
			out = append(out, cfg.Descriptor())
		}
	}
	return out
}

var (
	_ domain.BackendRegistry = (*Registry)(nil)
	_ domain.ModelResolver   = (*Registry)(nil)
)
