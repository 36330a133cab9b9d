package domain

import (
	"fmt"
	"strings"
)

// ModelDescriptor identifies a generative model selected by the user
type ModelDescriptor struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// ModelRef is the wire form of a model sent to a backend
type ModelRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Ref returns the wire form of the descriptor
func (m ModelDescriptor) Ref() ModelRef {
	return ModelRef{Name: m.Name, Version: m.Version}
}

func (m ModelDescriptor) String() string {
	if m.Version == "" {
		return m.Name
	}
	return m.Name + ":" + m.Version
}

// ParseModelDescriptor parses "name", "name:version" or "name:version@backend"
func ParseModelDescriptor(s string) (ModelDescriptor, error) {
	s = strings.TrimSpace(s)
	var m ModelDescriptor

	if at := strings.LastIndex(s, "@"); at >= 0 {
		m.Backend = strings.TrimSpace(s[at+1:])
		s = s[:at]
	}
	name, version, _ := strings.Cut(s, ":")
	m.Name = strings.TrimSpace(name)
	m.Version = strings.TrimSpace(version)

	if m.Name == "" {
		return ModelDescriptor{}, fmt.Errorf("invalid model %q: name is required", s)
	}
	return m, nil
}

// ModelConfig is the static configuration resolved for a model
type ModelConfig struct {
	Name    string
	Version string
	Backend string
	Label   string
	Enabled bool
}

// Descriptor returns the descriptor for the configured model
func (c ModelConfig) Descriptor() ModelDescriptor {
	return ModelDescriptor{Name: c.Name, Version: c.Version, Backend: c.Backend}
}

// BackendBinding holds the connection info of a backend
type BackendBinding struct {
	BaseURL string
}

// BackendRegistry maps a backend identifier to its connection info
type BackendRegistry interface {
	Backend(id string) (BackendBinding, bool)
}

// ModelResolver maps a model descriptor to its static configuration
type ModelResolver interface {
	Model(m ModelDescriptor) ModelConfig
}
