package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/fakedetect/internal/domain"
)

const catalog = `
backends:
  gan:
    base_url: " http://gan:5000/backend "
  broken:
    base_url: ""
models:
  - name: stylegan2
    version: "1"
    backend: gan
    label: StyleGAN2
  - name: stylegan2
    version: "2"
    backend: broken
  - name: dcgan
    version: "1"
  - name: pggan
    version: "1"
    backend: gan
    enabled: false
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(catalog))
	require.NoError(t, err)

	b, ok := r.Backend("gan")
	require.True(t, ok)
	assert.Equal(t, "http://gan:5000/backend", b.BaseURL)

	b, ok = r.Backend("broken")
	require.True(t, ok)
	assert.Empty(t, b.BaseURL)

	_, ok = r.Backend("missing")
	assert.False(t, ok)

	assert.Len(t, r.Models(), 4)
	assert.Equal(t, []domain.ModelDescriptor{
		{Name: "stylegan2", Version: "1", Backend: "gan"},
		{Name: "stylegan2", Version: "2", Backend: "broken"},
		{Name: "dcgan", Version: "1"},
	}, r.Enabled())
}

func TestParseRejectsNamelessModel(t *testing.T) {
	_, err := Parse([]byte("models:\n  - version: \"1\"\n"))
	assert.Error(t, err)
}

func TestModelResolution(t *testing.T) {
	r, err := Parse([]byte(catalog))
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      domain.ModelDescriptor
		backend string
		label   string
	}{
		{name: "exact match", in: domain.ModelDescriptor{Name: "stylegan2", Version: "2"}, backend: "broken"},
		{name: "name match", in: domain.ModelDescriptor{Name: "stylegan2", Version: "9"}, backend: "gan", label: "StyleGAN2"},
		{name: "catalog wins", in: domain.ModelDescriptor{Name: "stylegan2", Version: "1", Backend: "other"}, backend: "gan", label: "StyleGAN2"},
		{name: "catalog without backend", in: domain.ModelDescriptor{Name: "dcgan", Version: "1", Backend: "x"}, backend: "x"},
		{name: "not in catalog", in: domain.ModelDescriptor{Name: "biggan", Backend: "y"}, backend: "y"},
		{name: "no backend at all", in: domain.ModelDescriptor{Name: "biggan"}, backend: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := r.Model(tt.in)
			assert.Equal(t, tt.backend, cfg.Backend)
			assert.Equal(t, tt.label, cfg.Label)
		})
	}
}

func TestLoadFile(t *testing.T) {
	empty, err := LoadFile("")
	require.NoError(t, err)
	assert.Empty(t, empty.Models())

	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, r.Models(), 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewCopiesInput(t *testing.T) {
	backends := map[string]domain.BackendBinding{"gan": {BaseURL: "http://gan"}}
	r := New(backends, nil)
	backends["gan"] = domain.BackendBinding{}

	b, ok := r.Backend("gan")
	require.True(t, ok)
	assert.Equal(t, "http://gan", b.BaseURL)
}
