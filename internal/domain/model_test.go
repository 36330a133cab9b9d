package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelDescriptor(t *testing.T) {
	tests := []struct {
		in   string
		want ModelDescriptor
	}{
		{in: "stylegan2", want: ModelDescriptor{Name: "stylegan2"}},
		{in: "stylegan2:1", want: ModelDescriptor{Name: "stylegan2", Version: "1"}},
		{in: " dcgan:2@gan ", want: ModelDescriptor{Name: "dcgan", Version: "2", Backend: "gan"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModelDescriptor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseModelDescriptor(":1")
	assert.Error(t, err)
}

func TestModelDescriptorString(t *testing.T) {
	assert.Equal(t, "a:1", ModelDescriptor{Name: "a", Version: "1"}.String())
	assert.Equal(t, "a", ModelDescriptor{Name: "a"}.String())
}

func TestGenerationResultMarshalJSON(t *testing.T) {
	r := GenerationResult{
		ResourceRef: ResourceRef{UUID: "u1", Type: ".png", Subdir: "modelA"},
		URL:         "http://gan/image/modelA/u1.png",
		Raw:         map[string]any{"uuid": "u1", "type": ".png", "seed": float64(42)},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"uuid": "u1",
		"type": ".png",
		"seed": float64(42),
		"url":  "http://gan/image/modelA/u1.png",
	}, got)
}

func TestErrorsAs(t *testing.T) {
	var err error = &MissingBackendError{Backend: "x"}
	var missing *MissingBackendError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "x", missing.Backend)
	assert.Contains(t, err.Error(), "x")
}
