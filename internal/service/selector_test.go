package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basel-ax/fakedetect/internal/domain"
)

func TestRandomSelectorDeterministicSource(t *testing.T) {
	models := []domain.ModelDescriptor{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Equal(t, "a", NewRandomSelector(fixedSource(0)).Select(models).Name)
	assert.Equal(t, "c", NewRandomSelector(fixedSource(2)).Select(models).Name)
}

func TestRandomSelectorDefaultSource(t *testing.T) {
	models := []domain.ModelDescriptor{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	s := NewRandomSelector(nil)

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		m := s.Select(models)
		assert.Contains(t, models, m)
		seen[m.Name] = true
	}
	assert.Len(t, seen, 3)
}

func TestRandomSelectorSingleModel(t *testing.T) {
	m := domain.ModelDescriptor{Name: "only"}
	assert.Equal(t, m, NewRandomSelector(nil).Select([]domain.ModelDescriptor{m}))
}
