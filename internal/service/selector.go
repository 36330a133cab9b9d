package service

import (
	"math/rand"

	"github.com/basel-ax/fakedetect/internal/domain"
)

// RandomSource returns a non-negative pseudo-random number in [0,n)
type RandomSource interface {
	IntN(n int) int
}

// Selector picks the model that serves a request
type Selector interface {
	Select(models []domain.ModelDescriptor) domain.ModelDescriptor
}

type defaultSource struct{}

func (defaultSource) IntN(n int) int { return rand.Intn(n) }

// RandomSelector picks a model uniformly at random
type RandomSelector struct {
	src RandomSource
}

// NewRandomSelector creates a selector; a nil source uses math/rand/v2
func NewRandomSelector(src RandomSource) *RandomSelector {
	if src == nil {
		src = defaultSource{}
	}
	return &RandomSelector{src: src}
}

// Select returns one of models. models must not be empty.
func (s *RandomSelector) Select(models []domain.ModelDescriptor) domain.ModelDescriptor {
	return models[s.src.IntN(len(models))]
}
