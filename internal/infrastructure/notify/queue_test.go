package notify

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/basel-ax/fakedetect/internal/domain"
)

func TestQueueNotifyAndDrain(t *testing.T) {
	var buf bytes.Buffer
	q := NewQueue(zerolog.New(&buf))

	n := domain.Notification{
		Severity: domain.SeverityWarning,
		Title:    "Model Not Selected",
		Text:     "Please enable at least one model for image generation",
		Lifespan: 5 * time.Second,
	}
	q.Notify(context.Background(), n)

	assert.Equal(t, 1, q.Len())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Model Not Selected")

	assert.Equal(t, []domain.Notification{n}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueueConcurrentNotify(t *testing.T) {
	q := NewQueue(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Notify(context.Background(), domain.Notification{Severity: domain.SeverityInfo})
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), 50)
}
