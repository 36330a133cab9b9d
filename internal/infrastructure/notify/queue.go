package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/basel-ax/fakedetect/internal/domain"
)

// Queue collects notifications until a front end drains them
type Queue struct {
	mu    sync.Mutex
	items []domain.Notification
	log   zerolog.Logger
}

// NewQueue creates an empty notification queue
func NewQueue(log zerolog.Logger) *Queue {
	return &Queue{log: log.With().Str("component", "notify").Logger()}
}

// Notify appends a notification to the queue
func (q *Queue) Notify(_ context.Context, n domain.Notification) {
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()

	q.event(n.Severity).
		Str("title", n.Title).
		Dur("lifespan", n.Lifespan).
		Msg(n.Text)
}

func (q *Queue) event(s domain.Severity) *zerolog.Event {
	switch s {
	case domain.SeverityError:
		return q.log.Error()
	case domain.SeverityWarning:
		return q.log.Warn()
	default:
		return q.log.Info()
	}
}

// Drain returns and removes every queued notification
func (q *Queue) Drain() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

var _ domain.Notifier = (*Queue)(nil)
