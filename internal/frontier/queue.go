package frontier

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// Queue holds pending requests in one FIFO list per page kind. Pop rotates
// across kinds so a deep listing cannot starve detail pages.
type Queue struct {
	mu     sync.Mutex
	seen   SeenSet
	lists  map[domain.PageKind][]domain.Request
	order  []domain.PageKind
	cursor int
	size   int
}

// NewQueue creates a queue that deduplicates through seen.
func NewQueue(seen SeenSet) *Queue {
	return &Queue{
		seen:  seen,
		lists: make(map[domain.PageKind][]domain.Request),
	}
}

// Push enqueues req unless its (kind, canonical URL) was pushed before.
// It reports whether req was accepted.
func (q *Queue) Push(ctx context.Context, req domain.Request) (bool, error) {
	key, err := Key(req.Kind(), req.URL())
	if err != nil {
		return false, err
	}
	added, err := q.seen.Add(ctx, key)
	if err != nil {
		return false, fmt.Errorf("seen set: %w", err)
	}
	if !added {
		return false, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.lists[req.Kind()]; !ok {
		q.order = append(q.order, req.Kind())
	}
	q.lists[req.Kind()] = append(q.lists[req.Kind()], req)
	q.size++
	return true, nil
}

// Pop removes the next request. ok is false when the queue is empty.
func (q *Queue) Pop() (req domain.Request, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return domain.Request{}, false
	}
	for range len(q.order) {
		kind := q.order[q.cursor%len(q.order)]
		q.cursor = (q.cursor + 1) % len(q.order)

		list := q.lists[kind]
		if len(list) == 0 {
			continue
		}
		req = list[0]
		list[0] = domain.Request{}
		q.lists[kind] = list[1:]
		q.size--
		return req, true
	}
	return domain.Request{}, false
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
