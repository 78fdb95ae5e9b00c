package audio

import (
	"sync"

	"github.com/osa030/groove/internal/domain/media"
)

// eventQueue delivers events in order without ever blocking the producer.
// Handles push while holding their own lock, and the consumer may call back
// into the handle before it reads the next event.
type eventQueue struct {
	mu      sync.Mutex
	pending []media.Event
	signal  chan struct{}
	out     chan media.Event
	done    chan struct{}
	once    sync.Once
}

func newEventQueue(size int) *eventQueue {
	q := &eventQueue{
		signal: make(chan struct{}, 1),
		out:    make(chan media.Event, size),
		done:   make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *eventQueue) push(ev media.Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) events() <-chan media.Event {
	return q.out
}

func (q *eventQueue) close() {
	q.once.Do(func() { close(q.done) })
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		select {
		case <-q.done:
			return
		case <-q.signal:
		}

		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			select {
			case q.out <- ev:
			case <-q.done:
				return
			}
		}
	}
}
