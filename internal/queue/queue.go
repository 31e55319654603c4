// Package queue implements the task queue + retry engine: a single
// unbounded FIFO that one or more consumer loops drain, dispatching each
// task to a handler chosen by its kind and re-enqueueing non-fatal
// failures up to a retry cap. Grounded on
// app/src/queue/{mod,task}.rs and downloader-hub/src/queue/processor/mod.rs.
package queue

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allypost/dlhub/internal/corerr"
)

// Kind discriminates the payload carried by a Task.
type Kind int

const (
	KindDownloadRequest Kind = iota
	KindProcessDownloadResult
)

// Task is one unit of queued work.
type Task struct {
	ID         string
	Kind       Kind
	Payload    any
	Retries    int
	AddedAt    time.Time
	LastRunAt  time.Time
}

// TimeSinceAdded reports how long the task has been waiting/running.
func (t Task) TimeSinceAdded() time.Duration { return time.Since(t.AddedAt) }

// WithIncRetries returns a copy of t with Retries incremented and
// LastRunAt refreshed, ready to be pushed back onto the tail.
func (t Task) WithIncRetries() Task {
	t2 := t
	t2.Retries++
	t2.LastRunAt = time.Now()
	return t2
}

// NewTask builds a Task with a fresh id and AddedAt timestamp.
func NewTask(kind Kind, payload any) Task {
	now := time.Now()
	return Task{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: payload,
		AddedAt: now,
	}
}

// Queue is an unbounded FIFO; push/pop are atomic under a single mutex,
// and Pop blocks (respecting ctx-less cooperative waiting via a
// condition variable) until an item is available or Close is called.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *list.List
	closed bool
}

func New() *Queue {
	q := &Queue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends task to the tail and wakes one waiting consumer.
func (q *Queue) Push(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items.PushBack(task)
	q.cond.Signal()
}

// Pop blocks until a task is available or the queue is closed, in which
// case ok is false.
func (q *Queue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return Task{}, false
	}
	front := q.items.Front()
	q.items.Remove(front)
	return front.Value.(Task), true
}

// Len reports the current queue depth, for status reporting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close wakes every blocked Pop so consumer loops can exit.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Outcome is what a handler reports back to the processor loop.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFatal
	OutcomeRetryable
)

// Classify maps a handler error to an Outcome: a corerr.ErrPermanent or
// corerr.ErrCancelled is fatal, anything else is retryable.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if corerr.Permanent(err) || corerr.Cancelled(err) {
		return OutcomeFatal
	}
	return OutcomeRetryable
}
