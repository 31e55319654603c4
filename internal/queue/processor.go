package queue

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Handler processes one task's payload. The returned error is
// classified via Classify to decide retry vs. drop.
type Handler func(ctx context.Context, task Task) error

// Processor runs one or more consumer loops against a shared Queue,
// dispatching by Kind and re-enqueueing non-fatal failures up to
// maxRetries. Grounded on downloader-hub/src/queue/processor/mod.rs.
type Processor struct {
	Queue      *Queue
	Handlers   map[Kind]Handler
	MaxRetries int
	Log        *zap.Logger
}

// Run drains the queue until ctx is cancelled or the queue is closed.
// ctx is checked between tasks; a Pop already blocked on an empty queue
// returns only when a task is pushed or the queue is closed.
// Multiple goroutines may call Run concurrently against the same
// Processor to get multiple consumer loops; there is no cross-task
// ordering guarantee beyond FIFO enqueue.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := p.Queue.Pop()
		if !ok {
			return
		}

		p.handle(ctx, task)
	}
}

func (p *Processor) handle(ctx context.Context, task Task) {
	handler, ok := p.Handlers[task.Kind]
	if !ok {
		p.Log.Error("no handler registered for task kind", zap.Int("kind", int(task.Kind)), zap.String("task_id", task.ID))
		return
	}

	err := handler(ctx, task)
	outcome := Classify(err)

	switch outcome {
	case OutcomeSuccess:
		return
	case OutcomeFatal:
		p.Log.Error("task failed permanently",
			zap.String("task_id", task.ID),
			zap.Int("retries", task.Retries),
			zap.String("age", humanize.Time(task.AddedAt)),
			zap.Error(err))
		return
	case OutcomeRetryable:
		if task.Retries >= p.MaxRetries {
			p.Log.Error("task exhausted retries, dropping",
				zap.String("task_id", task.ID),
				zap.Int("retries", task.Retries),
				zap.Error(err))
			return
		}
		p.Log.Debug("retrying task",
			zap.String("task_id", task.ID),
			zap.Int("retries", task.Retries+1),
			zap.Error(err))
		p.Queue.Push(task.WithIncRetries())
	default:
		p.Log.DPanic(fmt.Sprintf("queue: unhandled outcome %d", outcome))
	}
}
