package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/allypost/dlhub/internal/corerr"
)

func TestPushPopFIFOOrder(t *testing.T) {
	q := New()
	q.Push(NewTask(KindDownloadRequest, "a"))
	q.Push(NewTask(KindDownloadRequest, "b"))
	q.Push(NewTask(KindDownloadRequest, "c"))

	if got := q.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	for _, want := range []string{"a", "b", "c"} {
		task, ok := q.Pop()
		if !ok {
			t.Fatal("Pop() ok = false, want true")
		}
		if task.Payload != want {
			t.Errorf("Pop() payload = %v, want %v", task.Payload, want)
		}
	}

	if got := q.Len(); got != 0 {
		t.Errorf("Len() after draining = %d, want 0", got)
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan Task, 1)

	go func() {
		task, ok := q.Pop()
		if !ok {
			t.Error("Pop() ok = false, want true")
		}
		done <- task
	}()

	// Give the goroutine a chance to block on an empty queue.
	time.Sleep(10 * time.Millisecond)
	q.Push(NewTask(KindProcessDownloadResult, "payload"))

	select {
	case task := <-done:
		if task.Payload != "payload" {
			t.Errorf("got payload %v, want %q", task.Payload, "payload")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after Push()")
	}
}

func TestCloseUnblocksPop(t *testing.T) {
	q := New()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop() ok = true after Close(), want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after Close()")
	}
}

func TestPushAfterCloseIsNoOp(t *testing.T) {
	q := New()
	q.Close()
	q.Push(NewTask(KindDownloadRequest, "dropped"))

	if got := q.Len(); got != 0 {
		t.Errorf("Len() after Push on closed queue = %d, want 0", got)
	}
}

func TestWithIncRetries(t *testing.T) {
	task := NewTask(KindDownloadRequest, nil)
	retried := task.WithIncRetries()

	if retried.Retries != 1 {
		t.Errorf("Retries = %d, want 1", retried.Retries)
	}
	if task.Retries != 0 {
		t.Error("WithIncRetries() mutated the receiver")
	}
	if retried.ID != task.ID {
		t.Error("WithIncRetries() changed the task ID")
	}
}

func TestNewTaskUniqueIDs(t *testing.T) {
	a := NewTask(KindDownloadRequest, nil)
	b := NewTask(KindDownloadRequest, nil)
	if a.ID == b.ID {
		t.Error("NewTask() produced duplicate IDs")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"permanent", corerr.Wrap(corerr.ErrPermanent, errors.New("bad input")), OutcomeFatal},
		{"cancelled", corerr.Wrap(corerr.ErrCancelled, errors.New("ctx done")), OutcomeFatal},
		{"transient", corerr.Wrap(corerr.ErrTransient, errors.New("timeout")), OutcomeRetryable},
		{"unclassified", errors.New("unknown"), OutcomeRetryable},
	}

	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("Classify(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}
