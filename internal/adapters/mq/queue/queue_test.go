package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

func submission(id string) model.Submission {
	return model.Submission{ID: id, AgentID: "1", ContestID: "c1", Premium: decimal.NewFromInt(1000), LinesOfBusiness: []string{"Auto"}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
	if !q.Enqueue(ctx, submission("s1")) {
		t.Fatal("expected enqueue to succeed")
	}

	out := q.Dequeue(ctx)
	got := <-out
	if got.ID != "s1" {
		t.Errorf("expected s1, got %v", got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	_ = q.Close()
	for range out {
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, submission("s1")) || !q.Enqueue(ctx, submission("s2")) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, submission("s3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, submission("s1")) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewInMemoryQueue(WithCapacity(50))
	ctx := context.Background()
	const producers, perProducer = 5, 100

	var consumed sync.WaitGroup
	seen := make(chan string, producers*perProducer)
	for i := 0; i < 3; i++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for e := range q.Dequeue(ctx) {
				seen <- e.ID
			}
		}()
	}

	var produced sync.WaitGroup
	for p := 0; p < producers; p++ {
		produced.Add(1)
		go func(p int) {
			defer produced.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, submission(fmt.Sprintf("s%d_%d", p, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	produced.Wait()
	_ = q.Close()
	consumed.Wait()
	close(seen)

	ids := make(map[string]bool)
	for id := range seen {
		ids[id] = true
	}
	if len(ids) != producers*perProducer {
		t.Errorf("expected %d distinct submissions, got %d", producers*perProducer, len(ids))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, submission("s1")) || !q.Enqueue(ctx, submission("s2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, submission("s3")) {
		t.Error("expected enqueue to fail after closing")
	}

	var drained []string
	timeout := time.After(time.Second)
	out := q.Dequeue(ctx)
loop:
	for {
		select {
		case e, ok := <-out:
			if !ok {
				break loop
			}
			drained = append(drained, e.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to close")
		}
	}
	if len(drained) != 2 || drained[0] != "s1" || drained[1] != "s2" {
		t.Errorf("expected buffered submissions to drain in order, got %v", drained)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got %v", err)
	}
}

func TestInMemoryQueue_TryEnqueueReasons(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if err := q.TryEnqueue(ctx, submission("s1")); err != nil {
		t.Fatalf("expected first enqueue to succeed, got %v", err)
	}
	if err := q.TryEnqueue(ctx, submission("s2")); !errors.Is(err, ErrBackpressure) {
		t.Errorf("expected ErrBackpressure, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.TryEnqueue(cancelled, submission("s3")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	_ = q.Close()
	if err := q.TryEnqueue(ctx, submission("s4")); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}
