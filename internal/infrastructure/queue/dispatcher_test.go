package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/core/domain"
)

type recordingRepo struct {
	mu      sync.Mutex
	events  []domain.OrderEvent
	ctxErrs []error
	fail    bool
	block   bool // hold each insert until its context ends
	done    chan struct{}
	want    int
}

func (r *recordingRepo) Insert(ctx context.Context, ev *domain.OrderEvent) error {
	if r.block {
		<-ctx.Done()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.events = append(r.events, *ev)
	if r.block {
		return ctx.Err()
	}
	if len(r.events) == r.want {
		close(r.done)
	}
	if r.fail {
		return errors.New("mongo down")
	}
	return nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events")
	}
}

func TestDispatcher_PreservesPerOrderOrdering(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{}), want: 6}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	values := []string{"pending", "preparing", "on_the_way"}
	for _, v := range values {
		d.Enqueue(domain.OrderEvent{OrderID: "order-a", Kind: domain.OrderEventStatus, Value: v})
		d.Enqueue(domain.OrderEvent{OrderID: "order-b", Kind: domain.OrderEventStatus, Value: v})
	}
	waitFor(t, repo.done)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	got := map[string][]string{}
	for _, ev := range repo.events {
		got[ev.OrderID] = append(got[ev.OrderID], ev.Value)
	}
	for _, id := range []string{"order-a", "order-b"} {
		for i, v := range values {
			if got[id][i] != v {
				t.Fatalf("%s: expected %v, got %v", id, values, got[id])
			}
		}
	}
}

func TestDispatcher_WriteFailureIsSwallowed(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{}), want: 2, fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.OrderEvent{OrderID: "o1", Kind: domain.OrderEventPayment, Value: "paid"})
	d.Enqueue(domain.OrderEvent{OrderID: "o1", Kind: domain.OrderEventStatus, Value: "preparing"})
	waitFor(t, repo.done)
}

func TestDispatcher_EnqueueDoesNotBlockWhenFull(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{}), want: -1}
	d := NewDispatcher(1, repo, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.OrderEvent{OrderID: "o1", Kind: domain.OrderEventStatus})
		}
		close(finished)
	}()
	waitFor(t, finished)

	if n := len(d.workers[0]); n != channelBuffer {
		t.Fatalf("expected full buffer of %d, got %d", channelBuffer, n)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingRepo{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("665f1c2e9b1e8a0012345678")
	for i := 0; i < 10; i++ {
		if d.shardIndex("665f1c2e9b1e8a0012345678") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
}

func TestDispatcher_DrainsBufferedEventsOnShutdown(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{}), want: -1}
	d := NewDispatcher(2, repo, zerolog.Nop())

	for i := 0; i < 5; i++ {
		d.Enqueue(domain.OrderEvent{OrderID: fmt.Sprintf("order-%d", i), Kind: domain.OrderEventStatus, Value: "pending"})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		d.Wait()
		close(stopped)
	}()
	waitFor(t, stopped)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.events) != 5 {
		t.Fatalf("expected all 5 buffered events to be written, got %d", len(repo.events))
	}
	for i, err := range repo.ctxErrs {
		if err != nil {
			t.Fatalf("write %d ran on a cancelled context: %v", i, err)
		}
	}
	for _, ch := range d.workers {
		if len(ch) != 0 {
			t.Fatalf("expected empty buffers after drain, got %d", len(ch))
		}
	}
}

func TestDispatcher_DrainGivesUpAfterTimeout(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{}), want: -1, block: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.drainTimeout = 50 * time.Millisecond

	for i := 0; i < 4; i++ {
		d.Enqueue(domain.OrderEvent{OrderID: "o1", Kind: domain.OrderEventStatus})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		d.Wait()
		close(stopped)
	}()
	waitFor(t, stopped)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.events) != 1 {
		t.Fatalf("expected one attempt before the deadline, got %d", len(repo.events))
	}
	if len(d.workers[0]) != 0 {
		t.Fatalf("expected leftovers to be consumed as dropped, got %d buffered", len(d.workers[0]))
	}
}
