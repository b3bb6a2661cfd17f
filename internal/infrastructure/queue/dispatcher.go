package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
	drainTimeout   = 3 * time.Second
)

// Dispatcher writes order audit events on a fixed set of workers, sharded by
// order id so the events of one order are stored in the order they happened.
type Dispatcher struct {
	workers      []chan domain.OrderEvent
	repo         ports.OrderEventRepository
	log          zerolog.Logger
	drainTimeout time.Duration
	wg           sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.OrderEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:      make([]chan domain.OrderEvent, numWorkers),
		repo:         repo,
		log:          log,
		drainTimeout: drainTimeout,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OrderEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// flushes what is already buffered, within drainTimeout, and exits.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan domain.OrderEvent) {
			defer d.wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
}

// Wait blocks until every worker has drained and exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands the event to the worker that owns its order. It never blocks
// the request: when that worker's buffer is full the event is dropped and logged.
func (d *Dispatcher) Enqueue(ev domain.OrderEvent) {
	idx := d.shardIndex(ev.OrderID)
	select {
	case d.workers[idx] <- ev:
		metrics.OrderEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.OrderEventsTotal.WithLabelValues(string(ev.Kind), "dropped").Inc()
		d.log.Warn().
			Str("order_id", ev.OrderID).
			Str("kind", string(ev.Kind)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OrderEvent) {
	label := strconv.Itoa(id)
	// Writes outlive the shutdown signal so an accepted event is not cut off
	// mid-insert.
	base := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			d.drain(base, id, ch)
			return
		}
		select {
		case <-ctx.Done():
			d.drain(base, id, ch)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.OrderEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(base, id, ev)
		}
	}
}

// drain writes the events still buffered in ch until the drain deadline.
// Whatever is left after that is counted as dropped.
func (d *Dispatcher) drain(base context.Context, id int, ch <-chan domain.OrderEvent) {
	ctx, cancel := context.WithTimeout(base, d.drainTimeout)
	defer cancel()

	label := strconv.Itoa(id)
	var dropped int
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.OrderEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if ctx.Err() != nil {
				metrics.OrderEventsTotal.WithLabelValues(string(ev.Kind), "dropped").Inc()
				dropped++
				continue
			}
			d.write(ctx, id, ev)
		default:
			if dropped > 0 {
				d.log.Warn().Int("worker_id", id).Int("dropped", dropped).Msg("audit events dropped on shutdown")
			}
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, workerID int, ev domain.OrderEvent) {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.repo.Insert(writeCtx, &ev); err != nil {
		metrics.OrderEventsTotal.WithLabelValues(string(ev.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("order_id", ev.OrderID).
			Str("kind", string(ev.Kind)).
			Int("worker_id", workerID).
			Msg("audit event write failed")
		return
	}
	metrics.OrderEventsTotal.WithLabelValues(string(ev.Kind), "stored").Inc()
}
