// Package batch runs a batch of files in the background and hands the outcomes
// to a consumer through a queue that never blocks the consumer.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idelchi/gocryptor/internal/engine"
	"github.com/idelchi/gocryptor/internal/logging"
)

var (
	// ErrBatchActive is returned by Submit while an earlier batch has not delivered its end item.
	ErrBatchActive = errors.New("a batch is already running")
	// ErrNoPaths is returned by Submit for an empty path list.
	ErrNoPaths = errors.New("no files to process")
)

// Coordinator accepts batches one at a time.
type Coordinator struct {
	mu      sync.Mutex
	active  *Handle
	options []engine.Option
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithEngineOptions passes opts to every Processor the coordinator creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *Coordinator) {
		c.options = append(c.options, opts...)
	}
}

// NewCoordinator returns an idle Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit validates job and starts processing paths in the background.
// Nothing is processed when an error is returned. Outcomes are retrieved from the
// returned Handle; after one outcome per path the handle yields a single end item.
func (c *Coordinator) Submit(ctx context.Context, paths []string, job *engine.Job) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.Ended() {
		return nil, fmt.Errorf("batch %s: %w", c.active.ID(), ErrBatchActive)
	}

	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	proc, err := engine.New(job, c.options...)
	if err != nil {
		return nil, fmt.Errorf("validating job: %w", err)
	}

	h := &Handle{
		id:    uuid.New(),
		total: len(paths),
		done:  make(chan struct{}),
	}

	logger := logging.Named(ctx, "batch").With(zap.Stringer("batch", h.id))
	ctx = logging.WithLogger(ctx, logger)

	paths = append([]string(nil), paths...)

	go h.produce(ctx, proc, paths)

	c.active = h

	return h, nil
}

// Handle is the consumer side of one submitted batch.
// Poll, Drain and Consume must be called from a single goroutine.
type Handle struct {
	id    uuid.UUID
	total int
	queue queue
	done  chan struct{}
	ended atomic.Bool
}

func (h *Handle) produce(ctx context.Context, proc *engine.Processor, paths []string) {
	defer close(h.done)

	logger := logging.FromContext(ctx)
	job := proc.Job()

	logger.Info("batch started",
		zap.Int("files", len(paths)),
		zap.Bool("encrypting", job.Encrypting),
		zap.Stringer("backend", job.Backend),
		zap.Stringer("mode", job.Mode),
		zap.Int("parallel", job.Parallel),
	)

	for outcome := range proc.Process(ctx, paths) {
		h.queue.push(Item{Kind: KindOutcome, Outcome: outcome})
	}

	h.queue.push(Item{Kind: KindEnd})

	logger.Info("batch finished")
}

// ID identifies the batch in logs.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Len returns the number of submitted paths.
func (h *Handle) Len() int {
	return h.total
}

// Ended reports whether the end item has been handed to the consumer.
func (h *Handle) Ended() bool {
	return h.ended.Load()
}

// Poll returns the next item if one is available. It never blocks.
// After the end item has been returned Poll always reports false.
func (h *Handle) Poll() (Item, bool) {
	if h.Ended() {
		return Item{}, false
	}

	item, ok := h.queue.pop()
	if ok && item.Kind == KindEnd {
		h.ended.Store(true)
	}

	return item, ok
}

// Drain passes every currently available item to fn and reports whether
// the end item was among them.
func (h *Handle) Drain(fn func(Item)) bool {
	for {
		item, ok := h.Poll()
		if !ok {
			return h.Ended()
		}

		fn(item)

		if item.Kind == KindEnd {
			return true
		}
	}
}

// Wait blocks until the background producer has exited.
func (h *Handle) Wait() {
	<-h.done
}
