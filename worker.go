package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/malko42/queue/rsmq"
)

// Handler processes one message. Returning nil deletes the message;
// an error leaves it in flight until its visibility timeout expires.
type Handler func(ctx context.Context, msg *Message) error

// Worker consumes the queue a Handle is bound to when Start is called.
type Worker struct {
	handle       *Handle
	handler      Handler
	concurrency  int
	pollInterval time.Duration
	log          *zap.Logger

	queue    string
	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	unsub    func() error

	processed atomic.Int64
	failed    atomic.Int64
}

type WorkerStats struct {
	Processed int64
	Failed    int64
}

type WorkerOption func(*Worker)

func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) { w.concurrency = n }
}

// WithPollInterval controls how long an idle worker waits before asking
// for messages again. Realtime notifications wake workers earlier.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.pollInterval = d }
}

func WithWorkerLogger(l *zap.Logger) WorkerOption {
	return func(w *Worker) { w.log = l }
}

func NewWorker(h *Handle, handler Handler, opts ...WorkerOption) *Worker {
	w := &Worker{
		handle:       h,
		handler:      handler,
		concurrency:  1,
		pollInterval: 500 * time.Millisecond,
		log:          zap.NewNop(),
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 500 * time.Millisecond
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}

	return w
}

// Start launches the consumers. The worker keeps using the queue bound at
// this point even if the handle is rebound later.
func (w *Worker) Start(ctx context.Context) error {
	q, err := w.handle.active()
	if err != nil {
		return err
	}
	w.queue = q
	w.log = w.log.With(zap.String("queue", q))

	if sub, ok := w.handle.svc.(Subscriber); ok {
		unsub, err := sub.Subscribe(ctx, q, func(rsmq.Notification) { w.notify() })
		switch {
		case err == nil:
			w.unsub = unsub
		case !errors.Is(err, rsmq.ErrRealtimeDisabled):
			return err
		}
	}

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	return nil
}

// Stop waits for in-progress handlers to return.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.unsub != nil {
			_ = w.unsub()
		}
	})
	w.wg.Wait()
}

func (w *Worker) Stats() WorkerStats {
	return WorkerStats{Processed: w.processed.Load(), Failed: w.failed.Load()}
}

func (w *Worker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		msg, err := w.handle.receiveFrom(ctx, w.queue)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("receive failed", zap.Error(err))
			}
			w.idle(ctx)
			continue
		}
		if msg == nil {
			w.idle(ctx)
			continue
		}

		if err := w.handler(ctx, msg); err != nil {
			w.failed.Add(1)
			log.Warn("handler failed", zap.String("id", msg.ID), zap.Int64("rc", msg.ReceiveCount), zap.Error(err))
			continue
		}
		if _, err := w.handle.deleteFrom(ctx, w.queue, msg.ID); err != nil {
			log.Warn("delete failed", zap.String("id", msg.ID), zap.Error(err))
		}
		w.processed.Add(1)
	}
}

func (w *Worker) idle(ctx context.Context) {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-w.wake:
	case <-t.C:
	}
}
