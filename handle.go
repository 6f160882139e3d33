package queue

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/malko42/queue/rsmq"
)

// Service is the queue service a Handle delegates to. *rsmq.Client
// implements it.
type Service interface {
	ListQueues(ctx context.Context) ([]string, error)
	CreateQueue(ctx context.Context, req rsmq.CreateQueueRequest) error
	GetQueueAttributes(ctx context.Context, qname string) (*rsmq.QueueAttributes, error)
	SetQueueAttributes(ctx context.Context, req rsmq.SetQueueAttributesRequest) (*rsmq.QueueAttributes, error)
	DeleteQueue(ctx context.Context, qname string) error
	SendMessage(ctx context.Context, req rsmq.SendMessageRequest) (string, error)
	ReceiveMessage(ctx context.Context, req rsmq.ReceiveMessageRequest) (*rsmq.Message, error)
	PopMessage(ctx context.Context, qname string) (*rsmq.Message, error)
	DeleteMessage(ctx context.Context, qname, id string) (bool, error)
	ChangeMessageVisibility(ctx context.Context, qname, id string, vt time.Duration) (bool, error)
}

// Subscriber is implemented by services that push a notification after
// every send.
type Subscriber interface {
	Subscribe(ctx context.Context, qname string, handler func(rsmq.Notification)) (func() error, error)
}

// Handle binds to at most one queue at a time. Every operation except
// Create and Exists works on the bound queue and fails with
// ErrNoActiveQueue when there is none.
//
// A Handle is safe for concurrent use, but it follows a single binding:
// concurrent Create calls leave the handle bound to whichever finished
// last. Use one Handle per queue.
type Handle struct {
	svc     Service
	closer  io.Closer
	metrics *metrics

	mu    sync.RWMutex
	queue string
}

// New connects to Redis with cfg and returns an unbound handle.
func New(cfg Config, opts ...Option) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := collectOptions(opts)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	svc := rsmq.New(client,
		rsmq.WithNamespace(cfg.Namespace),
		rsmq.WithRealtime(cfg.Realtime),
		rsmq.WithLogger(o.logger),
	)

	h := newHandle(svc, o)
	h.closer = client
	return h, nil
}

// NewWithService returns an unbound handle on top of svc.
func NewWithService(svc Service, opts ...Option) *Handle {
	return newHandle(svc, collectOptions(opts))
}

func newHandle(svc Service, o options) *Handle {
	return &Handle{svc: svc, metrics: newMetrics(o.registry)}
}

// Close releases the Redis connection opened by New.
func (h *Handle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

// Queue returns the bound queue name, or "" when unbound.
func (h *Handle) Queue() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.queue
}

func (h *Handle) bind(name string) {
	h.mu.Lock()
	h.queue = name
	h.mu.Unlock()
}

// unbind clears the binding if it still points at name.
func (h *Handle) unbind(name string) {
	h.mu.Lock()
	if h.queue == name {
		h.queue = ""
	}
	h.mu.Unlock()
}

func (h *Handle) active() (string, error) {
	q := h.Queue()
	if q == "" {
		return "", ErrNoActiveQueue
	}
	return q, nil
}

// Create binds the handle to name, creating the queue when it does not
// exist yet. When the queue exists, attrs are applied with SetAttributes;
// with no attrs the existing queue is attached as is.
func (h *Handle) Create(ctx context.Context, name string, attrs ...Attribute) (bool, error) {
	exists, err := h.Exists(ctx, name)
	if err != nil {
		return false, err
	}

	a := collectAttributes(attrs)
	if exists {
		h.bind(name)
		if a.empty() {
			return true, nil
		}
		return h.SetAttributes(ctx, attrs...)
	}

	err = h.svc.CreateQueue(ctx, rsmq.CreateQueueRequest{
		QName:             name,
		VisibilityTimeout: a.VisibilityTimeout,
		Delay:             a.Delay,
		MaxSize:           a.MaxSize,
	})
	if err != nil {
		h.metrics.incError("create")
		return false, err
	}
	h.bind(name)
	return true, nil
}

// Queues lists every queue known to the service.
func (h *Handle) Queues(ctx context.Context) ([]string, error) {
	queues, err := h.svc.ListQueues(ctx)
	if err != nil {
		h.metrics.incError("list")
		return nil, err
	}
	return queues, nil
}

// Exists reports whether the service knows a queue called name.
func (h *Handle) Exists(ctx context.Context, name string) (bool, error) {
	queues, err := h.Queues(ctx)
	if err != nil {
		return false, err
	}
	for _, q := range queues {
		if q == name {
			return true, nil
		}
	}
	return false, nil
}

// Send sends a message to the bound queue and returns its id.
// Strings, byte slices and json.RawMessage are sent verbatim, any other
// value is JSON encoded.
func (h *Handle) Send(ctx context.Context, message any) (string, error) {
	return h.send(ctx, message, nil)
}

// SendDelayed is Send with a per-message delay overriding the queue delay.
func (h *Handle) SendDelayed(ctx context.Context, message any, delay time.Duration) (string, error) {
	return h.send(ctx, message, &delay)
}

func (h *Handle) send(ctx context.Context, message any, delay *time.Duration) (string, error) {
	q, err := h.active()
	if err != nil {
		return "", err
	}
	body, err := encodeBody(message)
	if err != nil {
		return "", err
	}

	id, err := h.svc.SendMessage(ctx, rsmq.SendMessageRequest{QName: q, Message: body, Delay: delay})
	if err != nil {
		h.metrics.incError("send")
		return "", err
	}
	h.metrics.incSent(q)
	return id, nil
}

// ReceiveMessage returns the next visible message or (nil, nil) when the
// queue is empty. The message is hidden for the visibility timeout until
// DeleteMessage is called.
func (h *Handle) ReceiveMessage(ctx context.Context) (*Message, error) {
	q, err := h.active()
	if err != nil {
		return nil, err
	}
	return h.receiveFrom(ctx, q)
}

// ReceiveJSON receives the next message and decodes its body into v.
// Returns (nil, nil) and leaves v untouched when the queue is empty.
func (h *Handle) ReceiveJSON(ctx context.Context, v any) (*Message, error) {
	m, err := h.ReceiveMessage(ctx)
	if err != nil || m == nil {
		return nil, err
	}
	return m, m.Decode(v)
}

func (h *Handle) receiveFrom(ctx context.Context, q string) (*Message, error) {
	m, err := h.svc.ReceiveMessage(ctx, rsmq.ReceiveMessageRequest{QName: q})
	if err != nil {
		h.metrics.incError("receive")
		return nil, err
	}
	if m != nil {
		h.metrics.incReceived(q)
	}
	return fromServiceMessage(m), nil
}

// PopMessage receives and deletes the next visible message in one step.
func (h *Handle) PopMessage(ctx context.Context) (*Message, error) {
	q, err := h.active()
	if err != nil {
		return nil, err
	}

	m, err := h.svc.PopMessage(ctx, q)
	if err != nil {
		h.metrics.incError("pop")
		return nil, err
	}
	if m != nil {
		h.metrics.incReceived(q)
		h.metrics.incDeleted(q)
	}
	return fromServiceMessage(m), nil
}

// DeleteMessage reports whether the message was found and removed.
func (h *Handle) DeleteMessage(ctx context.Context, id string) (bool, error) {
	q, err := h.active()
	if err != nil {
		return false, err
	}
	return h.deleteFrom(ctx, q, id)
}

func (h *Handle) deleteFrom(ctx context.Context, q, id string) (bool, error) {
	ok, err := h.svc.DeleteMessage(ctx, q, id)
	if err != nil {
		h.metrics.incError("delete")
		return false, err
	}
	if ok {
		h.metrics.incDeleted(q)
	}
	return ok, nil
}

// ChangeVisibility hides an in-flight message for d counted from now.
func (h *Handle) ChangeVisibility(ctx context.Context, id string, d time.Duration) (bool, error) {
	q, err := h.active()
	if err != nil {
		return false, err
	}

	ok, err := h.svc.ChangeMessageVisibility(ctx, q, id, d)
	if err != nil {
		h.metrics.incError("visibility")
		return false, err
	}
	return ok, nil
}

// SetAttributes changes attributes of the bound queue. At least one
// attribute is required; that is checked before the binding.
func (h *Handle) SetAttributes(ctx context.Context, attrs ...Attribute) (bool, error) {
	a := collectAttributes(attrs)
	if a.empty() {
		return false, ErrNoAttributes
	}
	q, err := h.active()
	if err != nil {
		return false, err
	}

	_, err = h.svc.SetQueueAttributes(ctx, rsmq.SetQueueAttributesRequest{
		QName:             q,
		VisibilityTimeout: a.VisibilityTimeout,
		Delay:             a.Delay,
		MaxSize:           a.MaxSize,
	})
	if err != nil {
		h.metrics.incError("attributes")
		return false, err
	}
	return true, nil
}

// Attributes returns the attributes and counters of the bound queue.
func (h *Handle) Attributes(ctx context.Context) (*QueueAttributes, error) {
	q, err := h.active()
	if err != nil {
		return nil, err
	}

	attrs, err := h.svc.GetQueueAttributes(ctx, q)
	if err != nil {
		h.metrics.incError("attributes")
		return nil, err
	}
	return attrs, nil
}

// Destroy deletes the bound queue and all its messages, then unbinds the
// handle.
func (h *Handle) Destroy(ctx context.Context) (bool, error) {
	q, err := h.active()
	if err != nil {
		return false, err
	}

	if err := h.svc.DeleteQueue(ctx, q); err != nil {
		h.metrics.incError("destroy")
		return false, err
	}
	h.unbind(q)
	return true, nil
}
