package queue

import (
	"time"

	"github.com/malko42/queue/rsmq"
)

// QueueAttributes are the attributes and counters reported by the service.
type QueueAttributes = rsmq.QueueAttributes

// Attributes holds queue attributes supplied to Create or SetAttributes.
// Nil fields were not supplied.
type Attributes struct {
	VisibilityTimeout *time.Duration
	Delay             *time.Duration
	MaxSize           *int
}

type Attribute func(*Attributes)

// WithVisibilityTimeout sets how long a received message stays hidden.
// The service stores whole seconds.
func WithVisibilityTimeout(d time.Duration) Attribute {
	return func(a *Attributes) { a.VisibilityTimeout = &d }
}

// WithDelay sets how long a new message stays hidden after send.
func WithDelay(d time.Duration) Attribute {
	return func(a *Attributes) { a.Delay = &d }
}

// WithMaxSize sets the max message size in bytes, 1024..65536, or
// rsmq.UnlimitedMaxSize.
func WithMaxSize(n int) Attribute {
	return func(a *Attributes) { a.MaxSize = &n }
}

func collectAttributes(attrs []Attribute) Attributes {
	var a Attributes
	for _, fn := range attrs {
		if fn != nil {
			fn(&a)
		}
	}
	return a
}

func (a Attributes) empty() bool {
	return a.VisibilityTimeout == nil && a.Delay == nil && a.MaxSize == nil
}
