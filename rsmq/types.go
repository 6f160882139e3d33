package rsmq

import "time"

const (
	DefaultVisibilityTimeout = 30 * time.Second
	DefaultMaxSize           = 65536

	// UnlimitedMaxSize disables the message size check.
	UnlimitedMaxSize = -1
)

// Message is a message claimed by ReceiveMessage or PopMessage.
type Message struct {
	ID            string
	Body          string
	ReceiveCount  int64
	FirstReceived time.Time
	Sent          time.Time
}

type QueueAttributes struct {
	VisibilityTimeout time.Duration
	Delay             time.Duration
	MaxSize           int
	TotalReceived     int64
	TotalSent         int64
	Created           time.Time
	Modified          time.Time
	Messages          int64
	HiddenMessages    int64
}

// CreateQueueRequest describes a new queue. Nil attributes take the
// defaults: 30s visibility timeout, no delay and a 65536 byte max size.
type CreateQueueRequest struct {
	QName             string         `validate:"qname"`
	VisibilityTimeout *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
	Delay             *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
	MaxSize           *int           `validate:"omitempty,maxsize"`
}

// SetQueueAttributesRequest changes the non-nil attributes of a queue.
type SetQueueAttributesRequest struct {
	QName             string         `validate:"qname"`
	VisibilityTimeout *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
	Delay             *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
	MaxSize           *int           `validate:"omitempty,maxsize"`
}

type SendMessageRequest struct {
	QName   string `validate:"qname"`
	Message string
	// Delay overrides the queue delay when set.
	Delay *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
}

type ReceiveMessageRequest struct {
	QName string `validate:"qname"`
	// VisibilityTimeout overrides the queue visibility timeout when set.
	VisibilityTimeout *time.Duration `validate:"omitempty,min=0s,max=9999999s"`
}

// Notification is delivered to realtime subscribers after a send.
type Notification struct {
	Queue  string
	Length int64
}
