package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/malko42/queue/rsmq"
)

// Message is a message received from the bound queue.
// Body holds the payload exactly as it was sent.
type Message struct {
	ID            string
	Body          string
	ReceiveCount  int64
	FirstReceived time.Time
	Sent          time.Time
}

// Decode parses the body as JSON into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal([]byte(m.Body), v); err != nil {
		return &DecodeError{ID: m.ID, Err: err}
	}
	return nil
}

func fromServiceMessage(m *rsmq.Message) *Message {
	if m == nil {
		return nil
	}
	return &Message{
		ID:            m.ID,
		Body:          m.Body,
		ReceiveCount:  m.ReceiveCount,
		FirstReceived: m.FirstReceived,
		Sent:          m.Sent,
	}
}

// encodeBody sends strings and byte slices verbatim and JSON encodes
// everything else.
func encodeBody(message any) (string, error) {
	switch v := message.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	}
	b, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("queue: encode message: %w", err)
	}
	return string(b), nil
}
