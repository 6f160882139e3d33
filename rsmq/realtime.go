package rsmq

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

func (c *Client) publish(ctx context.Context, qname string, length int64) {
	if err := c.cmd.Publish(ctx, c.realtimeKey(qname), length).Err(); err != nil {
		c.log.Debug("realtime publish failed", zap.String("queue", qname), zap.Error(err))
	}
}

// Subscribe registers a handler receiving the queue length after every
// send to qname. Requires WithRealtime and a client supporting Subscribe.
func (c *Client) Subscribe(ctx context.Context, qname string, handler func(Notification)) (func() error, error) {
	if !c.opt.Realtime || c.sub == nil {
		return nil, ErrRealtimeDisabled
	}
	if err := validateQName(qname); err != nil {
		return nil, err
	}

	pubsub := c.sub.Subscribe(ctx, c.realtimeKey(qname))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	ch := pubsub.Channel()

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				handler(Notification{Queue: qname, Length: n})
			}
		}
	}()

	return func() error {
		close(stop)
		return pubsub.Close()
	}, nil
}
