package rsmq

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func (c *Client) ListQueues(ctx context.Context) ([]string, error) {
	return c.cmd.SMembers(ctx, c.queuesKey()).Result()
}

// CreateQueue fails with ErrQueueExists when qname is already taken.
func (c *Client) CreateQueue(ctx context.Context, req CreateQueueRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	vt := DefaultVisibilityTimeout
	if req.VisibilityTimeout != nil {
		vt = *req.VisibilityTimeout
	}
	var delay time.Duration
	if req.Delay != nil {
		delay = *req.Delay
	}
	maxSize := DefaultMaxSize
	if req.MaxSize != nil {
		maxSize = *req.MaxSize
	}

	now, err := c.cmd.Time(ctx).Result()
	if err != nil {
		return err
	}

	key := c.attrsKey(req.QName)
	var created *redis.BoolCmd
	_, err = c.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HSetNX(ctx, key, "vt", seconds(vt))
		pipe.HSetNX(ctx, key, "delay", seconds(delay))
		pipe.HSetNX(ctx, key, "maxsize", maxSize)
		pipe.HSetNX(ctx, key, "created", now.Unix())
		pipe.HSetNX(ctx, key, "modified", now.Unix())
		return nil
	})
	if err != nil {
		return err
	}
	if !created.Val() {
		return ErrQueueExists
	}
	if err := c.cmd.SAdd(ctx, c.queuesKey(), req.QName).Err(); err != nil {
		return err
	}

	c.log.Debug("queue created",
		zap.String("queue", req.QName),
		zap.Duration("vt", vt),
		zap.Duration("delay", delay),
		zap.Int("maxsize", maxSize),
	)
	return nil
}

func (c *Client) GetQueueAttributes(ctx context.Context, qname string) (*QueueAttributes, error) {
	if err := validateQName(qname); err != nil {
		return nil, err
	}

	now, err := c.cmd.Time(ctx).Result()
	if err != nil {
		return nil, err
	}

	pipe := c.cmd.Pipeline()
	vals := pipe.HMGet(ctx, c.attrsKey(qname), "vt", "delay", "maxsize", "totalrecv", "totalsent", "created", "modified")
	msgs := pipe.ZCard(ctx, c.queueKey(qname))
	hidden := pipe.ZCount(ctx, c.queueKey(qname), "("+strconv.FormatInt(now.UnixMilli(), 10), "+inf")
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	v := vals.Val()
	if len(v) < 7 || v[0] == nil {
		return nil, ErrQueueNotFound
	}
	return &QueueAttributes{
		VisibilityTimeout: time.Duration(toInt64(v[0])) * time.Second,
		Delay:             time.Duration(toInt64(v[1])) * time.Second,
		MaxSize:           int(toInt64(v[2])),
		TotalReceived:     toInt64(v[3]),
		TotalSent:         toInt64(v[4]),
		Created:           time.Unix(toInt64(v[5]), 0),
		Modified:          time.Unix(toInt64(v[6]), 0),
		Messages:          msgs.Val(),
		HiddenMessages:    hidden.Val(),
	}, nil
}

// SetQueueAttributes updates the non-nil attributes and returns the
// resulting queue attributes.
func (c *Client) SetQueueAttributes(ctx context.Context, req SetQueueAttributesRequest) (*QueueAttributes, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.VisibilityTimeout == nil && req.Delay == nil && req.MaxSize == nil {
		return nil, ErrNoAttributeSupplied
	}

	q, err := c.getQueue(ctx, req.QName)
	if err != nil {
		return nil, err
	}

	key := c.attrsKey(req.QName)
	_, err = c.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "modified", q.now.Unix())
		if req.VisibilityTimeout != nil {
			pipe.HSet(ctx, key, "vt", seconds(*req.VisibilityTimeout))
		}
		if req.Delay != nil {
			pipe.HSet(ctx, key, "delay", seconds(*req.Delay))
		}
		if req.MaxSize != nil {
			pipe.HSet(ctx, key, "maxsize", *req.MaxSize)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug("queue attributes set", zap.String("queue", req.QName))
	return c.GetQueueAttributes(ctx, req.QName)
}

// DeleteQueue removes the queue and every message in it.
func (c *Client) DeleteQueue(ctx context.Context, qname string) error {
	if err := validateQName(qname); err != nil {
		return err
	}

	var deleted *redis.IntCmd
	_, err := c.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, c.attrsKey(qname))
		pipe.Del(ctx, c.queueKey(qname))
		pipe.SRem(ctx, c.queuesKey(), qname)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.Val() == 0 {
		return ErrQueueNotFound
	}

	c.log.Debug("queue deleted", zap.String("queue", qname))
	return nil
}
