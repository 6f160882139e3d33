package rsmq

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SendMessage stores a message and returns its id.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	q, err := c.getQueue(ctx, req.QName)
	if err != nil {
		return "", err
	}
	if q.maxSize != UnlimitedMaxSize && len(req.Message) > q.maxSize {
		return "", ErrMessageTooLong
	}

	delay := q.delay
	if req.Delay != nil {
		delay = *req.Delay
	}

	id, err := newID(q.now)
	if err != nil {
		return "", err
	}

	key := c.queueKey(req.QName)
	var length *redis.IntCmd
	_, err = c.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(q.now.Add(delay).UnixMilli()), Member: id})
		pipe.HSet(ctx, c.attrsKey(req.QName), id, req.Message)
		pipe.HIncrBy(ctx, c.attrsKey(req.QName), "totalsent", 1)
		if c.opt.Realtime {
			length = pipe.ZCard(ctx, key)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if length != nil {
		c.publish(ctx, req.QName, length.Val())
	}
	c.log.Debug("message sent", zap.String("queue", req.QName), zap.String("id", id))
	return id, nil
}

// ReceiveMessage returns one visible message or (nil, nil) when there is
// none. The message stays in the queue and is hidden for the visibility
// timeout; call DeleteMessage once it is processed.
func (c *Client) ReceiveMessage(ctx context.Context, req ReceiveMessageRequest) (*Message, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	q, err := c.getQueue(ctx, req.QName)
	if err != nil {
		return nil, err
	}
	vt := q.vt
	if req.VisibilityTimeout != nil {
		vt = *req.VisibilityTimeout
	}

	keys := []string{c.queueKey(req.QName), c.attrsKey(req.QName)}
	res, err := receiveScript.Run(ctx, c.cmd, keys, q.now.UnixMilli(), q.now.Add(vt).UnixMilli()).Slice()
	if err != nil {
		return nil, err
	}
	return parseMessage(res), nil
}

// PopMessage receives and deletes one message in a single step.
// Returns (nil, nil) when the queue has no visible message.
func (c *Client) PopMessage(ctx context.Context, qname string) (*Message, error) {
	if err := validateQName(qname); err != nil {
		return nil, err
	}

	q, err := c.getQueue(ctx, qname)
	if err != nil {
		return nil, err
	}

	keys := []string{c.queueKey(qname), c.attrsKey(qname)}
	res, err := popScript.Run(ctx, c.cmd, keys, q.now.UnixMilli()).Slice()
	if err != nil {
		return nil, err
	}
	return parseMessage(res), nil
}

// DeleteMessage reports whether the message existed.
func (c *Client) DeleteMessage(ctx context.Context, qname, id string) (bool, error) {
	if err := validateQName(qname); err != nil {
		return false, err
	}
	if err := validateID(id); err != nil {
		return false, err
	}

	var removed, fields *redis.IntCmd
	_, err := c.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, c.queueKey(qname), id)
		fields = pipe.HDel(ctx, c.attrsKey(qname), id, id+":rc", id+":fr")
		return nil
	})
	if err != nil {
		return false, err
	}

	ok := removed.Val() == 1 && fields.Val() > 0
	if ok {
		c.log.Debug("message deleted", zap.String("queue", qname), zap.String("id", id))
	}
	return ok, nil
}

// ChangeMessageVisibility hides the message for vt counted from now.
// It reports whether the message was found.
func (c *Client) ChangeMessageVisibility(ctx context.Context, qname, id string, vt time.Duration) (bool, error) {
	if err := validateQName(qname); err != nil {
		return false, err
	}
	if err := validateID(id); err != nil {
		return false, err
	}
	if err := validate.Var(vt, "min=0s,max=9999999s"); err != nil {
		return false, validationError("vt", err)
	}

	q, err := c.getQueue(ctx, qname)
	if err != nil {
		return false, err
	}

	n, err := changeVisibilityScript.Run(ctx, c.cmd, []string{c.queueKey(qname)}, id, q.now.Add(vt).UnixMilli()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// parseMessage decodes a {id, body, rc, fr} script reply.
func parseMessage(res []any) *Message {
	if len(res) < 4 {
		return nil
	}
	id, _ := res[0].(string)
	if id == "" {
		return nil
	}
	body, _ := res[1].(string)

	var fr time.Time
	switch t := res[3].(type) {
	case string:
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			fr = time.UnixMilli(ms)
		}
	case int64:
		fr = time.UnixMilli(t)
	}

	return &Message{
		ID:            id,
		Body:          body,
		ReceiveCount:  toInt64(res[2]),
		FirstReceived: fr,
		Sent:          sentAt(id),
	}
}
