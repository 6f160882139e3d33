package rsmq

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idTimeLen   = 10
	idRandomLen = 22
)

// Client talks to the queues of one namespace.
type Client struct {
	cmd redis.Cmdable
	sub redis.UniversalClient
	opt Options
	log *zap.Logger
}

func New(cmd redis.Cmdable, opts ...Option) *Client {
	opt := Options{
		Namespace: defaultNamespace,
		Realtime:  false,
		Logger:    nil,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&opt)
		}
	}
	if opt.Namespace == "" {
		opt.Namespace = defaultNamespace
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	c := &Client{cmd: cmd, opt: opt, log: opt.Logger.With(zap.String("ns", opt.Namespace))}
	if uc, ok := cmd.(redis.UniversalClient); ok {
		c.sub = uc
	}
	return c
}

func (c *Client) Namespace() string { return c.opt.Namespace }

func (c *Client) queuesKey() string               { return c.opt.Namespace + ":QUEUES" }
func (c *Client) queueKey(qname string) string    { return c.opt.Namespace + ":" + qname } // zset: id -> visibleAtUnixMs
func (c *Client) attrsKey(qname string) string    { return c.opt.Namespace + ":" + qname + ":Q" }
func (c *Client) realtimeKey(qname string) string { return c.opt.Namespace + ":rt:" + qname }

type queueState struct {
	vt      time.Duration
	delay   time.Duration
	maxSize int
	now     time.Time
}

// getQueue loads the attributes needed to serve a message operation
// together with the Redis server time.
func (c *Client) getQueue(ctx context.Context, qname string) (*queueState, error) {
	pipe := c.cmd.Pipeline()
	vals := pipe.HMGet(ctx, c.attrsKey(qname), "vt", "delay", "maxsize")
	tm := pipe.Time(ctx)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	v := vals.Val()
	if len(v) < 3 || v[0] == nil {
		return nil, ErrQueueNotFound
	}
	return &queueState{
		vt:      time.Duration(toInt64(v[0])) * time.Second,
		delay:   time.Duration(toInt64(v[1])) * time.Second,
		maxSize: int(toInt64(v[2])),
		now:     tm.Val(),
	}, nil
}

// newID returns a 32 char id: the server time in microseconds as base36
// followed by random characters. Ids sort by send time.
func newID(now time.Time) (string, error) {
	ts := strconv.FormatInt(now.UnixMicro(), 36)
	if len(ts) < idTimeLen {
		ts = strings.Repeat("0", idTimeLen-len(ts)) + ts
	}

	var b strings.Builder
	b.Grow(idTimeLen + idRandomLen)
	b.WriteString(ts)
	alphabetLen := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < idRandomLen; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b.WriteByte(idAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// sentAt recovers the send time encoded in a message id.
func sentAt(id string) time.Time {
	if len(id) < idTimeLen {
		return time.Time{}
	}
	us, err := strconv.ParseInt(id[:idTimeLen], 36, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(us)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case int64:
		return t
	case float64:
		return int64(t)
	}
	return 0
}
