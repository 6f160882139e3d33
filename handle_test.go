package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/malko42/queue/rsmq"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close(); s.Close() })
	return s, c
}

// recordingService counts the calls the handle makes to the service.
type recordingService struct {
	*rsmq.Client

	mu          sync.Mutex
	creates     []rsmq.CreateQueueRequest
	setAttrs    []rsmq.SetQueueAttributesRequest
	remoteCalls int
}

func (s *recordingService) ListQueues(ctx context.Context) ([]string, error) {
	s.count()
	return s.Client.ListQueues(ctx)
}

func (s *recordingService) CreateQueue(ctx context.Context, req rsmq.CreateQueueRequest) error {
	s.mu.Lock()
	s.creates = append(s.creates, req)
	s.remoteCalls++
	s.mu.Unlock()
	return s.Client.CreateQueue(ctx, req)
}

func (s *recordingService) SetQueueAttributes(ctx context.Context, req rsmq.SetQueueAttributesRequest) (*rsmq.QueueAttributes, error) {
	s.mu.Lock()
	s.setAttrs = append(s.setAttrs, req)
	s.remoteCalls++
	s.mu.Unlock()
	return s.Client.SetQueueAttributes(ctx, req)
}

func (s *recordingService) SendMessage(ctx context.Context, req rsmq.SendMessageRequest) (string, error) {
	s.count()
	return s.Client.SendMessage(ctx, req)
}

func (s *recordingService) ReceiveMessage(ctx context.Context, req rsmq.ReceiveMessageRequest) (*rsmq.Message, error) {
	s.count()
	return s.Client.ReceiveMessage(ctx, req)
}

func (s *recordingService) PopMessage(ctx context.Context, qname string) (*rsmq.Message, error) {
	s.count()
	return s.Client.PopMessage(ctx, qname)
}

func (s *recordingService) DeleteMessage(ctx context.Context, qname, id string) (bool, error) {
	s.count()
	return s.Client.DeleteMessage(ctx, qname, id)
}

func (s *recordingService) DeleteQueue(ctx context.Context, qname string) error {
	s.count()
	return s.Client.DeleteQueue(ctx, qname)
}

func (s *recordingService) count() {
	s.mu.Lock()
	s.remoteCalls++
	s.mu.Unlock()
}

func newTestHandle(t *testing.T, opts ...Option) (*Handle, *recordingService) {
	t.Helper()
	_, c := newTestRedis(t)
	svc := &recordingService{Client: rsmq.New(c)}
	return NewWithService(svc, opts...), svc
}

func TestHandle_UnboundOperationsFail(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()

	_, err := h.Send(ctx, "x")
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.ReceiveMessage(ctx)
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.PopMessage(ctx)
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.DeleteMessage(ctx, "id")
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.Destroy(ctx)
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.SetAttributes(ctx, WithDelay(time.Second))
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.Attributes(ctx)
	require.ErrorIs(t, err, ErrNoActiveQueue)
	_, err = h.ChangeVisibility(ctx, "id", 0)
	require.ErrorIs(t, err, ErrNoActiveQueue)

	require.Zero(t, svc.remoteCalls, "precondition failures must not reach the service")
}

func TestHandle_SetAttributes_ValidationBeforeBinding(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	_, err := h.SetAttributes(ctx)
	require.ErrorIs(t, err, ErrNoAttributes)

	_, err = h.Create(ctx, "q1")
	require.NoError(t, err)
	_, err = h.SetAttributes(ctx)
	require.ErrorIs(t, err, ErrNoAttributes)
}

func TestHandle_Create_NewQueue(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()

	ok, err := h.Create(ctx, "q1", WithVisibilityTimeout(10*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "q1", h.Queue())
	require.Len(t, svc.creates, 1)
	require.Equal(t, 10*time.Second, *svc.creates[0].VisibilityTimeout)

	exists, err := h.Exists(ctx, "q1")
	require.NoError(t, err)
	require.True(t, exists)

	attrs, err := h.Attributes(ctx)
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, attrs.VisibilityTimeout)
}

func TestHandle_Create_ExistingQueueAttaches(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()
	require.NoError(t, svc.Client.CreateQueue(ctx, rsmq.CreateQueueRequest{QName: "q1"}))

	ok, err := h.Create(ctx, "q1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "q1", h.Queue())
	require.Empty(t, svc.creates, "existing queue must not be re-created")
	require.Empty(t, svc.setAttrs)
}

func TestHandle_Create_ExistingQueueSetsAttributes(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()
	require.NoError(t, svc.Client.CreateQueue(ctx, rsmq.CreateQueueRequest{QName: "q1"}))

	ok, err := h.Create(ctx, "q1", WithVisibilityTimeout(30*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, svc.creates)
	require.Len(t, svc.setAttrs, 1)

	req := svc.setAttrs[0]
	require.Equal(t, "q1", req.QName)
	require.Equal(t, 30*time.Second, *req.VisibilityTimeout)
	require.Nil(t, req.Delay)
	require.Nil(t, req.MaxSize)
}

func TestHandle_Create_Rebinds(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	_, err := h.Create(ctx, "first")
	require.NoError(t, err)
	_, err = h.Create(ctx, "second")
	require.NoError(t, err)
	require.Equal(t, "second", h.Queue())

	// The first queue is left in place.
	exists, err := h.Exists(ctx, "first")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestHandle_Create_ServiceErrorPropagates(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	ok, err := h.Create(ctx, "bad name")
	require.ErrorIs(t, err, rsmq.ErrInvalidArgument)
	require.False(t, ok)
	require.Empty(t, h.Queue())
}

type failingService struct {
	*rsmq.Client
	err error
}

func (s failingService) ListQueues(context.Context) ([]string, error) { return nil, s.err }

func TestHandle_Exists_ServiceErrorUnchanged(t *testing.T) {
	_, c := newTestRedis(t)
	boom := errors.New("boom")
	h := NewWithService(failingService{Client: rsmq.New(c), err: boom})

	_, err := h.Exists(context.Background(), "q1")
	require.Equal(t, boom, err)

	_, err = h.Create(context.Background(), "q1")
	require.Equal(t, boom, err)
}

func TestHandle_StructuredRoundTrip(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.Send(ctx, map[string]int{"a": 1})
	require.NoError(t, err)

	var got map[string]int
	m, err := h.ReceiveJSON(ctx, &got)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, map[string]int{"a": 1}, got)
	require.Equal(t, `{"a":1}`, m.Body)
}

func TestHandle_RawStringRoundTrip(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.Send(ctx, "hello")
	require.NoError(t, err)
	_, err = h.Send(ctx, []byte(" bytes\n"))
	require.NoError(t, err)

	m, err := h.PopMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello", m.Body)

	var v any
	require.ErrorIs(t, m.Decode(&v), ErrDecode)

	m, err = h.PopMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, " bytes\n", m.Body)
}

func TestHandle_ReceiveJSON_DecodeError(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.Send(ctx, "not json")
	require.NoError(t, err)

	var v map[string]any
	m, err := h.ReceiveJSON(ctx, &v)
	require.NotNil(t, m)

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, m.ID, derr.ID)
}

func TestHandle_EmptyQueue(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	m, err := h.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.Nil(t, m)

	var v any
	m, err = h.ReceiveJSON(ctx, &v)
	require.NoError(t, err)
	require.Nil(t, m)
	require.Nil(t, v)

	m, err = h.PopMessage(ctx)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestHandle_EndToEnd(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()

	ok, err := h.Create(ctx, "q1")
	require.NoError(t, err)
	require.True(t, ok)

	sentID, err := h.Send(ctx, map[string]int{"x": 1})
	require.NoError(t, err)

	var body map[string]int
	m, err := h.ReceiveJSON(ctx, &body)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, sentID, m.ID)
	require.Equal(t, map[string]int{"x": 1}, body)
	require.EqualValues(t, 1, m.ReceiveCount)

	ok, err = h.DeleteMessage(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Destroy(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHandle_DestroyClearsBinding(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.Destroy(ctx)
	require.NoError(t, err)
	require.Empty(t, h.Queue())

	exists, err := h.Exists(ctx, "q1")
	require.NoError(t, err)
	require.False(t, exists)

	before := svc.remoteCalls
	_, err = h.Send(ctx, "x")
	require.ErrorIs(t, err, ErrNoActiveQueue)
	require.Equal(t, before, svc.remoteCalls)
}

func TestHandle_Destroy_FailureKeepsBinding(t *testing.T) {
	h, svc := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	// Remove the queue behind the handle's back.
	require.NoError(t, svc.Client.DeleteQueue(ctx, "q1"))

	ok, err := h.Destroy(ctx)
	require.ErrorIs(t, err, rsmq.ErrQueueNotFound)
	require.False(t, ok)
	require.Equal(t, "q1", h.Queue())
}

func TestHandle_SetAttributes(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	ok, err := h.SetAttributes(ctx, WithDelay(5*time.Second), WithMaxSize(2048))
	require.NoError(t, err)
	require.True(t, ok)

	attrs, err := h.Attributes(ctx)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, attrs.Delay)
	require.Equal(t, 2048, attrs.MaxSize)

	_, err = h.Send(ctx, strings.Repeat("x", 2049))
	require.ErrorIs(t, err, rsmq.ErrMessageTooLong)
}

func TestHandle_SendDelayed(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.SendDelayed(ctx, "later", time.Hour)
	require.NoError(t, err)

	m, err := h.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.Nil(t, m)

	attrs, err := h.Attributes(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, attrs.HiddenMessages)
}

func TestHandle_ChangeVisibility(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	id, err := h.Send(ctx, "x")
	require.NoError(t, err)

	m, err := h.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)

	ok, err := h.ChangeVisibility(ctx, id, 0)
	require.NoError(t, err)
	require.True(t, ok)

	m, err = h.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.EqualValues(t, 2, m.ReceiveCount)
}

func TestHandle_Send_EncodeError(t *testing.T) {
	h, _ := newTestHandle(t)
	ctx := context.Background()
	_, err := h.Create(ctx, "q1")
	require.NoError(t, err)

	_, err = h.Send(ctx, make(chan int))
	require.Error(t, err)
}

func TestNew_FromConfig(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Host = s.Host()
	cfg.Port = mustPort(t, s.Port())
	cfg.Namespace = "cfgns"

	h, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	ctx := context.Background()
	_, err = h.Create(ctx, "q1")
	require.NoError(t, err)

	require.True(t, s.Exists("cfgns:q1:Q"))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	_, err := New(cfg)
	require.Error(t, err)
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
