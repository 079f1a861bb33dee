package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/sampling"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	fetchErr  error
	closed    bool
	drained   chan struct{}
}

func newFakeReader(values ...string) *fakeReader {
	r := &fakeReader{drained: make(chan struct{})}
	for i, v := range values {
		r.messages = append(r.messages, kafka.Message{Offset: int64(i), Value: []byte(v)})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		r.mu.Unlock()
		return kafka.Message{}, r.fetchErr
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeHandler struct {
	mu    sync.Mutex
	fixes []models.Fix
}

func (h *fakeHandler) HandleFix(ctx context.Context, fix models.Fix) sampling.Decision {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fixes = append(h.fixes, fix)
	return sampling.Decision{Accepted: true, Reason: sampling.ReasonFirstFix}
}

func TestDecodeFix(t *testing.T) {
	fix, err := DecodeFix([]byte(`{"latitude":52.52,"longitude":13.405,"timestamp":"2026-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, 52.52, fix.Latitude)
	assert.Equal(t, 13.405, fix.Longitude)
	assert.True(t, fix.Timestamp.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))

	fix, err = DecodeFix([]byte(`{"latitude":0,"longitude":0,"timestamp":1777629600000}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1777629600000), fix.Timestamp.UnixMilli())

	fix, err = DecodeFix([]byte(`{"latitude":1,"longitude":2}`))
	require.NoError(t, err)
	assert.True(t, fix.Timestamp.IsZero())
}

func TestDecodeFixErrors(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{"longitude":2}`,
		`{"latitude":1,"longitude":2,"timestamp":"yesterday"}`,
		`{"latitude":1,"longitude":2,"timestamp":1.5e}`,
	} {
		_, err := DecodeFix([]byte(payload))
		assert.Error(t, err, payload)
	}
}

func TestConsumerHandlesMessagesInOrder(t *testing.T) {
	reader := newFakeReader(
		`{"latitude":1,"longitude":1}`,
		`garbage`,
		`{"latitude":2,"longitude":2}`,
	)
	handler := &fakeHandler{}
	consumer := NewConsumer(reader, handler, "fixes")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	<-reader.drained
	cancel()
	require.NoError(t, <-done)

	require.Len(t, handler.fixes, 2)
	assert.Equal(t, 1.0, handler.fixes[0].Latitude)
	assert.Equal(t, 2.0, handler.fixes[1].Latitude)
	// Bad messages are committed too so they are not redelivered
	assert.Equal(t, []int64{0, 1, 2}, reader.committed)
	assert.True(t, reader.closed)
}

func TestConsumerReturnsFetchError(t *testing.T) {
	reader := newFakeReader()
	reader.fetchErr = errors.New("broker unavailable")

	err := NewConsumer(reader, &fakeHandler{}, "fixes").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch message")
	assert.True(t, reader.closed)
}
