package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	m        sync.RWMutex
	messages []kafka.Message
	err      error
	closed   bool
	ctxErrs  []error
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.ctxErrs = append(w.ctxErrs, ctx.Err())
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
	return nil
}

func (w *mockWriter) written() []kafka.Message {
	w.m.RLock()
	defer w.m.RUnlock()
	return append([]kafka.Message(nil), w.messages...)
}

func TestPublisher_WritesCartEvents(t *testing.T) {
	w := &mockWriter{}
	p := newPublisher("session-1", w, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Handle(domain.Cart{{ID: 1, Price: 10, Amount: 2}})

	require.Eventually(t, func() bool {
		return len(w.written()) == 1
	}, time.Second, 10*time.Millisecond, "event was not written")

	msg := w.written()[0]
	assert.Equal(t, "session-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventCartUpdated, string(msg.Headers[0].Value))

	var event CartUpdated
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "session-1", event.SessionID)
	assert.Equal(t, 1, event.ItemCount)
	assert.InDelta(t, 20.0, event.Total, 0.001)
	assert.Equal(t, 2, event.Items.AmountOf(1))
}

func TestPublisher_WriteErrorKeepsRunning(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	p := newPublisher("session-1", w, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Handle(domain.Cart{})

	w.m.Lock()
	w.err = nil
	w.m.Unlock()
	p.Handle(domain.Cart{{ID: 2, Amount: 1}})

	require.Eventually(t, func() bool {
		return len(w.written()) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_HandleDropsWhenQueueFull(t *testing.T) {
	w := &mockWriter{}
	p := newPublisher("session-1", w, logrus.New())

	for i := 0; i < cap(p.queue)+5; i++ {
		p.Handle(domain.Cart{})
	}

	assert.Len(t, p.queue, cap(p.queue))
}

func TestPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	p := newPublisher("session-1", w, logrus.New())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_RunFlushesQueueOnShutdown(t *testing.T) {
	w := &mockWriter{}
	p := newPublisher("session-1", w, logrus.New())

	for i := 1; i <= 3; i++ {
		p.Handle(domain.Cart{{ID: int64(i), Amount: 1}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Len(t, w.written(), 3)
	assert.Empty(t, p.queue)
	w.m.RLock()
	defer w.m.RUnlock()
	for _, err := range w.ctxErrs {
		assert.NoError(t, err, "writes must not see the cancelled run context")
	}
}

func TestPublisher_DrainStopsAtTimeout(t *testing.T) {
	w := &mockWriter{}
	p := newPublisher("session-1", w, logrus.New())
	p.drainTimeout = 0

	p.Handle(domain.Cart{{ID: 1, Amount: 1}})
	p.Handle(domain.Cart{{ID: 2, Amount: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.drain(ctx)

	assert.Len(t, w.written(), 1)
	assert.Len(t, p.queue, 1)
}
