package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "ai", Body: []byte("1")}))
	require.NoError(t, q.Publish(ctx, Message{Type: "ai", Body: []byte("2")}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	for _, want := range []string{"1", "2"} {
		select {
		case m := <-msgs:
			assert.Equal(t, "ai", m.Type)
			assert.Equal(t, want, string(m.Body))
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "ai"}), context.Canceled)
}

func TestPublishStampsEnqueueTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(1)
	before := time.Now()
	require.NoError(t, q.Publish(ctx, Message{Type: "ai_job", Body: []byte("j1")}))
	assert.Equal(t, 1, q.Len())

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	m := <-msgs
	assert.False(t, m.EnqueuedAt.Before(before))
	assert.GreaterOrEqual(t, m.Wait(time.Now()), time.Duration(0))
	assert.Equal(t, time.Duration(0), Message{}.Wait(time.Now()))
}
