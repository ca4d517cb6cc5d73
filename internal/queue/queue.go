// Package queue carries AI job ids from the api process to whichever process runs them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one unit of work. Body is usually a job id.
type Message struct {
	Type       string    `json:"type"`
	Body       []byte    `json:"body"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Wait returns how long the message sat in the queue before now.
func (m Message) Wait(now time.Time) time.Duration {
	if m.EnqueuedAt.IsZero() {
		return 0
	}
	return now.Sub(m.EnqueuedAt)
}

// Queue is implemented by every backend. Consume's channel closes when ctx is done.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

func stamp(msg Message) Message {
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now()
	}
	return msg
}

// InMemory hands messages to consumers of the same process through a buffered channel.
type InMemory struct {
	ch chan Message
}

func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish blocks while the buffer is full.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- stamp(msg):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			var msg Message
			select {
			case msg = <-q.ch:
			case <-ctx.Done():
				return
			}
			if !deliver(ctx, out, msg) {
				return
			}
		}
	}()
	return out, nil
}

// Len reports the number of buffered messages.
func (q *InMemory) Len() int { return len(q.ch) }

func deliver(ctx context.Context, out chan<- Message, msg Message) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Redis is a list shared by the api (LPUSH) and the workers (BRPOP).
type Redis struct {
	client  *redis.Client
	key     string
	block   time.Duration
	backoff time.Duration
}

// NewRedis uses key as the list name, "educontrol:ai-jobs" when empty.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "educontrol:ai-jobs"
	}
	return &Redis{client: client, key: key, block: 5 * time.Second, backoff: time.Second}
}

func (q *Redis) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(stamp(msg))
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Consume pops until ctx is done. Entries that do not decode are dropped.
func (q *Redis) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			res, err := q.client.BRPop(ctx, q.block, q.key).Result()
			switch {
			case errors.Is(err, redis.Nil):
				continue
			case err != nil:
				// connection trouble: retry after a pause
				select {
				case <-time.After(q.backoff):
				case <-ctx.Done():
				}
				continue
			}
			// res is [key, value]
			if len(res) != 2 {
				continue
			}
			var msg Message
			if json.Unmarshal([]byte(res[1]), &msg) != nil {
				continue
			}
			if !deliver(ctx, out, msg) {
				return
			}
		}
	}()
	return out, nil
}
