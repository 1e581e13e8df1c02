// Package events fans committed audit entries out to live subscribers.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// AuditChannel is the Redis pub/sub channel carrying audit entries
const AuditChannel = "audit_events"

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// entries are dropped for it
const subscriberBuffer = 64

// AuditBus publishes committed audit entries to live subscribers.
// Delivery is best effort; the audit table is the durable record.
type AuditBus interface {
	Publish(ctx context.Context, entry models.AuditLog) error
	// Subscribe returns a channel of entries and a function that ends the
	// subscription and closes the channel.
	Subscribe(ctx context.Context) (<-chan models.AuditLog, func(), error)
}

// RedisAuditBus uses Redis pub/sub so every server instance sees every entry
type RedisAuditBus struct {
	redis *redis.Client
}

// NewRedisAuditBus creates a bus on top of a Redis client
func NewRedisAuditBus(client *redis.Client) *RedisAuditBus {
	return &RedisAuditBus{redis: client}
}

// Publish sends entry to all subscribers
func (b *RedisAuditBus) Publish(ctx context.Context, entry models.AuditLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, AuditChannel, payload).Err()
}

// Subscribe listens on the audit channel until the returned cancel is called
// or ctx ends
func (b *RedisAuditBus) Subscribe(ctx context.Context) (<-chan models.AuditLog, func(), error) {
	sub := b.redis.Subscribe(ctx, AuditChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan models.AuditLog, subscriberBuffer)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var entry models.AuditLog
				if err := json.Unmarshal([]byte(msg.Payload), &entry); err != nil {
					logger.Warnf("[AuditBus] dropping malformed message: %v", err)
					continue
				}
				select {
				case out <- entry:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			sub.Close()
			<-done
		})
	}
	return out, stop, nil
}

// MemoryAuditBus delivers entries within a single process
type MemoryAuditBus struct {
	mu          sync.RWMutex
	subscribers map[chan models.AuditLog]struct{}
}

// NewMemoryAuditBus creates an in-process bus
func NewMemoryAuditBus() *MemoryAuditBus {
	return &MemoryAuditBus{subscribers: make(map[chan models.AuditLog]struct{})}
}

// Publish delivers entry to every subscriber with room in its buffer
func (b *MemoryAuditBus) Publish(_ context.Context, entry models.AuditLog) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber; it is removed when ctx ends or the
// returned cancel is called
func (b *MemoryAuditBus) Subscribe(ctx context.Context) (<-chan models.AuditLog, func(), error) {
	ch := make(chan models.AuditLog, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	stopped := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
			close(stopped)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-stopped:
		}
	}()

	return ch, stop, nil
}

// SubscriberCount returns the number of live subscribers
func (b *MemoryAuditBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
