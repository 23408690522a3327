package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Broker fans notifications out to the live streams of their recipient.
type Broker interface {
	Publish(ctx context.Context, userID bson.ObjectID, n *model.NotificationHistory) error
	Subscribe(ctx context.Context, userID bson.ObjectID) (*Subscription, error)
}

// Subscription receives encoded NotificationEvent frames until closed.
type Subscription struct {
	C     <-chan []byte
	close func() error
	once  sync.Once
}

// Close stops delivery. C is closed afterwards.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() { err = s.close() })
	return err
}

// ─── Redis ──────────────────────────────────────────────────────────

// RedisBroker delivers through Redis PubSub so any server instance can reach a stream.
type RedisBroker struct {
	rdb *redis.Client
}

// NewRedisBroker creates a RedisBroker.
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, userID bson.ObjectID, n *model.NotificationHistory) error {
	payload, err := json.Marshal(NewNotificationEvent(n))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	channel := config.CacheKey.NotificationChannel(userID.Hex())
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID bson.ObjectID) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, config.CacheKey.NotificationChannel(userID.Hex()))
	// Wait for the subscription to be confirmed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := ps.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return &Subscription{
		C: out,
		close: func() error {
			close(done)
			return ps.Close()
		},
	}, nil
}

// ─── In-process ─────────────────────────────────────────────────────

// LocalBroker delivers within one process. Slow subscribers drop frames.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[bson.ObjectID]map[chan []byte]struct{}
}

// NewLocalBroker creates an empty LocalBroker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[bson.ObjectID]map[chan []byte]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, userID bson.ObjectID, n *model.NotificationHistory) error {
	payload, err := json.Marshal(NewNotificationEvent(n))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, userID bson.ObjectID) (*Subscription, error) {
	ch := make(chan []byte, 16)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan []byte]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	return &Subscription{
		C: ch,
		close: func() error {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], ch)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
			return nil
		},
	}, nil
}
