package messages

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waveline/waveline-backend/pkg/logger"
)

// Snapshot is the full inbox state pushed to feed subscribers, mirroring what a
// collection listener would deliver: every message plus the unread count.
type Snapshot struct {
	Messages []*Message `json:"messages"`
	Unread   int64      `json:"unread"`
}

// Broker fans inbox snapshots out to subscribers. Channels have a buffer of
// one; a slow consumer sees the latest snapshot, never a backlog.
type Broker struct {
	repo Repository

	mu   sync.Mutex
	subs map[int]chan Snapshot
	next int
}

func NewBroker(repo Repository) *Broker {
	return &Broker{repo: repo, subs: make(map[int]chan Snapshot)}
}

// Subscribe registers a feed consumer. The channel is seeded with the current
// snapshot and closed when ctx is canceled; the feed restarts cleanly by
// subscribing again.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	snap, err := b.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan Snapshot, 1)
	ch <- snap

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Notify recomputes the snapshot and pushes it to every subscriber.
func (b *Broker) Notify(ctx context.Context) {
	snap, err := b.snapshot(ctx)
	if err != nil {
		logger.Errorf("messages: snapshot failed: %v", err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		// replace a pending stale snapshot instead of blocking
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (b *Broker) snapshot(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	list, err := b.repo.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	var unread int64
	for _, m := range list {
		if !m.Read {
			unread++
		}
	}
	return Snapshot{Messages: list, Unread: unread}, nil
}

// changeChannel carries cross-replica inbox change signals.
const changeChannel = "waveline:messages:changed"

// RedisBridge links brokers across replicas over a Redis pub/sub channel: a
// mutation anywhere publishes a signal, and every replica's subscribe loop
// refreshes its local broker (including the publisher's own).
type RedisBridge struct {
	client *redis.Client
	broker *Broker
}

func NewRedisBridge(client *redis.Client, broker *Broker) *RedisBridge {
	return &RedisBridge{client: client, broker: broker}
}

// Notify publishes the change signal. Local subscribers are refreshed through
// the subscribe loop, so a lost publish only degrades to the broker's own
// Notify callers.
func (b *RedisBridge) Notify(ctx context.Context) {
	if err := b.client.Publish(ctx, changeChannel, "1").Err(); err != nil {
		logger.Warnf("messages: redis publish failed: %v", err)
		b.broker.Notify(ctx)
	}
}

// Run consumes the channel until ctx is canceled.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, changeChannel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			b.broker.Notify(ctx)
		}
	}
}
