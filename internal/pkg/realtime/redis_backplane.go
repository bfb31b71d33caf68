package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

const messageBuffer = 256

// RedisBackplane shares events between every instance through redis PUBLISH/SUBSCRIBE
type RedisBackplane struct {
	rdb *redis.Client
}

func NewRedisBackplane(rdb *redis.Client) *RedisBackplane {
	return &RedisBackplane{rdb: rdb}
}

func (b *RedisBackplane) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

func (b *RedisBackplane) Subscribe(ctx context.Context) Subscription {
	return &redisSubscription{
		pubsub: b.rdb.Subscribe(ctx),
		out:    make(chan *Message, messageBuffer),
	}
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan *Message
	once   sync.Once
}

func (s *redisSubscription) Join(ctx context.Context, channels ...string) error {
	if err := s.pubsub.Subscribe(ctx, channels...); err != nil {
		return err
	}
	// the receive loop starts with the first subscription
	s.once.Do(func() {
		go s.forward(s.pubsub.Channel())
	})
	return nil
}

func (s *redisSubscription) Leave(ctx context.Context, channels ...string) error {
	return s.pubsub.Unsubscribe(ctx, channels...)
}

func (s *redisSubscription) Messages() <-chan *Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	err := s.pubsub.Close()
	// no Join means no forwarder to close out
	s.once.Do(func() {
		close(s.out)
	})
	return err
}

func (s *redisSubscription) forward(in <-chan *redis.Message) {
	defer close(s.out)
	for msg := range in {
		select {
		case s.out <- &Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
		default:
		}
	}
}
