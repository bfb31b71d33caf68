// Package realtime moves feed events between instances over a pub/sub
// backplane and hands them to the websocket clients connected locally.
// Delivery is at-most-once.
package realtime

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

type Message struct {
	Channel string
	Payload []byte
}

// Publisher publish side of a backplane
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscription receives messages for the channels it has joined
type Subscription interface {
	Join(ctx context.Context, channels ...string) error
	Leave(ctx context.Context, channels ...string) error
	Messages() <-chan *Message
	Close() error
}

type Backplane interface {
	Publisher
	Subscribe(ctx context.Context) Subscription
}

// Event wire envelope pushed to clients
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func EncodeEvent(eventType string, data any) ([]byte, error) {
	return json.Marshal(&Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
