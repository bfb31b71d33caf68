package realtime

import (
	"context"
	log "log/slog"
	"sync"
)

const clientBuffer = 64

// Client one local websocket connection
type Client struct {
	UserID string
	send   chan []byte
	rooms  []string
	closed bool
}

func NewClient(userID string) *Client {
	return &Client{UserID: userID, send: make(chan []byte, clientBuffer)}
}

// Send closed once the client is unregistered
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub local connection registry. It holds a single backplane subscription
// per instance and joins a channel only while some local client needs it.
type Hub struct {
	sub Subscription

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(ctx context.Context, bp Backplane) *Hub {
	return &Hub{
		sub:   bp.Subscribe(ctx),
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Start dispatches backplane messages until ctx is done
func (h *Hub) Start(ctx context.Context) error {
	msgs := h.sub.Messages()
	for {
		select {
		case <-ctx.Done():
			log.Info("Realtime hub shutting down...")
			return h.sub.Close()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[msg.Channel] {
		select {
		case c.send <- msg.Payload:
		default:
			log.Warn("realtime client too slow, event dropped", "user_id", c.UserID, "channel", msg.Channel)
		}
	}
}

// Register attaches the client to the given channels; channels it already
// belongs to are ignored
func (h *Hub) Register(ctx context.Context, c *Client, channels ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var added, fresh []string
	for _, ch := range channels {
		set, ok := h.rooms[ch]
		if !ok {
			set = make(map[*Client]struct{})
			h.rooms[ch] = set
			fresh = append(fresh, ch)
		}
		if _, in := set[c]; in {
			continue
		}
		set[c] = struct{}{}
		added = append(added, ch)
	}
	if len(fresh) > 0 {
		if err := h.sub.Join(ctx, fresh...); err != nil {
			for _, ch := range added {
				h.remove(ch, c)
			}
			return err
		}
	}
	c.rooms = append(c.rooms, added...)
	return nil
}

// Unregister detaches the client and closes its send channel
func (h *Hub) Unregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	var empty []string
	for _, ch := range c.rooms {
		if h.remove(ch, c) {
			empty = append(empty, ch)
		}
	}
	c.rooms = nil
	if len(empty) > 0 {
		if err := h.sub.Leave(ctx, empty...); err != nil {
			log.WarnContext(ctx, "realtime leave channels failed", "channels", empty, "err", err)
		}
	}
	c.closed = true
	close(c.send)
}

// Clients number of local clients on a channel
func (h *Hub) Clients(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

// remove caller holds mu; reports whether the room became empty
func (h *Hub) remove(channel string, c *Client) bool {
	set, ok := h.rooms[channel]
	if !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, channel)
		return true
	}
	return false
}
