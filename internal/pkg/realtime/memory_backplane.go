package realtime

import (
	"context"
	"sync"
)

// MemoryBackplane single-process backplane
type MemoryBackplane struct {
	mu   sync.RWMutex
	subs map[string]map[*memorySubscription]struct{}
}

func NewMemoryBackplane() *MemoryBackplane {
	return &MemoryBackplane{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBackplane) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[channel] {
		select {
		case sub.out <- &Message{Channel: channel, Payload: payload}:
		default:
		}
	}
	return nil
}

func (b *MemoryBackplane) Subscribe(_ context.Context) Subscription {
	return &memorySubscription{
		bp:  b,
		out: make(chan *Message, messageBuffer),
	}
}

type memorySubscription struct {
	bp     *MemoryBackplane
	out    chan *Message
	closed bool
}

func (s *memorySubscription) Join(_ context.Context, channels ...string) error {
	s.bp.mu.Lock()
	defer s.bp.mu.Unlock()

	if s.closed {
		return nil
	}
	for _, ch := range channels {
		set, ok := s.bp.subs[ch]
		if !ok {
			set = make(map[*memorySubscription]struct{})
			s.bp.subs[ch] = set
		}
		set[s] = struct{}{}
	}
	return nil
}

func (s *memorySubscription) Leave(_ context.Context, channels ...string) error {
	s.bp.mu.Lock()
	defer s.bp.mu.Unlock()

	for _, ch := range channels {
		s.bp.drop(ch, s)
	}
	return nil
}

func (s *memorySubscription) Messages() <-chan *Message {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.bp.mu.Lock()
	defer s.bp.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for ch := range s.bp.subs {
		s.bp.drop(ch, s)
	}
	close(s.out)
	return nil
}

// drop caller holds mu
func (b *MemoryBackplane) drop(channel string, s *memorySubscription) {
	set, ok := b.subs[channel]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, channel)
	}
}
