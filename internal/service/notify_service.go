package service

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"Townhall/internal/pkg/realtime"

	"github.com/goccy/go-json"
)

const (
	DefaultNotifyChannel = "notification-service"
	DefaultNotifyService = "social-service"
)

// NotifyService hands structured events to the notification system.
// Delivery is fire-and-forget: failures are logged, never returned.
type NotifyService interface {
	Notify(ctx context.Context, event string, recipients []string, data any)
	// Broadcast event addressed to every user
	Broadcast(ctx context.Context, event string, data any)
	Close()
}

type notification struct {
	Service    string    `json:"service"`
	Event      string    `json:"event"`
	Recipients []string  `json:"recipients,omitempty"`
	Audience   string    `json:"audience"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

type notifyServiceImpl struct {
	pub     realtime.Publisher
	channel string
	service string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifyService(pub realtime.Publisher, channel, service string, timeout time.Duration) NotifyService {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if service == "" {
		service = DefaultNotifyService
	}
	if timeout <= 0 {
		timeout = defaultFanoutTimeout
	}
	return &notifyServiceImpl{pub: pub, channel: channel, service: service, timeout: timeout}
}

func (s *notifyServiceImpl) Notify(ctx context.Context, event string, recipients []string, data any) {
	if len(recipients) == 0 {
		return
	}
	s.publish(ctx, &notification{
		Service:    s.service,
		Event:      event,
		Recipients: recipients,
		Audience:   "users",
		Data:       data,
		Timestamp:  time.Now().UTC(),
	})
}

func (s *notifyServiceImpl) Broadcast(ctx context.Context, event string, data any) {
	s.publish(ctx, &notification{
		Service:   s.service,
		Event:     event,
		Audience:  "all",
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func (s *notifyServiceImpl) publish(ctx context.Context, n *notification) {
	event := n.Event
	payload, err := json.Marshal(n)
	if err != nil {
		log.ErrorContext(ctx, "encode notification failed", "event", event, "err", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.pub.Publish(bgCtx, s.channel, payload); err != nil {
			log.WarnContext(bgCtx, "notification publish failed", "event", event, "err", err)
		}
	}()
}

func (s *notifyServiceImpl) Close() {
	s.wg.Wait()
}

// recipientsExcept drops the actor and duplicates; nobody is notified about their own action
func recipientsExcept(actor string, ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" || id == actor {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
