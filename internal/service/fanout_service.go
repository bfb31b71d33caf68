package service

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/realtime"
)

const defaultFanoutTimeout = 5 * time.Second

// FanoutService pushes post events onto scoped realtime channels. Calls return
// immediately; publication happens after the write on a detached context.
type FanoutService interface {
	PostCreated(ctx context.Context, post *model.Post)
	Tagged(ctx context.Context, post *model.Post, userIDs []string)
	// Close waits for in-flight publications
	Close()
}

type fanoutServiceImpl struct {
	pub     realtime.Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

type publication struct {
	channel   string
	eventType string
}

func NewFanoutService(pub realtime.Publisher, timeout time.Duration) FanoutService {
	if timeout <= 0 {
		timeout = defaultFanoutTimeout
	}
	return &fanoutServiceImpl{pub: pub, timeout: timeout}
}

func (s *fanoutServiceImpl) PostCreated(ctx context.Context, post *model.Post) {
	s.dispatch(ctx, post, createdPublications(post))
}

func (s *fanoutServiceImpl) Tagged(ctx context.Context, post *model.Post, userIDs []string) {
	pubs := make([]publication, 0, len(userIDs))
	for _, id := range userIDs {
		pubs = append(pubs, publication{channel: consts.UserChannel(id), eventType: consts.EventTagged})
	}
	s.dispatch(ctx, post, pubs)
}

func (s *fanoutServiceImpl) Close() {
	s.wg.Wait()
}

// createdPublications public posts go to broadcast, department posts only to their department
func createdPublications(post *model.Post) []publication {
	pubs := make([]publication, 0, len(post.Tags)+1)
	switch post.Visibility {
	case model.VisibilityPublic:
		pubs = append(pubs, publication{channel: consts.ChannelBroadcast, eventType: consts.EventPostCreated})
	case model.VisibilityDepartment:
		if post.Department != "" {
			pubs = append(pubs, publication{channel: consts.DepartmentChannel(post.Department), eventType: consts.EventPostCreated})
		}
	}
	for _, id := range post.Tags {
		pubs = append(pubs, publication{channel: consts.UserChannel(id), eventType: consts.EventTagged})
	}
	return pubs
}

func (s *fanoutServiceImpl) dispatch(ctx context.Context, post *model.Post, pubs []publication) {
	if len(pubs) == 0 {
		return
	}
	data := toPostDTO(post)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		for _, p := range pubs {
			payload, err := realtime.EncodeEvent(p.eventType, data)
			if err != nil {
				log.ErrorContext(bgCtx, "encode realtime event failed", "event", p.eventType, "err", err)
				continue
			}
			if err = s.pub.Publish(bgCtx, p.channel, payload); err != nil {
				log.WarnContext(bgCtx, "realtime publish failed", "channel", p.channel, "post_id", post.ID.Hex(), "err", err)
			}
		}
	}()
}

