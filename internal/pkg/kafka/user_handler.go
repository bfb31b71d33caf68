package kafka

import (
	"context"
	log "log/slog"

	"Townhall/internal/pkg/erp"
	"Townhall/internal/service"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// directory event types
const (
	UserCreated = "user_created"
	UserUpdated = "user_updated"
	UserDeleted = "user_deleted"
)

// UserEvent published by the ERP whenever a directory user changes.
// The record travels under "user" or "data".
type UserEvent struct {
	Type   string             `json:"type"`
	User   *erp.DirectoryUser `json:"user"`
	Data   *erp.DirectoryUser `json:"data"`
	UserID string             `json:"user_id"`
	Name   string             `json:"name"`
}

func (e *UserEvent) record() *erp.DirectoryUser {
	if e.User != nil {
		return e.User
	}
	return e.Data
}

// subject id of a delete event
func (e *UserEvent) subject() string {
	if r := e.record(); r != nil && r.Name != "" {
		return r.Name
	}
	if e.UserID != "" {
		return e.UserID
	}
	return e.Name
}

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("user consumer setup")
	return nil
}

func (s *UserHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("user consumer cleanup")
	return nil
}

func (s *UserHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-user consume claim", "partition", claim.Partition())
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	log.Info("topic-user consume claim end", "partition", claim.Partition())
	return nil
}

func (s *UserHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := decodeUserEvent(msg.Value)
	if err != nil {
		return errors.Wrapf(err, "user event at offset %d", msg.Offset)
	}
	return s.apply(ctx, event)
}

func (s *UserHandler) apply(ctx context.Context, event *UserEvent) error {
	switch event.Type {
	case UserCreated, UserUpdated:
		record := event.record()
		if record == nil || record.Name == "" {
			return errors.Wrap(errMalformed, event.Type+" without user record")
		}
		user := record.ToUser()
		if err := s.userSvc.UpsertUser(ctx, user); err != nil {
			return errors.Wrap(err, "upsert directory user")
		}
		log.InfoContext(ctx, "directory user synced", "user_id", user.ID, "active", user.Active)
	case UserDeleted:
		id := event.subject()
		if id == "" {
			return errors.Wrap(errMalformed, "user_deleted without id")
		}
		if err := s.userSvc.DeactivateUser(ctx, id); err != nil {
			return errors.Wrap(err, "deactivate directory user")
		}
		log.InfoContext(ctx, "directory user deactivated", "user_id", id)
	default:
		log.DebugContext(ctx, "ignore user event", "type", event.Type)
	}
	return nil
}

func decodeUserEvent(raw []byte) (*UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, errors.Wrap(errMalformed, err.Error())
	}
	if event.Type == "" {
		return nil, errors.Wrap(errMalformed, "missing event type")
	}
	return &event, nil
}
