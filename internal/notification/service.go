package notification

import (
	"context"
	"encoding/json"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/metrics"
	"backend-chirper/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is what actions that produce notifications depend on.
type Notifier interface {
	Notify(ctx context.Context, n store.Notification)
}

type Service struct {
	store store.NotificationStore
	hub   *Hub
	log   *zap.Logger
}

func NewService(s store.NotificationStore, hub *Hub, log *zap.Logger) *Service {
	return &Service{store: s, hub: hub, log: log}
}

func Message(kind store.NotificationKind, actorHandle string) string {
	switch kind {
	case store.KindLike:
		return actorHandle + " liked your tweet"
	case store.KindReply:
		return actorHandle + " replied to your tweet"
	case store.KindFollow:
		return actorHandle + " started following you"
	default:
		return actorHandle + " interacted with you"
	}
}

// Notify appends the notification and pushes it to live clients. The action
// that triggered it has already been committed, so failures are logged and
// counted rather than returned.
func (s *Service) Notify(ctx context.Context, n store.Notification) {
	n.ID = uuid.NewString()
	if n.Message == "" {
		n.Message = Message(n.Kind, n.ActorHandle)
	}

	created, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "failed").Inc()
		s.log.Warn("notification not stored",
			zap.String("kind", string(n.Kind)),
			zap.String("recipient_id", n.RecipientID),
			zap.String("actor_id", n.ActorID),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "stored").Inc()
	created.ActorHandle = n.ActorHandle

	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(created)
	if err != nil {
		s.log.Warn("notification not encoded", zap.Error(err))
		return
	}
	if err := s.hub.Publish(ctx, created.RecipientID, payload); err != nil {
		s.log.Warn("notification not published", zap.String("recipient_id", created.RecipientID), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, recipientID string, unreadOnly bool) ([]store.Notification, error) {
	list, err := s.store.ListNotifications(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, id, recipientID string) error {
	ok, err := s.store.MarkNotificationRead(ctx, id, recipientID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	if err := s.store.MarkAllNotificationsRead(ctx, recipientID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
