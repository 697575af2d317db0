package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// NotificationQueryService serves a user's own notification feed.
type NotificationQueryService struct {
	notifications *repository.NotificationRepository
	audit         *repository.AuditRepository
	logger        *zap.Logger
}

func NewNotificationQueryService(notifications *repository.NotificationRepository, audit *repository.AuditRepository, logger *zap.Logger) *NotificationQueryService {
	return &NotificationQueryService{notifications: notifications, audit: audit, logger: logger}
}

// List returns one page of the caller's notifications, newest first.
func (s *NotificationQueryService) List(ctx context.Context, q cqrs.ListNotificationsQuery, meta workflow.RequestMeta) (*repository.NotificationPage, error) {
	page, err := s.notifications.ListForUser(ctx, q.UserID, q.UnreadOnly, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, "", q.UserID, "NOTIFICATIONS_VIEWED", map[string]any{
		"page":       q.Page,
		"limit":      q.Limit,
		"unreadOnly": q.UnreadOnly,
	}, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", "NOTIFICATIONS_VIEWED"), zap.Error(err))
	}
	return page, nil
}
