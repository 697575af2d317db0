package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// NotificationCommandService marks a user's notifications read.
type NotificationCommandService struct {
	notifications *repository.NotificationRepository
	audit         *repository.AuditRepository
	logger        *zap.Logger
}

func NewNotificationCommandService(notifications *repository.NotificationRepository, audit *repository.AuditRepository, logger *zap.Logger) *NotificationCommandService {
	return &NotificationCommandService{notifications: notifications, audit: audit, logger: logger}
}

// MarkRead marks either everything or an explicit id list read, returning
// how many rows changed. An explicit list must be non-empty.
func (s *NotificationCommandService) MarkRead(ctx context.Context, cmd cqrs.MarkNotificationsReadCommand, meta workflow.RequestMeta) (int, error) {
	if cmd.MarkAllRead {
		if err := s.notifications.MarkAllRead(ctx, cmd.UserID); err != nil {
			return 0, err
		}
		s.auditEvent(ctx, cmd.UserID, "ALL_NOTIFICATIONS_MARKED_READ", nil, meta)
		return 0, nil
	}

	if len(cmd.NotificationIDs) == 0 {
		return 0, workflow.InvalidInput("Invalid notification IDs", "notificationIds must be a non-empty array")
	}
	marked, err := s.notifications.MarkRead(ctx, cmd.UserID, cmd.NotificationIDs)
	if err != nil {
		return 0, err
	}
	s.auditEvent(ctx, cmd.UserID, "NOTIFICATIONS_MARKED_READ", map[string]any{
		"notificationIds": cmd.NotificationIDs,
		"markedCount":     marked,
	}, meta)
	return marked, nil
}

func (s *NotificationCommandService) auditEvent(ctx context.Context, userID, action string, details any, meta workflow.RequestMeta) {
	if err := s.audit.Record(ctx, "", userID, action, details, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
