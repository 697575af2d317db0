package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

const notificationDefaultLimit = 20

// NotificationCommander marks notifications read. Implemented by
// command.NotificationCommandService.
type NotificationCommander interface {
	MarkRead(ctx context.Context, cmd cqrs.MarkNotificationsReadCommand, meta workflow.RequestMeta) (int, error)
}

// NotificationQuerier lists the caller's feed. Implemented by
// query.NotificationQueryService.
type NotificationQuerier interface {
	List(ctx context.Context, q cqrs.ListNotificationsQuery, meta workflow.RequestMeta) (*repository.NotificationPage, error)
}

type NotificationHandler struct {
	commands NotificationCommander
	queries  NotificationQuerier
	logger   *zap.Logger
}

func NewNotificationHandler(commands NotificationCommander, queries NotificationQuerier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{commands: commands, queries: queries, logger: logger}
}

type markReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
	MarkAllRead     bool     `json:"markAllRead"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, limit := pageParams(c, notificationDefaultLimit)

	result, err := h.queries.List(c.Request.Context(), cqrs.ListNotificationsQuery{
		UserID:     userID,
		UnreadOnly: c.Query("unread_only") == "true",
		Page:       page,
		Limit:      limit,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	notifications := result.Notifications
	if notifications == nil {
		notifications = []models.NotificationView{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"pagination":    pagination(page, limit, result.Total),
		"unreadCount":   result.UnreadCount,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}

	userID, _ := middleware.GetUserID(c)
	marked, err := h.commands.MarkRead(c.Request.Context(), cqrs.MarkNotificationsReadCommand{
		UserID:          userID,
		NotificationIDs: req.NotificationIDs,
		MarkAllRead:     req.MarkAllRead,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if req.MarkAllRead {
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Notifications marked as read",
		"markedCount": marked,
	})
}
