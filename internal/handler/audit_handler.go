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

const auditDefaultLimit = 50

// AuditQuerier serves audit pages. Implemented by query.AuditQueryService.
type AuditQuerier interface {
	ForTransaction(ctx context.Context, q cqrs.GetTransactionAuditQuery, meta workflow.RequestMeta) (*repository.AuditPage, error)
	ForUser(ctx context.Context, q cqrs.GetUserAuditQuery, meta workflow.RequestMeta) (*repository.AuditPage, error)
}

type AuditHandler struct {
	queries AuditQuerier
	logger  *zap.Logger
}

func NewAuditHandler(queries AuditQuerier, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{queries: queries, logger: logger}
}

func (h *AuditHandler) ForTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, limit := pageParams(c, auditDefaultLimit)

	result, err := h.queries.ForTransaction(c.Request.Context(), cqrs.GetTransactionAuditQuery{
		TransactionID: c.Param("transactionId"),
		UserID:        userID,
		UserRoles:     middleware.GetRoles(c),
		ActionFilter:  c.Query("action"),
		Page:          page,
		Limit:         limit,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries := result.Entries
	if entries == nil {
		entries = []models.AuditLogView{}
	}
	c.JSON(http.StatusOK, gin.H{
		"auditLogs":  entries,
		"pagination": pagination(page, limit, result.Total),
	})
}

func (h *AuditHandler) ForUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, limit := pageParams(c, auditDefaultLimit)

	result, err := h.queries.ForUser(c.Request.Context(), cqrs.GetUserAuditQuery{
		TargetUserID:     c.Param("userId"),
		RequestingUserID: userID,
		RequestingRoles:  middleware.GetRoles(c),
		ActionFilter:     c.Query("action"),
		Page:             page,
		Limit:            limit,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries := result.Entries
	if entries == nil {
		entries = []models.AuditLogView{}
	}
	c.JSON(http.StatusOK, gin.H{
		"auditLogs":  entries,
		"pagination": pagination(page, limit, result.Total),
	})
}
