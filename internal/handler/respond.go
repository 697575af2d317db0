// Package handler wires the HTTP surface: request decoding, the uniform
// failure envelope, and delegation to the command and query services.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// respondError maps a service error onto the wire. Workflow failures keep
// their reason and message; anything else is an opaque internal error.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if f, ok := workflow.AsFailure(err); ok {
		middleware.RespondWithError(c, statusFor(f.Class), f.Reason, f.Message)
		return
	}
	logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
}

// statusFor maps failure classes to HTTP statuses. Access failures use 404
// so outsiders cannot distinguish "exists but not yours" from "does not
// exist".
func statusFor(class workflow.FailureClass) int {
	switch class {
	case workflow.FailurePermission:
		return http.StatusForbidden
	case workflow.FailureAccess, workflow.FailureNotFound:
		return http.StatusNotFound
	case workflow.FailureInvalid, workflow.FailureBusinessRule:
		return http.StatusBadRequest
	case workflow.FailureConflict:
		return http.StatusConflict
	case workflow.FailureUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// requestMeta captures the caller's network identity for the audit trail
// and the verification ledger.
func requestMeta(c *gin.Context) workflow.RequestMeta {
	return workflow.RequestMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}

// pageParams parses page/limit query parameters, falling back to defaults
// when absent or malformed. Limits are capped at 100.
func pageParams(c *gin.Context, defaultLimit int) (page, limit int) {
	page = 1
	limit = defaultLimit
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pagination is the uniform paging envelope on list responses.
func pagination(page, limit, total int) gin.H {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}
