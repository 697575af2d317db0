package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// VerificationSubmitter records verification actions. Implemented by
// command.VerificationCommandService.
type VerificationSubmitter interface {
	SubmitBuyer(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.BuyerAction, meta workflow.RequestMeta) (*workflow.Receipt, error)
	SubmitSeller(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.SellerAction, meta workflow.RequestMeta) (*workflow.Receipt, error)
	SubmitEscrow(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.EscrowAction, meta workflow.RequestMeta) (*workflow.Receipt, error)
}

// VerificationHandler exposes the three verification endpoint families.
// Each family parses its own closed action set; the payload schema depends
// on the action type, so decoding happens in two stages.
type VerificationHandler struct {
	commands VerificationSubmitter
	logger   *zap.Logger
}

func NewVerificationHandler(commands VerificationSubmitter, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{commands: commands, logger: logger}
}

type verificationRequest struct {
	ActionType string          `json:"actionType" validate:"required"`
	ActionData json.RawMessage `json:"actionData"`
}

func (h *VerificationHandler) SubmitBuyer(c *gin.Context) {
	req, actor, ok := h.decode(c)
	if !ok {
		return
	}
	action, err := workflow.ParseBuyerAction(req.ActionType, req.ActionData)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	receipt, err := h.commands.SubmitBuyer(c.Request.Context(), actor, c.Param("transactionId"), action, requestMeta(c))
	h.respond(c, receipt, err)
}

func (h *VerificationHandler) SubmitSeller(c *gin.Context) {
	req, actor, ok := h.decode(c)
	if !ok {
		return
	}
	action, err := workflow.ParseSellerAction(req.ActionType, req.ActionData)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	receipt, err := h.commands.SubmitSeller(c.Request.Context(), actor, c.Param("transactionId"), action, requestMeta(c))
	h.respond(c, receipt, err)
}

func (h *VerificationHandler) SubmitEscrow(c *gin.Context) {
	req, actor, ok := h.decode(c)
	if !ok {
		return
	}
	action, err := workflow.ParseEscrowAction(req.ActionType, req.ActionData)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	receipt, err := h.commands.SubmitEscrow(c.Request.Context(), actor, c.Param("transactionId"), action, requestMeta(c))
	h.respond(c, receipt, err)
}

func (h *VerificationHandler) decode(c *gin.Context) (verificationRequest, workflow.Actor, bool) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return req, workflow.Actor{}, false
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return req, workflow.Actor{}, false
	}
	userID, _ := middleware.GetUserID(c)
	return req, workflow.Actor{ID: userID, Roles: middleware.GetRoles(c)}, true
}

func (h *VerificationHandler) respond(c *gin.Context, receipt *workflow.Receipt, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Verification action recorded successfully",
		"verification": receipt,
	})
}
