package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// BankingCommander is the write side of the banking endpoints. Implemented
// by command.BankingCommandService.
type BankingCommander interface {
	Submit(ctx context.Context, cmd cqrs.SubmitBankingInfoCommand, meta workflow.RequestMeta) (*models.BankingRecord, error)
	Approve(ctx context.Context, cmd cqrs.ApproveBankingInfoCommand, meta workflow.RequestMeta) (*models.ApprovalView, error)
}

// BankingQuerier is the read side. Implemented by query.BankingQueryService.
type BankingQuerier interface {
	List(ctx context.Context, q cqrs.ListBankingInfoQuery, meta workflow.RequestMeta) ([]models.BankingDetailView, error)
}

type BankingHandler struct {
	commands BankingCommander
	queries  BankingQuerier
	logger   *zap.Logger
}

func NewBankingHandler(commands BankingCommander, queries BankingQuerier, logger *zap.Logger) *BankingHandler {
	return &BankingHandler{commands: commands, queries: queries, logger: logger}
}

type submitBankingRequest struct {
	BankName          string   `json:"bankName" validate:"required"`
	AccountNumber     string   `json:"accountNumber" validate:"required,min=4,max=17,numeric"`
	RoutingNumber     string   `json:"routingNumber" validate:"required,len=9,numeric"`
	AccountHolderName string   `json:"accountHolderName" validate:"required"`
	Amount            *float64 `json:"amount"`
}

func (h *BankingHandler) Submit(c *gin.Context) {
	var req submitBankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	userID, _ := middleware.GetUserID(c)
	record, err := h.commands.Submit(c.Request.Context(), cqrs.SubmitBankingInfoCommand{
		ActorID:           userID,
		ActorRoles:        middleware.GetRoles(c),
		TransactionID:     c.Param("transactionId"),
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		RoutingNumber:     req.RoutingNumber,
		AccountHolderName: req.AccountHolderName,
		Amount:            req.Amount,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Banking information submitted successfully",
		"bankingInfo": gin.H{
			"id":        record.ID,
			"amount":    record.Amount,
			"createdAt": record.CreatedAt,
		},
	})
}

func (h *BankingHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	views, err := h.queries.List(c.Request.Context(), cqrs.ListBankingInfoQuery{
		TransactionID: c.Param("transactionId"),
		UserID:        userID,
		UserRoles:     middleware.GetRoles(c),
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if views == nil {
		views = []models.BankingDetailView{}
	}
	c.JSON(http.StatusOK, gin.H{"bankingInfo": views})
}

func (h *BankingHandler) Approve(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	approval, err := h.commands.Approve(c.Request.Context(), cqrs.ApproveBankingInfoCommand{
		ActorID:       userID,
		ActorRoles:    middleware.GetRoles(c),
		BankingInfoID: c.Param("bankingInfoId"),
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Banking information approved successfully",
		"approval": approval,
	})
}
