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

// TransactionCommander is the write side of the transaction endpoints.
// Implemented by command.TransactionCommandService.
type TransactionCommander interface {
	Create(ctx context.Context, cmd cqrs.CreateTransactionCommand, meta workflow.RequestMeta) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, cmd cqrs.UpdateTransactionStatusCommand, meta workflow.RequestMeta) (*models.Transaction, error)
	AddUser(ctx context.Context, cmd cqrs.AddUserCommand, meta workflow.RequestMeta) (*models.Participant, *models.User, error)
	AddContact(ctx context.Context, cmd cqrs.AddContactCommand, meta workflow.RequestMeta) (*models.Participant, error)
}

// TransactionQuerier is the read side. Implemented by
// query.TransactionQueryService.
type TransactionQuerier interface {
	List(ctx context.Context, q cqrs.ListTransactionsQuery, meta workflow.RequestMeta) ([]models.TransactionSummaryView, error)
	Get(ctx context.Context, q cqrs.GetTransactionQuery, meta workflow.RequestMeta) (*models.TransactionDetailView, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
	logger   *zap.Logger
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries, logger: logger}
}

type createTransactionRequest struct {
	PropertyAddress         string  `json:"propertyAddress" validate:"required"`
	PurchaseAmount          float64 `json:"purchaseAmount" validate:"required,gt=0"`
	SecondaryEscrowUsername string  `json:"secondaryEscrowUsername" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type addUserRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type addContactRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber"`
	CompanyName string `json:"companyName"`
	Role        string `json:"role" validate:"required"`
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	views, err := h.queries.List(c.Request.Context(), cqrs.ListTransactionsQuery{UserID: userID}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if views == nil {
		views = []models.TransactionSummaryView{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": views})
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	userID, _ := middleware.GetUserID(c)
	transaction, err := h.commands.Create(c.Request.Context(), cqrs.CreateTransactionCommand{
		ActorID:                 userID,
		ActorRoles:              middleware.GetRoles(c),
		PropertyAddress:         req.PropertyAddress,
		PurchaseAmount:          req.PurchaseAmount,
		SecondaryEscrowUsername: req.SecondaryEscrowUsername,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Transaction created successfully",
		"transaction": transaction,
	})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	view, err := h.queries.Get(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID: c.Param("transactionId"),
		UserID:        userID,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": view})
}

func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	userID, _ := middleware.GetUserID(c)
	transaction, err := h.commands.UpdateStatus(c.Request.Context(), cqrs.UpdateTransactionStatusCommand{
		ActorID:       userID,
		TransactionID: c.Param("transactionId"),
		Status:        models.TransactionStatus(req.Status),
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Transaction status updated successfully",
		"transaction": transaction,
	})
}

func (h *TransactionHandler) AddUser(c *gin.Context) {
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	userID, _ := middleware.GetUserID(c)
	participant, user, err := h.commands.AddUser(c.Request.Context(), cqrs.AddUserCommand{
		ActorID:       userID,
		ActorRoles:    middleware.GetRoles(c),
		TransactionID: c.Param("transactionId"),
		Username:      req.Username,
		Role:          models.Role(req.Role),
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "User added to transaction successfully",
		"participant": participant,
		"user": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
		},
	})
}

func (h *TransactionHandler) AddParticipant(c *gin.Context) {
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	userID, _ := middleware.GetUserID(c)
	participant, err := h.commands.AddContact(c.Request.Context(), cqrs.AddContactCommand{
		ActorID:       userID,
		ActorRoles:    middleware.GetRoles(c),
		TransactionID: c.Param("transactionId"),
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PhoneNumber:   req.PhoneNumber,
		CompanyName:   req.CompanyName,
		Role:          models.Role(req.Role),
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Participant added successfully",
		"participant": participant,
	})
}
