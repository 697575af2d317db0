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

// UserCommander is the write side the auth endpoints need. Implemented by
// command.UserCommandService.
type UserCommander interface {
	Register(ctx context.Context, cmd cqrs.RegisterUserCommand, meta workflow.RequestMeta) (*models.User, string, error)
}

// AuthQuerier is the read side. Implemented by query.AuthQueryService.
type AuthQuerier interface {
	Login(ctx context.Context, cmd cqrs.LoginCommand, meta workflow.RequestMeta) (*models.User, string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type AuthHandler struct {
	commands UserCommander
	queries  AuthQuerier
	logger   *zap.Logger
}

func NewAuthHandler(commands UserCommander, queries AuthQuerier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries, logger: logger}
}

type registerRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=50"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	FirstName   string   `json:"firstName" validate:"required"`
	LastName    string   `json:"lastName" validate:"required"`
	PhoneNumber string   `json:"phoneNumber" validate:"required"`
	CompanyName string   `json:"companyName"`
	Roles       []string `json:"roles" validate:"required,min=1"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	roles := make([]models.Role, len(req.Roles))
	for i, r := range req.Roles {
		roles[i] = models.Role(r)
	}

	user, token, err := h.commands.Register(c.Request.Context(), cqrs.RegisterUserCommand{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		CompanyName: req.CompanyName,
		Password:    req.Password,
		Roles:       roles,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request", "Request body is malformed")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	user, token, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	}, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	user, err := h.queries.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
