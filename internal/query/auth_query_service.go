package query

import (
	"context"
	"fmt"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// AuthQueryService authenticates credentials and serves profile reads.
type AuthQueryService struct {
	users     *repository.UserRepository
	audit     *repository.AuditRepository
	jwtSecret []byte
}

func NewAuthQueryService(users *repository.UserRepository, audit *repository.AuditRepository, jwtSecret []byte) *AuthQueryService {
	return &AuthQueryService{users: users, audit: audit, jwtSecret: jwtSecret}
}

// Login verifies the credentials and issues a session token. Failed attempts
// are audited with the reason; the caller only ever sees a generic message
// for bad credentials.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand, meta workflow.RequestMeta) (*models.User, string, error) {
	user, err := s.users.GetByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		s.auditLogin(ctx, "", "LOGIN_FAILED", map[string]any{
			"username": cmd.Username,
			"reason":   "user_not_found",
		}, meta)
		return nil, "", workflow.Unauthenticated("Invalid username or password")
	}
	if !user.IsActive {
		s.auditLogin(ctx, user.ID, "LOGIN_FAILED", map[string]any{
			"username": cmd.Username,
			"reason":   "account_inactive",
		}, meta)
		return nil, "", workflow.Unauthenticated("Account is inactive")
	}
	if !secure.CheckPassword(cmd.Password, user.PasswordHash) {
		s.auditLogin(ctx, user.ID, "LOGIN_FAILED", map[string]any{
			"username": cmd.Username,
			"reason":   "invalid_password",
		}, meta)
		return nil, "", workflow.Unauthenticated("Invalid username or password")
	}

	token, err := middleware.GenerateToken(s.jwtSecret, user.ID, user.Username, user.Roles)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.auditLogin(ctx, user.ID, "LOGIN_SUCCESS", map[string]any{
		"username": user.Username,
	}, meta)
	return user, token, nil
}

// Profile returns the authenticated user's account.
func (s *AuthQueryService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, workflow.NotFound("User not found", "The specified user does not exist")
	}
	return user, nil
}

func (s *AuthQueryService) auditLogin(ctx context.Context, userID, action string, details any, meta workflow.RequestMeta) {
	_ = s.audit.Record(ctx, "", userID, action, details, meta.IP, meta.UserAgent)
}
