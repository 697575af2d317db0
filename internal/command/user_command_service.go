package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/middleware"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// UserCommandService registers identities. Role sets are self-declared at
// registration; there is no out-of-band vetting step.
type UserCommandService struct {
	users     *repository.UserRepository
	audit     *repository.AuditRepository
	jwtSecret []byte
}

func NewUserCommandService(users *repository.UserRepository, audit *repository.AuditRepository, jwtSecret []byte) *UserCommandService {
	return &UserCommandService{users: users, audit: audit, jwtSecret: jwtSecret}
}

// Register creates the account and returns it with a fresh session token.
func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand, meta workflow.RequestMeta) (*models.User, string, error) {
	if len(cmd.Roles) == 0 {
		return nil, "", workflow.InvalidInput("Validation failed", "At least one role is required")
	}
	for _, role := range cmd.Roles {
		if !role.Valid() {
			return nil, "", workflow.InvalidInput("Validation failed", fmt.Sprintf("Unknown role %q", role))
		}
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, cmd.Username, cmd.Email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", workflow.Conflict("User already exists", "Username or email already registered")
	}

	hash, err := secure.HashPassword(cmd.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     cmd.Username,
		Email:        cmd.Email,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		PhoneNumber:  cmd.PhoneNumber,
		CompanyName:  cmd.CompanyName,
		PasswordHash: hash,
		Roles:        cmd.Roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", workflow.Conflict("User already exists", "Username or email already registered")
		}
		return nil, "", err
	}

	token, err := middleware.GenerateToken(s.jwtSecret, user.ID, user.Username, user.Roles)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.auditEvent(ctx, user.ID, "USER_REGISTERED", map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"roles":    user.Roles,
	}, meta)

	return user, token, nil
}

func (s *UserCommandService) auditEvent(ctx context.Context, userID, action string, details any, meta workflow.RequestMeta) {
	// Best effort; registration never fails because the audit write did.
	_ = s.audit.Record(ctx, "", userID, action, details, meta.IP, meta.UserAgent)
}
