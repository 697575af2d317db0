package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// UserRepository handles identity rows in the PostgreSQL write store.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, phone_number, company_name, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.PhoneNumber, nullString(user.CompanyName), user.PasswordHash,
		pq.Array(rolesToStrings(user.Roles)),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

// ExistsByUsernameOrEmail matches case-insensitively, the same comparison
// used at registration time.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// GetByUsername returns the user regardless of active state; callers that
// need an active account check IsActive themselves. Returns (nil, nil) when
// no such user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone_number, company_name, password_hash, roles, is_active, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetActiveByUsername returns (nil, nil) for unknown or deactivated users.
func (r *UserRepository) GetActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone_number, company_name, password_hash, roles, is_active, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1) AND is_active = true
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, phone_number, company_name, password_hash, roles, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var companyName sql.NullString
	var roles pq.StringArray

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.PhoneNumber, &companyName, &user.PasswordHash, &roles,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if companyName.Valid {
		user.CompanyName = companyName.String
	}
	user.Roles = stringsToRoles(roles)
	return &user, nil
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(values []string) []models.Role {
	out := make([]models.Role, len(values))
	for i, v := range values {
		out[i] = models.Role(v)
	}
	return out
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
