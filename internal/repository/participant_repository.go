package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// ParticipantRepository manages the registry linking identities (and
// contact-only invitees) to transactions. Rows are insert-only.
type ParticipantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// AddUser links a registered user to the transaction under one role.
// Returns ErrDuplicateParticipant when the (transaction, user, role) row
// already exists.
func (r *ParticipantRepository) AddUser(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO transaction_participants (transaction_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, added_at
	`
	err := r.db.QueryRowContext(ctx, query, p.TransactionID, p.UserID, p.Role).
		Scan(&p.ID, &p.AddedAt)
	if IsUniqueViolation(err) {
		return ErrDuplicateParticipant
	}
	if err != nil {
		return fmt.Errorf("failed to add user participant: %w", err)
	}
	return nil
}

// AddContact records a not-yet-registered participant by contact details.
func (r *ParticipantRepository) AddContact(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO transaction_participants (transaction_id, email, first_name, last_name, phone_number, company_name, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, added_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.TransactionID, p.Email, p.FirstName, p.LastName,
		nullString(p.PhoneNumber), nullString(p.CompanyName), p.Role,
	).Scan(&p.ID, &p.AddedAt)
	if IsUniqueViolation(err) {
		return ErrDuplicateParticipant
	}
	if err != nil {
		return fmt.Errorf("failed to add contact participant: %w", err)
	}
	return nil
}

// HasUserWithRole reports whether the user already holds the role in this
// transaction.
func (r *ParticipantRepository) HasUserWithRole(ctx context.Context, transactionID, userID string, role models.Role) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM transaction_participants
			WHERE transaction_id = $1 AND user_id = $2 AND role = $3
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, transactionID, userID, role).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// HasEmail reports whether any participant row in the transaction carries
// this contact email.
func (r *ParticipantRepository) HasEmail(ctx context.Context, transactionID, email string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM transaction_participants
			WHERE transaction_id = $1 AND email = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, transactionID, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant email: %w", err)
	}
	return exists, nil
}

func IsUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && string(pqErr.Code) == uniqueViolation
}
