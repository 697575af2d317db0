package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// TransactionWriteRepository handles all state-mutating operations for
// escrow transactions. It operates exclusively against the PostgreSQL write
// store (source of truth).
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// Create inserts the transaction and its two escrow participations in one
// database transaction. The display code comes back from the insert trigger.
func (r *TransactionWriteRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO transactions (id, property_address, purchase_amount, main_escrow_id, secondary_escrow_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING transaction_id, status, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, insert,
		transaction.ID, transaction.PropertyAddress, transaction.PurchaseAmount,
		transaction.MainEscrowID, transaction.SecondaryEscrowID,
	).Scan(&transaction.DisplayCode, &transaction.Status, &transaction.CreatedAt, &transaction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	participants := `
		INSERT INTO transaction_participants (transaction_id, user_id, role)
		VALUES ($1, $2, $3), ($1, $4, $5)
	`
	_, err = tx.ExecContext(ctx, participants,
		transaction.ID,
		transaction.MainEscrowID, models.RoleMainEscrow,
		transaction.SecondaryEscrowID, models.RoleSecondaryEscrow,
	)
	if err != nil {
		return fmt.Errorf("failed to create escrow participations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction creation: %w", err)
	}
	return nil
}

// GetByOfficer returns the transaction only when userID is its main or
// secondary escrow officer. (nil, nil) otherwise.
func (r *TransactionWriteRepository) GetByOfficer(ctx context.Context, transactionID, userID string) (*models.Transaction, error) {
	query := `
		SELECT id, transaction_id, property_address, purchase_amount, status, main_escrow_id, secondary_escrow_id, created_at, updated_at
		FROM transactions
		WHERE id = $1 AND (main_escrow_id = $2 OR secondary_escrow_id = $2)
	`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, transactionID, userID))
}

// GetByMainOfficer returns the transaction only when userID is its main
// escrow officer.
func (r *TransactionWriteRepository) GetByMainOfficer(ctx context.Context, transactionID, userID string) (*models.Transaction, error) {
	query := `
		SELECT id, transaction_id, property_address, purchase_amount, status, main_escrow_id, secondary_escrow_id, created_at, updated_at
		FROM transactions
		WHERE id = $1 AND main_escrow_id = $2
	`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, transactionID, userID))
}

// IsAccessible reports whether userID is an officer or participant of the
// transaction. The visibility check behind every read endpoint.
func (r *TransactionWriteRepository) IsAccessible(ctx context.Context, transactionID, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM transactions t
			WHERE t.id = $1
			  AND (
			    t.main_escrow_id = $2
			    OR t.secondary_escrow_id = $2
			    OR EXISTS (
			      SELECT 1 FROM transaction_participants tp
			      WHERE tp.transaction_id = t.id AND tp.user_id = $2
			    )
			  )
		)
	`
	var accessible bool
	if err := r.db.QueryRowContext(ctx, query, transactionID, userID).Scan(&accessible); err != nil {
		return false, fmt.Errorf("failed to check transaction access: %w", err)
	}
	return accessible, nil
}

// UpdateStatus sets the status unconditionally; any legal status may follow
// any other. Returns the refreshed row.
func (r *TransactionWriteRepository) UpdateStatus(ctx context.Context, transactionID string, status models.TransactionStatus) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $1
		WHERE id = $2
		RETURNING id, transaction_id, property_address, purchase_amount, status, main_escrow_id, secondary_escrow_id, created_at, updated_at
	`
	transaction, err := r.scanTransaction(r.db.QueryRowContext(ctx, query, status, transactionID))
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, fmt.Errorf("transaction %s vanished during status update", transactionID)
	}
	return transaction, nil
}

func (r *TransactionWriteRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `
		SELECT id, transaction_id, property_address, purchase_amount, status, main_escrow_id, secondary_escrow_id, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`
	return r.scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *TransactionWriteRepository) scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.DisplayCode, &t.PropertyAddress, &t.PurchaseAmount,
		&t.Status, &t.MainEscrowID, &t.SecondaryEscrowID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}
