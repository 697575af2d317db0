package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// BankingRepository manages encrypted payment destinations and their dual
// approval state.
type BankingRepository struct {
	db *sql.DB
}

func NewBankingRepository(db *sql.DB) *BankingRepository {
	return &BankingRepository{db: db}
}

// Create inserts one record per (transaction, user). Returns
// ErrDuplicateBanking when a record already exists.
func (r *BankingRepository) Create(ctx context.Context, record *models.BankingRecord) error {
	query := `
		INSERT INTO banking_information (
			id, transaction_id, user_id,
			bank_name_encrypted, account_number_encrypted,
			routing_number_encrypted, account_holder_name_encrypted,
			amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var amount sql.NullFloat64
	if record.Amount != nil {
		amount = sql.NullFloat64{Float64: *record.Amount, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.TransactionID, record.UserID,
		record.BankNameEncrypted, record.AccountNumberEncrypted,
		record.RoutingNumberEncrypted, record.AccountHolderNameEncrypted,
		amount,
	).Scan(&record.CreatedAt)
	if IsUniqueViolation(err) {
		return ErrDuplicateBanking
	}
	if err != nil {
		return fmt.Errorf("failed to create banking record: %w", err)
	}
	return nil
}

// ExistsFor reports whether the user already submitted banking details for
// the transaction.
func (r *BankingRepository) ExistsFor(ctx context.Context, transactionID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM banking_information WHERE transaction_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, transactionID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check banking record: %w", err)
	}
	return exists, nil
}

// BankingOwnerView is a banking record joined with its owner's identity and
// the owning transaction's escrow assignment.
type BankingOwnerView struct {
	Record            models.BankingRecord
	Username          string
	FirstName         string
	LastName          string
	MainEscrowID      string
	SecondaryEscrowID string
}

// ListForTransaction returns the records a caller may see. Escrow officers
// see every record; everyone else sees their own plus records that cleared
// secondary approval.
func (r *BankingRepository) ListForTransaction(ctx context.Context, transactionID, userID string, escrow bool) ([]BankingOwnerView, error) {
	query := `
		SELECT
			bi.id, bi.transaction_id, bi.user_id,
			bi.bank_name_encrypted, bi.account_number_encrypted,
			bi.routing_number_encrypted, bi.account_holder_name_encrypted,
			bi.amount,
			bi.approved_by_secondary_escrow, bi.approved_by_main_escrow,
			bi.approved_at, bi.created_at, bi.updated_at,
			u.username, u.first_name, u.last_name,
			t.main_escrow_id, t.secondary_escrow_id
		FROM banking_information bi
		JOIN users u ON bi.user_id = u.id
		JOIN transactions t ON bi.transaction_id = t.id
		WHERE bi.transaction_id = $1
	`
	args := []any{transactionID}
	if !escrow {
		query += ` AND (bi.user_id = $2 OR bi.approved_by_secondary_escrow = true)`
		args = append(args, userID)
	}
	query += ` ORDER BY bi.created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list banking records: %w", err)
	}
	defer rows.Close()

	var views []BankingOwnerView
	for rows.Next() {
		view, err := scanBankingOwnerView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// GetByID returns the record with owner and escrow context, (nil, nil) when
// absent.
func (r *BankingRepository) GetByID(ctx context.Context, bankingInfoID string) (*BankingOwnerView, error) {
	query := `
		SELECT
			bi.id, bi.transaction_id, bi.user_id,
			bi.bank_name_encrypted, bi.account_number_encrypted,
			bi.routing_number_encrypted, bi.account_holder_name_encrypted,
			bi.amount,
			bi.approved_by_secondary_escrow, bi.approved_by_main_escrow,
			bi.approved_at, bi.created_at, bi.updated_at,
			u.username, u.first_name, u.last_name,
			t.main_escrow_id, t.secondary_escrow_id
		FROM banking_information bi
		JOIN users u ON bi.user_id = u.id
		JOIN transactions t ON bi.transaction_id = t.id
		WHERE bi.id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, bankingInfoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get banking record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanBankingOwnerView(rows)
}

// Approve sets the approving officer's own flag. The row is locked for the
// duration so two concurrent approvals serialize; a second approval by the
// same role returns ErrAlreadyApproved with no state change. The approval
// timestamp is set by whichever officer approves first and never moves.
func (r *BankingRepository) Approve(ctx context.Context, bankingInfoID string, asMainEscrow bool) (*models.ApprovalView, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval: %w", err)
	}
	defer tx.Rollback()

	var approvedByMain, approvedBySecondary bool
	err = tx.QueryRowContext(ctx, `
		SELECT approved_by_main_escrow, approved_by_secondary_escrow
		FROM banking_information
		WHERE id = $1
		FOR UPDATE
	`, bankingInfoID).Scan(&approvedByMain, &approvedBySecondary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock banking record: %w", err)
	}

	if asMainEscrow && approvedByMain {
		return nil, ErrAlreadyApproved
	}
	if !asMainEscrow && approvedBySecondary {
		return nil, ErrAlreadyApproved
	}

	column := "approved_by_secondary_escrow"
	if asMainEscrow {
		column = "approved_by_main_escrow"
	}
	update := fmt.Sprintf(`
		UPDATE banking_information
		SET %s = true, approved_at = COALESCE(approved_at, NOW())
		WHERE id = $1
		RETURNING approved_by_main_escrow, approved_by_secondary_escrow, approved_at
	`, column)

	view := models.ApprovalView{ID: bankingInfoID}
	var approvedAt sql.NullTime
	err = tx.QueryRowContext(ctx, update, bankingInfoID).
		Scan(&view.ApprovedByMainEscrow, &view.ApprovedBySecondaryEscrow, &approvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to approve banking record: %w", err)
	}
	if approvedAt.Valid {
		view.ApprovedAt = &approvedAt.Time
	}
	view.FullyApproved = view.ApprovedByMainEscrow && view.ApprovedBySecondaryEscrow

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return &view, nil
}

func scanBankingOwnerView(rows *sql.Rows) (*BankingOwnerView, error) {
	var view BankingOwnerView
	var amount sql.NullFloat64
	var approvedAt sql.NullTime

	err := rows.Scan(
		&view.Record.ID, &view.Record.TransactionID, &view.Record.UserID,
		&view.Record.BankNameEncrypted, &view.Record.AccountNumberEncrypted,
		&view.Record.RoutingNumberEncrypted, &view.Record.AccountHolderNameEncrypted,
		&amount,
		&view.Record.ApprovedBySecondaryEscrow, &view.Record.ApprovedByMainEscrow,
		&approvedAt, &view.Record.CreatedAt, &view.Record.UpdatedAt,
		&view.Username, &view.FirstName, &view.LastName,
		&view.MainEscrowID, &view.SecondaryEscrowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan banking record: %w", err)
	}
	if amount.Valid {
		view.Record.Amount = &amount.Float64
	}
	if approvedAt.Valid {
		view.Record.ApprovedAt = &approvedAt.Time
	}
	return &view, nil
}
