package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// WorkflowStore gives the verification engine one serializable database
// transaction per submission: precondition reads, the ledger append and any
// status side effect commit or roll back together.
type WorkflowStore struct {
	db *sql.DB
}

func NewWorkflowStore(db *sql.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) Workflow(ctx context.Context, fn func(workflow.StoreTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin workflow transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&workflowTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit workflow transaction: %w", err)
	}
	return nil
}

type workflowTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (w *workflowTx) GetTransaction(id string) (*models.Transaction, error) {
	query := `
		SELECT id, transaction_id, property_address, purchase_amount, status, main_escrow_id, secondary_escrow_id, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`
	var t models.Transaction
	err := w.tx.QueryRowContext(w.ctx, query, id).Scan(
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

func (w *workflowTx) IsParticipant(transactionID, userID string, roles ...models.Role) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM transaction_participants
			WHERE transaction_id = $1 AND user_id = $2 AND role = ANY($3)
		)
	`
	var ok bool
	err := w.tx.QueryRowContext(w.ctx, query, transactionID, userID, pq.Array(rolesToStrings(roles))).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return ok, nil
}

func (w *workflowTx) GetBankingRecord(transactionID, userID string) (*models.BankingRecord, error) {
	query := bankingRecordSelect + ` WHERE transaction_id = $1 AND user_id = $2`
	return w.scanBankingRecord(w.tx.QueryRowContext(w.ctx, query, transactionID, userID))
}

func (w *workflowTx) GetBankingRecordForRoles(transactionID, userID string, roles ...models.Role) (*models.BankingRecord, error) {
	query := `
		SELECT bi.id, bi.transaction_id, bi.user_id, bi.amount,
		       bi.approved_by_main_escrow, bi.approved_by_secondary_escrow, bi.approved_at, bi.created_at
		FROM banking_information bi
		JOIN transaction_participants tp ON bi.user_id = tp.user_id AND bi.transaction_id = tp.transaction_id
		WHERE bi.transaction_id = $1 AND bi.user_id = $2 AND tp.role = ANY($3)
	`
	return w.scanBankingRecord(w.tx.QueryRowContext(w.ctx, query, transactionID, userID, pq.Array(rolesToStrings(roles))))
}

func (w *workflowTx) GetEscrowBankingRecord(bankingInfoID, transactionID string) (*models.BankingRecord, error) {
	query := `
		SELECT bi.id, bi.transaction_id, bi.user_id, bi.amount,
		       bi.approved_by_main_escrow, bi.approved_by_secondary_escrow, bi.approved_at, bi.created_at
		FROM banking_information bi
		JOIN transactions t ON bi.transaction_id = t.id
		WHERE bi.id = $1 AND bi.transaction_id = $2
		  AND (bi.user_id = t.main_escrow_id OR bi.user_id = t.secondary_escrow_id)
	`
	return w.scanBankingRecord(w.tx.QueryRowContext(w.ctx, query, bankingInfoID, transactionID))
}

func (w *workflowTx) GetUser(id string) (*models.User, error) {
	query := `SELECT id, username, first_name, last_name FROM users WHERE id = $1`
	var user models.User
	err := w.tx.QueryRowContext(w.ctx, query, id).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (w *workflowTx) AppendVerification(v *models.VerificationAction) error {
	query := `
		INSERT INTO verification_actions (id, transaction_id, user_id, action_type, action_data, verified_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := w.tx.ExecContext(w.ctx, query,
		v.ID, v.TransactionID, v.UserID, v.ActionType, v.ActionData,
		v.VerifiedAt, nullString(v.IPAddress), nullString(v.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to append verification: %w", err)
	}
	return nil
}

func (w *workflowTx) UpdateTransactionStatus(transactionID string, status models.TransactionStatus) error {
	_, err := w.tx.ExecContext(w.ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2`, status, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

const bankingRecordSelect = `
	SELECT id, transaction_id, user_id, amount,
	       approved_by_main_escrow, approved_by_secondary_escrow, approved_at, created_at
	FROM banking_information
`

// scanBankingRecord reads the approval-relevant columns; the encrypted
// payloads are never needed inside the workflow engine.
func (w *workflowTx) scanBankingRecord(row *sql.Row) (*models.BankingRecord, error) {
	var record models.BankingRecord
	var amount sql.NullFloat64
	var approvedAt sql.NullTime

	err := row.Scan(
		&record.ID, &record.TransactionID, &record.UserID, &amount,
		&record.ApprovedByMainEscrow, &record.ApprovedBySecondaryEscrow,
		&approvedAt, &record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan banking record: %w", err)
	}
	if amount.Valid {
		record.Amount = &amount.Float64
	}
	if approvedAt.Valid {
		record.ApprovedAt = &approvedAt.Time
	}
	return &record, nil
}
