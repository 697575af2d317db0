package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	wsredis "github.com/alexp-buildit/WireSafe-Portal/internal/redis"
)

const transactionDetailKeyPrefix = "transaction:detail:"

// TransactionReadRepository serves the transaction projections. The detail
// view goes through Redis first, falling back to PostgreSQL on a miss; the
// list view is always fresh from PostgreSQL.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *wsredis.ViewCache[models.TransactionDetailView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: wsredis.NewViewCache[models.TransactionDetailView](redisClient, 5*time.Minute, logger),
	}
}

// ListForUser returns every transaction the user supervises or participates
// in, newest first, with the user's own participation role when present.
func (r *TransactionReadRepository) ListForUser(ctx context.Context, userID string) ([]models.TransactionSummaryView, error) {
	query := `
		SELECT DISTINCT
			t.id,
			t.transaction_id,
			t.property_address,
			t.purchase_amount,
			t.status,
			t.created_at,
			t.updated_at,
			me.username as main_escrow_username,
			se.username as secondary_escrow_username,
			tp.role as user_role
		FROM transactions t
		LEFT JOIN users me ON t.main_escrow_id = me.id
		LEFT JOIN users se ON t.secondary_escrow_id = se.id
		LEFT JOIN transaction_participants tp ON t.id = tp.transaction_id AND tp.user_id = $1
		WHERE t.main_escrow_id = $1
		   OR t.secondary_escrow_id = $1
		   OR EXISTS (
		     SELECT 1 FROM transaction_participants tp2
		     WHERE tp2.transaction_id = t.id AND tp2.user_id = $1
		   )
		ORDER BY t.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var views []models.TransactionSummaryView
	for rows.Next() {
		var view models.TransactionSummaryView
		var userRole sql.NullString

		if err := rows.Scan(
			&view.ID, &view.DisplayCode, &view.PropertyAddress, &view.PurchaseAmount,
			&view.Status, &view.CreatedAt, &view.UpdatedAt,
			&view.MainEscrowUsername, &view.SecondaryEscrowUsername, &userRole,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction summary: %w", err)
		}
		if userRole.Valid {
			view.UserRole = models.Role(userRole.String)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// GetDetail assembles the full detail projection. Access is NOT checked
// here; callers gate on TransactionWriteRepository.IsAccessible first.
func (r *TransactionReadRepository) GetDetail(ctx context.Context, transactionID string) (*models.TransactionDetailView, error) {
	cacheKey := transactionDetailKeyPrefix + transactionID
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	view, err := r.loadDetail(ctx, transactionID)
	if err != nil || view == nil {
		return view, err
	}

	r.cache.Set(ctx, cacheKey, view)
	return view, nil
}

// InvalidateDetail drops the cached detail view. Called after any write
// that changes what the detail page shows.
func (r *TransactionReadRepository) InvalidateDetail(ctx context.Context, transactionID string) {
	r.cache.Delete(ctx, transactionDetailKeyPrefix+transactionID)
}

func (r *TransactionReadRepository) loadDetail(ctx context.Context, transactionID string) (*models.TransactionDetailView, error) {
	query := `
		SELECT
			t.id,
			t.transaction_id,
			t.property_address,
			t.purchase_amount,
			t.status,
			t.created_at,
			t.updated_at,
			me.username, me.first_name, me.last_name,
			se.username, se.first_name, se.last_name
		FROM transactions t
		LEFT JOIN users me ON t.main_escrow_id = me.id
		LEFT JOIN users se ON t.secondary_escrow_id = se.id
		WHERE t.id = $1
	`
	var view models.TransactionDetailView
	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(
		&view.ID, &view.DisplayCode, &view.PropertyAddress, &view.PurchaseAmount,
		&view.Status, &view.CreatedAt, &view.UpdatedAt,
		&view.MainEscrow.Username, &view.MainEscrow.FirstName, &view.MainEscrow.LastName,
		&view.SecondaryEscrow.Username, &view.SecondaryEscrow.FirstName, &view.SecondaryEscrow.LastName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction detail: %w", err)
	}

	if view.Participants, err = r.listParticipants(ctx, transactionID); err != nil {
		return nil, err
	}
	if view.BankingInfo, err = r.listBankingSummaries(ctx, transactionID); err != nil {
		return nil, err
	}
	if view.VerificationActions, err = r.listVerificationActions(ctx, transactionID); err != nil {
		return nil, err
	}
	return &view, nil
}

// listParticipants prefers account fields over the contact details captured
// at invite time, so a participant who registers later shows up under their
// account identity.
func (r *TransactionReadRepository) listParticipants(ctx context.Context, transactionID string) ([]models.Participant, error) {
	query := `
		SELECT
			tp.id,
			tp.role,
			tp.added_at,
			COALESCE(u.id::text, '') as user_id,
			COALESCE(u.first_name, tp.first_name, '') as first_name,
			COALESCE(u.last_name, tp.last_name, '') as last_name,
			COALESCE(u.email, tp.email, '') as email,
			COALESCE(u.phone_number, tp.phone_number, '') as phone_number,
			COALESCE(u.company_name, tp.company_name, '') as company_name
		FROM transaction_participants tp
		LEFT JOIN users u ON tp.user_id = u.id
		WHERE tp.transaction_id = $1
		ORDER BY tp.added_at
	`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p := models.Participant{TransactionID: transactionID}
		if err := rows.Scan(
			&p.ID, &p.Role, &p.AddedAt,
			&p.UserID, &p.FirstName, &p.LastName,
			&p.Email, &p.PhoneNumber, &p.CompanyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *TransactionReadRepository) listBankingSummaries(ctx context.Context, transactionID string) ([]models.BankingSummaryView, error) {
	query := `
		SELECT
			bi.id,
			bi.user_id,
			bi.amount,
			bi.approved_by_secondary_escrow,
			bi.approved_by_main_escrow,
			bi.approved_at,
			bi.created_at,
			u.username,
			u.first_name,
			u.last_name
		FROM banking_information bi
		JOIN users u ON bi.user_id = u.id
		WHERE bi.transaction_id = $1
		ORDER BY bi.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list banking summaries: %w", err)
	}
	defer rows.Close()

	var views []models.BankingSummaryView
	for rows.Next() {
		var view models.BankingSummaryView
		var amount sql.NullFloat64
		var approvedAt sql.NullTime

		if err := rows.Scan(
			&view.ID, &view.UserID, &amount,
			&view.ApprovedBySecondaryEscrow, &view.ApprovedByMainEscrow,
			&approvedAt, &view.CreatedAt,
			&view.Username, &view.FirstName, &view.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan banking summary: %w", err)
		}
		if amount.Valid {
			view.Amount = &amount.Float64
		}
		if approvedAt.Valid {
			view.ApprovedAt = &approvedAt.Time
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func (r *TransactionReadRepository) listVerificationActions(ctx context.Context, transactionID string) ([]models.VerificationActionView, error) {
	query := `
		SELECT
			va.id,
			va.action_type,
			va.action_data,
			va.verified_at,
			u.username,
			u.first_name,
			u.last_name
		FROM verification_actions va
		JOIN users u ON va.user_id = u.id
		WHERE va.transaction_id = $1
		ORDER BY va.verified_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification actions: %w", err)
	}
	defer rows.Close()

	var views []models.VerificationActionView
	for rows.Next() {
		var view models.VerificationActionView
		var data []byte

		if err := rows.Scan(
			&view.ID, &view.ActionType, &data, &view.VerifiedAt,
			&view.Username, &view.FirstName, &view.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification action: %w", err)
		}
		if len(data) > 0 {
			view.ActionData = json.RawMessage(data)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}
