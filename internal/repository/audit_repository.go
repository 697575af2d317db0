package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// AuditRepository writes and reads the append-only audit trail.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends one audit entry. transactionID and userID may be empty for
// events with no transaction or no authenticated actor.
func (r *AuditRepository) Record(ctx context.Context, transactionID, userID, action string, details any, ip, userAgent string) error {
	var payload []byte
	if details != nil {
		var err error
		if payload, err = json.Marshal(details); err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, transaction_id, user_id, action, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), nullString(transactionID), nullString(userID),
		action, payload, nullString(ip), nullString(userAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// AuditPage is one page of audit entries plus the unpaginated total.
type AuditPage struct {
	Entries []models.AuditLogView
	Total   int
}

// ListForTransaction returns the transaction's audit trail, newest first.
// actionFilter does a substring match on the action name.
func (r *AuditRepository) ListForTransaction(ctx context.Context, transactionID, actionFilter string, limit, offset int) (*AuditPage, error) {
	query := `
		SELECT
			al.id, al.action, al.details, al.ip_address, al.user_agent, al.created_at,
			u.username, u.first_name, u.last_name
		FROM audit_logs al
		LEFT JOIN users u ON al.user_id = u.id
		WHERE al.transaction_id = $1
	`
	args := []any{transactionID}
	if actionFilter != "" {
		query += ` AND al.action ILIKE $2`
		args = append(args, "%"+actionFilter+"%")
	}
	query += fmt.Sprintf(` ORDER BY al.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogView
	for rows.Next() {
		var entry models.AuditLogView
		var details []byte
		var ip, userAgent, username, firstName, lastName sql.NullString

		if err := rows.Scan(
			&entry.ID, &entry.Action, &details, &ip, &userAgent, &entry.CreatedAt,
			&username, &firstName, &lastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.TransactionID = transactionID
		if len(details) > 0 {
			entry.Details = json.RawMessage(details)
		}
		entry.IPAddress = ip.String
		entry.UserAgent = userAgent.String
		entry.Username = username.String
		entry.FirstName = firstName.String
		entry.LastName = lastName.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	countQuery := `SELECT COUNT(*) FROM audit_logs al WHERE al.transaction_id = $1`
	countArgs := []any{transactionID}
	if actionFilter != "" {
		countQuery += ` AND al.action ILIKE $2`
		countArgs = append(countArgs, "%"+actionFilter+"%")
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return &AuditPage{Entries: entries, Total: total}, nil
}

// SharedTransactionIDs returns the transactions the officer supervises in
// which the target user left audit entries. Used to scope cross-user audit
// reads to shared transactions.
func (r *AuditRepository) SharedTransactionIDs(ctx context.Context, officerID, targetUserID string) ([]string, error) {
	query := `
		SELECT DISTINCT t.id
		FROM transactions t
		WHERE (t.main_escrow_id = $1 OR t.secondary_escrow_id = $1)
		  AND EXISTS (
		    SELECT 1 FROM audit_logs al
		    WHERE al.transaction_id = t.id AND al.user_id = $2
		  )
	`
	rows, err := r.db.QueryContext(ctx, query, officerID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared transactions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForUser returns the target user's audit trail, newest first. A
// non-nil scopeTransactionIDs restricts entries to those transactions (plus
// transaction-less entries); an empty non-nil slice yields only
// transaction-less entries.
func (r *AuditRepository) ListForUser(ctx context.Context, targetUserID, actionFilter string, scopeTransactionIDs []string, limit, offset int) (*AuditPage, error) {
	baseWhere := ` WHERE al.user_id = $1`
	args := []any{targetUserID}

	if actionFilter != "" {
		args = append(args, "%"+actionFilter+"%")
		baseWhere += fmt.Sprintf(` AND al.action ILIKE $%d`, len(args))
	}
	if scopeTransactionIDs != nil {
		if len(scopeTransactionIDs) > 0 {
			args = append(args, pq.Array(scopeTransactionIDs))
			baseWhere += fmt.Sprintf(` AND (al.transaction_id = ANY($%d) OR al.transaction_id IS NULL)`, len(args))
		} else {
			baseWhere += ` AND al.transaction_id IS NULL`
		}
	}

	query := `
		SELECT
			al.id, al.transaction_id, al.action, al.details, al.ip_address, al.user_agent, al.created_at,
			t.transaction_id as display_code, t.property_address
		FROM audit_logs al
		LEFT JOIN transactions t ON al.transaction_id = t.id
	` + baseWhere + fmt.Sprintf(` ORDER BY al.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogView
	for rows.Next() {
		var entry models.AuditLogView
		var details []byte
		var transactionID, ip, userAgent, displayCode, address sql.NullString

		if err := rows.Scan(
			&entry.ID, &transactionID, &entry.Action, &details, &ip, &userAgent, &entry.CreatedAt,
			&displayCode, &address,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user audit entry: %w", err)
		}
		entry.TransactionID = transactionID.String
		entry.TransactionDisplayCode = displayCode.String
		entry.PropertyAddress = address.String
		if len(details) > 0 {
			entry.Details = json.RawMessage(details)
		}
		entry.IPAddress = ip.String
		entry.UserAgent = userAgent.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	countQuery := `SELECT COUNT(*) FROM audit_logs al` + baseWhere
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count user audit entries: %w", err)
	}

	return &AuditPage{Entries: entries, Total: total}, nil
}
