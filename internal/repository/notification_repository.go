package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// NotificationRepository stores in-app notifications. Also serves as the
// event subscriber's notification sink.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, user_id, transaction_id, type, title, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		n.ID, n.UserID, nullString(n.TransactionID), n.Type, n.Title, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// NotificationPage is one page of notifications plus totals.
type NotificationPage struct {
	Notifications []models.NotificationView
	Total         int
	UnreadCount   int
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) (*NotificationPage, error) {
	query := `
		SELECT
			n.id, n.transaction_id, n.type, n.title, n.message, n.read_at, n.created_at,
			t.transaction_id as display_code, t.property_address
		FROM notifications n
		LEFT JOIN transactions t ON n.transaction_id = t.id
		WHERE n.user_id = $1
	`
	if unreadOnly {
		query += ` AND n.read_at IS NULL`
	}
	query += ` ORDER BY n.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.NotificationView
	for rows.Next() {
		var view models.NotificationView
		var transactionID, displayCode, address sql.NullString
		var readAt sql.NullTime

		if err := rows.Scan(
			&view.ID, &transactionID, &view.Type, &view.Title, &view.Message,
			&readAt, &view.CreatedAt, &displayCode, &address,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		view.TransactionID = transactionID.String
		view.TransactionDisplayCode = displayCode.String
		view.PropertyAddress = address.String
		if readAt.Valid {
			view.ReadAt = &readAt.Time
		}
		view.IsUnread = !readAt.Valid
		notifications = append(notifications, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if unreadOnly {
		countQuery += ` AND read_at IS NULL`
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var unreadCount int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID,
	).Scan(&unreadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationPage{Notifications: notifications, Total: total, UnreadCount: unreadCount}, nil
}

// MarkRead marks the given unread notifications read and returns how many
// actually changed. Only the owner's rows are touched.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read_at = NOW()
		WHERE user_id = $1 AND id = ANY($2) AND read_at IS NULL
	`, userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	marked, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked notifications: %w", err)
	}
	return int(marked), nil
}

// MarkAllRead marks everything unread for the user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read_at = NOW()
		WHERE user_id = $1 AND read_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}
