package cqrs

import "github.com/alexp-buildit/WireSafe-Portal/internal/models"

// ---------- Transaction queries ----------

// ListTransactionsQuery fetches every transaction the caller can see.
type ListTransactionsQuery struct {
	UserID string
}

// GetTransactionQuery fetches the full detail view, subject to access check.
type GetTransactionQuery struct {
	TransactionID string
	UserID        string
}

// ---------- Banking queries ----------

// ListBankingInfoQuery fetches banking records for a transaction. Visibility
// and masking depend on the caller's roles.
type ListBankingInfoQuery struct {
	TransactionID string
	UserID        string
	UserRoles     []models.Role
}

// ---------- Audit queries ----------

type GetTransactionAuditQuery struct {
	TransactionID string
	UserID        string
	UserRoles     []models.Role
	ActionFilter  string
	Page          int
	Limit         int
}

type GetUserAuditQuery struct {
	TargetUserID     string
	RequestingUserID string
	RequestingRoles  []models.Role
	ActionFilter     string
	Page             int
	Limit            int
}

// ---------- Notification queries ----------

type ListNotificationsQuery struct {
	UserID     string
	UnreadOnly bool
	Page       int
	Limit      int
}
