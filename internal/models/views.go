package models

import (
	"encoding/json"
	"time"
)

// TransactionSummaryView is the list-page projection of a transaction,
// including the caller's own role when they are a plain participant.
type TransactionSummaryView struct {
	ID                      string            `json:"id"`
	DisplayCode             string            `json:"transactionId"`
	PropertyAddress         string            `json:"propertyAddress"`
	PurchaseAmount          float64           `json:"purchaseAmount"`
	Status                  TransactionStatus `json:"status"`
	MainEscrowUsername      string            `json:"mainEscrowUsername"`
	SecondaryEscrowUsername string            `json:"secondaryEscrowUsername"`
	UserRole                Role              `json:"userRole,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
}

// EscrowOfficerView identifies one of the two supervisory officers.
type EscrowOfficerView struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TransactionDetailView is the full detail-page projection: the transaction
// plus its participants, banking summaries and verification ledger.
type TransactionDetailView struct {
	ID              string            `json:"id"`
	DisplayCode     string            `json:"transactionId"`
	PropertyAddress string            `json:"propertyAddress"`
	PurchaseAmount  float64           `json:"purchaseAmount"`
	Status          TransactionStatus `json:"status"`
	MainEscrow      EscrowOfficerView `json:"mainEscrow"`
	SecondaryEscrow EscrowOfficerView `json:"secondaryEscrow"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	Participants        []Participant            `json:"participants"`
	BankingInfo         []BankingSummaryView     `json:"bankingInfo"`
	VerificationActions []VerificationActionView `json:"verificationActions"`
}

// BankingSummaryView is a banking record without the encrypted payloads,
// as shown on the transaction detail page.
type BankingSummaryView struct {
	ID                        string     `json:"id"`
	UserID                    string     `json:"userId"`
	Username                  string     `json:"username"`
	FirstName                 string     `json:"firstName"`
	LastName                  string     `json:"lastName"`
	Amount                    *float64   `json:"amount,omitempty"`
	ApprovedByMainEscrow      bool       `json:"approvedByMainEscrow"`
	ApprovedBySecondaryEscrow bool       `json:"approvedBySecondaryEscrow"`
	ApprovedAt                *time.Time `json:"approvedAt,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
}

// BankingDetailView is a banking record with decrypted destination details.
// Fields are masked with "***" for callers not entitled to the plaintext.
type BankingDetailView struct {
	ID                        string     `json:"id"`
	UserID                    string     `json:"userId"`
	Username                  string     `json:"username"`
	FirstName                 string     `json:"firstName"`
	LastName                  string     `json:"lastName"`
	BankName                  string     `json:"bankName"`
	AccountNumber             string     `json:"accountNumber"`
	RoutingNumber             string     `json:"routingNumber"`
	AccountHolderName         string     `json:"accountHolderName"`
	Amount                    *float64   `json:"amount,omitempty"`
	ApprovedByMainEscrow      bool       `json:"approvedByMainEscrow"`
	ApprovedBySecondaryEscrow bool       `json:"approvedBySecondaryEscrow"`
	ApprovedAt                *time.Time `json:"approvedAt,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
}

// VerificationActionView is a ledger entry joined with its actor.
type VerificationActionView struct {
	ID         string          `json:"id"`
	ActionType string          `json:"actionType"`
	ActionData json.RawMessage `json:"actionData"`
	VerifiedAt time.Time       `json:"verifiedAt"`
	Username   string          `json:"username"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
}

// ApprovalView reports the state of a banking record's dual approval after
// an approve call.
type ApprovalView struct {
	ID                        string     `json:"id"`
	ApprovedByMainEscrow      bool       `json:"approvedByMainEscrow"`
	ApprovedBySecondaryEscrow bool       `json:"approvedBySecondaryEscrow"`
	ApprovedAt                *time.Time `json:"approvedAt,omitempty"`
	FullyApproved             bool       `json:"fullyApproved"`
}

// AuditLogView is an audit entry joined with its actor and transaction.
type AuditLogView struct {
	ID                     string          `json:"id"`
	TransactionID          string          `json:"transactionId,omitempty"`
	TransactionDisplayCode string          `json:"transactionDisplayId,omitempty"`
	PropertyAddress        string          `json:"propertyAddress,omitempty"`
	Action                 string          `json:"action"`
	Details                json.RawMessage `json:"details"`
	IPAddress              string          `json:"ipAddress,omitempty"`
	UserAgent              string          `json:"userAgent,omitempty"`
	Username               string          `json:"username,omitempty"`
	FirstName              string          `json:"firstName,omitempty"`
	LastName               string          `json:"lastName,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// NotificationView is a notification joined with its transaction context.
type NotificationView struct {
	ID                     string     `json:"id"`
	TransactionID          string     `json:"transactionId,omitempty"`
	TransactionDisplayCode string     `json:"transactionDisplayId,omitempty"`
	PropertyAddress        string     `json:"propertyAddress,omitempty"`
	Type                   string     `json:"type"`
	Title                  string     `json:"title"`
	Message                string     `json:"message"`
	ReadAt                 *time.Time `json:"readAt,omitempty"`
	IsUnread               bool       `json:"isUnread"`
	CreatedAt              time.Time  `json:"createdAt"`
}
