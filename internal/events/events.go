package events

import "time"

// Event types
const (
	TransactionCreated       = "transaction.created"
	TransactionStatusUpdated = "transaction.status_updated"
	TransactionFlagged       = "transaction.flagged"
	ParticipantAdded         = "participant.added"

	BankingSubmitted = "banking.submitted"
	BankingApproved  = "banking.approved"

	VerificationRecorded = "verification.recorded"
)

// Stream names
const (
	TransactionEventsStream  = "transaction.events"
	BankingEventsStream      = "banking.events"
	VerificationEventsStream = "verification.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type TransactionCreatedEvent struct {
	TransactionID     string  `json:"transactionId"`
	DisplayCode       string  `json:"displayCode"`
	PropertyAddress   string  `json:"propertyAddress"`
	PurchaseAmount    float64 `json:"purchaseAmount"`
	MainEscrowID      string  `json:"mainEscrowId"`
	SecondaryEscrowID string  `json:"secondaryEscrowId"`
}

type TransactionStatusUpdatedEvent struct {
	TransactionID string `json:"transactionId"`
	OldStatus     string `json:"oldStatus"`
	NewStatus     string `json:"newStatus"`
	UpdatedBy     string `json:"updatedBy"`
}

type TransactionFlaggedEvent struct {
	TransactionID     string `json:"transactionId"`
	FlaggedBy         string `json:"flaggedBy"`
	Reason            string `json:"reason"`
	Severity          string `json:"severity"`
	MainEscrowID      string `json:"mainEscrowId"`
	SecondaryEscrowID string `json:"secondaryEscrowId"`
}

type ParticipantAddedEvent struct {
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	AddedBy       string `json:"addedBy"`
}

type BankingSubmittedEvent struct {
	BankingInfoID string `json:"bankingInfoId"`
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`
}

type BankingApprovedEvent struct {
	BankingInfoID string `json:"bankingInfoId"`
	TransactionID string `json:"transactionId"`
	OwnerUserID   string `json:"ownerUserId"`
	ApprovedBy    string `json:"approvedBy"`
	EscrowRole    string `json:"escrowRole"`
	FullyApproved bool   `json:"fullyApproved"`
}

type VerificationRecordedEvent struct {
	VerificationID string `json:"verificationId"`
	TransactionID  string `json:"transactionId"`
	UserID         string `json:"userId"`
	ActionType     string `json:"actionType"`
}
