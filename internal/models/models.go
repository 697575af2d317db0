package models

import "time"

// Role is a participation role an identity can hold. Roles are non-exclusive;
// a user may hold several at once.
type Role string

const (
	RoleBuyer           Role = "buyer"
	RoleSeller          Role = "seller"
	RoleLender          Role = "lender"
	RoleMainEscrow      Role = "main_escrow"
	RoleSecondaryEscrow Role = "secondary_escrow"
)

// ParticipantRoles are the roles a main escrow officer may grant when adding
// someone to a transaction. The two escrow roles are assigned at creation
// time only.
var ParticipantRoles = []Role{RoleBuyer, RoleSeller, RoleLender}

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleLender, RoleMainEscrow, RoleSecondaryEscrow:
		return true
	}
	return false
}

// HasRole reports whether roles contains r.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}

// TransactionStatus is the escrow transaction lifecycle state.
type TransactionStatus string

const (
	StatusSetup              TransactionStatus = "setup"
	StatusBankingInfo        TransactionStatus = "banking_info"
	StatusBuyerVerification  TransactionStatus = "buyer_verification"
	StatusSellerVerification TransactionStatus = "seller_verification"
	StatusCompleted          TransactionStatus = "completed"
	StatusFlagged            TransactionStatus = "flagged"
)

// TransactionStatuses lists every legal status value. Status updates accept
// any member of this set; ordering is deliberately not enforced.
var TransactionStatuses = []TransactionStatus{
	StatusSetup, StatusBankingInfo, StatusBuyerVerification,
	StatusSellerVerification, StatusCompleted, StatusFlagged,
}

func (s TransactionStatus) Valid() bool {
	for _, known := range TransactionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Severity classifies a suspicious-activity flag.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber"`
	CompanyName  string    `json:"companyName,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Transaction is an escrow wire transaction. Main and secondary escrow are
// fixed at creation and always distinct.
type Transaction struct {
	ID                string            `json:"id"`
	DisplayCode       string            `json:"transactionId"`
	PropertyAddress   string            `json:"propertyAddress"`
	PurchaseAmount    float64           `json:"purchaseAmount"`
	Status            TransactionStatus `json:"status"`
	MainEscrowID      string            `json:"-"`
	SecondaryEscrowID string            `json:"-"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Participant links an identity (or an unlinked contact pending account
// creation) to a transaction under one role. Unique on (transaction, user,
// role); never mutated after insert.
type Participant struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"-"`
	UserID        string    `json:"userId,omitempty"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	CompanyName   string    `json:"companyName,omitempty"`
	Role          Role      `json:"role"`
	AddedAt       time.Time `json:"addedAt"`
}

// BankingRecord holds a party's encrypted payment destination for one
// transaction. At most one record per (transaction, user). The two approval
// flags only ever go false→true.
type BankingRecord struct {
	ID                         string    `json:"id"`
	TransactionID              string    `json:"-"`
	UserID                     string    `json:"userId"`
	BankNameEncrypted          string    `json:"-"`
	AccountNumberEncrypted     string    `json:"-"`
	RoutingNumberEncrypted     string    `json:"-"`
	AccountHolderNameEncrypted string    `json:"-"`
	Amount                     *float64  `json:"amount,omitempty"`
	ApprovedByMainEscrow       bool      `json:"approvedByMainEscrow"`
	ApprovedBySecondaryEscrow  bool      `json:"approvedBySecondaryEscrow"`
	ApprovedAt                 *time.Time `json:"approvedAt,omitempty"`
	CreatedAt                  time.Time `json:"createdAt"`
	UpdatedAt                  time.Time `json:"-"`
}

// FullyApproved reports whether both escrow officers have approved.
func (b *BankingRecord) FullyApproved() bool {
	return b.ApprovedByMainEscrow && b.ApprovedBySecondaryEscrow
}

// VerificationAction is an immutable ledger entry recording a party's
// attestation or authorization. Append-only; never updated or deleted.
type VerificationAction struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	ActionType    string    `json:"actionType"`
	ActionData    []byte    `json:"-"`
	VerifiedAt    time.Time `json:"verifiedAt"`
	IPAddress     string    `json:"-"`
	UserAgent     string    `json:"-"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Action        string    `json:"action"`
	Details       []byte    `json:"details"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	UserAgent     string    `json:"userAgent,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Notification struct {
	ID            string     `json:"id"`
	UserID        string     `json:"-"`
	TransactionID string     `json:"transactionId,omitempty"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
