package cqrs

import "github.com/alexp-buildit/WireSafe-Portal/internal/models"

type RegisterUserCommand struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	CompanyName string
	Password    string
	Roles       []models.Role
}

type CreateTransactionCommand struct {
	ActorID                 string
	ActorRoles              []models.Role
	PropertyAddress         string
	PurchaseAmount          float64
	SecondaryEscrowUsername string
}

type UpdateTransactionStatusCommand struct {
	ActorID       string
	TransactionID string
	Status        models.TransactionStatus
}

// AddUserCommand links an already-registered user to a transaction.
type AddUserCommand struct {
	ActorID       string
	ActorRoles    []models.Role
	TransactionID string
	Username      string
	Role          models.Role
}

// AddContactCommand records a not-yet-registered participant by contact
// details, pending account creation.
type AddContactCommand struct {
	ActorID       string
	ActorRoles    []models.Role
	TransactionID string
	Email         string
	FirstName     string
	LastName      string
	PhoneNumber   string
	CompanyName   string
	Role          models.Role
}

type SubmitBankingInfoCommand struct {
	ActorID           string
	ActorRoles        []models.Role
	TransactionID     string
	BankName          string
	AccountNumber     string
	RoutingNumber     string
	AccountHolderName string
	Amount            *float64
}

type ApproveBankingInfoCommand struct {
	ActorID       string
	ActorRoles    []models.Role
	BankingInfoID string
}

type MarkNotificationsReadCommand struct {
	UserID          string
	NotificationIDs []string
	MarkAllRead     bool
}

type LoginCommand struct {
	Username string
	Password string
}
