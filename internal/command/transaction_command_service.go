package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/events"
	"github.com/alexp-buildit/WireSafe-Portal/internal/metrics"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// TransactionCommandService owns the transaction lifecycle writes: creation,
// status updates and the participant registry.
type TransactionCommandService struct {
	writeRepo    *repository.TransactionWriteRepository
	readRepo     *repository.TransactionReadRepository
	participants *repository.ParticipantRepository
	users        *repository.UserRepository
	audit        *repository.AuditRepository
	publisher    *events.Publisher
	metrics      *metrics.Collector
	logger       *zap.Logger
}

func NewTransactionCommandService(
	writeRepo *repository.TransactionWriteRepository,
	readRepo *repository.TransactionReadRepository,
	participants *repository.ParticipantRepository,
	users *repository.UserRepository,
	audit *repository.AuditRepository,
	publisher *events.Publisher,
	collector *metrics.Collector,
	logger *zap.Logger,
) *TransactionCommandService {
	return &TransactionCommandService{
		writeRepo:    writeRepo,
		readRepo:     readRepo,
		participants: participants,
		users:        users,
		audit:        audit,
		publisher:    publisher,
		metrics:      collector,
		logger:       logger,
	}
}

// Create opens a transaction. Only a main escrow officer may create; the
// named secondary officer must exist, hold the secondary_escrow role, and
// be a different user. Both officers become participants immediately.
func (s *TransactionCommandService) Create(ctx context.Context, cmd cqrs.CreateTransactionCommand, meta workflow.RequestMeta) (*models.Transaction, error) {
	if !models.HasRole(cmd.ActorRoles, models.RoleMainEscrow) {
		return nil, workflow.PermissionDenied("Only main escrow officers can create transactions")
	}
	if cmd.PurchaseAmount <= 0 {
		return nil, workflow.InvalidInput("Validation failed", "Purchase amount must be greater than zero")
	}

	secondary, err := s.users.GetActiveByUsername(ctx, cmd.SecondaryEscrowUsername)
	if err != nil {
		return nil, err
	}
	if secondary == nil {
		return nil, workflow.NotFound("Secondary escrow officer not found", "The specified secondary escrow officer does not exist")
	}
	if !models.HasRole(secondary.Roles, models.RoleSecondaryEscrow) {
		return nil, workflow.InvalidInput("Invalid secondary escrow officer", "The specified user is not a secondary escrow officer")
	}
	if secondary.ID == cmd.ActorID {
		return nil, workflow.InvalidInput("Invalid assignment", "Main and secondary escrow officers must be different users")
	}

	transaction := &models.Transaction{
		ID:                uuid.New().String(),
		PropertyAddress:   cmd.PropertyAddress,
		PurchaseAmount:    cmd.PurchaseAmount,
		MainEscrowID:      cmd.ActorID,
		SecondaryEscrowID: secondary.ID,
	}
	if err := s.writeRepo.Create(ctx, transaction); err != nil {
		return nil, err
	}

	s.auditEvent(ctx, transaction.ID, cmd.ActorID, "TRANSACTION_CREATED", map[string]any{
		"transactionId":           transaction.DisplayCode,
		"propertyAddress":         cmd.PropertyAddress,
		"purchaseAmount":          cmd.PurchaseAmount,
		"secondaryEscrowUsername": cmd.SecondaryEscrowUsername,
	}, meta)

	s.publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID:     transaction.ID,
		DisplayCode:       transaction.DisplayCode,
		PropertyAddress:   transaction.PropertyAddress,
		PurchaseAmount:    transaction.PurchaseAmount,
		MainEscrowID:      transaction.MainEscrowID,
		SecondaryEscrowID: transaction.SecondaryEscrowID,
	})

	return transaction, nil
}

// UpdateStatus moves the transaction to any legal status. Any current
// status may move to any other; the lifecycle deliberately permits
// correction in both directions. Officers only.
func (s *TransactionCommandService) UpdateStatus(ctx context.Context, cmd cqrs.UpdateTransactionStatusCommand, meta workflow.RequestMeta) (*models.Transaction, error) {
	if !cmd.Status.Valid() {
		return nil, workflow.InvalidInput("Invalid status", "Status must be one of: "+statusList())
	}

	current, err := s.writeRepo.GetByOfficer(ctx, cmd.TransactionID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have permission to update it")
	}

	updated, err := s.writeRepo.UpdateStatus(ctx, cmd.TransactionID, cmd.Status)
	if err != nil {
		return nil, err
	}
	s.readRepo.InvalidateDetail(ctx, cmd.TransactionID)
	s.metrics.ObserveStatusUpdate(string(cmd.Status))

	s.auditEvent(ctx, cmd.TransactionID, cmd.ActorID, "TRANSACTION_STATUS_UPDATED", map[string]any{
		"transactionId": updated.DisplayCode,
		"oldStatus":     current.Status,
		"newStatus":     cmd.Status,
	}, meta)

	s.publish(ctx, events.TransactionEventsStream, events.TransactionStatusUpdated, events.TransactionStatusUpdatedEvent{
		TransactionID: cmd.TransactionID,
		OldStatus:     string(current.Status),
		NewStatus:     string(cmd.Status),
		UpdatedBy:     cmd.ActorID,
	})

	return updated, nil
}

// AddUser links a registered user to the transaction. Main escrow only; the
// user must already hold the granted role on their account.
func (s *TransactionCommandService) AddUser(ctx context.Context, cmd cqrs.AddUserCommand, meta workflow.RequestMeta) (*models.Participant, *models.User, error) {
	if !models.HasRole(cmd.ActorRoles, models.RoleMainEscrow) {
		return nil, nil, workflow.PermissionDenied("Only main escrow officers can add users to transactions")
	}
	if !models.HasRole(models.ParticipantRoles, cmd.Role) {
		return nil, nil, workflow.InvalidInput("Invalid role", "Role must be one of: "+participantRoleList())
	}

	transaction, err := s.writeRepo.GetByMainOfficer(ctx, cmd.TransactionID, cmd.ActorID)
	if err != nil {
		return nil, nil, err
	}
	if transaction == nil {
		return nil, nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have permission to modify it")
	}

	target, err := s.users.GetActiveByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, workflow.NotFound("User not found", "The specified user does not exist")
	}
	if !models.HasRole(target.Roles, cmd.Role) {
		return nil, nil, workflow.InvalidInput("Invalid user role",
			fmt.Sprintf("User %s is not authorized for the role %s", cmd.Username, cmd.Role))
	}

	already, err := s.participants.HasUserWithRole(ctx, cmd.TransactionID, target.ID, cmd.Role)
	if err != nil {
		return nil, nil, err
	}
	if already {
		return nil, nil, workflow.Conflict("User already added",
			fmt.Sprintf("User %s is already a %s in this transaction", cmd.Username, cmd.Role))
	}

	participant := &models.Participant{
		TransactionID: cmd.TransactionID,
		UserID:        target.ID,
		Email:         target.Email,
		FirstName:     target.FirstName,
		LastName:      target.LastName,
		Role:          cmd.Role,
	}
	if err := s.participants.AddUser(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrDuplicateParticipant) {
			return nil, nil, workflow.Conflict("User already added", "This user is already a participant in this transaction with this role")
		}
		return nil, nil, err
	}
	s.readRepo.InvalidateDetail(ctx, cmd.TransactionID)

	s.auditEvent(ctx, cmd.TransactionID, cmd.ActorID, "USER_ADDED_TO_TRANSACTION", map[string]any{
		"addedUsername": cmd.Username,
		"addedUserId":   target.ID,
		"role":          cmd.Role,
	}, meta)

	// The subscriber turns this into the invitation notification.
	s.publish(ctx, events.TransactionEventsStream, events.ParticipantAdded, events.ParticipantAddedEvent{
		TransactionID: cmd.TransactionID,
		UserID:        target.ID,
		Email:         target.Email,
		Role:          string(cmd.Role),
		AddedBy:       cmd.ActorID,
	})

	return participant, target, nil
}

// AddContact records a participant who has no account yet, keyed by email.
func (s *TransactionCommandService) AddContact(ctx context.Context, cmd cqrs.AddContactCommand, meta workflow.RequestMeta) (*models.Participant, error) {
	if !models.HasRole(cmd.ActorRoles, models.RoleMainEscrow) {
		return nil, workflow.PermissionDenied("Only main escrow officers can add participants to transactions")
	}
	if !models.HasRole(models.ParticipantRoles, cmd.Role) {
		return nil, workflow.InvalidInput("Invalid role", "Role must be one of: "+participantRoleList())
	}

	transaction, err := s.writeRepo.GetByMainOfficer(ctx, cmd.TransactionID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have permission to modify it")
	}

	exists, err := s.participants.HasEmail(ctx, cmd.TransactionID, cmd.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, workflow.Conflict("Participant already exists",
			fmt.Sprintf("A participant with email %s is already in this transaction", cmd.Email))
	}

	participant := &models.Participant{
		TransactionID: cmd.TransactionID,
		Email:         cmd.Email,
		FirstName:     cmd.FirstName,
		LastName:      cmd.LastName,
		PhoneNumber:   cmd.PhoneNumber,
		CompanyName:   cmd.CompanyName,
		Role:          cmd.Role,
	}
	if err := s.participants.AddContact(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrDuplicateParticipant) {
			return nil, workflow.Conflict("Participant already exists", "This participant is already in this transaction")
		}
		return nil, err
	}
	s.readRepo.InvalidateDetail(ctx, cmd.TransactionID)

	s.auditEvent(ctx, cmd.TransactionID, cmd.ActorID, "PARTICIPANT_ADDED_TO_TRANSACTION", map[string]any{
		"participantEmail": cmd.Email,
		"participantName":  cmd.FirstName + " " + cmd.LastName,
		"role":             cmd.Role,
	}, meta)

	s.publish(ctx, events.TransactionEventsStream, events.ParticipantAdded, events.ParticipantAddedEvent{
		TransactionID: cmd.TransactionID,
		Email:         cmd.Email,
		Role:          string(cmd.Role),
		AddedBy:       cmd.ActorID,
	})

	return participant, nil
}

func (s *TransactionCommandService) auditEvent(ctx context.Context, transactionID, userID, action string, details any, meta workflow.RequestMeta) {
	if err := s.audit.Record(ctx, transactionID, userID, action, details, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *TransactionCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}

func statusList() string {
	out := ""
	for i, status := range models.TransactionStatuses {
		if i > 0 {
			out += ", "
		}
		out += string(status)
	}
	return out
}

func participantRoleList() string {
	out := ""
	for i, role := range models.ParticipantRoles {
		if i > 0 {
			out += ", "
		}
		out += string(role)
	}
	return out
}
