package command

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/events"
	"github.com/alexp-buildit/WireSafe-Portal/internal/metrics"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// BankingCommandService handles banking detail submission and the dual
// escrow approval protocol.
type BankingCommandService struct {
	banking   *repository.BankingRepository
	writeRepo *repository.TransactionWriteRepository
	readRepo  *repository.TransactionReadRepository
	audit     *repository.AuditRepository
	publisher *events.Publisher
	encryptor *secure.Encryptor
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewBankingCommandService(
	banking *repository.BankingRepository,
	writeRepo *repository.TransactionWriteRepository,
	readRepo *repository.TransactionReadRepository,
	audit *repository.AuditRepository,
	publisher *events.Publisher,
	encryptor *secure.Encryptor,
	collector *metrics.Collector,
	logger *zap.Logger,
) *BankingCommandService {
	return &BankingCommandService{
		banking:   banking,
		writeRepo: writeRepo,
		readRepo:  readRepo,
		audit:     audit,
		publisher: publisher,
		encryptor: encryptor,
		metrics:   collector,
		logger:    logger,
	}
}

// Submit stores the caller's encrypted payment destination for a transaction.
// One record per (transaction, user); escrow officers may omit the amount,
// every other role must state one.
func (s *BankingCommandService) Submit(ctx context.Context, cmd cqrs.SubmitBankingInfoCommand, meta workflow.RequestMeta) (*models.BankingRecord, error) {
	accessible, err := s.writeRepo.IsAccessible(ctx, cmd.TransactionID, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
	}

	escrowCaller := models.HasRole(cmd.ActorRoles, models.RoleMainEscrow) ||
		models.HasRole(cmd.ActorRoles, models.RoleSecondaryEscrow)
	if !escrowCaller && (cmd.Amount == nil || *cmd.Amount <= 0) {
		return nil, workflow.InvalidInput("Validation failed", "Amount is required and must be greater than zero")
	}
	if !secure.ValidRoutingNumber(cmd.RoutingNumber) {
		return nil, workflow.InvalidInput("Invalid routing number", "The routing number failed validation checks")
	}

	record := &models.BankingRecord{
		ID:            uuid.New().String(),
		TransactionID: cmd.TransactionID,
		UserID:        cmd.ActorID,
		Amount:        cmd.Amount,
	}
	if record.BankNameEncrypted, err = s.encryptor.Encrypt(cmd.BankName); err != nil {
		return nil, err
	}
	if record.AccountNumberEncrypted, err = s.encryptor.Encrypt(cmd.AccountNumber); err != nil {
		return nil, err
	}
	if record.RoutingNumberEncrypted, err = s.encryptor.Encrypt(cmd.RoutingNumber); err != nil {
		return nil, err
	}
	if record.AccountHolderNameEncrypted, err = s.encryptor.Encrypt(cmd.AccountHolderName); err != nil {
		return nil, err
	}

	if err := s.banking.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateBanking) {
			return nil, workflow.Conflict("Banking information already exists", "Banking information has already been submitted for this transaction")
		}
		return nil, err
	}
	s.readRepo.InvalidateDetail(ctx, cmd.TransactionID)

	s.auditEvent(ctx, cmd.TransactionID, cmd.ActorID, "BANKING_INFO_SUBMITTED", map[string]any{
		"bankingInfoId": record.ID,
		"hasAmount":     cmd.Amount != nil,
	}, meta)

	s.publish(ctx, events.BankingEventsStream, events.BankingSubmitted, events.BankingSubmittedEvent{
		BankingInfoID: record.ID,
		TransactionID: cmd.TransactionID,
		UserID:        cmd.ActorID,
	})

	return record, nil
}

// Approve records one escrow officer's approval of a banking record. The
// caller approves under whichever escrow role they hold on the record's
// transaction; re-approving under the same role is a conflict, never a
// silent no-op.
func (s *BankingCommandService) Approve(ctx context.Context, cmd cqrs.ApproveBankingInfoCommand, meta workflow.RequestMeta) (*models.ApprovalView, error) {
	if !models.HasRole(cmd.ActorRoles, models.RoleMainEscrow) &&
		!models.HasRole(cmd.ActorRoles, models.RoleSecondaryEscrow) {
		return nil, workflow.PermissionDenied("Only escrow officers can approve banking information")
	}

	owner, err := s.banking.GetByID(ctx, cmd.BankingInfoID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, workflow.NotFound("Banking information not found", "The specified banking information does not exist")
	}

	var asMainEscrow bool
	switch cmd.ActorID {
	case owner.MainEscrowID:
		asMainEscrow = true
	case owner.SecondaryEscrowID:
		asMainEscrow = false
	default:
		return nil, workflow.PermissionDenied("You do not have permission to approve banking information for this transaction")
	}
	escrowRole := models.RoleSecondaryEscrow
	if asMainEscrow {
		escrowRole = models.RoleMainEscrow
	}

	view, err := s.banking.Approve(ctx, cmd.BankingInfoID, asMainEscrow)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyApproved) {
			s.metrics.ObserveApproval(string(escrowRole), "already_approved")
			role := "secondary"
			if asMainEscrow {
				role = "main"
			}
			return nil, workflow.Conflict("Already approved", "Banking information has already been approved by "+role+" escrow")
		}
		return nil, err
	}
	if view == nil {
		return nil, workflow.NotFound("Banking information not found", "The specified banking information does not exist")
	}
	s.readRepo.InvalidateDetail(ctx, owner.Record.TransactionID)
	s.metrics.ObserveApproval(string(escrowRole), "approved")

	approvalType := "SECONDARY_ESCROW"
	if asMainEscrow {
		approvalType = "MAIN_ESCROW"
	}
	s.auditEvent(ctx, owner.Record.TransactionID, cmd.ActorID, "BANKING_INFO_APPROVED", map[string]any{
		"bankingInfoId": cmd.BankingInfoID,
		"approvalType":  approvalType,
		"fullyApproved": view.FullyApproved,
	}, meta)

	s.publish(ctx, events.BankingEventsStream, events.BankingApproved, events.BankingApprovedEvent{
		BankingInfoID: cmd.BankingInfoID,
		TransactionID: owner.Record.TransactionID,
		OwnerUserID:   owner.Record.UserID,
		ApprovedBy:    cmd.ActorID,
		EscrowRole:    string(escrowRole),
		FullyApproved: view.FullyApproved,
	})

	return view, nil
}

func (s *BankingCommandService) auditEvent(ctx context.Context, transactionID, userID, action string, details any, meta workflow.RequestMeta) {
	if err := s.audit.Record(ctx, transactionID, userID, action, details, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *BankingCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
