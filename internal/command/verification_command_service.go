package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/events"
	"github.com/alexp-buildit/WireSafe-Portal/internal/metrics"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// VerificationCommandService fronts the workflow engine, adding the audit
// trail, metrics and event publication around each submission. The engine
// itself owns authorization, validation and the atomic ledger append.
type VerificationCommandService struct {
	engine    *workflow.Engine
	writeRepo *repository.TransactionWriteRepository
	readRepo  *repository.TransactionReadRepository
	audit     *repository.AuditRepository
	publisher *events.Publisher
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewVerificationCommandService(
	engine *workflow.Engine,
	writeRepo *repository.TransactionWriteRepository,
	readRepo *repository.TransactionReadRepository,
	audit *repository.AuditRepository,
	publisher *events.Publisher,
	collector *metrics.Collector,
	logger *zap.Logger,
) *VerificationCommandService {
	return &VerificationCommandService{
		engine:    engine,
		writeRepo: writeRepo,
		readRepo:  readRepo,
		audit:     audit,
		publisher: publisher,
		metrics:   collector,
		logger:    logger,
	}
}

// SubmitBuyer records a buyer/lender-family verification.
func (s *VerificationCommandService) SubmitBuyer(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.BuyerAction, meta workflow.RequestMeta) (*workflow.Receipt, error) {
	receipt, err := s.engine.SubmitBuyerAction(ctx, actor, transactionID, action, meta)
	s.metrics.ObserveVerification("buyer", action.Type(), outcome(err))
	if err != nil {
		return nil, err
	}
	s.finish(ctx, "BUYER_VERIFICATION_", actor.ID, transactionID, receipt, meta)
	return receipt, nil
}

// SubmitSeller records a seller-family verification.
func (s *VerificationCommandService) SubmitSeller(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.SellerAction, meta workflow.RequestMeta) (*workflow.Receipt, error) {
	receipt, err := s.engine.SubmitSellerAction(ctx, actor, transactionID, action, meta)
	s.metrics.ObserveVerification("seller", action.Type(), outcome(err))
	if err != nil {
		return nil, err
	}
	s.finish(ctx, "SELLER_VERIFICATION_", actor.ID, transactionID, receipt, meta)
	return receipt, nil
}

// SubmitEscrow records an escrow-family verification. A successful
// suspicious-activity flag additionally alerts the other officer.
func (s *VerificationCommandService) SubmitEscrow(ctx context.Context, actor workflow.Actor, transactionID string, action workflow.EscrowAction, meta workflow.RequestMeta) (*workflow.Receipt, error) {
	receipt, err := s.engine.SubmitEscrowAction(ctx, actor, transactionID, action, meta)
	s.metrics.ObserveVerification("escrow", action.Type(), outcome(err))
	if err != nil {
		return nil, err
	}
	s.finish(ctx, "ESCROW_VERIFICATION_", actor.ID, transactionID, receipt, meta)

	if flag, ok := action.(workflow.FlagSuspiciousActivity); ok {
		s.publishFlagged(ctx, transactionID, actor.ID, flag)
	}
	return receipt, nil
}

func (s *VerificationCommandService) finish(ctx context.Context, auditPrefix, actorID, transactionID string, receipt *workflow.Receipt, meta workflow.RequestMeta) {
	s.readRepo.InvalidateDetail(ctx, transactionID)

	if err := s.audit.Record(ctx, transactionID, actorID, auditPrefix+receipt.ActionType, map[string]any{
		"verificationId": receipt.VerificationID,
		"actionType":     receipt.ActionType,
	}, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", receipt.ActionType), zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, events.VerificationEventsStream, events.VerificationRecorded, events.VerificationRecordedEvent{
		VerificationID: receipt.VerificationID,
		TransactionID:  transactionID,
		UserID:         actorID,
		ActionType:     receipt.ActionType,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", events.VerificationRecorded), zap.Error(err))
	}
}

func (s *VerificationCommandService) publishFlagged(ctx context.Context, transactionID, flaggedBy string, flag workflow.FlagSuspiciousActivity) {
	transaction, err := s.writeRepo.GetByID(ctx, transactionID)
	if err != nil || transaction == nil {
		s.logger.Warn("flagged transaction lookup failed", zap.String("transactionId", transactionID), zap.Error(err))
		return
	}
	severity := flag.Severity
	if severity == "" {
		severity = "medium"
	}
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionFlagged, events.TransactionFlaggedEvent{
		TransactionID:     transactionID,
		FlaggedBy:         flaggedBy,
		Reason:            flag.Reason,
		Severity:          string(severity),
		MainEscrowID:      transaction.MainEscrowID,
		SecondaryEscrowID: transaction.SecondaryEscrowID,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", events.TransactionFlagged), zap.Error(err))
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if f, ok := workflow.AsFailure(err); ok {
		return f.Class.String()
	}
	return "error"
}
