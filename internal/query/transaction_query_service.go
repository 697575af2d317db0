package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// TransactionQueryService serves the transaction list and detail
// projections. Access failures are indistinguishable from missing
// transactions so outsiders cannot probe for existence.
type TransactionQueryService struct {
	readRepo  *repository.TransactionReadRepository
	writeRepo *repository.TransactionWriteRepository
	audit     *repository.AuditRepository
	logger    *zap.Logger
}

func NewTransactionQueryService(
	readRepo *repository.TransactionReadRepository,
	writeRepo *repository.TransactionWriteRepository,
	audit *repository.AuditRepository,
	logger *zap.Logger,
) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, writeRepo: writeRepo, audit: audit, logger: logger}
}

// List returns every transaction the caller supervises or participates in.
func (s *TransactionQueryService) List(ctx context.Context, q cqrs.ListTransactionsQuery, meta workflow.RequestMeta) ([]models.TransactionSummaryView, error) {
	views, err := s.readRepo.ListForUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	s.auditEvent(ctx, "", q.UserID, "TRANSACTIONS_VIEWED", map[string]any{
		"count": len(views),
	}, meta)
	return views, nil
}

// Get returns the detail projection, gated on the caller's access.
func (s *TransactionQueryService) Get(ctx context.Context, q cqrs.GetTransactionQuery, meta workflow.RequestMeta) (*models.TransactionDetailView, error) {
	accessible, err := s.writeRepo.IsAccessible(ctx, q.TransactionID, q.UserID)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
	}

	view, err := s.readRepo.GetDetail(ctx, q.TransactionID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
	}

	s.auditEvent(ctx, q.TransactionID, q.UserID, "TRANSACTION_DETAILS_VIEWED", map[string]any{
		"transactionId": view.DisplayCode,
	}, meta)
	return view, nil
}

func (s *TransactionQueryService) auditEvent(ctx context.Context, transactionID, userID, action string, details any, meta workflow.RequestMeta) {
	if err := s.audit.Record(ctx, transactionID, userID, action, details, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
