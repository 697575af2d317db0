package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

// AuditQueryService serves the audit trail. Transaction trails are escrow
// only; user trails are self-service, or escrow-scoped to shared
// transactions when an officer reads another user's trail.
type AuditQueryService struct {
	audit     *repository.AuditRepository
	writeRepo *repository.TransactionWriteRepository
	users     *repository.UserRepository
	logger    *zap.Logger
}

func NewAuditQueryService(
	audit *repository.AuditRepository,
	writeRepo *repository.TransactionWriteRepository,
	users *repository.UserRepository,
	logger *zap.Logger,
) *AuditQueryService {
	return &AuditQueryService{audit: audit, writeRepo: writeRepo, users: users, logger: logger}
}

// ForTransaction returns one page of a transaction's audit trail. The caller
// must hold an escrow role and supervise this transaction.
func (s *AuditQueryService) ForTransaction(ctx context.Context, q cqrs.GetTransactionAuditQuery, meta workflow.RequestMeta) (*repository.AuditPage, error) {
	if !models.HasRole(q.UserRoles, models.RoleMainEscrow) &&
		!models.HasRole(q.UserRoles, models.RoleSecondaryEscrow) {
		return nil, workflow.PermissionDenied("Only escrow officers can view audit logs")
	}

	transaction, err := s.writeRepo.GetByOfficer(ctx, q.TransactionID, q.UserID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
	}

	page, err := s.audit.ListForTransaction(ctx, q.TransactionID, q.ActionFilter, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}

	s.auditEvent(ctx, q.TransactionID, q.UserID, "AUDIT_LOG_VIEWED", map[string]any{
		"transactionId": transaction.DisplayCode,
		"page":          q.Page,
		"limit":         q.Limit,
	}, meta)
	return page, nil
}

// ForUser returns one page of a user's audit trail. Users read their own
// trail freely; escrow officers reading someone else's see only entries from
// transactions they supervise, plus transaction-less entries.
func (s *AuditQueryService) ForUser(ctx context.Context, q cqrs.GetUserAuditQuery, meta workflow.RequestMeta) (*repository.AuditPage, error) {
	self := q.TargetUserID == q.RequestingUserID
	officer := models.HasRole(q.RequestingRoles, models.RoleMainEscrow) ||
		models.HasRole(q.RequestingRoles, models.RoleSecondaryEscrow)
	if !self && !officer {
		return nil, workflow.PermissionDenied("You can only view your own audit logs, or if you are an escrow officer")
	}

	target, err := s.users.GetByID(ctx, q.TargetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, workflow.NotFound("User not found", "The specified user does not exist")
	}

	var scope []string
	if !self {
		if scope, err = s.audit.SharedTransactionIDs(ctx, q.RequestingUserID, q.TargetUserID); err != nil {
			return nil, err
		}
		if scope == nil {
			scope = []string{}
		}
	}

	page, err := s.audit.ListForUser(ctx, q.TargetUserID, q.ActionFilter, scope, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}

	s.auditEvent(ctx, "", q.RequestingUserID, "USER_AUDIT_LOG_VIEWED", map[string]any{
		"targetUserId": q.TargetUserID,
		"page":         q.Page,
		"limit":        q.Limit,
	}, meta)
	return page, nil
}

func (s *AuditQueryService) auditEvent(ctx context.Context, transactionID, userID, action string, details any, meta workflow.RequestMeta) {
	if err := s.audit.Record(ctx, transactionID, userID, action, details, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
