package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

const maskedField = "***"

// BankingQueryService serves banking records with per-caller visibility and
// masking. Escrow officers of the transaction see every record in plaintext;
// other participants see their own record plus records that cleared
// secondary approval, with destination fields masked unless they own the row.
type BankingQueryService struct {
	banking   *repository.BankingRepository
	writeRepo *repository.TransactionWriteRepository
	audit     *repository.AuditRepository
	encryptor *secure.Encryptor
	logger    *zap.Logger
}

func NewBankingQueryService(
	banking *repository.BankingRepository,
	writeRepo *repository.TransactionWriteRepository,
	audit *repository.AuditRepository,
	encryptor *secure.Encryptor,
	logger *zap.Logger,
) *BankingQueryService {
	return &BankingQueryService{banking: banking, writeRepo: writeRepo, audit: audit, encryptor: encryptor, logger: logger}
}

// List returns the banking records the caller may see for a transaction.
func (s *BankingQueryService) List(ctx context.Context, q cqrs.ListBankingInfoQuery, meta workflow.RequestMeta) ([]models.BankingDetailView, error) {
	transaction, err := s.writeRepo.GetByID(ctx, q.TransactionID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
	}

	officer := transaction.MainEscrowID == q.UserID || transaction.SecondaryEscrowID == q.UserID
	if !officer {
		accessible, err := s.writeRepo.IsAccessible(ctx, q.TransactionID, q.UserID)
		if err != nil {
			return nil, err
		}
		if !accessible {
			return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
		}
	}

	owned, err := s.banking.ListForTransaction(ctx, q.TransactionID, q.UserID, officer)
	if err != nil {
		return nil, err
	}

	views := make([]models.BankingDetailView, 0, len(owned))
	for _, o := range owned {
		view, err := s.buildDetailView(o, officer || o.Record.UserID == q.UserID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	if err := s.audit.Record(ctx, q.TransactionID, q.UserID, "BANKING_INFO_VIEWED", map[string]any{
		"recordCount": len(views),
	}, meta.IP, meta.UserAgent); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", "BANKING_INFO_VIEWED"), zap.Error(err))
	}
	return views, nil
}

// buildDetailView decrypts the destination fields for entitled callers and
// masks them for everyone else.
func (s *BankingQueryService) buildDetailView(o repository.BankingOwnerView, plaintext bool) (*models.BankingDetailView, error) {
	view := models.BankingDetailView{
		ID:                        o.Record.ID,
		UserID:                    o.Record.UserID,
		Username:                  o.Username,
		FirstName:                 o.FirstName,
		LastName:                  o.LastName,
		BankName:                  maskedField,
		AccountNumber:             maskedField,
		RoutingNumber:             maskedField,
		AccountHolderName:         maskedField,
		Amount:                    o.Record.Amount,
		ApprovedByMainEscrow:      o.Record.ApprovedByMainEscrow,
		ApprovedBySecondaryEscrow: o.Record.ApprovedBySecondaryEscrow,
		ApprovedAt:                o.Record.ApprovedAt,
		CreatedAt:                 o.Record.CreatedAt,
	}
	if !plaintext {
		return &view, nil
	}

	var err error
	if view.BankName, err = s.encryptor.Decrypt(o.Record.BankNameEncrypted); err != nil {
		return nil, err
	}
	if view.AccountNumber, err = s.encryptor.Decrypt(o.Record.AccountNumberEncrypted); err != nil {
		return nil, err
	}
	if view.RoutingNumber, err = s.encryptor.Decrypt(o.Record.RoutingNumberEncrypted); err != nil {
		return nil, err
	}
	if view.AccountHolderName, err = s.encryptor.Decrypt(o.Record.AccountHolderNameEncrypted); err != nil {
		return nil, err
	}
	return &view, nil
}
