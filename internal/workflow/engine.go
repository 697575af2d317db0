package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// Actor is the authenticated identity submitting an action. It is passed
// explicitly into every engine call; the engine never reads ambient request
// state.
type Actor struct {
	ID    string
	Roles []models.Role
}

// RequestMeta is recorded verbatim on every ledger entry.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Receipt is returned on every successful submission: the ledger entry id,
// its timestamp, and the validator's normalized result data.
type Receipt struct {
	VerificationID string    `json:"id"`
	ActionType     string    `json:"actionType"`
	VerifiedAt     time.Time `json:"verifiedAt"`
	Result         any       `json:"result"`
}

// Store opens one serializable unit of work for a submission. The callback's
// reads and writes all happen inside a single database transaction;
// returning an error rolls everything back.
type Store interface {
	Workflow(ctx context.Context, fn func(StoreTx) error) error
}

// StoreTx is the transactional view of the store available to one
// submission. Lookup methods return (nil, nil) when the row is absent.
type StoreTx interface {
	GetTransaction(id string) (*models.Transaction, error)
	IsParticipant(transactionID, userID string, roles ...models.Role) (bool, error)
	// GetBankingRecord fetches the record owned by userID in the transaction.
	GetBankingRecord(transactionID, userID string) (*models.BankingRecord, error)
	// GetBankingRecordForRoles fetches the owner's record only if the owner
	// participates under one of the given roles.
	GetBankingRecordForRoles(transactionID, userID string, roles ...models.Role) (*models.BankingRecord, error)
	// GetEscrowBankingRecord fetches a banking record by id only if its owner
	// is the transaction's main or secondary escrow officer.
	GetEscrowBankingRecord(bankingInfoID, transactionID string) (*models.BankingRecord, error)
	GetUser(id string) (*models.User, error)
	AppendVerification(v *models.VerificationAction) error
	UpdateTransactionStatus(transactionID string, status models.TransactionStatus) error
}

// Engine is the workflow authorization engine: the single entry point for
// verification submissions across the three endpoint families.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// SubmitBuyerAction records a buyer/lender-family verification. Precondition
// order: role eligibility, then participation, then the action's business
// rule. Side effects and the ledger append share one database transaction.
func (e *Engine) SubmitBuyerAction(ctx context.Context, actor Actor, transactionID string, action BuyerAction, meta RequestMeta) (*Receipt, error) {
	if !models.HasRole(actor.Roles, models.RoleBuyer) && !models.HasRole(actor.Roles, models.RoleLender) {
		return nil, PermissionDenied("Only buyers and lenders can perform buyer verification")
	}

	var receipt *Receipt
	err := e.store.Workflow(ctx, func(tx StoreTx) error {
		ok, err := tx.IsParticipant(transactionID, actor.ID, models.RoleBuyer, models.RoleLender)
		if err != nil {
			return err
		}
		if !ok {
			return AccessDenied("You are not a participant in this transaction or do not have buyer/lender role")
		}

		var result any
		switch a := action.(type) {
		case BuyerVerifyOwnBankingInfo:
			result, err = validateBuyerOwnBanking(tx, transactionID, actor.ID, a)
		case VerifyEscrowBankingInfo:
			result, err = validateEscrowBankingReference(tx, transactionID, a)
		case AuthorizeWireTransfer:
			result, err = validateWireAuthorization(tx, transactionID, actor.ID, a)
		case ConfirmFundTransfer:
			result, err = validateFundTransferConfirmation(a)
		default:
			return fmt.Errorf("unhandled buyer action %T", action)
		}
		if err != nil {
			return err
		}

		receipt, err = e.appendLedger(tx, transactionID, actor.ID, action.Type(), action, result, meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SubmitSellerAction records a seller-family verification.
func (e *Engine) SubmitSellerAction(ctx context.Context, actor Actor, transactionID string, action SellerAction, meta RequestMeta) (*Receipt, error) {
	if !models.HasRole(actor.Roles, models.RoleSeller) {
		return nil, PermissionDenied("Only sellers can perform seller verification")
	}

	var receipt *Receipt
	err := e.store.Workflow(ctx, func(tx StoreTx) error {
		ok, err := tx.IsParticipant(transactionID, actor.ID, models.RoleSeller)
		if err != nil {
			return err
		}
		if !ok {
			return AccessDenied("You are not a seller participant in this transaction")
		}

		var result any
		switch a := action.(type) {
		case SellerVerifyOwnBankingInfo:
			result, err = validateSellerOwnBanking(tx, transactionID, actor.ID, a)
		case ConfirmPropertyInformation:
			result, err = validatePropertyConfirmation(tx, transactionID, a)
		case AcknowledgePaymentReceipt:
			result, err = validatePaymentAcknowledgment(tx, transactionID, a)
		case VerifyIdentity:
			result, err = validateSellerSelfIdentity(tx, actor.ID, a)
		default:
			return fmt.Errorf("unhandled seller action %T", action)
		}
		if err != nil {
			return err
		}

		receipt, err = e.appendLedger(tx, transactionID, actor.ID, action.Type(), action, result, meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SubmitEscrowAction records an escrow-family verification. The actor must
// be the transaction's main or secondary escrow officer; which one they are
// is passed to validators as role context. A successful
// FLAG_SUSPICIOUS_ACTIVITY additionally forces the transaction to flagged,
// atomically with the ledger append.
func (e *Engine) SubmitEscrowAction(ctx context.Context, actor Actor, transactionID string, action EscrowAction, meta RequestMeta) (*Receipt, error) {
	if !models.HasRole(actor.Roles, models.RoleMainEscrow) && !models.HasRole(actor.Roles, models.RoleSecondaryEscrow) {
		return nil, PermissionDenied("Only escrow officers can perform escrow verification")
	}

	var receipt *Receipt
	err := e.store.Workflow(ctx, func(tx StoreTx) error {
		t, err := tx.GetTransaction(transactionID)
		if err != nil {
			return err
		}
		if t == nil || (t.MainEscrowID != actor.ID && t.SecondaryEscrowID != actor.ID) {
			return AccessDenied("You are not an escrow officer for this transaction")
		}

		escrowRole := models.RoleSecondaryEscrow
		if t.MainEscrowID == actor.ID {
			escrowRole = models.RoleMainEscrow
		}

		var result any
		switch a := action.(type) {
		case VerifyFundReceipt:
			result, err = validateFundReceipt(tx, transactionID, a, escrowRole)
		case VerifySellerIdentity:
			result, err = validateSellerIdentityAsEscrow(tx, transactionID, a, escrowRole)
		case ConfirmSellerBankingInfo:
			result, err = validateSellerBankingConfirmation(tx, transactionID, a, escrowRole)
		case AuthorizeSellerPayment:
			result, err = validateSellerPaymentAuthorization(t, a, escrowRole)
		case FlagSuspiciousActivity:
			result, err = validateSuspiciousActivityFlag(actor.ID, a)
		default:
			return fmt.Errorf("unhandled escrow action %T", action)
		}
		if err != nil {
			return err
		}

		receipt, err = e.appendLedger(tx, transactionID, actor.ID, action.Type(), action, result, meta)
		if err != nil {
			return err
		}

		if _, flagged := action.(FlagSuspiciousActivity); flagged {
			if err := tx.UpdateTransactionStatus(transactionID, models.StatusFlagged); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// appendLedger writes the immutable verification entry. Entries are never
// deduplicated: replaying an identical successful submission appends again.
func (e *Engine) appendLedger(tx StoreTx, transactionID, actorID, actionType string, payload any, result any, meta RequestMeta) (*Receipt, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action payload: %w", err)
	}

	entry := &models.VerificationAction{
		ID:            uuid.New().String(),
		TransactionID: transactionID,
		UserID:        actorID,
		ActionType:    actionType,
		ActionData:    data,
		VerifiedAt:    e.now(),
		IPAddress:     meta.IP,
		UserAgent:     meta.UserAgent,
	}
	if err := tx.AppendVerification(entry); err != nil {
		return nil, err
	}

	return &Receipt{
		VerificationID: entry.ID,
		ActionType:     actionType,
		VerifiedAt:     entry.VerifiedAt,
		Result:         result,
	}, nil
}
