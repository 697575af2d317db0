package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// NotificationWriter is the slice of the notification store the notifier
// needs. Implemented by repository.NotificationRepository.
type NotificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Notifier turns domain events into in-app notification rows. It is the
// stream handler for both the transaction and banking streams.
type Notifier struct {
	store  NotificationWriter
	logger *zap.Logger
}

func NewNotifier(store NotificationWriter, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, logger: logger}
}

// Handle dispatches on event type. Unknown types are ignored so new event
// kinds can ship before this consumer learns about them.
func (n *Notifier) Handle(ctx context.Context, event Event) error {
	switch event.Type {
	case ParticipantAdded:
		var data ParticipantAddedEvent
		if err := decodeEventData(event.Data, &data); err != nil {
			return err
		}
		if data.UserID == "" {
			return nil // contact-only participant, no account to notify
		}
		return n.store.Create(ctx, &models.Notification{
			UserID:        data.UserID,
			TransactionID: data.TransactionID,
			Type:          "TRANSACTION_INVITATION",
			Title:         "Added to Transaction",
			Message: fmt.Sprintf("You have been added as a %s to a real estate transaction. "+
				"Please log in to view details and complete required actions.", data.Role),
		})

	case BankingApproved:
		var data BankingApprovedEvent
		if err := decodeEventData(event.Data, &data); err != nil {
			return err
		}
		if !data.FullyApproved {
			return nil
		}
		return n.store.Create(ctx, &models.Notification{
			UserID:        data.OwnerUserID,
			TransactionID: data.TransactionID,
			Type:          "BANKING_INFO_APPROVED",
			Title:         "Banking Information Approved",
			Message:       "Your banking information has been approved by both escrow officers.",
		})

	case TransactionFlagged:
		var data TransactionFlaggedEvent
		if err := decodeEventData(event.Data, &data); err != nil {
			return err
		}
		for _, officerID := range []string{data.MainEscrowID, data.SecondaryEscrowID} {
			if officerID == data.FlaggedBy {
				continue
			}
			if err := n.store.Create(ctx, &models.Notification{
				UserID:        officerID,
				TransactionID: data.TransactionID,
				Type:          "SUSPICIOUS_ACTIVITY_FLAGGED",
				Title:         "Transaction Flagged",
				Message:       fmt.Sprintf("A transaction was flagged for suspicious activity (%s severity): %s", data.Severity, data.Reason),
			}); err != nil {
				return err
			}
		}
		return nil

	default:
		n.logger.Debug("ignoring event", zap.String("type", event.Type))
		return nil
	}
}

// decodeEventData re-marshals the generic event payload into its typed form.
func decodeEventData(data any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}
	return nil
}
