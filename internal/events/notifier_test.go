package events

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

type captureStore struct {
	created []models.Notification
	err     error
}

func (s *captureStore) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *n)
	return nil
}

func handle(t *testing.T, store *captureStore, eventType string, data any) error {
	t.Helper()
	n := NewNotifier(store, zap.NewNop())
	return n.Handle(context.Background(), Event{Type: eventType, Data: data})
}

func TestNotifierParticipantAdded(t *testing.T) {
	store := &captureStore{}
	err := handle(t, store, ParticipantAdded, ParticipantAddedEvent{
		TransactionID: "tx-1",
		UserID:        "user-2",
		Email:         "buyer@example.com",
		Role:          "buyer",
		AddedBy:       "main-1",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.created))
	}
	n := store.created[0]
	if n.UserID != "user-2" || n.Type != "TRANSACTION_INVITATION" || n.TransactionID != "tx-1" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestNotifierSkipsContactOnlyParticipant(t *testing.T) {
	store := &captureStore{}
	err := handle(t, store, ParticipantAdded, ParticipantAddedEvent{
		TransactionID: "tx-1",
		Email:         "contact@example.com",
		Role:          "seller",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no notification for contact-only participant, got %d", len(store.created))
	}
}

func TestNotifierBankingApprovedOnlyWhenFull(t *testing.T) {
	store := &captureStore{}
	if err := handle(t, store, BankingApproved, BankingApprovedEvent{
		BankingInfoID: "bank-1", TransactionID: "tx-1", OwnerUserID: "user-2", FullyApproved: false,
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no notification on partial approval, got %d", len(store.created))
	}

	if err := handle(t, store, BankingApproved, BankingApprovedEvent{
		BankingInfoID: "bank-1", TransactionID: "tx-1", OwnerUserID: "user-2", FullyApproved: true,
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 1 || store.created[0].UserID != "user-2" {
		t.Fatalf("expected owner notification on full approval, got %+v", store.created)
	}
}

func TestNotifierFlagAlertsOtherOfficer(t *testing.T) {
	store := &captureStore{}
	err := handle(t, store, TransactionFlagged, TransactionFlaggedEvent{
		TransactionID:     "tx-1",
		FlaggedBy:         "main-1",
		Reason:            "wire mismatch",
		Severity:          "high",
		MainEscrowID:      "main-1",
		SecondaryEscrowID: "sec-1",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.created))
	}
	if store.created[0].UserID != "sec-1" {
		t.Errorf("expected the other officer to be notified, got %s", store.created[0].UserID)
	}
}

func TestNotifierIgnoresUnknownEvents(t *testing.T) {
	store := &captureStore{}
	if err := handle(t, store, "some.future.event", map[string]any{"x": 1}); err != nil {
		t.Fatalf("expected unknown events to be ignored, got %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no notifications, got %d", len(store.created))
	}
}
