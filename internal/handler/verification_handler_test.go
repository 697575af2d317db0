package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

type mockVerificationSubmitter struct {
	buyerFn  func(workflow.Actor, string, workflow.BuyerAction) (*workflow.Receipt, error)
	sellerFn func(workflow.Actor, string, workflow.SellerAction) (*workflow.Receipt, error)
	escrowFn func(workflow.Actor, string, workflow.EscrowAction) (*workflow.Receipt, error)
}

func (m *mockVerificationSubmitter) SubmitBuyer(_ context.Context, actor workflow.Actor, transactionID string, action workflow.BuyerAction, _ workflow.RequestMeta) (*workflow.Receipt, error) {
	if m.buyerFn != nil {
		return m.buyerFn(actor, transactionID, action)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockVerificationSubmitter) SubmitSeller(_ context.Context, actor workflow.Actor, transactionID string, action workflow.SellerAction, _ workflow.RequestMeta) (*workflow.Receipt, error) {
	if m.sellerFn != nil {
		return m.sellerFn(actor, transactionID, action)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockVerificationSubmitter) SubmitEscrow(_ context.Context, actor workflow.Actor, transactionID string, action workflow.EscrowAction, _ workflow.RequestMeta) (*workflow.Receipt, error) {
	if m.escrowFn != nil {
		return m.escrowFn(actor, transactionID, action)
	}
	return nil, fmt.Errorf("not configured")
}

func newVerificationTestRouter(commands VerificationSubmitter, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewVerificationHandler(commands, testLogger())
	grp := r.Group("/api/verification", asUser("user-1", roles...))
	grp.POST("/buyer/:transactionId", h.SubmitBuyer)
	grp.POST("/seller/:transactionId", h.SubmitSeller)
	grp.POST("/escrow/:transactionId", h.SubmitEscrow)
	return r
}

func receiptFor(actionType string) *workflow.Receipt {
	return &workflow.Receipt{
		VerificationID: "v-1",
		ActionType:     actionType,
		VerifiedAt:     time.Now().UTC(),
	}
}

func TestSubmitBuyerVerification(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		buyerFn        func(workflow.Actor, string, workflow.BuyerAction) (*workflow.Receipt, error)
		expectedStatus int
	}{
		{
			name: "success - wire authorization",
			body: map[string]any{
				"actionType": "AUTHORIZE_WIRE_TRANSFER",
				"actionData": map[string]any{"wireAmount": 500000.0, "bankingInfoId": "bank-1", "authorized": true},
			},
			buyerFn: func(actor workflow.Actor, transactionID string, action workflow.BuyerAction) (*workflow.Receipt, error) {
				if _, ok := action.(workflow.AuthorizeWireTransfer); !ok {
					return nil, fmt.Errorf("wrong action type %T", action)
				}
				return receiptFor(action.Type()), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "bad request - unknown action type",
			body: map[string]any{"actionType": "DO_SOMETHING_ELSE", "actionData": map[string]any{}},
			// parse fails before the service is reached
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing action type",
			body:           map[string]any{"actionData": map[string]any{}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "forbidden - role not eligible",
			body: map[string]any{
				"actionType": "VERIFY_OWN_BANKING_INFO",
				"actionData": map[string]any{"confirmed": true},
			},
			buyerFn: func(actor workflow.Actor, transactionID string, action workflow.BuyerAction) (*workflow.Receipt, error) {
				return nil, workflow.PermissionDenied("Only buyers and lenders can perform buyer verification")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - non-participant probes a transaction",
			body: map[string]any{
				"actionType": "VERIFY_OWN_BANKING_INFO",
				"actionData": map[string]any{"confirmed": true},
			},
			buyerFn: func(actor workflow.Actor, transactionID string, action workflow.BuyerAction) (*workflow.Receipt, error) {
				return nil, workflow.AccessDenied("You are not a participant in this transaction or do not have buyer/lender role")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "bad request - validator rejects the amount",
			body: map[string]any{
				"actionType": "AUTHORIZE_WIRE_TRANSFER",
				"actionData": map[string]any{"wireAmount": 1.0, "bankingInfoId": "bank-1", "authorized": true},
			},
			buyerFn: func(actor workflow.Actor, transactionID string, action workflow.BuyerAction) (*workflow.Receipt, error) {
				return nil, workflow.BusinessRule("Amount mismatch", "Wire amount does not match the purchase amount")
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newVerificationTestRouter(&mockVerificationSubmitter{buyerFn: tt.buyerFn}, models.RoleBuyer)
			w := doRequest(router, http.MethodPost, "/api/verification/buyer/tx-1", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmitSellerVerificationParsesFamilyActions(t *testing.T) {
	var got workflow.SellerAction
	router := newVerificationTestRouter(&mockVerificationSubmitter{
		sellerFn: func(actor workflow.Actor, transactionID string, action workflow.SellerAction) (*workflow.Receipt, error) {
			got = action
			return receiptFor(action.Type()), nil
		},
	}, models.RoleSeller)

	w := doRequest(router, http.MethodPost, "/api/verification/seller/tx-1", map[string]any{
		"actionType": "CONFIRM_PROPERTY_INFORMATION",
		"actionData": map[string]any{"propertyAddress": "123 Main St", "confirmed": true},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d; body: %s", w.Code, w.Body.String())
	}
	action, ok := got.(workflow.ConfirmPropertyInformation)
	if !ok {
		t.Fatalf("expected ConfirmPropertyInformation, got %T", got)
	}
	if action.PropertyAddress != "123 Main St" {
		t.Errorf("payload not decoded: %+v", action)
	}
}

func TestSubmitEscrowVerificationBuyerActionRejected(t *testing.T) {
	router := newVerificationTestRouter(&mockVerificationSubmitter{}, models.RoleMainEscrow)
	// A buyer-family action submitted to the escrow endpoint is an unknown
	// type for that family.
	w := doRequest(router, http.MethodPost, "/api/verification/escrow/tx-1", map[string]any{
		"actionType": "AUTHORIZE_WIRE_TRANSFER",
		"actionData": map[string]any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestSubmitEscrowFlagSuspiciousActivity(t *testing.T) {
	router := newVerificationTestRouter(&mockVerificationSubmitter{
		escrowFn: func(actor workflow.Actor, transactionID string, action workflow.EscrowAction) (*workflow.Receipt, error) {
			flag, ok := action.(workflow.FlagSuspiciousActivity)
			if !ok {
				return nil, fmt.Errorf("wrong action type %T", action)
			}
			if flag.Severity != models.SeverityHigh {
				return nil, fmt.Errorf("severity not decoded: %+v", flag)
			}
			return receiptFor(action.Type()), nil
		},
	}, models.RoleMainEscrow)

	w := doRequest(router, http.MethodPost, "/api/verification/escrow/tx-1", map[string]any{
		"actionType": "FLAG_SUSPICIOUS_ACTIVITY",
		"actionData": map[string]any{"reason": "wire mismatch", "description": "amounts diverge", "severity": "high"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d; body: %s", w.Code, w.Body.String())
	}
}
