package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

type mockBankingCommander struct {
	submitFn  func(cqrs.SubmitBankingInfoCommand) (*models.BankingRecord, error)
	approveFn func(cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error)
}

func (m *mockBankingCommander) Submit(_ context.Context, cmd cqrs.SubmitBankingInfoCommand, _ workflow.RequestMeta) (*models.BankingRecord, error) {
	if m.submitFn != nil {
		return m.submitFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBankingCommander) Approve(_ context.Context, cmd cqrs.ApproveBankingInfoCommand, _ workflow.RequestMeta) (*models.ApprovalView, error) {
	if m.approveFn != nil {
		return m.approveFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockBankingQuerier struct {
	listFn func(cqrs.ListBankingInfoQuery) ([]models.BankingDetailView, error)
}

func (m *mockBankingQuerier) List(_ context.Context, q cqrs.ListBankingInfoQuery, _ workflow.RequestMeta) ([]models.BankingDetailView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newBankingTestRouter(commands BankingCommander, queries BankingQuerier, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewBankingHandler(commands, queries, testLogger())
	grp := r.Group("/api/banking", asUser("user-1", roles...))
	grp.POST("/:transactionId", h.Submit)
	grp.GET("/:transactionId", h.List)
	grp.PUT("/approve/:bankingInfoId", h.Approve)
	return r
}

func TestSubmitBankingInfo(t *testing.T) {
	validBody := map[string]any{
		"bankName":          "First National",
		"accountNumber":     "12345678",
		"routingNumber":     "021000021",
		"accountHolderName": "Bob Buyer",
		"amount":            500000.0,
	}

	tests := []struct {
		name           string
		body           any
		submitFn       func(cqrs.SubmitBankingInfoCommand) (*models.BankingRecord, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: validBody,
			submitFn: func(cmd cqrs.SubmitBankingInfoCommand) (*models.BankingRecord, error) {
				if cmd.Amount == nil || *cmd.Amount != 500000.0 {
					return nil, fmt.Errorf("amount not decoded: %+v", cmd.Amount)
				}
				return &models.BankingRecord{ID: "bank-1", Amount: cmd.Amount}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "conflict - duplicate submission",
			body: validBody,
			submitFn: func(cmd cqrs.SubmitBankingInfoCommand) (*models.BankingRecord, error) {
				return nil, workflow.Conflict("Banking information already exists", "Banking information has already been submitted for this transaction")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "bad request - routing checksum rejected",
			body: validBody,
			submitFn: func(cmd cqrs.SubmitBankingInfoCommand) (*models.BankingRecord, error) {
				return nil, workflow.InvalidInput("Invalid routing number", "The routing number failed validation checks")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - routing number wrong length",
			body: map[string]any{
				"bankName":          "First National",
				"accountNumber":     "12345678",
				"routingNumber":     "12345",
				"accountHolderName": "Bob Buyer",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing account holder",
			body:           map[string]any{"bankName": "First National", "accountNumber": "12345678", "routingNumber": "021000021"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBankingTestRouter(&mockBankingCommander{submitFn: tt.submitFn}, &mockBankingQuerier{}, models.RoleBuyer)
			w := doRequest(router, http.MethodPost, "/api/banking/tx-1", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestApproveBankingInfo(t *testing.T) {
	tests := []struct {
		name           string
		approveFn      func(cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error)
		expectedStatus int
	}{
		{
			name: "success - first approval",
			approveFn: func(cmd cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error) {
				return &models.ApprovalView{ID: cmd.BankingInfoID, ApprovedByMainEscrow: true}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "forbidden - not an escrow officer",
			approveFn: func(cmd cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error) {
				return nil, workflow.PermissionDenied("Only escrow officers can approve banking information")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - unknown record",
			approveFn: func(cmd cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error) {
				return nil, workflow.NotFound("Banking information not found", "The specified banking information does not exist")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "conflict - same role approves twice",
			approveFn: func(cmd cqrs.ApproveBankingInfoCommand) (*models.ApprovalView, error) {
				return nil, workflow.Conflict("Already approved", "Banking information has already been approved by main escrow")
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBankingTestRouter(&mockBankingCommander{approveFn: tt.approveFn}, &mockBankingQuerier{}, models.RoleMainEscrow)
			w := doRequest(router, http.MethodPut, "/api/banking/approve/bank-1", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListBankingInfoMasked(t *testing.T) {
	router := newBankingTestRouter(&mockBankingCommander{}, &mockBankingQuerier{
		listFn: func(q cqrs.ListBankingInfoQuery) ([]models.BankingDetailView, error) {
			return []models.BankingDetailView{{
				ID:            "bank-2",
				UserID:        "someone-else",
				BankName:      "***",
				AccountNumber: "***",
				RoutingNumber: "***",
			}}, nil
		},
	}, models.RoleBuyer)

	w := doRequest(router, http.MethodGet, "/api/banking/tx-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	body := decodeBody(w)
	records, ok := body["bankingInfo"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected one record, got %v", body["bankingInfo"])
	}
	record := records[0].(map[string]any)
	if record["accountNumber"] != "***" {
		t.Errorf("expected masked account number, got %v", record["accountNumber"])
	}
}
