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

// ---- mock implementations ----

type mockTransactionCommander struct {
	createFn       func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
	updateStatusFn func(cqrs.UpdateTransactionStatusCommand) (*models.Transaction, error)
	addUserFn      func(cqrs.AddUserCommand) (*models.Participant, *models.User, error)
	addContactFn   func(cqrs.AddContactCommand) (*models.Participant, error)
}

func (m *mockTransactionCommander) Create(_ context.Context, cmd cqrs.CreateTransactionCommand, _ workflow.RequestMeta) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionCommander) UpdateStatus(_ context.Context, cmd cqrs.UpdateTransactionStatusCommand, _ workflow.RequestMeta) (*models.Transaction, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionCommander) AddUser(_ context.Context, cmd cqrs.AddUserCommand, _ workflow.RequestMeta) (*models.Participant, *models.User, error) {
	if m.addUserFn != nil {
		return m.addUserFn(cmd)
	}
	return nil, nil, fmt.Errorf("not configured")
}

func (m *mockTransactionCommander) AddContact(_ context.Context, cmd cqrs.AddContactCommand, _ workflow.RequestMeta) (*models.Participant, error) {
	if m.addContactFn != nil {
		return m.addContactFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	listFn func(cqrs.ListTransactionsQuery) ([]models.TransactionSummaryView, error)
	getFn  func(cqrs.GetTransactionQuery) (*models.TransactionDetailView, error)
}

func (m *mockTransactionQuerier) List(_ context.Context, q cqrs.ListTransactionsQuery, _ workflow.RequestMeta) ([]models.TransactionSummaryView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) Get(_ context.Context, q cqrs.GetTransactionQuery, _ workflow.RequestMeta) (*models.TransactionDetailView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helper ----

func newTransactionTestRouter(commands TransactionCommander, queries TransactionQuerier, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(commands, queries, testLogger())
	grp := r.Group("/api/transactions", asUser("user-1", roles...))
	grp.GET("", h.List)
	grp.POST("", h.Create)
	grp.GET("/:transactionId", h.Get)
	grp.PUT("/:transactionId/status", h.UpdateStatus)
	grp.POST("/:transactionId/participants", h.AddParticipant)
	grp.PUT("/:transactionId/users", h.AddUser)
	return r
}

// ---- tests ----

func TestCreateTransaction(t *testing.T) {
	validBody := map[string]any{
		"propertyAddress":         "123 Main St, Springfield",
		"purchaseAmount":          500000.0,
		"secondaryEscrowUsername": "secondary1",
	}

	tests := []struct {
		name           string
		body           any
		createFn       func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: validBody,
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return &models.Transaction{ID: "tx-1", DisplayCode: "RE-2026-000001", Status: models.StatusSetup}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "forbidden - not a main escrow officer",
			body: validBody,
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, workflow.PermissionDenied("Only main escrow officers can create transactions")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - unknown secondary officer",
			body: validBody,
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				return nil, workflow.NotFound("Secondary escrow officer not found", "The specified secondary escrow officer does not exist")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - missing property address",
			body:           map[string]any{"purchaseAmount": 500000.0, "secondaryEscrowUsername": "secondary1"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - zero amount",
			body:           map[string]any{"propertyAddress": "123 Main St", "purchaseAmount": 0.0, "secondaryEscrowUsername": "secondary1"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(
				&mockTransactionCommander{createFn: tt.createFn},
				&mockTransactionQuerier{},
				models.RoleMainEscrow,
			)
			w := doRequest(router, http.MethodPost, "/api/transactions", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateTransactionStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		updateStatusFn func(cqrs.UpdateTransactionStatusCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]string{"status": "completed"},
			updateStatusFn: func(cmd cqrs.UpdateTransactionStatusCommand) (*models.Transaction, error) {
				if cmd.Status != models.StatusCompleted {
					return nil, fmt.Errorf("unexpected status %s", cmd.Status)
				}
				return &models.Transaction{ID: cmd.TransactionID, Status: cmd.Status}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "bad request - unknown status",
			body: map[string]string{"status": "nonsense"},
			updateStatusFn: func(cmd cqrs.UpdateTransactionStatusCommand) (*models.Transaction, error) {
				return nil, workflow.InvalidInput("Invalid status", "Status must be one of: setup, banking_info, buyer_verification, seller_verification, completed, flagged")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found - not an officer of the transaction",
			body: map[string]string{"status": "completed"},
			updateStatusFn: func(cmd cqrs.UpdateTransactionStatusCommand) (*models.Transaction, error) {
				return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have permission to update it")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - missing status",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(
				&mockTransactionCommander{updateStatusFn: tt.updateStatusFn},
				&mockTransactionQuerier{},
				models.RoleMainEscrow,
			)
			w := doRequest(router, http.MethodPut, "/api/transactions/tx-1/status", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddUserToTransaction(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		addUserFn      func(cqrs.AddUserCommand) (*models.Participant, *models.User, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]string{"username": "buyer1", "role": "buyer"},
			addUserFn: func(cmd cqrs.AddUserCommand) (*models.Participant, *models.User, error) {
				return &models.Participant{UserID: "buyer-1", Role: models.RoleBuyer},
					&models.User{ID: "buyer-1", Username: "buyer1"}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "conflict - already added",
			body: map[string]string{"username": "buyer1", "role": "buyer"},
			addUserFn: func(cmd cqrs.AddUserCommand) (*models.Participant, *models.User, error) {
				return nil, nil, workflow.Conflict("User already added", "User buyer1 is already a buyer in this transaction")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - missing role",
			body:           map[string]string{"username": "buyer1"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(
				&mockTransactionCommander{addUserFn: tt.addUserFn},
				&mockTransactionQuerier{},
				models.RoleMainEscrow,
			)
			w := doRequest(router, http.MethodPut, "/api/transactions/tx-1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAddParticipant(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		addContactFn   func(cqrs.AddContactCommand) (*models.Participant, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]string{"email": "seller@example.com", "firstName": "Sue", "lastName": "Seller", "role": "seller"},
			addContactFn: func(cmd cqrs.AddContactCommand) (*models.Participant, error) {
				return &models.Participant{Email: cmd.Email, Role: cmd.Role}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "conflict - duplicate email",
			body: map[string]string{"email": "seller@example.com", "firstName": "Sue", "lastName": "Seller", "role": "seller"},
			addContactFn: func(cmd cqrs.AddContactCommand) (*models.Participant, error) {
				return nil, workflow.Conflict("Participant already exists", "A participant with email seller@example.com is already in this transaction")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - invalid email",
			body:           map[string]string{"email": "not-an-email", "firstName": "Sue", "lastName": "Seller", "role": "seller"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(
				&mockTransactionCommander{addContactFn: tt.addContactFn},
				&mockTransactionQuerier{},
				models.RoleMainEscrow,
			)
			w := doRequest(router, http.MethodPost, "/api/transactions/tx-1/participants", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	router := newTransactionTestRouter(
		&mockTransactionCommander{},
		&mockTransactionQuerier{listFn: func(q cqrs.ListTransactionsQuery) ([]models.TransactionSummaryView, error) {
			return nil, nil
		}},
		models.RoleBuyer,
	)
	w := doRequest(router, http.MethodGet, "/api/transactions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	body := decodeBody(w)
	if _, ok := body["transactions"].([]any); !ok {
		t.Errorf("expected transactions to be an array, got %T", body["transactions"])
	}
}

func TestGetTransactionAccessShapedAsNotFound(t *testing.T) {
	router := newTransactionTestRouter(
		&mockTransactionCommander{},
		&mockTransactionQuerier{getFn: func(q cqrs.GetTransactionQuery) (*models.TransactionDetailView, error) {
			return nil, workflow.NotFound("Transaction not found", "Transaction does not exist or you do not have access")
		}},
		models.RoleBuyer,
	)
	w := doRequest(router, http.MethodGet, "/api/transactions/tx-hidden", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	body := decodeBody(w)
	if body["error"] != "Transaction not found" {
		t.Errorf("expected generic not-found error, got %v", body["error"])
	}
}
