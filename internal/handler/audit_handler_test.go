package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/alexp-buildit/WireSafe-Portal/internal/cqrs"
	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
	"github.com/alexp-buildit/WireSafe-Portal/internal/repository"
	"github.com/alexp-buildit/WireSafe-Portal/internal/workflow"
)

type mockAuditQuerier struct {
	forTransactionFn func(cqrs.GetTransactionAuditQuery) (*repository.AuditPage, error)
	forUserFn        func(cqrs.GetUserAuditQuery) (*repository.AuditPage, error)
}

func (m *mockAuditQuerier) ForTransaction(_ context.Context, q cqrs.GetTransactionAuditQuery, _ workflow.RequestMeta) (*repository.AuditPage, error) {
	if m.forTransactionFn != nil {
		return m.forTransactionFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockAuditQuerier) ForUser(_ context.Context, q cqrs.GetUserAuditQuery, _ workflow.RequestMeta) (*repository.AuditPage, error) {
	if m.forUserFn != nil {
		return m.forUserFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newAuditTestRouter(queries AuditQuerier, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuditHandler(queries, testLogger())
	grp := r.Group("/api/audit", asUser("user-1", roles...))
	grp.GET("/transaction/:transactionId", h.ForTransaction)
	grp.GET("/user/:userId", h.ForUser)
	return r
}

func TestTransactionAuditDefaults(t *testing.T) {
	var captured cqrs.GetTransactionAuditQuery
	router := newAuditTestRouter(&mockAuditQuerier{
		forTransactionFn: func(q cqrs.GetTransactionAuditQuery) (*repository.AuditPage, error) {
			captured = q
			return &repository.AuditPage{Total: 120}, nil
		},
	}, models.RoleMainEscrow)

	w := doRequest(router, http.MethodGet, "/api/audit/transaction/tx-1?action=BANKING", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if captured.Page != 1 || captured.Limit != 50 || captured.ActionFilter != "BANKING" {
		t.Errorf("query not decoded: %+v", captured)
	}
	body := decodeBody(w)
	paging, _ := body["pagination"].(map[string]any)
	if paging["pages"] != float64(3) {
		t.Errorf("expected 3 pages for 120 items at limit 50, got %v", paging["pages"])
	}
}

func TestTransactionAuditEscrowOnly(t *testing.T) {
	router := newAuditTestRouter(&mockAuditQuerier{
		forTransactionFn: func(q cqrs.GetTransactionAuditQuery) (*repository.AuditPage, error) {
			return nil, workflow.PermissionDenied("Only escrow officers can view audit logs")
		},
	}, models.RoleBuyer)

	w := doRequest(router, http.MethodGet, "/api/audit/transaction/tx-1", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestUserAuditSelfOrEscrow(t *testing.T) {
	tests := []struct {
		name           string
		forUserFn      func(cqrs.GetUserAuditQuery) (*repository.AuditPage, error)
		expectedStatus int
	}{
		{
			name: "success - own trail",
			forUserFn: func(q cqrs.GetUserAuditQuery) (*repository.AuditPage, error) {
				return &repository.AuditPage{}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "forbidden - plain user reads another user",
			forUserFn: func(q cqrs.GetUserAuditQuery) (*repository.AuditPage, error) {
				return nil, workflow.PermissionDenied("You can only view your own audit logs, or if you are an escrow officer")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "not found - unknown target user",
			forUserFn: func(q cqrs.GetUserAuditQuery) (*repository.AuditPage, error) {
				return nil, workflow.NotFound("User not found", "The specified user does not exist")
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuditTestRouter(&mockAuditQuerier{forUserFn: tt.forUserFn}, models.RoleBuyer)
			w := doRequest(router, http.MethodGet, "/api/audit/user/user-2", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
