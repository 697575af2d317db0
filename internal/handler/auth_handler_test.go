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

type mockUserCommander struct {
	registerFn func(cqrs.RegisterUserCommand) (*models.User, string, error)
}

func (m *mockUserCommander) Register(_ context.Context, cmd cqrs.RegisterUserCommand, _ workflow.RequestMeta) (*models.User, string, error) {
	if m.registerFn != nil {
		return m.registerFn(cmd)
	}
	return nil, "", fmt.Errorf("not configured")
}

type mockAuthQuerier struct {
	loginFn   func(cqrs.LoginCommand) (*models.User, string, error)
	profileFn func(string) (*models.User, error)
}

func (m *mockAuthQuerier) Login(_ context.Context, cmd cqrs.LoginCommand, _ workflow.RequestMeta) (*models.User, string, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return nil, "", fmt.Errorf("not configured")
}

func (m *mockAuthQuerier) Profile(_ context.Context, userID string) (*models.User, error) {
	if m.profileFn != nil {
		return m.profileFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func newAuthTestRouter(commands UserCommander, queries AuthQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(commands, queries, testLogger())
	grp := r.Group("/api/auth")
	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.GET("/profile", asUser("user-1"), h.Profile)
	return r
}

func TestRegister(t *testing.T) {
	validBody := map[string]any{
		"username":    "buyer1",
		"email":       "buyer1@example.com",
		"password":    "longenough1",
		"firstName":   "Bob",
		"lastName":    "Buyer",
		"phoneNumber": "555-0100",
		"roles":       []string{"buyer"},
	}

	tests := []struct {
		name           string
		body           any
		registerFn     func(cqrs.RegisterUserCommand) (*models.User, string, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: validBody,
			registerFn: func(cmd cqrs.RegisterUserCommand) (*models.User, string, error) {
				if len(cmd.Roles) != 1 || cmd.Roles[0] != models.RoleBuyer {
					return nil, "", fmt.Errorf("roles not decoded: %v", cmd.Roles)
				}
				return &models.User{ID: "user-1", Username: cmd.Username}, "token-1", nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "conflict - username taken",
			body: validBody,
			registerFn: func(cmd cqrs.RegisterUserCommand) (*models.User, string, error) {
				return nil, "", workflow.Conflict("User already exists", "Username or email already registered")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "bad request - no roles",
			body: map[string]any{
				"username": "buyer1", "email": "buyer1@example.com", "password": "longenough1",
				"firstName": "Bob", "lastName": "Buyer", "phoneNumber": "555-0100",
				"roles": []string{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - short password",
			body: map[string]any{
				"username": "buyer1", "email": "buyer1@example.com", "password": "short",
				"firstName": "Bob", "lastName": "Buyer", "phoneNumber": "555-0100",
				"roles": []string{"buyer"},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockUserCommander{registerFn: tt.registerFn}, &mockAuthQuerier{})
			w := doRequest(router, http.MethodPost, "/api/auth/register", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		loginFn        func(cqrs.LoginCommand) (*models.User, string, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]string{"username": "buyer1", "password": "longenough1"},
			loginFn: func(cmd cqrs.LoginCommand) (*models.User, string, error) {
				return &models.User{ID: "user-1", Username: cmd.Username}, "token-1", nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unauthorized - bad credentials",
			body: map[string]string{"username": "buyer1", "password": "wrong"},
			loginFn: func(cmd cqrs.LoginCommand) (*models.User, string, error) {
				return nil, "", workflow.Unauthenticated("Invalid username or password")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "unauthorized - inactive account",
			body: map[string]string{"username": "buyer1", "password": "longenough1"},
			loginFn: func(cmd cqrs.LoginCommand) (*models.User, string, error) {
				return nil, "", workflow.Unauthenticated("Account is inactive")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing password",
			body:           map[string]string{"username": "buyer1"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockUserCommander{}, &mockAuthQuerier{loginFn: tt.loginFn})
			w := doRequest(router, http.MethodPost, "/api/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestProfile(t *testing.T) {
	router := newAuthTestRouter(&mockUserCommander{}, &mockAuthQuerier{
		profileFn: func(userID string) (*models.User, error) {
			if userID != "user-1" {
				return nil, fmt.Errorf("unexpected user %s", userID)
			}
			return &models.User{ID: userID, Username: "buyer1"}, nil
		},
	})
	w := doRequest(router, http.MethodGet, "/api/auth/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
}
