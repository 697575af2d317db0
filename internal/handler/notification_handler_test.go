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

type mockNotificationCommander struct {
	markReadFn func(cqrs.MarkNotificationsReadCommand) (int, error)
}

func (m *mockNotificationCommander) MarkRead(_ context.Context, cmd cqrs.MarkNotificationsReadCommand, _ workflow.RequestMeta) (int, error) {
	if m.markReadFn != nil {
		return m.markReadFn(cmd)
	}
	return 0, fmt.Errorf("not configured")
}

type mockNotificationQuerier struct {
	listFn func(cqrs.ListNotificationsQuery) (*repository.NotificationPage, error)
}

func (m *mockNotificationQuerier) List(_ context.Context, q cqrs.ListNotificationsQuery, _ workflow.RequestMeta) (*repository.NotificationPage, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newNotificationTestRouter(commands NotificationCommander, queries NotificationQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewNotificationHandler(commands, queries, testLogger())
	grp := r.Group("/api/notifications", asUser("user-1", models.RoleBuyer))
	grp.GET("", h.List)
	grp.PUT("/read", h.MarkRead)
	return r
}

func TestListNotificationsPaging(t *testing.T) {
	var captured cqrs.ListNotificationsQuery
	router := newNotificationTestRouter(&mockNotificationCommander{}, &mockNotificationQuerier{
		listFn: func(q cqrs.ListNotificationsQuery) (*repository.NotificationPage, error) {
			captured = q
			return &repository.NotificationPage{Total: 45, UnreadCount: 3}, nil
		},
	})

	w := doRequest(router, http.MethodGet, "/api/notifications?page=2&unread_only=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if captured.Page != 2 || captured.Limit != 20 || !captured.UnreadOnly {
		t.Errorf("query not decoded: %+v", captured)
	}

	body := decodeBody(w)
	if body["unreadCount"] != float64(3) {
		t.Errorf("expected unreadCount 3, got %v", body["unreadCount"])
	}
	paging, _ := body["pagination"].(map[string]any)
	if paging["pages"] != float64(3) {
		t.Errorf("expected 3 pages for 45 items at limit 20, got %v", paging["pages"])
	}
}

func TestMarkNotificationsRead(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		markReadFn     func(cqrs.MarkNotificationsReadCommand) (int, error)
		expectedStatus int
	}{
		{
			name: "success - explicit ids",
			body: map[string]any{"notificationIds": []string{"n-1", "n-2"}},
			markReadFn: func(cmd cqrs.MarkNotificationsReadCommand) (int, error) {
				if len(cmd.NotificationIDs) != 2 {
					return 0, fmt.Errorf("ids not decoded: %v", cmd.NotificationIDs)
				}
				return 2, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - mark all",
			body: map[string]any{"markAllRead": true},
			markReadFn: func(cmd cqrs.MarkNotificationsReadCommand) (int, error) {
				if !cmd.MarkAllRead {
					return 0, fmt.Errorf("markAllRead not decoded")
				}
				return 0, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "bad request - neither ids nor mark all",
			body: map[string]any{},
			markReadFn: func(cmd cqrs.MarkNotificationsReadCommand) (int, error) {
				return 0, workflow.InvalidInput("Invalid notification IDs", "notificationIds must be a non-empty array")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - empty id list",
			body: map[string]any{"notificationIds": []string{}},
			markReadFn: func(cmd cqrs.MarkNotificationsReadCommand) (int, error) {
				return 0, workflow.InvalidInput("Invalid notification IDs", "notificationIds must be a non-empty array")
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newNotificationTestRouter(&mockNotificationCommander{markReadFn: tt.markReadFn}, &mockNotificationQuerier{})
			w := doRequest(router, http.MethodPut, "/api/notifications/read", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
