package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/mocks"
)

func newAdminRouter(svc *mocks.MockRoleAdminService) http.Handler {
	h := NewAdminHandlers(svc, zerolog.Nop())
	r := newTestRouter(1)
	r.GET("/admin/roles", h.ListRoles)
	r.POST("/admin/roles", h.CreateRole)
	r.POST("/admin/roles/:name/permissions", h.GrantPermission)
	r.DELETE("/admin/roles/:name/permissions", h.RevokePermission)
	r.POST("/admin/accounts/:id/roles", h.AssignRole)
	r.DELETE("/admin/accounts/:id/roles", h.UnassignRole)
	r.PATCH("/admin/accounts/:id/status", h.ChangeStatus)
	return r
}

func TestAdminHandlers_Roles(t *testing.T) {
	svc := mocks.NewMockRoleAdminService()
	svc.ListRolesFunc = func(ctx context.Context) ([]domain.Role, error) {
		return []domain.Role{{ID: 1, Name: "customer", Permissions: []domain.Permission{{Resource: "gemstone", Action: "read"}}}}, nil
	}
	svc.CreateRoleFunc = func(ctx context.Context, name, description string) (*domain.Role, error) {
		if name == "customer" {
			return nil, domain.ErrConflict
		}
		return &domain.Role{ID: 4, Name: name, Description: description}, nil
	}
	var granted []string
	svc.GrantPermissionFunc = func(ctx context.Context, roleName, resource, action string) error {
		if roleName == "ghost" {
			return domain.ErrNotFound
		}
		granted = append(granted, roleName+"/"+resource+":"+action)
		return nil
	}
	r := newAdminRouter(svc)

	w, body := doJSON(t, r, http.MethodGet, "/admin/roles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roles, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, roles, 1)
	assert.Equal(t, "customer", roles[0].(map[string]interface{})["name"])

	w, body = doJSON(t, r, http.MethodPost, "/admin/roles", map[string]string{"name": "appraiser"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "appraiser", dataOf(t, body)["name"])

	w, body = doJSON(t, r, http.MethodPost, "/admin/roles", map[string]string{"name": "customer"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", body["code"])

	w, _ = doJSON(t, r, http.MethodPost, "/admin/roles/appraiser/permissions", map[string]string{"resource": "certificate", "action": "issue"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"appraiser/certificate:issue"}, granted)

	w, body = doJSON(t, r, http.MethodPost, "/admin/roles/ghost/permissions", map[string]string{"resource": "certificate", "action": "issue"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["code"])

	w, _ = doJSON(t, r, http.MethodDelete, "/admin/roles/appraiser/permissions", map[string]string{"resource": "certificate", "action": "issue"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminHandlers_Accounts(t *testing.T) {
	svc := mocks.NewMockRoleAdminService()
	var assigned uint
	svc.AssignRoleFunc = func(ctx context.Context, accountID uint, roleName string) error {
		assigned = accountID
		return nil
	}
	svc.ChangeStatusFunc = func(ctx context.Context, accountID uint, ev domain.StatusEvent) (domain.AccountStatus, error) {
		if ev == domain.EventReinstate {
			return "", domain.ErrIllegalTransition
		}
		return domain.StatusSuspended, nil
	}
	r := newAdminRouter(svc)

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
	}{
		{"assign", http.MethodPost, "/admin/accounts/12/roles", map[string]string{"role": "dealer"}, http.StatusNoContent},
		{"assign bad id", http.MethodPost, "/admin/accounts/abc/roles", map[string]string{"role": "dealer"}, http.StatusBadRequest},
		{"assign without role", http.MethodPost, "/admin/accounts/12/roles", map[string]string{}, http.StatusBadRequest},
		{"unassign", http.MethodDelete, "/admin/accounts/12/roles", map[string]string{"role": "dealer"}, http.StatusNoContent},
		{"suspend", http.MethodPatch, "/admin/accounts/12/status", map[string]string{"event": "suspend"}, http.StatusOK},
		{"illegal transition", http.MethodPatch, "/admin/accounts/12/status", map[string]string{"event": "reinstate"}, http.StatusConflict},
		{"unknown event", http.MethodPatch, "/admin/accounts/12/status", map[string]string{"event": "delete"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
	assert.Equal(t, uint(12), assigned)
}
