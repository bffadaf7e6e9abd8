package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/mocks"
)

func TestRBACMW(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rbac := mocks.NewMockRBACResolver()
	rbac.HasRoleFunc = func(ctx context.Context, accountID uint, roles ...string) (bool, error) {
		return accountID == 1, nil
	}
	rbac.HasPermissionFunc = func(ctx context.Context, accountID uint, resource, action string) (bool, error) {
		if accountID == 99 {
			return false, errors.New("database down")
		}
		return accountID == 1 || (accountID == 2 && action == "read"), nil
	}
	audit := mocks.NewMockAuditLogger()
	mw := NewRBACMW(rbac, audit, zerolog.Nop())

	authenticate := func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Account"); id != "" {
			var accountID uint
			for _, ch := range id {
				accountID = accountID*10 + uint(ch-'0')
			}
			c.Set(ContextAccountID, accountID)
		}
		c.Next()
	}

	r := gin.New()
	r.Use(authenticate)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/admin", mw.RequireRole(domain.RoleAdmin), ok)
	r.GET("/gemstones", mw.RequirePermission("gemstone", "read"), ok)
	r.DELETE("/gemstones", mw.RequirePermission("gemstone", "delete"), ok)

	tests := []struct {
		name           string
		method         string
		path           string
		account        string
		expectedStatus int
	}{
		{"admin role", http.MethodGet, "/admin", "1", http.StatusOK},
		{"missing role", http.MethodGet, "/admin", "2", http.StatusForbidden},
		{"unauthenticated", http.MethodGet, "/admin", "", http.StatusUnauthorized},
		{"granted permission", http.MethodGet, "/gemstones", "2", http.StatusOK},
		{"missing permission", http.MethodDelete, "/gemstones", "2", http.StatusForbidden},
		{"admin passes permission checks", http.MethodDelete, "/gemstones", "1", http.StatusOK},
		{"resolver failure", http.MethodGet, "/gemstones", "99", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.account != "" {
				req.Header.Set("X-Test-Account", tt.account)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	assert.True(t, audit.HasEvent(domain.AccessDeniedEvent, false))
}
