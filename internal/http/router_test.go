package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/http/handlers"
	"github.com/gemstone-market/identity/internal/http/middleware"
	"github.com/gemstone-market/identity/internal/metrics"
	"github.com/gemstone-market/identity/internal/mocks"
)

func newTestRouter(t *testing.T) (*gin.Engine, *mocks.MockTokenCodec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	codec := mocks.NewMockTokenCodec()
	rbac := mocks.NewMockRBACResolver()
	rbac.HasRoleFunc = func(ctx context.Context, accountID uint, roles ...string) (bool, error) {
		return accountID == 1, nil
	}
	rbac.HasPermissionFunc = func(ctx context.Context, accountID uint, resource, action string) (bool, error) {
		return accountID == 1 || (accountID == 3 && resource == "account" && action == "moderate"), nil
	}

	h := Handlers{
		Auth:  handlers.NewAuthHandlers(mocks.NewMockAuthService(), log),
		MFA:   handlers.NewMFAHandlers(mocks.NewMockMFAService(), log),
		Admin: handlers.NewAdminHandlers(mocks.NewMockRoleAdminService(), log),
		Authz: handlers.NewAuthzHandlers(rbac, log),
	}
	r := BuildRouter(h, middleware.NewAuthMW(codec), middleware.NewRBACMW(rbac, mocks.NewMockAuditLogger(), log), metrics.New(), log)
	return r, codec
}

func TestBuildRouter(t *testing.T) {
	r, codec := newTestRouter(t)
	bearer := func(id uint) string {
		token, _ := codec.IssueAccessToken(domain.TokenClaims{AccountID: id})
		return "Bearer " + token
	}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		auth           string
		expectedStatus int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"public login", http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"Sapphire2024"}`, "", http.StatusOK},
		{"public mfa verify", http.MethodPost, "/mfa/verify", `{"challenge_id":"c1","code":"123456"}`, "", http.StatusOK},
		{"me requires token", http.MethodGet, "/auth/me", "", "", http.StatusUnauthorized},
		{"me with token", http.MethodGet, "/auth/me", "", bearer(2), http.StatusOK},
		{"refresh token rejected as bearer", http.MethodGet, "/auth/me", "", "Bearer refresh:2:1", http.StatusUnauthorized},
		{"mfa setup requires token", http.MethodPost, "/mfa/setup", "", "", http.StatusUnauthorized},
		{"authz check requires token", http.MethodPost, "/authz/check", `{"resource":"gemstone","action":"read"}`, "", http.StatusUnauthorized},
		{"admin for non admin", http.MethodGet, "/admin/roles", "", bearer(2), http.StatusForbidden},
		{"admin for admin", http.MethodGet, "/admin/roles", "", bearer(1), http.StatusOK},
		{"status change for moderator", http.MethodPatch, "/admin/accounts/5/status", `{"event":"suspend"}`, bearer(3), http.StatusOK},
		{"status change for customer", http.MethodPatch, "/admin/accounts/5/status", `{"event":"suspend"}`, bearer(2), http.StatusForbidden},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}
