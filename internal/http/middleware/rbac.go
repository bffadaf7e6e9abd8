package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// RBACMW guards routes with role and permission checks. Decisions, including
// the admin bypass, are delegated to the resolver.
type RBACMW struct {
	rbac  domain.RBACResolver
	audit domain.AuditLogger
	log   zerolog.Logger
}

// NewRBACMW creates new RBAC middleware wrapper
func NewRBACMW(rbac domain.RBACResolver, audit domain.AuditLogger, log zerolog.Logger) *RBACMW {
	return &RBACMW{rbac: rbac, audit: audit, log: log}
}

// RequireRole lets the request through when the account holds any of roles
func (mw *RBACMW) RequireRole(roles ...string) gin.HandlerFunc {
	return mw.guard("role:"+strings.Join(roles, ","), func(c *gin.Context, accountID uint) (bool, error) {
		return mw.rbac.HasRole(c.Request.Context(), accountID, roles...)
	})
}

// RequirePermission lets the request through when the account may perform
// action on resource
func (mw *RBACMW) RequirePermission(resource, action string) gin.HandlerFunc {
	return mw.guard(resource+":"+action, func(c *gin.Context, accountID uint) (bool, error) {
		return mw.rbac.HasPermission(c.Request.Context(), accountID, resource, action)
	})
}

func (mw *RBACMW) guard(requirement string, check func(*gin.Context, uint) (bool, error)) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		accountID, ok := AccountID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required", "missing_token")
			return
		}

		allowed, err := check(c, accountID)
		if err != nil {
			mw.log.Error().Err(err).Uint("account_id", accountID).Msg("authorization check failed")
			abort(c, http.StatusInternalServerError, "Authorization check failed", "internal_error")
			return
		}
		if !allowed {
			mw.audit.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent, accountID).
				WithMetadata("requirement", requirement).
				WithMetadata("path", c.FullPath()).
				WithError(domain.ErrForbidden))
			abort(c, http.StatusForbidden, "Access denied", "forbidden")
			return
		}
		c.Next()
	})
}
