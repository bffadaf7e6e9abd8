package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/http/handlers"
	"github.com/gemstone-market/identity/internal/http/middleware"
	"github.com/gemstone-market/identity/internal/metrics"
)

// Handlers groups every HTTP handler set served by the router
type Handlers struct {
	Auth  *handlers.AuthHandlers
	MFA   *handlers.MFAHandlers
	Admin *handlers.AdminHandlers
	Authz *handlers.AuthzHandlers
}

func BuildRouter(h Handlers, jwtmw *middleware.AuthMW, rbacmw *middleware.RBACMW, m *metrics.Metrics, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(m), middleware.ClientContext())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh-token", h.Auth.Refresh)
	auth.GET("/verify-email/:token", h.Auth.VerifyEmail)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	authed := auth.Group("/").Use(jwtmw.WithJWT())
	authed.POST("/logout", h.Auth.Logout)
	authed.POST("/resend-verification", h.Auth.ResendVerification)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.GET("/me", h.Auth.Me)

	mfa := r.Group("/mfa")
	mfa.POST("/verify", h.MFA.Verify)
	mfaAuthed := mfa.Group("/").Use(jwtmw.WithJWT())
	mfaAuthed.POST("/setup", h.MFA.Setup)
	mfaAuthed.POST("/setup/confirm", h.MFA.ConfirmSetup)
	mfaAuthed.POST("/disable", h.MFA.Disable)

	authz := r.Group("/authz").Use(jwtmw.WithJWT())
	authz.POST("/check", h.Authz.Check)
	authz.GET("/permissions", h.Authz.Permissions)

	adm := r.Group("/admin").Use(jwtmw.WithJWT(), rbacmw.RequireRole(domain.RoleAdmin))
	adm.GET("/roles", h.Admin.ListRoles)
	adm.POST("/roles", h.Admin.CreateRole)
	adm.POST("/roles/:name/permissions", h.Admin.GrantPermission)
	adm.DELETE("/roles/:name/permissions", h.Admin.RevokePermission)
	adm.POST("/accounts/:id/roles", h.Admin.AssignRole)
	adm.DELETE("/accounts/:id/roles", h.Admin.UnassignRole)

	// moderators can be granted account:moderate without the admin role
	moderation := r.Group("/admin/accounts").Use(jwtmw.WithJWT(), rbacmw.RequirePermission("account", "moderate"))
	moderation.PATCH("/:id/status", h.Admin.ChangeStatus)

	return r
}
