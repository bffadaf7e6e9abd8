package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// AuthzHandlers answers authorization queries for other marketplace services
type AuthzHandlers struct {
	rbac domain.RBACResolver
	log  zerolog.Logger
}

// NewAuthzHandlers creates new authorization handlers
func NewAuthzHandlers(rbac domain.RBACResolver, log zerolog.Logger) *AuthzHandlers {
	return &AuthzHandlers{rbac: rbac, log: log}
}

// CheckRequest names the permission being asked for
type CheckRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

// Check reports whether the bearer may perform action on resource. A denial is
// a normal 200 answer.
func (h *AuthzHandlers) Check(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	allowed, err := h.rbac.HasPermission(c.Request.Context(), accountID, req.Resource, req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"account_id": accountID,
		"resource":   req.Resource,
		"action":     req.Action,
		"allowed":    allowed,
	})
}

// Permissions lists the bearer's effective permissions
func (h *AuthzHandlers) Permissions(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	perms, err := h.rbac.ResolvePermissions(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	roles, err := h.rbac.ResolveRoles(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	views := make([]permission, 0, len(perms))
	for _, p := range perms {
		views = append(views, permission{Resource: p.Resource, Action: p.Action})
	}
	respondData(c, http.StatusOK, gin.H{"roles": roles, "permissions": views})
}
