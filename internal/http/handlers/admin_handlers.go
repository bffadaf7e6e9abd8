package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// AdminHandlers manages roles, grants and account status
type AdminHandlers struct {
	roles domain.RoleAdminService
	log   zerolog.Logger
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(roles domain.RoleAdminService, log zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{roles: roles, log: log}
}

type createRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type permissionRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type roleAssignmentRequest struct {
	Role string `json:"role" binding:"required"`
}

type statusRequest struct {
	Event string `json:"event" binding:"required"`
}

type roleView struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []permission `json:"permissions"`
}

type permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func newRoleView(r domain.Role) roleView {
	perms := make([]permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, permission{Resource: p.Resource, Action: p.Action})
	}
	return roleView{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: perms}
}

// ListRoles returns every role with its grants
func (h *AdminHandlers) ListRoles(c *gin.Context) {
	roles, err := h.roles.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	views := make([]roleView, 0, len(roles))
	for _, r := range roles {
		views = append(views, newRoleView(r))
	}
	respondData(c, http.StatusOK, views)
}

// CreateRole adds a role
func (h *AdminHandlers) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	role, err := h.roles.CreateRole(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, newRoleView(*role))
}

// GrantPermission grants (resource, action) to the role in the path
func (h *AdminHandlers) GrantPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.roles.GrantPermission(c.Request.Context(), c.Param("name"), req.Resource, req.Action); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RevokePermission removes (resource, action) from the role in the path
func (h *AdminHandlers) RevokePermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.roles.RevokePermission(c.Request.Context(), c.Param("name"), req.Resource, req.Action); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignRole adds a role to the account in the path
func (h *AdminHandlers) AssignRole(c *gin.Context) {
	accountID, req, ok := h.bindAssignment(c)
	if !ok {
		return
	}
	if err := h.roles.AssignRole(c.Request.Context(), accountID, req.Role); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnassignRole removes a role from the account in the path
func (h *AdminHandlers) UnassignRole(c *gin.Context) {
	accountID, req, ok := h.bindAssignment(c)
	if !ok {
		return
	}
	if err := h.roles.UnassignRole(c.Request.Context(), accountID, req.Role); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeStatus applies a status event to the account in the path
func (h *AdminHandlers) ChangeStatus(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ev, err := domain.ParseStatusEvent(req.Event)
	if err != nil {
		respondBindError(c, err)
		return
	}

	status, err := h.roles.ChangeStatus(c.Request.Context(), accountID, ev)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"account_id": accountID, "status": status})
}

func (h *AdminHandlers) bindAssignment(c *gin.Context) (uint, roleAssignmentRequest, bool) {
	var req roleAssignmentRequest
	accountID, ok := accountParam(c)
	if !ok {
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return 0, req, false
	}
	return accountID, req, true
}

func accountParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondBindError(c, fmt.Errorf("invalid account id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}
