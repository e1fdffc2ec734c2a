package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
	"gorm.io/gorm"
)

type RoleHandler struct {
	roles   *services.RoleService
	authSvc *auth.Service
}

func NewRoleHandler(roles *services.RoleService, authSvc *auth.Service) *RoleHandler {
	return &RoleHandler{roles: roles, authSvc: authSvc}
}

func (h *RoleHandler) requireManageRoles(c *gin.Context) bool {
	callerID, ok := identity(c)
	if !ok {
		return false
	}
	if !h.authSvc.HasPermission(callerID, auth.PermManageRoles) {
		response.Fail(c, response.NewForbidden())
		return false
	}
	return true
}

func (h *RoleHandler) List(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}

	roles, err := h.roles.List(c.Query("organization_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, roles)
}

func (h *RoleHandler) Create(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}

	var req services.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	role, err := h.roles.Create(&req)
	switch {
	case errors.Is(err, services.ErrDuplicateRoleName):
		response.Fail(c, response.NewValidation("role name already exists in this organization"))
	case errors.Is(err, services.ErrUnknownPermission):
		response.Fail(c, response.NewValidation("permissions contains an unknown permission"))
	case err != nil:
		response.Fail(c, err)
	default:
		response.Created(c, role)
	}
}

func (h *RoleHandler) Get(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}

	role, err := h.roles.Get(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("Role not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, role)
}

func (h *RoleHandler) Update(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	role, err := h.roles.Update(c.Param("id"), &req)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Fail(c, response.NewNotFound("Role not found"))
	case errors.Is(err, services.ErrDuplicateRoleName):
		response.Fail(c, response.NewValidation("role name already exists in this organization"))
	case errors.Is(err, services.ErrUnknownPermission):
		response.Fail(c, response.NewValidation("permissions contains an unknown permission"))
	case err != nil:
		response.Fail(c, err)
	default:
		response.OK(c, role)
	}
}

func (h *RoleHandler) Delete(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}

	err := h.roles.Delete(c.Param("id"))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Fail(c, response.NewNotFound("Role not found"))
	case errors.Is(err, services.ErrRoleInUse):
		response.Fail(c, response.NewValidation("role is still assigned to users"))
	case err != nil:
		response.Fail(c, err)
	default:
		response.OK(c, gin.H{"deleted": true})
	}
}

// Permissions lists the full permission catalog for role editors.
func (h *RoleHandler) Permissions(c *gin.Context) {
	if !h.requireManageRoles(c) {
		return
	}
	response.OK(c, auth.PermissionStrings(auth.AllPermissions))
}
