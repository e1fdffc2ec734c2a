package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	users   *services.UserService
	sync    *services.SyncService
	authSvc *auth.Service
}

func NewUserHandler(users *services.UserService, sync *services.SyncService, authSvc *auth.Service) *UserHandler {
	return &UserHandler{users: users, sync: sync, authSvc: authSvc}
}

func (h *UserHandler) requireManageUsers(c *gin.Context) bool {
	callerID, ok := identity(c)
	if !ok {
		return false
	}
	if !h.authSvc.HasPermission(callerID, auth.PermManageUsers) {
		response.Fail(c, response.NewForbidden())
		return false
	}
	return true
}

// Me returns the caller's own record. Any authenticated identity may
// read itself; an identity the mirror has not seen yet gets 404.
func (h *UserHandler) Me(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}

	user, err := h.users.Me(callerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("User not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) List(c *gin.Context) {
	if !h.requireManageUsers(c) {
		return
	}

	var req services.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	resp, err := h.users.List(&req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *UserHandler) Get(c *gin.Context) {
	if !h.requireManageUsers(c) {
		return
	}

	user, err := h.users.Get(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("User not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	if !h.requireManageUsers(c) {
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	user, err := h.users.Update(c.Param("id"), &req)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("User not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if !h.requireManageUsers(c) {
		return
	}

	err := h.users.Delete(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("User not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Sync runs a full reconciliation against the identity provider.
func (h *UserHandler) Sync(c *gin.Context) {
	if !h.requireManageUsers(c) {
		return
	}

	summary, err := h.sync.SyncAll(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, summary)
}
