package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
)

type SystemLogHandler struct {
	logs    *services.SystemLogService
	authSvc *auth.Service
}

func NewSystemLogHandler(logs *services.SystemLogService, authSvc *auth.Service) *SystemLogHandler {
	return &SystemLogHandler{logs: logs, authSvc: authSvc}
}

func (h *SystemLogHandler) requireManageSettings(c *gin.Context) bool {
	callerID, ok := identity(c)
	if !ok {
		return false
	}
	if !h.authSvc.HasPermission(callerID, auth.PermManageSettings) {
		response.Fail(c, response.NewForbidden())
		return false
	}
	return true
}

func (h *SystemLogHandler) List(c *gin.Context) {
	if !h.requireManageSettings(c) {
		return
	}

	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	resp, err := h.logs.List(&req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *SystemLogHandler) GetModules(c *gin.Context) {
	if !h.requireManageSettings(c) {
		return
	}

	modules, err := h.logs.GetModules()
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"modules": modules})
}

type cleanupRequest struct {
	RetentionDays int `json:"retention_days" binding:"required,min=1,max=3650"`
}

// Cleanup deletes log entries older than the requested retention,
// independent of the nightly scheduled run.
func (h *SystemLogHandler) Cleanup(c *gin.Context) {
	if !h.requireManageSettings(c) {
		return
	}

	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	deleted, err := h.logs.CleanupOldLogs(req.RetentionDays)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}
