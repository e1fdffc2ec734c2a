package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	authSvc   *auth.Service
}

func NewAnalyticsHandler(analytics *services.AnalyticsService, authSvc *auth.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, authSvc: authSvc}
}

// Dashboard returns the aggregated overview scoped to the caller's
// accessible projects.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) && !h.authSvc.HasPermission(callerID, auth.PermViewAnalytics) {
		response.Fail(c, response.NewForbidden())
		return
	}

	data, err := h.analytics.Overview(c.Request.Context(), callerID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, data)
}
