package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	orgs    *services.OrganizationService
	authSvc *auth.Service
}

func NewOrganizationHandler(orgs *services.OrganizationService, authSvc *auth.Service) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, authSvc: authSvc}
}

// List returns every organization for admins, otherwise only the
// caller's own.
func (h *OrganizationHandler) List(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}

	if h.authSvc.IsAdmin(callerID) {
		orgs, err := h.orgs.List()
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, orgs)
		return
	}

	orgs, err := h.orgs.ListForUser(callerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		orgs = []models.Organization{}
	} else if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, orgs)
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	org, err := h.orgs.Create(&req)
	if errors.Is(err, services.ErrSlugTaken) {
		response.Fail(c, response.NewValidation("slug already in use"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, org)
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	orgID := c.Param("id")

	if !h.canView(callerID, orgID) {
		response.Fail(c, response.NewForbidden())
		return
	}

	detail, err := h.orgs.Get(orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("Organization not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	orgID := c.Param("id")

	if !h.authSvc.IsOrganizationAdmin(callerID, orgID) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var req services.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	org, err := h.orgs.Update(orgID, &req)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("Organization not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, org)
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	orgID := c.Param("id")

	if !h.authSvc.IsOrganizationAdmin(callerID, orgID) {
		response.Fail(c, response.NewForbidden())
		return
	}

	err := h.orgs.Delete(orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, response.NewNotFound("Organization not found"))
		return
	}
	if errors.Is(err, services.ErrOrganizationHasUsers) {
		response.Fail(c, response.NewValidation("organization still has users"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// canView allows admins of the organization and its own members.
func (h *OrganizationHandler) canView(callerID, orgID string) bool {
	if h.authSvc.IsOrganizationAdmin(callerID, orgID) {
		return true
	}
	orgs, err := h.orgs.ListForUser(callerID)
	if err != nil {
		return false
	}
	for _, o := range orgs {
		if o.ID == orgID {
			return true
		}
	}
	return false
}
