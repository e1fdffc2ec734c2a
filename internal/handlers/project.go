package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/repository"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/response"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
)

// ProjectHandler works against the document store directly; the
// authorization service supplies the role and relationship checks.
type ProjectHandler struct {
	projects *repository.ProjectRepo
	users    *services.UserService
	authSvc  *auth.Service
}

func NewProjectHandler(projects *repository.ProjectRepo, users *services.UserService, authSvc *auth.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects, users: users, authSvc: authSvc}
}

type listProjectsQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (h *ProjectHandler) List(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) && !h.authSvc.HasPermission(callerID, auth.PermReadProject) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var q listProjectsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	if q.Status != "" && !repository.ValidProjectStatus(q.Status) {
		response.Fail(c, response.NewValidation("status is invalid"))
		return
	}
	if q.Priority != "" && !repository.ValidPriority(q.Priority) {
		response.Fail(c, response.NewValidation("priority is invalid"))
		return
	}

	projects, total, err := h.projects.List(c.Request.Context(), repository.ListProjectsOptions{
		UserID:   callerID,
		Status:   q.Status,
		Priority: q.Priority,
		Search:   q.Search,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"items": projects, "total": total})
}

type createProjectRequest struct {
	Name        string     `json:"name" binding:"required,min=2,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	TeamMembers []string   `json:"team_members"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Tags        []string   `json:"tags"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) && !h.authSvc.HasPermission(callerID, auth.PermCreateProject) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	if req.Status == "" {
		req.Status = repository.ProjectStatusActive
	}
	if req.Priority == "" {
		req.Priority = repository.PriorityMedium
	}
	if !repository.ValidProjectStatus(req.Status) {
		response.Fail(c, response.NewValidation("status is invalid"))
		return
	}
	if !repository.ValidPriority(req.Priority) {
		response.Fail(c, response.NewValidation("priority is invalid"))
		return
	}

	// The project inherits the creator's organization; callers without
	// one create unscoped projects.
	orgID := ""
	if user, err := h.users.Me(callerID); err == nil && user.OrganizationID != nil {
		orgID = *user.OrganizationID
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, err)
		return
	}

	start := time.Now().UTC()
	if req.StartDate != nil {
		start = *req.StartDate
	}

	project := &repository.Project{
		Name:           req.Name,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		OrganizationID: orgID,
		OwnerID:        callerID,
		TeamMembers:    req.TeamMembers,
		StartDate:      start,
		EndDate:        req.EndDate,
		Tags:           req.Tags,
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, project)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceProject, auth.ActionRead, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	project, err := h.findProject(c, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, project)
}

type updateProjectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=2,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	TeamMembers []string   `json:"team_members"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Progress    *int       `json:"progress" binding:"omitempty,min=0,max=100"`
	Tags        []string   `json:"tags"`
}

func (h *ProjectHandler) Update(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceProject, auth.ActionWrite, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Status != nil {
		if !repository.ValidProjectStatus(*req.Status) {
			response.Fail(c, response.NewValidation("status is invalid"))
			return
		}
		set["status"] = *req.Status
	}
	if req.Priority != nil {
		if !repository.ValidPriority(*req.Priority) {
			response.Fail(c, response.NewValidation("priority is invalid"))
			return
		}
		set["priority"] = *req.Priority
	}
	if req.TeamMembers != nil {
		set["teamMembers"] = req.TeamMembers
	}
	if req.StartDate != nil {
		set["startDate"] = *req.StartDate
	}
	if req.EndDate != nil {
		set["endDate"] = *req.EndDate
	}
	if req.Progress != nil {
		set["progress"] = *req.Progress
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if len(set) == 0 {
		response.Fail(c, response.NewValidation("no fields to update"))
		return
	}

	current, err := h.findProject(c, id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	project, err := h.projects.Update(c.Request.Context(), current.ID, current.OwnerID, set)
	if errors.Is(err, repository.ErrNotFound) {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceProject, auth.ActionDelete, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	current, err := h.findProject(c, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), current.ID, current.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, response.NewNotFound("Project not found"))
			return
		}
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *ProjectHandler) findProject(c *gin.Context, id string) (*repository.Project, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, response.NewNotFound("Project not found")
	}
	project, err := h.projects.FindByID(c.Request.Context(), oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, response.NewNotFound("Project not found")
	}
	return project, err
}
