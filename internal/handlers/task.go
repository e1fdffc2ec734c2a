package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/repository"
	"github.com/taskflowhq/taskflow/pkg/response"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	tasks    *repository.TaskRepo
	projects *repository.ProjectRepo
	authSvc  *auth.Service
}

func NewTaskHandler(tasks *repository.TaskRepo, projects *repository.ProjectRepo, authSvc *auth.Service) *TaskHandler {
	return &TaskHandler{tasks: tasks, projects: projects, authSvc: authSvc}
}

type listTasksQuery struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	AssigneeID string `form:"assignee_id"`
	ProjectID  string `form:"project_id"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

func (h *TaskHandler) List(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) && !h.authSvc.HasPermission(callerID, auth.PermReadTask) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var q listTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	if q.Status != "" && !repository.ValidTaskStatus(q.Status) {
		response.Fail(c, response.NewValidation("status is invalid"))
		return
	}
	if q.Priority != "" && !repository.ValidPriority(q.Priority) {
		response.Fail(c, response.NewValidation("priority is invalid"))
		return
	}

	projectIDs, err := h.projects.AccessibleIDs(c.Request.Context(), callerID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	opts := repository.ListTasksOptions{
		UserID:     callerID,
		ProjectIDs: projectIDs,
		Status:     q.Status,
		Priority:   q.Priority,
		AssigneeID: q.AssigneeID,
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.ProjectID != "" {
		pid, err := parseObjectID(q.ProjectID)
		if err != nil {
			response.Fail(c, response.NewValidation("project_id is invalid"))
			return
		}
		opts.ProjectID = &pid
	}

	tasks, total, err := h.tasks.List(c.Request.Context(), opts)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"items": tasks, "total": total})
}

type createTaskRequest struct {
	Title          string                  `json:"title" binding:"required,min=2,max=200"`
	Description    string                  `json:"description" binding:"max=5000"`
	Status         string                  `json:"status"`
	Priority       string                  `json:"priority"`
	ProjectID      string                  `json:"project_id" binding:"required"`
	AssigneeID     string                  `json:"assignee_id"`
	DueDate        *time.Time              `json:"due_date"`
	EstimatedHours *float64                `json:"estimated_hours" binding:"omitempty,min=0"`
	Dependencies   []string                `json:"dependencies"`
	Tags           []string                `json:"tags"`
	Attachments    []repository.Attachment `json:"attachments"`
}

// canAssign reports whether the caller may set a task's assignee.
// Self-assignment is always allowed; handing work to someone else
// requires the assign grant.
func (h *TaskHandler) canAssign(callerID, assigneeID string) bool {
	if assigneeID == "" || assigneeID == callerID {
		return true
	}
	return h.authSvc.IsAdmin(callerID) || h.authSvc.HasPermission(callerID, auth.PermAssignTask)
}

// Create requires task creation rights plus read access to the parent
// project. A project the caller cannot see reads as missing.
func (h *TaskHandler) Create(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	if !h.authSvc.IsAdmin(callerID) && !h.authSvc.HasPermission(callerID, auth.PermCreateTask) {
		response.Fail(c, response.NewForbidden())
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}
	if req.Status == "" {
		req.Status = repository.TaskStatusTodo
	}
	if req.Priority == "" {
		req.Priority = repository.PriorityMedium
	}
	if !repository.ValidTaskStatus(req.Status) {
		response.Fail(c, response.NewValidation("status is invalid"))
		return
	}
	if !repository.ValidPriority(req.Priority) {
		response.Fail(c, response.NewValidation("priority is invalid"))
		return
	}
	if !h.canAssign(callerID, req.AssigneeID) {
		response.Fail(c, response.NewForbidden())
		return
	}

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceProject, auth.ActionRead, req.ProjectID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		response.Fail(c, response.NewNotFound("Project not found"))
		return
	}

	deps := make([]primitive.ObjectID, 0, len(req.Dependencies))
	for _, d := range req.Dependencies {
		id, err := parseObjectID(d)
		if err != nil {
			response.Fail(c, response.NewValidation("dependencies contains an invalid id"))
			return
		}
		deps = append(deps, id)
	}

	task := &repository.Task{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		ProjectID:      projectID,
		AssigneeID:     req.AssigneeID,
		ReporterID:     callerID,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		Dependencies:   deps,
		Tags:           req.Tags,
		Attachments:    req.Attachments,
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, task)
}

func (h *TaskHandler) Get(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceTask, auth.ActionRead, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	task, err := h.findTask(c, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, task)
}

type updateTaskRequest struct {
	Title          *string                 `json:"title" binding:"omitempty,min=2,max=200"`
	Description    *string                 `json:"description" binding:"omitempty,max=5000"`
	Status         *string                 `json:"status"`
	Priority       *string                 `json:"priority"`
	AssigneeID     *string                 `json:"assignee_id"`
	DueDate        *time.Time              `json:"due_date"`
	EstimatedHours *float64                `json:"estimated_hours" binding:"omitempty,min=0"`
	ActualHours    *float64                `json:"actual_hours" binding:"omitempty,min=0"`
	Tags           []string                `json:"tags"`
	Attachments    []repository.Attachment `json:"attachments"`
}

func (h *TaskHandler) Update(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceTask, auth.ActionWrite, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, bindError(err))
		return
	}

	set := bson.M{}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Status != nil {
		if !repository.ValidTaskStatus(*req.Status) {
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
	if req.AssigneeID != nil {
		if !h.canAssign(callerID, *req.AssigneeID) {
			response.Fail(c, response.NewForbidden())
			return
		}
		set["assigneeId"] = *req.AssigneeID
	}
	if req.DueDate != nil {
		set["dueDate"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		set["estimatedHours"] = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		set["actualHours"] = *req.ActualHours
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.Attachments != nil {
		set["attachments"] = req.Attachments
	}
	if len(set) == 0 {
		response.Fail(c, response.NewValidation("no fields to update"))
		return
	}

	oid, err := parseObjectID(id)
	if err != nil {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), oid, set)
	if errors.Is(err, repository.ErrNotFound) {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	callerID, ok := identity(c)
	if !ok {
		return
	}
	id := c.Param("id")

	allowed, err := h.authSvc.CanAccessResource(c.Request.Context(), callerID, auth.ResourceTask, auth.ActionDelete, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !allowed) {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	oid, err := parseObjectID(id)
	if err != nil {
		response.Fail(c, response.NewNotFound("Task not found"))
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, response.NewNotFound("Task not found"))
			return
		}
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *TaskHandler) findTask(c *gin.Context, id string) (*repository.Task, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, response.NewNotFound("Task not found")
	}
	task, err := h.tasks.FindByID(c.Request.Context(), oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, response.NewNotFound("Task not found")
	}
	return task, err
}
