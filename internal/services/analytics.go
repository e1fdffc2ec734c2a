package services

import (
	"context"
	"strconv"
	"time"

	"github.com/taskflowhq/taskflow/internal/repository"
)

// AnalyticsService assembles the dashboard from aggregation pipelines in
// the document store. Figures are computed per request over the caller's
// accessible projects; concurrent writes make them eventually
// consistent, never transactional.
type AnalyticsService struct {
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
	now      func() time.Time
}

func NewAnalyticsService(projects *repository.ProjectRepo, tasks *repository.TaskRepo) *AnalyticsService {
	return &AnalyticsService{projects: projects, tasks: tasks, now: time.Now}
}

type ProjectStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByPriority  map[string]int64 `json:"by_priority"`
	AvgProgress int              `json:"avg_progress"`
}

type TaskStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByPriority map[string]int64 `json:"by_priority"`
	Overdue    int64            `json:"overdue"`
}

type DailyProductivity struct {
	Date           string  `json:"date"`
	TasksCompleted int64   `json:"tasks_completed"`
	HoursLogged    float64 `json:"hours_logged"`
}

type ChartPoint struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type Charts struct {
	ProjectStatus        []ChartPoint `json:"project_status"`
	TaskStatus           []ChartPoint `json:"task_status"`
	PriorityDistribution []ChartPoint `json:"priority_distribution"`
}

type DashboardData struct {
	Projects       ProjectStats         `json:"projects"`
	Tasks          TaskStats            `json:"tasks"`
	CompletionRate string               `json:"completion_rate"`
	Productivity   []DailyProductivity  `json:"productivity"`
	RecentProjects []repository.Project `json:"recent_projects"`
	RecentTasks    []repository.Task    `json:"recent_tasks"`
	Charts         Charts               `json:"charts"`
}

const (
	recentProjectCount = 5
	recentTaskCount    = 10
	productivityDays   = 7
)

// Overview builds the full dashboard for one user. Every query is
// scoped by the accessible-project set resolved up front.
func (s *AnalyticsService) Overview(ctx context.Context, userID string) (*DashboardData, error) {
	projectIDs, err := s.projects.AccessibleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.projects.StatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	priorityCounts, err := s.projects.PriorityCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	avgProgress, err := s.projects.AverageProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	taskStats, err := s.tasks.Stats(ctx, userID, projectIDs, now)
	if err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -(productivityDays - 1)).Truncate(24 * time.Hour)
	series, err := s.tasks.CompletionSeries(ctx, userID, projectIDs, since)
	if err != nil {
		return nil, err
	}

	recentProjects, err := s.projects.Recent(ctx, userID, recentProjectCount)
	if err != nil {
		return nil, err
	}
	recentTasks, err := s.tasks.Recent(ctx, userID, projectIDs, recentTaskCount)
	if err != nil {
		return nil, err
	}

	projectTotal := int64(0)
	for _, n := range statusCounts {
		projectTotal += n
	}

	data := &DashboardData{
		Projects: ProjectStats{
			Total:       projectTotal,
			ByStatus:    statusCounts,
			ByPriority:  priorityCounts,
			AvgProgress: avgProgress,
		},
		Tasks: TaskStats{
			Total:      taskStats.Total,
			ByStatus:   taskStats.ByStatus,
			ByPriority: taskStats.ByPriority,
			Overdue:    taskStats.Overdue,
		},
		CompletionRate: formatCompletionRate(taskStats.ByStatus[repository.TaskStatusDone], taskStats.Total),
		Productivity:   buildProductivity(series, now),
		RecentProjects: recentProjects,
		RecentTasks:    recentTasks,
		Charts:         buildCharts(statusCounts, taskStats.ByStatus, taskStats.ByPriority),
	}
	return data, nil
}

// formatCompletionRate renders done/total as a percentage with one
// decimal place. No tasks at all yields the literal "0", not "0.0".
func formatCompletionRate(done, total int64) string {
	if total == 0 {
		return "0"
	}
	rate := float64(done) / float64(total) * 100
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

// buildProductivity fills the trailing window so the chart always has
// one point per day, zeroed where nothing completed.
func buildProductivity(series map[string]repository.DailyCompletion, now time.Time) []DailyProductivity {
	out := make([]DailyProductivity, 0, productivityDays)
	for i := productivityDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		point := DailyProductivity{Date: date}
		if day, ok := series[date]; ok {
			point.TasksCompleted = day.Completed
			point.HoursLogged = day.Hours
		}
		out = append(out, point)
	}
	return out
}

var projectStatusColors = map[string]string{
	repository.ProjectStatusActive:    "#10b981",
	repository.ProjectStatusCompleted: "#3b82f6",
	repository.ProjectStatusArchived:  "#6b7280",
}

var taskStatusColors = map[string]string{
	repository.TaskStatusTodo:       "#94a3b8",
	repository.TaskStatusInProgress: "#3b82f6",
	repository.TaskStatusReview:     "#f59e0b",
	repository.TaskStatusDone:       "#10b981",
}

var priorityColors = map[string]string{
	repository.PriorityLow:      "#10b981",
	repository.PriorityMedium:   "#f59e0b",
	repository.PriorityHigh:     "#f97316",
	repository.PriorityCritical: "#ef4444",
}

func chartSeries(counts map[string]int64, order []string, colors map[string]string) []ChartPoint {
	out := make([]ChartPoint, 0, len(order))
	for _, name := range order {
		out = append(out, ChartPoint{Name: name, Value: counts[name], Color: colors[name]})
	}
	return out
}

func buildCharts(projectStatus, taskStatus, taskPriority map[string]int64) Charts {
	return Charts{
		ProjectStatus: chartSeries(projectStatus,
			[]string{repository.ProjectStatusActive, repository.ProjectStatusCompleted, repository.ProjectStatusArchived},
			projectStatusColors),
		TaskStatus: chartSeries(taskStatus,
			[]string{repository.TaskStatusTodo, repository.TaskStatusInProgress, repository.TaskStatusReview, repository.TaskStatusDone},
			taskStatusColors),
		PriorityDistribution: chartSeries(taskPriority,
			[]string{repository.PriorityLow, repository.PriorityMedium, repository.PriorityHigh, repository.PriorityCritical},
			priorityColors),
	}
}
