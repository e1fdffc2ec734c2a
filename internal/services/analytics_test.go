package services

import (
	"testing"
	"time"

	"github.com/taskflowhq/taskflow/internal/repository"
)

func TestFormatCompletionRate(t *testing.T) {
	tests := []struct {
		done  int64
		total int64
		want  string
	}{
		{0, 0, "0"},
		{0, 10, "0.0"},
		{5, 10, "50.0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{10, 10, "100.0"},
	}
	for _, tt := range tests {
		if got := formatCompletionRate(tt.done, tt.total); got != tt.want {
			t.Errorf("formatCompletionRate(%d, %d) = %q, want %q", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestBuildProductivity_FillsMissingDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	series := map[string]repository.DailyCompletion{
		"2025-03-10": {Date: "2025-03-10", Completed: 3, Hours: 5.5},
		"2025-03-07": {Date: "2025-03-07", Completed: 1, Hours: 2},
	}

	points := buildProductivity(series, now)
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	if points[0].Date != "2025-03-04" {
		t.Errorf("first date = %s, want 2025-03-04", points[0].Date)
	}
	if points[6].Date != "2025-03-10" {
		t.Errorf("last date = %s, want 2025-03-10", points[6].Date)
	}
	if points[6].TasksCompleted != 3 || points[6].HoursLogged != 5.5 {
		t.Errorf("last point = %+v, want 3 tasks / 5.5 hours", points[6])
	}
	if points[3].TasksCompleted != 1 {
		t.Errorf("2025-03-07 tasks = %d, want 1", points[3].TasksCompleted)
	}
	for _, i := range []int{0, 1, 2, 4, 5} {
		if points[i].TasksCompleted != 0 || points[i].HoursLogged != 0 {
			t.Errorf("day %s should be zeroed, got %+v", points[i].Date, points[i])
		}
	}
}

func TestBuildCharts(t *testing.T) {
	charts := buildCharts(
		map[string]int64{repository.ProjectStatusActive: 4},
		map[string]int64{repository.TaskStatusDone: 2},
		map[string]int64{repository.PriorityCritical: 1},
	)

	if len(charts.ProjectStatus) != 3 {
		t.Errorf("project status points = %d, want 3", len(charts.ProjectStatus))
	}
	if len(charts.TaskStatus) != 4 {
		t.Errorf("task status points = %d, want 4", len(charts.TaskStatus))
	}
	if len(charts.PriorityDistribution) != 4 {
		t.Errorf("priority points = %d, want 4", len(charts.PriorityDistribution))
	}

	if charts.ProjectStatus[0].Name != repository.ProjectStatusActive || charts.ProjectStatus[0].Value != 4 {
		t.Errorf("active point = %+v", charts.ProjectStatus[0])
	}
	for _, p := range charts.TaskStatus {
		if p.Color == "" {
			t.Errorf("task status %s has no color", p.Name)
		}
	}
	// Absent buckets render as zero, not missing.
	if charts.TaskStatus[0].Name != repository.TaskStatusTodo || charts.TaskStatus[0].Value != 0 {
		t.Errorf("todo point = %+v, want zero value", charts.TaskStatus[0])
	}
}
