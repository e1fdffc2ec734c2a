package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

func ValidTaskStatus(s string) bool {
	return s == TaskStatusTodo || s == TaskStatusInProgress || s == TaskStatusReview || s == TaskStatusDone
}

// Attachment is a file reference carried on a task.
type Attachment struct {
	Name string `bson:"name" json:"name" binding:"required"`
	URL  string `bson:"url" json:"url" binding:"required"`
	Type string `bson:"type" json:"type" binding:"required"`
	Size int64  `bson:"size" json:"size" binding:"required"`
}

// Task is a document-store record. The reporter is the creator; the
// parent project is fixed at creation time and bound the task to the
// reporter's project access at that moment.
type Task struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title          string               `bson:"title" json:"title"`
	Description    string               `bson:"description" json:"description"`
	Status         string               `bson:"status" json:"status"`
	Priority       string               `bson:"priority" json:"priority"`
	ProjectID      primitive.ObjectID   `bson:"projectId" json:"project_id"`
	AssigneeID     string               `bson:"assigneeId,omitempty" json:"assignee_id,omitempty"`
	ReporterID     string               `bson:"reporterId" json:"reporter_id"`
	DueDate        *time.Time           `bson:"dueDate,omitempty" json:"due_date,omitempty"`
	EstimatedHours *float64             `bson:"estimatedHours,omitempty" json:"estimated_hours,omitempty"`
	ActualHours    *float64             `bson:"actualHours,omitempty" json:"actual_hours,omitempty"`
	Dependencies   []primitive.ObjectID `bson:"dependencies" json:"dependencies"`
	Tags           []string             `bson:"tags" json:"tags"`
	Attachments    []Attachment         `bson:"attachments" json:"attachments"`
	CreatedAt      time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updated_at"`
}

// IsOverdue reports whether the task's due date has passed while the
// task is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusDone
}

type TaskRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewTaskRepo(db *mongo.Database, timeout time.Duration) *TaskRepo {
	return &TaskRepo{coll: db.Collection(taskCollection), timeout: timeout}
}

func (r *TaskRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// visibilityFilter matches tasks the user is assigned to, reported, or
// that live in one of the given projects.
func visibilityFilter(userID string, projectIDs []primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"assigneeId": userID},
		bson.M{"reporterId": userID},
		bson.M{"projectId": bson.M{"$in": projectIDs}},
	}}
}

func (r *TaskRepo) Create(ctx context.Context, t *Task) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Dependencies == nil {
		t.Dependencies = []primitive.ObjectID{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}

	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var t Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type ListTasksOptions struct {
	UserID     string
	ProjectIDs []primitive.ObjectID // projects the user can access
	Status     string
	Priority   string
	AssigneeID string
	ProjectID  *primitive.ObjectID
	Search     string
	Page       int
	Limit      int
}

// List returns tasks visible to the user, newest first.
func (r *TaskRepo) List(ctx context.Context, opts ListTasksOptions) ([]Task, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 10
	}

	and := bson.A{visibilityFilter(opts.UserID, opts.ProjectIDs)}
	if opts.Status != "" {
		and = append(and, bson.M{"status": opts.Status})
	}
	if opts.Priority != "" {
		and = append(and, bson.M{"priority": opts.Priority})
	}
	if opts.AssigneeID != "" {
		and = append(and, bson.M{"assigneeId": opts.AssigneeID})
	}
	if opts.ProjectID != nil {
		and = append(and, bson.M{"projectId": *opts.ProjectID})
	}
	if opts.Search != "" {
		and = append(and, bson.M{"title": bson.M{"$regex": opts.Search, "$options": "i"}})
	}
	filter := bson.M{"$and": and}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((opts.Page - 1) * opts.Limit)).
		SetLimit(int64(opts.Limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	tasks := []Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update applies field updates to a task. Access policy is enforced by
// the caller; update reach is broader than ownership so the repo does
// not re-filter.
func (r *TaskRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()

	var t Task
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TaskStats is the aggregate snapshot the analytics dashboard renders.
// The component queries run in one $facet stage, but there is no shared
// read snapshot with the project queries: under concurrent writes the
// numbers are eventually consistent, not exact.
type TaskStats struct {
	Total      int64
	ByStatus   map[string]int64
	ByPriority map[string]int64
	Overdue    int64
}

// Stats aggregates status/priority/overdue counts over the user's
// visible tasks in a single facet pipeline.
func (r *TaskRepo) Stats(ctx context.Context, userID string, projectIDs []primitive.ObjectID, now time.Time) (*TaskStats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: visibilityFilter(userID, projectIDs)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"byPriority": bson.A{
				bson.M{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
			},
			"total": bson.A{
				bson.M{"$count": "count"},
			},
			"overdue": bson.A{
				bson.M{"$match": bson.M{
					"dueDate": bson.M{"$lt": now},
					"status":  bson.M{"$ne": TaskStatusDone},
				}},
				bson.M{"$count": "count"},
			},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []struct {
		ByStatus []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"byStatus"`
		ByPriority []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"byPriority"`
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
		Overdue []struct {
			Count int64 `bson:"count"`
		} `bson:"overdue"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, err
	}

	stats := &TaskStats{
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}
	if len(facets) == 0 {
		return stats, nil
	}

	f := facets[0]
	for _, row := range f.ByStatus {
		stats.ByStatus[row.ID] = row.Count
	}
	for _, row := range f.ByPriority {
		stats.ByPriority[row.ID] = row.Count
	}
	if len(f.Total) > 0 {
		stats.Total = f.Total[0].Count
	}
	if len(f.Overdue) > 0 {
		stats.Overdue = f.Overdue[0].Count
	}
	return stats, nil
}

// DailyCompletion is one day of the trailing completion series, keyed
// by the task's last-modified date truncated to day.
type DailyCompletion struct {
	Date      string
	Completed int64
	Hours     float64
}

// CompletionSeries groups done tasks by the day they were last updated,
// counting completions and summing logged hours.
func (r *TaskRepo) CompletionSeries(ctx context.Context, userID string, projectIDs []primitive.ObjectID, since time.Time) (map[string]DailyCompletion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"$and": bson.A{
				visibilityFilter(userID, projectIDs),
				bson.M{"status": TaskStatusDone},
				bson.M{"updatedAt": bson.M{"$gte": since}},
			},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$updatedAt",
			}},
			"count": bson.M{"$sum": 1},
			"hours": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$actualHours", 0}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string  `bson:"_id"`
		Count int64   `bson:"count"`
		Hours float64 `bson:"hours"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	series := make(map[string]DailyCompletion, len(rows))
	for _, row := range rows {
		series[row.ID] = DailyCompletion{Date: row.ID, Completed: row.Count, Hours: row.Hours}
	}
	return series, nil
}

// Recent returns the n most recently updated visible tasks.
func (r *TaskRepo) Recent(ctx context.Context, userID string, projectIDs []primitive.ObjectID, n int) ([]Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, visibilityFilter(userID, projectIDs),
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}).SetLimit(int64(n)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
