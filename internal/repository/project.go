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

// Project statuses and priorities form closed sets; values are validated
// at the API boundary.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ErrNotFound is returned when a document does not exist or is outside
// the caller's visibility; the two cases are not distinguished.
var ErrNotFound = errors.New("document not found")

func ValidProjectStatus(s string) bool {
	return s == ProjectStatusActive || s == ProjectStatusCompleted || s == ProjectStatusArchived
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityCritical
}

// Project is a document-store record. Read access is shared with team
// members; mutation is owner-only.
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description" json:"description"`
	Status         string             `bson:"status" json:"status"`
	Priority       string             `bson:"priority" json:"priority"`
	OrganizationID string             `bson:"organizationId" json:"organization_id"`
	OwnerID        string             `bson:"ownerId" json:"owner_id"`
	TeamMembers    []string           `bson:"teamMembers" json:"team_members"`
	StartDate      time.Time          `bson:"startDate" json:"start_date"`
	EndDate        *time.Time         `bson:"endDate,omitempty" json:"end_date,omitempty"`
	Progress       int                `bson:"progress" json:"progress"`
	Tags           []string           `bson:"tags" json:"tags"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}

// HasMember reports whether userID is the owner or a team member.
func (p *Project) HasMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.TeamMembers {
		if m == userID {
			return true
		}
	}
	return false
}

type ProjectRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewProjectRepo(db *mongo.Database, timeout time.Duration) *ProjectRepo {
	return &ProjectRepo{coll: db.Collection(projectCollection), timeout: timeout}
}

func (r *ProjectRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// accessFilter matches projects the user owns or is a team member of.
func accessFilter(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"ownerId": userID},
		bson.M{"teamMembers": userID},
	}}
}

func (r *ProjectRepo) Create(ctx context.Context, p *Project) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.TeamMembers == nil {
		p.TeamMembers = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindAccessible returns the project only if the user owns it or is on
// its team; anything else is ErrNotFound.
func (r *ProjectRepo) FindAccessible(ctx context.Context, id primitive.ObjectID, userID string) (*Project, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := accessFilter(userID)
	filter["_id"] = id

	var p Project
	err := r.coll.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID fetches a project regardless of membership. Used by the
// authorization layer, which applies its own policy.
func (r *ProjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Project, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var p Project
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type ListProjectsOptions struct {
	UserID   string
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
}

// List returns the user's accessible projects, newest first, with
// optional status/priority filters and a case-insensitive name or
// description search.
func (r *ProjectRepo) List(ctx context.Context, opts ListProjectsOptions) ([]Project, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 10
	}

	filter := bson.M{"$and": bson.A{accessFilter(opts.UserID)}}
	and := filter["$and"].(bson.A)
	if opts.Status != "" {
		and = append(and, bson.M{"status": opts.Status})
	}
	if opts.Priority != "" {
		and = append(and, bson.M{"priority": opts.Priority})
	}
	if opts.Search != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": bson.M{"$regex": opts.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": opts.Search, "$options": "i"}},
		}})
	}
	filter["$and"] = and

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

	projects := []Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// AccessibleIDs resolves the set of project IDs the user owns or is a
// team member of. This is the scoping query every analytics aggregation
// starts from.
func (r *ProjectRepo) AccessibleIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, accessFilter(userID),
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// Update applies the given field updates to a project owned by ownerID.
// Non-owners get ErrNotFound, indistinguishable from a missing project.
func (r *ProjectRepo) Update(ctx context.Context, id primitive.ObjectID, ownerID string, set bson.M) (*Project, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()

	var p Project
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "ownerId": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a project owned by ownerID.
func (r *ProjectRepo) Delete(ctx context.Context, id primitive.ObjectID, ownerID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// StatusCounts groups the user's accessible projects by status.
func (r *ProjectRepo) StatusCounts(ctx context.Context, userID string) (map[string]int64, error) {
	return r.groupCounts(ctx, userID, "$status")
}

// PriorityCounts groups the user's accessible projects by priority.
func (r *ProjectRepo) PriorityCounts(ctx context.Context, userID string) (map[string]int64, error) {
	return r.groupCounts(ctx, userID, "$priority")
}

func (r *ProjectRepo) groupCounts(ctx context.Context, userID, field string) (map[string]int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: accessFilter(userID)}},
		bson.D{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// AverageProgress returns the mean progress over the user's accessible
// projects, rounded to the nearest integer; 0 when there are none.
func (r *ProjectRepo) AverageProgress(ctx context.Context, userID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: accessFilter(userID)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": nil,
			"avg": bson.M{"$avg": "$progress"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int(rows[0].Avg + 0.5), nil
}

// Recent returns the n most recently updated accessible projects.
func (r *ProjectRepo) Recent(ctx context.Context, userID string, n int) ([]Project, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, accessFilter(userID),
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}).SetLimit(int64(n)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	projects := []Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
