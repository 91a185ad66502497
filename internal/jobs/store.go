package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	jobmodels "io.fixlink.jobboard/internal/models/job"
)

// ErrNotFound is returned when a job id does not exist in the mirror.
var ErrNotFound = errors.New("job not found")

// Store persists the local mirror of the external job board in MongoDB. The
// change-feed watcher subscribes to this collection.
type Store struct {
	coll *mongo.Collection
}

func NewStore(database *mongo.Database) *Store {
	return &Store{coll: database.Collection("jobs")}
}

// Collection exposes the underlying collection for the change-feed watcher.
func (s *Store) Collection() *mongo.Collection {
	return s.coll
}

// Create inserts a new job document. ID, status and timestamps are filled in
// when the caller left them empty.
func (s *Store) Create(ctx context.Context, j *jobmodels.Job) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = jobmodels.StatusOpen
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, j); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*jobmodels.Job, error) {
	var j jobmodels.Job
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return &j, nil
}

// SearchQuery narrows Search; zero-value fields are ignored.
type SearchQuery struct {
	Status        string
	Zip           string
	ApplianceType string
	VendorID      string
	SONumber      string
	Limit         int64
}

func (s *Store) Search(ctx context.Context, q SearchQuery) ([]jobmodels.Job, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Zip != "" {
		filter["zip"] = q.Zip
	}
	if q.ApplianceType != "" {
		filter["appliance_type"] = q.ApplianceType
	}
	if q.VendorID != "" {
		filter["vendor_id"] = q.VendorID
	}
	if q.SONumber != "" {
		filter["so_number"] = q.SONumber
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var results []jobmodels.Job
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode job results: %w", err)
	}
	return results, nil
}

// Update applies the given field updates and bumps updated_at.
func (s *Store) Update(ctx context.Context, id string, updates bson.M) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign marks a job as assigned to a vendor. Also satisfies the assignment
// interface used by the post-create notification hook.
func (s *Store) Assign(ctx context.Context, jobID, vendorID string) error {
	return s.Update(ctx, jobID, bson.M{
		"vendor_id": vendorID,
		"status":    jobmodels.StatusAssigned,
	})
}

// AddPhoto appends an uploaded photo URL to the job, once.
func (s *Store) AddPhoto(ctx context.Context, jobID, url string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{
		"$addToSet": bson.M{"photo_urls": url},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to add job photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemovePhoto removes a photo URL from the job.
func (s *Store) RemovePhoto(ctx context.Context, jobID, url string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{
		"$pull": bson.M{"photo_urls": url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to remove job photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
