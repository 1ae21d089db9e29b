package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itinera/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound        = errors.New("itinerary not found")
	ErrForbidden       = errors.New("itinerary belongs to another user")
	ErrVersionConflict = errors.New("itinerary was saved elsewhere")
)

// Query filters a listing. Zero fields are ignored.
type Query struct {
	UserID    string
	StartDate string
	Location  string
	Status    string
	Published *bool
	Skip      int64
	Limit     int64
}

// Meta carries the editable header fields of an itinerary.
type Meta struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Repository persists itineraries. Soft-deleted documents are invisible to
// every method except PurgeDeleted.
type Repository interface {
	Create(ctx context.Context, it models.Itinerary) error
	Get(ctx context.Context, id string) (models.Itinerary, error)
	List(ctx context.Context, q Query) ([]models.Itinerary, error)
	UpdateMeta(ctx context.Context, id string, m Meta) error
	// SaveDays replaces the schedule if the stored version still equals
	// base, and returns the new version.
	SaveDays(ctx context.Context, id string, base int64, days []models.Day, startDate, endDate string) (int64, error)
	SoftDelete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll, now: time.Now}
}

func live(id string) bson.M {
	return bson.M{"itineraryid": id, "deleted": bson.M{"$ne": true}}
}

func (r *MongoRepository) Create(ctx context.Context, it models.Itinerary) error {
	if _, err := r.coll.InsertOne(ctx, it); err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (models.Itinerary, error) {
	var it models.Itinerary
	err := r.coll.FindOne(ctx, live(id)).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return it, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return it, fmt.Errorf("find itinerary %s: %w", id, err)
	}
	return it, nil
}

func (r *MongoRepository) List(ctx context.Context, q Query) ([]models.Itinerary, error) {
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	if q.StartDate != "" {
		filter["start_date"] = q.StartDate
	}
	if q.Location != "" {
		filter["$or"] = bson.A{
			bson.M{"days.items.destination": q.Location},
			bson.M{"days.items.location.name": q.Location},
		}
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Published != nil {
		filter["published"] = *q.Published
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	defer cursor.Close(ctx)

	itineraries := []models.Itinerary{}
	if err := cursor.All(ctx, &itineraries); err != nil {
		return nil, fmt.Errorf("decode itineraries: %w", err)
	}
	return itineraries, nil
}

func (r *MongoRepository) UpdateMeta(ctx context.Context, id string, m Meta) error {
	set := bson.M{"updated_at": r.now().UTC()}
	if m.Name != nil {
		set["name"] = *m.Name
	}
	if m.Description != nil {
		set["description"] = *m.Description
	}
	if m.Status != nil {
		set["status"] = *m.Status
	}
	return r.update(ctx, live(id), bson.M{"$set": set}, id)
}

func (r *MongoRepository) SaveDays(ctx context.Context, id string, base int64, days []models.Day, startDate, endDate string) (int64, error) {
	filter := live(id)
	filter["version"] = base
	update := bson.M{
		"$set": bson.M{
			"days":       days,
			"start_date": startDate,
			"end_date":   endDate,
			"updated_at": r.now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("save days %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s at version %d", ErrVersionConflict, id, base)
	}
	return base + 1, nil
}

func (r *MongoRepository) SoftDelete(ctx context.Context, id string) error {
	now := r.now().UTC()
	return r.update(ctx, live(id), bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}, id)
}

func (r *MongoRepository) Publish(ctx context.Context, id string) error {
	return r.update(ctx, live(id), bson.M{"$set": bson.M{"published": true, "updated_at": r.now().UTC()}}, id)
}

func (r *MongoRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"deleted": true, "deleted_at": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("purge itineraries: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) update(ctx context.Context, filter, update bson.M, id string) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update itinerary %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
