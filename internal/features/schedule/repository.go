package schedule

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	Get(ctx context.Context, id string) (*Schedule, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Schedule, error)
	List(ctx context.Context) ([]Schedule, error)
	Update(ctx context.Context, id primitive.ObjectID, updates bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListDue returns enabled schedules whose next_run_at has passed.
	ListDue(ctx context.Context, now time.Time) ([]Schedule, error)
	// AcquireLease atomically claims a schedule for the given owner. It
	// succeeds only when no lease is held or the held lease has expired,
	// so concurrent dispatchers cannot both fire the same schedule.
	AcquireLease(ctx context.Context, id primitive.ObjectID, owner string, until time.Time, now time.Time) (bool, error)
	// ReleaseLease clears the lease if the owner still holds it.
	ReleaseLease(ctx context.Context, id primitive.ObjectID, owner string) error
	// ForceReleaseLease clears the lease regardless of owner. Used when
	// the run holding it is known to be dead.
	ForceReleaseLease(ctx context.Context, id primitive.ObjectID) error
	UpdateRunTimes(ctx context.Context, id primitive.ObjectID, lastRun time.Time, nextRun time.Time) error
	// ReleaseExpiredLeases drops every lease past its expiry, regardless
	// of owner. Used on dispatcher startup recovery.
	ReleaseExpiredLeases(ctx context.Context, now time.Time) error
}

type ScheduleRepositoryImpl struct {
	collection *mongo.Collection
}

func NewScheduleRepository(db *database.MongodbDB) ScheduleRepository {
	return &ScheduleRepositoryImpl{
		collection: db.DB.Collection("sync_schedules"),
	}
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, s *Schedule) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *ScheduleRepositoryImpl) Get(ctx context.Context, id string) (*Schedule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, oid)
}

func (r *ScheduleRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Schedule, error) {
	var s Schedule
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepositoryImpl) List(ctx context.Context) ([]Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var schedules []Schedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, updates bson.M) error {
	updates["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	return err
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *ScheduleRepositoryImpl) ListDue(ctx context.Context, now time.Time) ([]Schedule, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"enabled":     true,
		"next_run_at": bson.M{"$lte": now},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var schedules []Schedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) AcquireLease(ctx context.Context, id primitive.ObjectID, owner string, until time.Time, now time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id": id,
			"$or": []bson.M{
				{"lease_expires_at": bson.M{"$exists": false}},
				{"lease_expires_at": nil},
				{"lease_expires_at": bson.M{"$lt": now}},
			},
		},
		bson.M{"$set": bson.M{
			"lease_owner":      owner,
			"lease_expires_at": until,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ScheduleRepositoryImpl) ReleaseLease(ctx context.Context, id primitive.ObjectID, owner string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "lease_owner": owner},
		bson.M{"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""}},
	)
	return err
}

func (r *ScheduleRepositoryImpl) ForceReleaseLease(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""}},
	)
	return err
}

func (r *ScheduleRepositoryImpl) UpdateRunTimes(ctx context.Context, id primitive.ObjectID, lastRun time.Time, nextRun time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"last_run_at": lastRun,
			"next_run_at": nextRun,
			"updated_at":  time.Now(),
		}},
	)
	return err
}

func (r *ScheduleRepositoryImpl) ReleaseExpiredLeases(ctx context.Context, now time.Time) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"lease_expires_at": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""}},
	)
	return err
}
