package run

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RunRepository interface {
	Create(ctx context.Context, r *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	MarkInProgress(ctx context.Context, id primitive.ObjectID) error
	UpdateCounters(ctx context.Context, id primitive.ObjectID, c Counters) error
	// Finish performs the terminal transition. It only matches runs still
	// in pending/in_progress, so completed_at and success are set exactly
	// once even if two paths race to finish the same run. The bool reports
	// whether this call performed the transition.
	Finish(ctx context.Context, id primitive.ObjectID, success bool, errorMessage string) (bool, error)
	ListBySchedule(ctx context.Context, scheduleID primitive.ObjectID, limit int64) ([]Run, error)
	ListRecent(ctx context.Context, limit int64) ([]Run, error)
	HasActiveForSchedule(ctx context.Context, scheduleID primitive.ObjectID) (bool, error)
	LatestForCollection(ctx context.Context, collectionID primitive.ObjectID) (*Run, error)
	ListUnfinished(ctx context.Context) ([]Run, error)
}

type LogRepository interface {
	Append(ctx context.Context, entry *LogEntry) error
	// List returns a run's entries in insertion order. Level and document
	// filters are exact-match; empty means unfiltered.
	List(ctx context.Context, runID primitive.ObjectID, level LogLevel, document string) ([]LogEntry, error)
}

type RunRepositoryImpl struct {
	collection *mongo.Collection
}

func NewRunRepository(db *database.MongodbDB) RunRepository {
	return &RunRepositoryImpl{
		collection: db.DB.Collection("sync_runs"),
	}
}

func (r *RunRepositoryImpl) Create(ctx context.Context, run *Run) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusPending
	}

	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *RunRepositoryImpl) Get(ctx context.Context, id string) (*Run, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var run Run
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepositoryImpl) MarkInProgress(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusInProgress}},
	)
	return err
}

func (r *RunRepositoryImpl) UpdateCounters(ctx context.Context, id primitive.ObjectID, c Counters) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []Status{StatusPending, StatusInProgress}}},
		bson.M{"$set": bson.M{
			"total_documents":   c.TotalDocuments,
			"documents_synced":  c.DocumentsSynced,
			"documents_created": c.DocumentsCreated,
			"documents_updated": c.DocumentsUpdated,
			"documents_failed":  c.DocumentsFailed,
			"progress_percent":  c.ProgressPercent,
		}},
	)
	return err
}

func (r *RunRepositoryImpl) Finish(ctx context.Context, id primitive.ObjectID, success bool, errorMessage string) (bool, error) {
	status := StatusCompleted
	if !success {
		status = StatusFailed
	}

	update := bson.M{
		"status":       status,
		"success":      success,
		"completed_at": time.Now(),
	}
	if success {
		update["progress_percent"] = 100
	}
	if errorMessage != "" {
		update["error_message"] = errorMessage
	}

	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []Status{StatusPending, StatusInProgress}}},
		bson.M{"$set": update},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *RunRepositoryImpl) ListBySchedule(ctx context.Context, scheduleID primitive.ObjectID, limit int64) ([]Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"schedule_id": scheduleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []Run
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RunRepositoryImpl) ListRecent(ctx context.Context, limit int64) ([]Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []Run
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RunRepositoryImpl) HasActiveForSchedule(ctx context.Context, scheduleID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"schedule_id": scheduleID,
		"status":      bson.M{"$in": []Status{StatusPending, StatusInProgress}},
	})
	return count > 0, err
}

func (r *RunRepositoryImpl) LatestForCollection(ctx context.Context, collectionID primitive.ObjectID) (*Run, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	filter := bson.M{
		"collection_id": collectionID,
		"sync_type":     bson.M{"$in": []SyncType{SyncTypeFullCollection, SyncTypeSelective}},
	}

	var run Run
	err := r.collection.FindOne(ctx, filter, opts).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepositoryImpl) ListUnfinished(ctx context.Context) ([]Run, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status": bson.M{"$in": []Status{StatusPending, StatusInProgress}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []Run
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

type LogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewLogRepository(db *database.MongodbDB) LogRepository {
	return &LogRepositoryImpl{
		collection: db.DB.Collection("sync_run_logs"),
	}
}

func (r *LogRepositoryImpl) Append(ctx context.Context, entry *LogEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *LogRepositoryImpl) List(ctx context.Context, runID primitive.ObjectID, level LogLevel, document string) ([]LogEntry, error) {
	filter := bson.M{"run_id": runID}
	if level != "" {
		filter["level"] = level
	}
	if document != "" {
		filter["document_identifier"] = bson.M{"$regex": document, "$options": "i"}
	}

	// _id order is insertion order for a single writer; sorting on it
	// keeps reads stable even when timestamps collide.
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []LogEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
