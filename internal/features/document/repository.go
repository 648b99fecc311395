package document

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByIdentifier(ctx context.Context, identifier string) (*Document, error)
	Replace(ctx context.Context, d *Document) error
	Update(ctx context.Context, identifier string, updates bson.M) error
	// ListSyncEnabled returns documents flagged for selective sync,
	// optionally narrowed to one collection.
	ListSyncEnabled(ctx context.Context, collectionID *primitive.ObjectID) ([]Document, error)
	CountByCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error)
}

type DocumentRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDocumentRepository(db *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{
		collection: db.DB.Collection("documents"),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, d *Document) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.CreatedDt.IsZero() {
		d.CreatedDt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, d)
	return err
}

func (r *DocumentRepositoryImpl) GetByIdentifier(ctx context.Context, identifier string) (*Document, error) {
	var d Document
	err := r.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepositoryImpl) Replace(ctx context.Context, d *Document) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	return err
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, identifier string, updates bson.M) error {
	updates["last_updated_dt"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"identifier": identifier}, bson.M{"$set": updates})
	return err
}

func (r *DocumentRepositoryImpl) ListSyncEnabled(ctx context.Context, collectionID *primitive.ObjectID) ([]Document, error) {
	filter := bson.M{"sync_enabled": true}
	if collectionID != nil {
		filter["collection_id"] = *collectionID
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"identifier": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var documents []Document
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *DocumentRepositoryImpl) CountByCollection(ctx context.Context, collectionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"collection_id": collectionID})
}
