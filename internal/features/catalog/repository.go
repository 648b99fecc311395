package catalog

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkspaceRepository interface {
	Upsert(ctx context.Context, w *Workspace) error
	GetByIdentifier(ctx context.Context, identifier string) (*Workspace, error)
	List(ctx context.Context) ([]Workspace, error)
}

type CollectionRepository interface {
	Upsert(ctx context.Context, c *Collection) error
	GetByIdentifier(ctx context.Context, identifier string) (*Collection, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Collection, error)
	List(ctx context.Context) ([]Collection, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Collection, error)
}

type WorkspaceRepositoryImpl struct {
	collection *mongo.Collection
}

func NewWorkspaceRepository(db *database.MongodbDB) WorkspaceRepository {
	return &WorkspaceRepositoryImpl{
		collection: db.DB.Collection("workspaces"),
	}
}

func (r *WorkspaceRepositoryImpl) Upsert(ctx context.Context, w *Workspace) error {
	w.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":                    w.Name,
		"organization_identifier": w.OrganizationIdentifier,
		"raw":                     w.Raw,
		"updated_at":              w.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	return r.collection.FindOneAndUpdate(ctx, bson.M{"identifier": w.Identifier}, update, opts).Decode(w)
}

func (r *WorkspaceRepositoryImpl) GetByIdentifier(ctx context.Context, identifier string) (*Workspace, error) {
	var w Workspace
	err := r.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkspaceRepositoryImpl) List(ctx context.Context) ([]Workspace, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workspaces []Workspace
	if err := cursor.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

type CollectionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewCollectionRepository(db *database.MongodbDB) CollectionRepository {
	return &CollectionRepositoryImpl{
		collection: db.DB.Collection("collections"),
	}
}

func (r *CollectionRepositoryImpl) Upsert(ctx context.Context, c *Collection) error {
	c.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":                 c.Name,
		"workspace_id":         c.WorkspaceID,
		"workspace_identifier": c.WorkspaceIdentifier,
		"raw":                  c.Raw,
		"updated_at":           c.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	return r.collection.FindOneAndUpdate(ctx, bson.M{"identifier": c.Identifier}, update, opts).Decode(c)
}

func (r *CollectionRepositoryImpl) GetByIdentifier(ctx context.Context, identifier string) (*Collection, error) {
	var c Collection
	err := r.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Collection, error) {
	var c Collection
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepositoryImpl) List(ctx context.Context) ([]Collection, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var collections []Collection
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *CollectionRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Collection, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var collections []Collection
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}
