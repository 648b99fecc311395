package settings

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key string, value string, secret bool) error
}

type SettingsRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *database.MongodbDB) SettingsRepository {
	return &SettingsRepositoryImpl{
		collection: db.DB.Collection("system_settings"),
	}
}

func (r *SettingsRepositoryImpl) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepositoryImpl) Set(ctx context.Context, key string, value string, secret bool) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{
			"value":      value,
			"secret":     secret,
			"updated_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
