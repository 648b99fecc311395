package plugin

import (
	"context"
	"time"

	"go-docbridge/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PluginRepository interface {
	Create(ctx context.Context, p *Plugin) error
	Get(ctx context.Context, id string) (*Plugin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Plugin, error)
	GetBySlug(ctx context.Context, slug string) (*Plugin, error)
	List(ctx context.Context) ([]Plugin, error)
	Update(ctx context.Context, id string, updates bson.M) error
	Delete(ctx context.Context, id string) error
}

type ComponentRepository interface {
	Create(ctx context.Context, c *PluginComponent) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*PluginComponent, error)
	GetBySlug(ctx context.Context, pluginID primitive.ObjectID, slug string) (*PluginComponent, error)
	List(ctx context.Context) ([]PluginComponent, error)
	ListByPlugin(ctx context.Context, pluginID primitive.ObjectID) ([]PluginComponent, error)
	DeleteByPlugin(ctx context.Context, pluginID primitive.ObjectID) error
}

type InstanceRepository interface {
	Create(ctx context.Context, i *PluginInstance) error
	Get(ctx context.Context, id string) (*PluginInstance, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*PluginInstance, error)
	List(ctx context.Context) ([]PluginInstance, error)
	// ListEnabledByType returns enabled instances of one component type
	// sorted by (priority, _id) so fan-out order is deterministic.
	ListEnabledByType(ctx context.Context, t ComponentType) ([]PluginInstance, error)
	Update(ctx context.Context, id string, updates bson.M) error
	Delete(ctx context.Context, id string) error
	DeleteByComponents(ctx context.Context, componentIDs []primitive.ObjectID) error
}

type SourceRepository interface {
	Create(ctx context.Context, s *PluginSource) error
	Get(ctx context.Context, id string) (*PluginSource, error)
	GetBySlug(ctx context.Context, slug string) (*PluginSource, error)
	List(ctx context.Context) ([]PluginSource, error)
	Update(ctx context.Context, id string, updates bson.M) error
	Delete(ctx context.Context, id string) error
}

type ExecutionLogRepository interface {
	Create(ctx context.Context, l *ExecutionLog) error
	Finish(ctx context.Context, id primitive.ObjectID, status ExecutionStatus, output map[string]interface{}, errorMessage string) error
	ListByInstance(ctx context.Context, instanceID primitive.ObjectID, limit int64) ([]ExecutionLog, error)
}

type PluginRepositoryImpl struct {
	collection *mongo.Collection
}

func NewPluginRepository(db *database.MongodbDB) PluginRepository {
	return &PluginRepositoryImpl{
		collection: db.DB.Collection("plugins"),
	}
}

func (r *PluginRepositoryImpl) Create(ctx context.Context, p *Plugin) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.InstalledAt.IsZero() {
		p.InstalledAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *PluginRepositoryImpl) Get(ctx context.Context, id string) (*Plugin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, oid)
}

func (r *PluginRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Plugin, error) {
	var p Plugin
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PluginRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*Plugin, error) {
	var p Plugin
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PluginRepositoryImpl) List(ctx context.Context) ([]Plugin, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plugins []Plugin
	if err := cursor.All(ctx, &plugins); err != nil {
		return nil, err
	}
	return plugins, nil
}

func (r *PluginRepositoryImpl) Update(ctx context.Context, id string, updates bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": updates})
	return err
}

func (r *PluginRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

type ComponentRepositoryImpl struct {
	collection *mongo.Collection
}

func NewComponentRepository(db *database.MongodbDB) ComponentRepository {
	return &ComponentRepositoryImpl{
		collection: db.DB.Collection("plugin_components"),
	}
}

func (r *ComponentRepositoryImpl) Create(ctx context.Context, c *PluginComponent) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *ComponentRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*PluginComponent, error) {
	var c PluginComponent
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComponentRepositoryImpl) GetBySlug(ctx context.Context, pluginID primitive.ObjectID, slug string) (*PluginComponent, error) {
	var c PluginComponent
	err := r.collection.FindOne(ctx, bson.M{"plugin_id": pluginID, "slug": slug}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComponentRepositoryImpl) List(ctx context.Context) ([]PluginComponent, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "component_type", Value: 1},
		{Key: "name", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var components []PluginComponent
	if err := cursor.All(ctx, &components); err != nil {
		return nil, err
	}
	return components, nil
}

func (r *ComponentRepositoryImpl) ListByPlugin(ctx context.Context, pluginID primitive.ObjectID) ([]PluginComponent, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"plugin_id": pluginID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var components []PluginComponent
	if err := cursor.All(ctx, &components); err != nil {
		return nil, err
	}
	return components, nil
}

func (r *ComponentRepositoryImpl) DeleteByPlugin(ctx context.Context, pluginID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"plugin_id": pluginID})
	return err
}

type InstanceRepositoryImpl struct {
	collection *mongo.Collection
}

func NewInstanceRepository(db *database.MongodbDB) InstanceRepository {
	return &InstanceRepositoryImpl{
		collection: db.DB.Collection("plugin_instances"),
	}
}

func (r *InstanceRepositoryImpl) Create(ctx context.Context, i *PluginInstance) error {
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, i)
	return err
}

func (r *InstanceRepositoryImpl) Get(ctx context.Context, id string) (*PluginInstance, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, oid)
}

func (r *InstanceRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*PluginInstance, error) {
	var i PluginInstance
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InstanceRepositoryImpl) List(ctx context.Context) ([]PluginInstance, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "priority", Value: 1},
		{Key: "name", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []PluginInstance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *InstanceRepositoryImpl) ListEnabledByType(ctx context.Context, t ComponentType) ([]PluginInstance, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"enabled": true, "component_type": t},
		options.Find().SetSort(bson.D{
			{Key: "priority", Value: 1},
			{Key: "_id", Value: 1},
		}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []PluginInstance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *InstanceRepositoryImpl) Update(ctx context.Context, id string, updates bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	updates["updated_at"] = time.Now()
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": updates})
	return err
}

func (r *InstanceRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *InstanceRepositoryImpl) DeleteByComponents(ctx context.Context, componentIDs []primitive.ObjectID) error {
	if len(componentIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"component_id": bson.M{"$in": componentIDs}})
	return err
}

type SourceRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSourceRepository(db *database.MongodbDB) SourceRepository {
	return &SourceRepositoryImpl{
		collection: db.DB.Collection("plugin_sources"),
	}
}

func (r *SourceRepositoryImpl) Create(ctx context.Context, s *PluginSource) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *SourceRepositoryImpl) Get(ctx context.Context, id string) (*PluginSource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var s PluginSource
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SourceRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*PluginSource, error) {
	var s PluginSource
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SourceRepositoryImpl) List(ctx context.Context) ([]PluginSource, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "source_type", Value: 1},
		{Key: "name", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sources []PluginSource
	if err := cursor.All(ctx, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *SourceRepositoryImpl) Update(ctx context.Context, id string, updates bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	updates["updated_at"] = time.Now()
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": updates})
	return err
}

func (r *SourceRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

type ExecutionLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewExecutionLogRepository(db *database.MongodbDB) ExecutionLogRepository {
	return &ExecutionLogRepositoryImpl{
		collection: db.DB.Collection("plugin_execution_logs"),
	}
}

func (r *ExecutionLogRepositoryImpl) Create(ctx context.Context, l *ExecutionLog) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	if l.Status == "" {
		l.Status = ExecutionStarted
	}
	_, err := r.collection.InsertOne(ctx, l)
	return err
}

func (r *ExecutionLogRepositoryImpl) Finish(ctx context.Context, id primitive.ObjectID, status ExecutionStatus, output map[string]interface{}, errorMessage string) error {
	now := time.Now()
	updates := bson.M{
		"status":       status,
		"completed_at": now,
	}
	if output != nil {
		updates["output_data"] = output
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	return err
}

func (r *ExecutionLogRepositoryImpl) ListByInstance(ctx context.Context, instanceID primitive.ObjectID, limit int64) ([]ExecutionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	cursor, err := r.collection.Find(ctx,
		bson.M{"instance_id": instanceID},
		options.Find().SetSort(bson.M{"started_at": -1}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []ExecutionLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
