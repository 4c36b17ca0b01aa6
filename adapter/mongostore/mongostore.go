// Package mongostore contains the MongoDB-backed [domain.Repository]
// implementation.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

// generatedIDLength is the length of identifiers minted for models created
// without one.
const generatedIDLength = 16

// MongoStore implements [domain.Repository] on a MongoDB collection.
type MongoStore struct {
	schema      *model.Schema
	collection  *mongo.Collection
	sorts       []domain.SortRule
	strictMerge bool
	logger      *zap.Logger
	idgen       domain.IDGenerator
}

// NewMongoStore returns a repository over the collection named by the
// schema's namespace, creating the schema's secondary and expiry indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database, schema *model.Schema, opts ...Option) (*MongoStore, error) {
	if schema.Namespace() == "" {
		return nil, domain.ErrInvalidParameter{Reason: "schema namespace is required"}
	}
	s := &MongoStore{
		schema:     schema,
		collection: db.Collection(schema.Namespace()),
		logger:     zap.NewNop(),
		idgen:      idgenerator.NewIDGenerator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.createIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	meta := s.schema.Meta()
	var indexes []mongo.IndexModel
	for _, idx := range meta.Indices {
		keys := make(bson.D, 0, len(idx.Keys))
		for _, key := range idx.Keys {
			keys = append(keys, bson.E{Key: key, Value: 1})
		}
		opt := options.Index().SetUnique(idx.Unique).SetSparse(idx.Sparse)
		indexes = append(indexes, mongo.IndexModel{Keys: keys, Options: opt})
	}
	for _, key := range meta.Expires {
		opt := options.Index().SetExpireAfterSeconds(0)
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}, Options: opt})
	}
	if len(indexes) == 0 {
		return nil
	}
	names, err := s.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return err
	}
	s.logger.Debug("created indexes",
		zap.String("namespace", s.schema.Namespace()),
		zap.Strings("indexes", names))
	return nil
}

// Schema implements [domain.Repository].
func (s *MongoStore) Schema() *model.Schema { return s.schema }

// Capabilities implements [domain.Repository].
func (s *MongoStore) Capabilities() domain.Capabilities {
	return domain.FullCapabilities()
}

// ExistByID implements [domain.Repository].
func (s *MongoStore) ExistByID(ctx context.Context, id string) (bool, error) {
	opt := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := s.collection.FindOne(ctx, bson.M{"_id": id}, opt).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsByID implements [domain.Repository].
func (s *MongoStore) ExistsByID(ctx context.Context, ids []string) ([]string, error) {
	return s.findIDs(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ExistsByQuery implements [domain.Repository].
func (s *MongoStore) ExistsByQuery(ctx context.Context, cond condition.Condition) ([]string, error) {
	query, err := Translate(cond)
	if err != nil {
		return nil, err
	}
	return s.findIDs(ctx, query)
}

func (s *MongoStore) findIDs(ctx context.Context, query bson.M) ([]string, error) {
	opt := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection.Find(ctx, query, opt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// GetByID implements [domain.Repository].
func (s *MongoStore) GetByID(ctx context.Context, id string) (*model.Model, error) {
	var doc bson.M
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.loadModel(doc)
}

// GetsByID implements [domain.Repository].
func (s *MongoStore) GetsByID(ctx context.Context, ids []string, sorts []domain.SortRule) ([]*model.Model, error) {
	opt := options.Find()
	if sort := TranslateSorts(s.sortsOrDefault(sorts)); len(sort) > 0 {
		opt.SetSort(sort)
	}
	return s.findModels(ctx, bson.M{"_id": bson.M{"$in": ids}}, opt)
}

// GetsByQuery implements [domain.Repository].
func (s *MongoStore) GetsByQuery(ctx context.Context, cond condition.Condition, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	query, err := Translate(cond)
	if err != nil {
		return nil, err
	}
	return s.findModels(ctx, query, s.findOptions(sorts, start, size))
}

// GetAll implements [domain.Repository].
func (s *MongoStore) GetAll(ctx context.Context, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	return s.findModels(ctx, bson.M{}, s.findOptions(sorts, start, size))
}

func (s *MongoStore) findOptions(sorts []domain.SortRule, start, size int64) *options.FindOptions {
	opt := options.Find()
	if sort := TranslateSorts(s.sortsOrDefault(sorts)); len(sort) > 0 {
		opt.SetSort(sort)
	}
	if start > 0 {
		opt.SetSkip(start)
	}
	if size > 0 {
		opt.SetLimit(size)
	}
	return opt
}

func (s *MongoStore) sortsOrDefault(sorts []domain.SortRule) []domain.SortRule {
	if len(sorts) > 0 {
		return sorts
	}
	return s.sorts
}

func (s *MongoStore) findModels(ctx context.Context, query bson.M, opt *options.FindOptions) ([]*model.Model, error) {
	cursor, err := s.collection.Find(ctx, query, opt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []*model.Model
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		m, err := s.loadModel(doc)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, cursor.Err()
}

// Create implements [domain.Repository].
func (s *MongoStore) Create(ctx context.Context, m *model.Model, overwrite bool) (*model.Model, error) {
	if _, set := m.Lookup("_id"); !set {
		id, err := s.idgen.GenerateID(generatedIDLength)
		if err != nil {
			return nil, err
		}
		if err := m.Set("_id", id); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	doc, err := m.Dump(&model.DumpContext{})
	if err != nil {
		return nil, err
	}
	if overwrite {
		opt := options.Replace().SetUpsert(true)
		_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": m.ID()}, doc, opt)
		return m, err
	}
	_, err = s.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrDuplicatedKey{Key: m.ID()}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Replace implements [domain.Repository].
func (s *MongoStore) Replace(ctx context.Context, m *model.Model, autoCreate bool) (*domain.ReplaceResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	doc, err := m.Dump(&model.DumpContext{})
	if err != nil {
		return nil, err
	}
	opt := options.FindOneAndReplace().SetUpsert(autoCreate)
	var before bson.M
	err = s.collection.FindOneAndReplace(ctx, bson.M{"_id": m.ID()}, doc, opt).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if !autoCreate {
			return nil, domain.ErrModelNotFound
		}
		// Upserted, no previous state
		return &domain.ReplaceResult{After: m}, nil
	}
	if err != nil {
		return nil, err
	}
	beforeModel, err := s.loadModel(before)
	if err != nil {
		return nil, err
	}
	return &domain.ReplaceResult{Before: beforeModel, After: m}, nil
}

// UpdateByID implements [domain.Repository].
func (s *MongoStore) UpdateByID(ctx context.Context, id string, actions []update.Action) (*domain.UpdateResult, error) {
	updates, err := TranslateUpdates(actions, s.strictMerge)
	if err != nil {
		return nil, err
	}
	return s.updateOne(ctx, bson.M{"_id": id}, updates)
}

// updateOne runs one find-and-update and fetches the resulting state. The
// mutation and the before-state capture happen in one physical operation.
func (s *MongoStore) updateOne(ctx context.Context, query, updates bson.M) (*domain.UpdateResult, error) {
	var before bson.M
	err := s.collection.FindOneAndUpdate(ctx, query, updates).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	beforeModel, err := s.loadModel(before)
	if err != nil {
		return nil, err
	}
	afterModel, err := s.GetByID(ctx, beforeModel.ID())
	if errors.Is(err, domain.ErrModelNotFound) {
		// Deleted between the update and the fetch
		afterModel = nil
	} else if err != nil {
		return nil, err
	}
	return &domain.UpdateResult{Before: beforeModel, After: afterModel}, nil
}

// UpdatesByID implements [domain.Repository].
func (s *MongoStore) UpdatesByID(ctx context.Context, ids []string, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	updates, err := TranslateUpdates(actions, s.strictMerge)
	if err != nil {
		return nil, err
	}
	if configs != nil && configs.FastUpdate {
		res, err := s.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, updates)
		if err != nil {
			return nil, err
		}
		return &domain.UpdatesResult{Count: res.ModifiedCount}, nil
	}
	result := &domain.UpdatesResult{}
	for _, id := range ids {
		one, err := s.updateOne(ctx, bson.M{"_id": id}, updates)
		if errors.Is(err, domain.ErrModelNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Updates = append(result.Updates, *one)
		result.Count++
	}
	return result, nil
}

// UpdatesByQuery implements [domain.Repository].
func (s *MongoStore) UpdatesByQuery(ctx context.Context, cond condition.Condition, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	updates, err := TranslateUpdates(actions, s.strictMerge)
	if err != nil {
		return nil, err
	}
	if configs != nil && configs.FastUpdate {
		query, err := Translate(cond)
		if err != nil {
			return nil, err
		}
		res, err := s.collection.UpdateMany(ctx, query, updates)
		if err != nil {
			return nil, err
		}
		return &domain.UpdatesResult{Count: res.ModifiedCount}, nil
	}

	// Single-document targeting loop. Each iteration excludes already
	// processed ids so a document is never mutated twice, and the
	// before-state capture is atomic with the mutation.
	result := &domain.UpdatesResult{}
	var seen []any
	for {
		scope := cond
		if len(seen) > 0 {
			scope = condition.And(
				cond,
				condition.Not(&condition.KeyValuesCondition{Key: "_id", Values: seen, Includes: true}),
			)
		}
		query, err := Translate(scope)
		if err != nil {
			return nil, err
		}
		one, err := s.updateOne(ctx, query, updates)
		if errors.Is(err, domain.ErrModelNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		result.Updates = append(result.Updates, *one)
		result.Count++
		seen = append(seen, one.Before.ID())
	}
	return result, nil
}

// DeleteByID implements [domain.Repository].
func (s *MongoStore) DeleteByID(ctx context.Context, id string, configs *domain.Configs) (*model.Model, error) {
	if configs != nil && configs.FastRemove {
		res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, domain.ErrModelNotFound
		}
		return nil, nil
	}
	var doc bson.M
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.loadModel(doc)
}

// DeletesByID implements [domain.Repository].
func (s *MongoStore) DeletesByID(ctx context.Context, ids []string, configs *domain.Configs) (*domain.DeletesResult, error) {
	if configs != nil && configs.FastRemove {
		res, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		return &domain.DeletesResult{Count: res.DeletedCount}, nil
	}
	result := &domain.DeletesResult{}
	for _, id := range ids {
		m, err := s.DeleteByID(ctx, id, nil)
		if errors.Is(err, domain.ErrModelNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Models = append(result.Models, m)
		result.Count++
	}
	return result, nil
}

// DeletesByQuery implements [domain.Repository].
func (s *MongoStore) DeletesByQuery(ctx context.Context, cond condition.Condition, configs *domain.Configs) (*domain.DeletesResult, error) {
	query, err := Translate(cond)
	if err != nil {
		return nil, err
	}
	if configs != nil && configs.FastRemove {
		res, err := s.collection.DeleteMany(ctx, query)
		if err != nil {
			return nil, err
		}
		return &domain.DeletesResult{Count: res.DeletedCount}, nil
	}
	result := &domain.DeletesResult{}
	for {
		var doc bson.M
		err := s.collection.FindOneAndDelete(ctx, query).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return nil, err
		}
		m, err := s.loadModel(doc)
		if err != nil {
			return nil, err
		}
		result.Models = append(result.Models, m)
		result.Count++
	}
	return result, nil
}

// CountAll implements [domain.Repository].
func (s *MongoStore) CountAll(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{})
}

// CountByID implements [domain.Repository].
func (s *MongoStore) CountByID(ctx context.Context, ids []string) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// CountByQuery implements [domain.Repository].
func (s *MongoStore) CountByQuery(ctx context.Context, cond condition.Condition) (int64, error) {
	query, err := Translate(cond)
	if err != nil {
		return 0, err
	}
	return s.collection.CountDocuments(ctx, query)
}

func (s *MongoStore) loadModel(doc bson.M) (*model.Model, error) {
	m, err := s.schema.Load(normalizeDoc(doc))
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
