// Package memstore contains an in-memory [domain.Repository]
// implementation. It is the reference store for tests and for embedding
// without an external database: conditions run through the in-memory
// evaluator and update actions are applied to the dumped document form.
package memstore

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
)

// generatedIDLength is the length of identifiers minted for models created
// without one.
const generatedIDLength = 16

// MemStore implements [domain.Repository] over a mutex-guarded map with
// preserved insertion order.
type MemStore struct {
	schema *model.Schema
	sorts  []domain.SortRule
	logger *zap.Logger
	idgen  domain.IDGenerator

	mu    sync.RWMutex
	docs  map[string]*model.Model
	order []string
}

// NewMemStore returns an empty in-memory repository for the schema.
func NewMemStore(schema *model.Schema, opts ...Option) *MemStore {
	s := &MemStore{
		schema: schema,
		logger: zap.NewNop(),
		idgen:  idgenerator.NewIDGenerator(),
		docs:   make(map[string]*model.Model),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema implements [domain.Repository].
func (s *MemStore) Schema() *model.Schema { return s.schema }

// Capabilities implements [domain.Repository].
func (s *MemStore) Capabilities() domain.Capabilities {
	return domain.FullCapabilities()
}

// ExistByID implements [domain.Repository].
func (s *MemStore) ExistByID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok, nil
}

// ExistsByID implements [domain.Repository].
func (s *MemStore) ExistsByID(_ context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	for _, id := range ids {
		if _, ok := s.docs[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// ExistsByQuery implements [domain.Repository].
func (s *MemStore) ExistsByQuery(_ context.Context, cond condition.Condition) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	for _, id := range s.order {
		if matches(cond, s.docs[id]) {
			found = append(found, id)
		}
	}
	return found, nil
}

// GetByID implements [domain.Repository].
func (s *MemStore) GetByID(_ context.Context, id string) (*model.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	return m.Clone(), nil
}

// GetsByID implements [domain.Repository].
func (s *MemStore) GetsByID(_ context.Context, ids []string, sorts []domain.SortRule) ([]*model.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var models []*model.Model
	for _, id := range ids {
		if m, ok := s.docs[id]; ok {
			models = append(models, m.Clone())
		}
	}
	s.sortModels(models, sorts)
	return models, nil
}

// GetsByQuery implements [domain.Repository].
func (s *MemStore) GetsByQuery(_ context.Context, cond condition.Condition, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var models []*model.Model
	for _, id := range s.order {
		if matches(cond, s.docs[id]) {
			models = append(models, s.docs[id].Clone())
		}
	}
	s.sortModels(models, sorts)
	return window(models, start, size), nil
}

// GetAll implements [domain.Repository].
func (s *MemStore) GetAll(ctx context.Context, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	return s.GetsByQuery(ctx, nil, sorts, start, size)
}

// Create implements [domain.Repository].
func (s *MemStore) Create(_ context.Context, m *model.Model, overwrite bool) (*model.Model, error) {
	if err := s.ensureID(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := m.ID()
	if _, exists := s.docs[id]; exists && !overwrite {
		return nil, domain.ErrDuplicatedKey{Key: id}
	}
	if err := s.checkUnique(m); err != nil {
		return nil, err
	}
	s.put(id, m.Clone())
	return m, nil
}

// ensureID mints an identifier for models created without one.
func (s *MemStore) ensureID(m *model.Model) error {
	if _, set := m.Lookup("_id"); set {
		return nil
	}
	id, err := s.idgen.GenerateID(generatedIDLength)
	if err != nil {
		return err
	}
	return m.Set("_id", id)
}

// Replace implements [domain.Repository].
func (s *MemStore) Replace(_ context.Context, m *model.Model, autoCreate bool) (*domain.ReplaceResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := m.ID()
	before, exists := s.docs[id]
	if !exists && !autoCreate {
		return nil, domain.ErrModelNotFound
	}
	if err := s.checkUnique(m); err != nil {
		return nil, err
	}
	s.put(id, m.Clone())
	result := &domain.ReplaceResult{After: m}
	if exists {
		result.Before = before
	}
	return result, nil
}

// CountAll implements [domain.Repository].
func (s *MemStore) CountAll(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// CountByID implements [domain.Repository].
func (s *MemStore) CountByID(ctx context.Context, ids []string) (int64, error) {
	found, err := s.ExistsByID(ctx, ids)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// CountByQuery implements [domain.Repository].
func (s *MemStore) CountByQuery(ctx context.Context, cond condition.Condition) (int64, error) {
	found, err := s.ExistsByQuery(ctx, cond)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// put stores a model under id, keeping insertion order stable for existing
// ids.
func (s *MemStore) put(id string, m *model.Model) {
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = m
	s.logger.Debug("stored model",
		zap.String("namespace", s.schema.Namespace()),
		zap.String("id", id))
}

// remove drops a model and its order slot.
func (s *MemStore) remove(id string) {
	delete(s.docs, id)
	if n := slices.Index(s.order, id); n >= 0 {
		s.order = slices.Delete(s.order, n, n+1)
	}
	s.logger.Debug("removed model",
		zap.String("namespace", s.schema.Namespace()),
		zap.String("id", id))
}

// checkUnique enforces the schema's unique indexes against every other
// stored model.
func (s *MemStore) checkUnique(m *model.Model) error {
	for _, idx := range s.schema.Meta().Indices {
		if !idx.Unique {
			continue
		}
		for _, id := range s.order {
			other := s.docs[id]
			if other.ID() == m.ID() {
				continue
			}
			if indexKeysEqual(idx.Keys, m, other) {
				return domain.ErrDuplicatedKey{Key: idx.Keys[0]}
			}
		}
	}
	return nil
}

func indexKeysEqual(keys []string, a, b *model.Model) bool {
	for _, key := range keys {
		av, aok := firstValue(a, key)
		bv, bok := firstValue(b, key)
		if !aok || !bok {
			// Sparse semantics, absent keys never collide
			return false
		}
		if !condition.Equal(av, bv) {
			return false
		}
	}
	return true
}

func firstValue(m *model.Model, key string) (any, bool) {
	for v := range m.Query(key) {
		return v, true
	}
	return nil, false
}

func matches(cond condition.Condition, m *model.Model) bool {
	return cond == nil || cond.Check(m)
}

func (s *MemStore) sortModels(models []*model.Model, sorts []domain.SortRule) {
	if len(sorts) == 0 {
		sorts = s.sorts
	}
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(models, func(a, b *model.Model) int {
		for _, rule := range sorts {
			av, _ := firstValue(a, rule.Key)
			bv, _ := firstValue(b, rule.Key)
			comp, err := condition.Compare(av, bv)
			if err != nil || comp == 0 {
				continue
			}
			if !rule.Ascending {
				return -comp
			}
			return comp
		}
		return 0
	})
}

func window(models []*model.Model, start, size int64) []*model.Model {
	if start < 0 {
		start = 0
	}
	if start >= int64(len(models)) {
		return nil
	}
	models = models[start:]
	if size > 0 && size < int64(len(models)) {
		models = models[:size]
	}
	return models
}
