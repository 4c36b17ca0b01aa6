// Package manager wraps a [domain.Repository] with feature gating, resource
// metadata stamping and an ordered change feed.
package manager

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

// Manager is the application-facing entry point for one stored entity type.
// Every operation is gated on the repository's capabilities and the
// optional allow-list, mutations stamp the resource metadata and feed the
// active watches.
type Manager struct {
	repo       domain.Repository
	enables    map[domain.Feature]struct{}
	timeGetter domain.TimeGetter
	logger     *zap.Logger
	queueLimit int

	mu        sync.Mutex
	timestamp float64
	watchers  map[string]*watcher
}

// NewManager creates a manager over the given repository.
func NewManager(repo domain.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:       repo,
		timeGetter: timegetter.NewTimeGetter(),
		logger:     zap.NewNop(),
		watchers:   map[string]*watcher{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema returns the schema of the managed entity type.
func (m *Manager) Schema() *model.Schema {
	return m.repo.Schema()
}

// Features returns the features that are both implemented by the repository
// and enabled on this manager.
func (m *Manager) Features() []domain.Feature {
	caps := m.repo.Capabilities()
	var enabled []domain.Feature
	for _, f := range domain.AllFeatures {
		if caps.Support(f) && m.enabled(f) {
			enabled = append(enabled, f)
		}
	}
	return enabled
}

// Timestamp returns the high-water change timestamp observed so far.
func (m *Manager) Timestamp() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timestamp
}

func (m *Manager) enabled(f domain.Feature) bool {
	if len(m.enables) == 0 {
		return true
	}
	_, ok := m.enables[f]
	return ok
}

// gate rejects operations outside the repository capabilities or the
// allow-list.
func (m *Manager) gate(f domain.Feature) error {
	if !m.repo.Capabilities().Support(f) {
		return domain.ErrFeatureNotSupported{Feature: f}
	}
	if !m.enabled(f) {
		return domain.ErrFeatureNotEnabled{Feature: f}
	}
	return nil
}

// now returns the timestamp form of the wall clock and the instant itself.
func (m *Manager) now() (float64, time.Time) {
	t := m.timeGetter.GetTime()
	return model.Timestamp(t), t
}

// advance raises the high-water timestamp.
func (m *Manager) advance(ts float64) {
	m.mu.Lock()
	if ts > m.timestamp {
		m.timestamp = ts
	}
	m.mu.Unlock()
}

// ExistByID reports whether the entity exists.
func (m *Manager) ExistByID(ctx context.Context, id string) (bool, error) {
	if err := m.gate(domain.FeatureStoreExist); err != nil {
		return false, err
	}
	if id == "" {
		return false, domain.ErrInvalidParameter{Reason: "require id"}
	}
	return m.repo.ExistByID(ctx, id)
}

// ExistsByID returns the subset of ids that exist.
func (m *Manager) ExistsByID(ctx context.Context, ids []string) ([]string, error) {
	if err := m.gate(domain.FeatureStoreExists); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require ids"}
	}
	return m.repo.ExistsByID(ctx, ids)
}

// ExistsByQuery returns the ids of entities satisfying the condition.
func (m *Manager) ExistsByQuery(ctx context.Context, cond condition.Condition) ([]string, error) {
	if err := m.gate(domain.FeatureQueryExists); err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require condition"}
	}
	return m.repo.ExistsByQuery(ctx, cond)
}

// GetByID returns the entity, or [domain.ErrModelNotFound].
func (m *Manager) GetByID(ctx context.Context, id string) (*model.Model, error) {
	if err := m.gate(domain.FeatureStoreGet); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidParameter{Reason: "require id"}
	}
	return m.repo.GetByID(ctx, id)
}

// GetsByID returns the entities with the given ids, skipping missing ones.
func (m *Manager) GetsByID(ctx context.Context, ids []string, sorts []domain.SortRule) ([]*model.Model, error) {
	if err := m.gate(domain.FeatureStoreGets); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require ids"}
	}
	return m.repo.GetsByID(ctx, ids, sorts)
}

// GetsByQuery returns the entities satisfying the condition.
func (m *Manager) GetsByQuery(ctx context.Context, cond condition.Condition, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	if err := m.gate(domain.FeatureQueryGets); err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require condition"}
	}
	return m.repo.GetsByQuery(ctx, cond, sorts, start, size)
}

// GetAll returns every stored entity.
func (m *Manager) GetAll(ctx context.Context, sorts []domain.SortRule, start, size int64) ([]*model.Model, error) {
	if err := m.gate(domain.FeatureStoreGetAll); err != nil {
		return nil, err
	}
	return m.repo.GetAll(ctx, sorts, start, size)
}

// Create stores a new entity, stamping its metadata first. Without
// overwrite an existing identity fails with [domain.ErrDuplicatedKey].
func (m *Manager) Create(ctx context.Context, mdl *model.Model, overwrite bool) (*model.Model, error) {
	if err := m.gate(domain.FeatureStoreCreate); err != nil {
		return nil, err
	}
	if mdl == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require model"}
	}
	ts, now := m.now()
	if err := model.StampResource(mdl, now); err != nil {
		return nil, err
	}
	created, err := m.repo.Create(ctx, mdl, overwrite)
	if err != nil {
		return nil, err
	}
	m.advance(ts)
	m.publish(&ChangeSet{Name: WatchCreated, Timestamp: ts, ModelID: created.ID(), After: created})
	return created, nil
}

// Replace swaps the stored entity with the same identity, stamping the
// metadata first. Watchers see a replaced change, or a created one when
// autoCreate inserted a fresh entity.
func (m *Manager) Replace(ctx context.Context, mdl *model.Model, autoCreate bool) (*domain.ReplaceResult, error) {
	if err := m.gate(domain.FeatureStoreReplace); err != nil {
		return nil, err
	}
	if mdl == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require model"}
	}
	ts, now := m.now()
	if err := model.StampResource(mdl, now); err != nil {
		return nil, err
	}
	res, err := m.repo.Replace(ctx, mdl, autoCreate)
	if err != nil {
		return nil, err
	}
	m.advance(ts)
	if res.Before != nil {
		m.publish(&ChangeSet{Name: WatchReplaced, Timestamp: ts, ModelID: mdl.ID(), Before: res.Before, After: res.After})
	} else {
		m.publish(&ChangeSet{Name: WatchCreated, Timestamp: ts, ModelID: mdl.ID(), After: res.After})
	}
	return res, nil
}

// UpdateByID applies the actions to one entity. The logical timestamp of
// the metadata is bumped alongside.
func (m *Manager) UpdateByID(ctx context.Context, id string, actions []update.Action) (*domain.UpdateResult, error) {
	if err := m.gate(domain.FeatureStoreUpdate); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidParameter{Reason: "require id"}
	}
	if len(actions) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require actions"}
	}
	ts, _ := m.now()
	res, err := m.repo.UpdateByID(ctx, id, stampActions(actions, ts))
	if err != nil {
		return nil, err
	}
	m.advance(ts)
	m.publish(&ChangeSet{Name: WatchUpdated, Timestamp: ts, ModelID: id, Before: res.Before, After: res.After})
	return res, nil
}

// UpdatesByID applies the actions to every entity in ids. In fast mode the
// models are not captured, so watchers receive per-id changes without
// snapshots.
func (m *Manager) UpdatesByID(ctx context.Context, ids []string, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	if err := m.gate(domain.FeatureStoreUpdates); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require ids"}
	}
	if len(actions) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require actions"}
	}
	ts, _ := m.now()
	res, err := m.repo.UpdatesByID(ctx, ids, stampActions(actions, ts), configs)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return res, nil
	}
	m.advance(ts)
	if len(res.Updates) > 0 {
		for _, u := range res.Updates {
			m.publish(&ChangeSet{Name: WatchUpdated, Timestamp: ts, ModelID: updatedID(u), Before: u.Before, After: u.After})
		}
	} else {
		for _, id := range ids {
			m.publish(&ChangeSet{Name: WatchUpdated, Timestamp: ts, ModelID: id})
		}
	}
	return res, nil
}

// UpdatesByQuery applies the actions to every entity satisfying the
// condition. In fast mode the affected identities are unknown, so watchers
// receive a reset.
func (m *Manager) UpdatesByQuery(ctx context.Context, cond condition.Condition, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	if err := m.gate(domain.FeatureQueryUpdates); err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require condition"}
	}
	if len(actions) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require actions"}
	}
	ts, _ := m.now()
	res, err := m.repo.UpdatesByQuery(ctx, cond, stampActions(actions, ts), configs)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return res, nil
	}
	m.advance(ts)
	if len(res.Updates) > 0 {
		for _, u := range res.Updates {
			m.publish(&ChangeSet{Name: WatchUpdated, Timestamp: ts, ModelID: updatedID(u), Before: u.Before, After: u.After})
		}
	} else {
		m.publish(&ChangeSet{Name: WatchReset, Timestamp: ts})
	}
	return res, nil
}

// DeleteByID removes one entity.
func (m *Manager) DeleteByID(ctx context.Context, id string, configs *domain.Configs) (*model.Model, error) {
	if err := m.gate(domain.FeatureStoreDelete); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidParameter{Reason: "require id"}
	}
	ts, _ := m.now()
	deleted, err := m.repo.DeleteByID(ctx, id, configs)
	if err != nil {
		return nil, err
	}
	m.advance(ts)
	m.publish(&ChangeSet{Name: WatchDeleted, Timestamp: ts, ModelID: id, Before: deleted})
	return deleted, nil
}

// DeletesByID removes every entity in ids.
func (m *Manager) DeletesByID(ctx context.Context, ids []string, configs *domain.Configs) (*domain.DeletesResult, error) {
	if err := m.gate(domain.FeatureStoreDeletes); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrInvalidParameter{Reason: "require ids"}
	}
	ts, _ := m.now()
	res, err := m.repo.DeletesByID(ctx, ids, configs)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return res, nil
	}
	m.advance(ts)
	if len(res.Models) > 0 {
		for _, d := range res.Models {
			m.publish(&ChangeSet{Name: WatchDeleted, Timestamp: ts, ModelID: d.ID(), Before: d})
		}
	} else {
		// Fast mode removes at most the given ids, some may not have
		// existed.
		for _, id := range ids {
			m.publish(&ChangeSet{Name: WatchDeleted, Timestamp: ts, ModelID: id})
		}
	}
	return res, nil
}

// DeletesByQuery removes every entity satisfying the condition. In fast
// mode the affected identities are unknown, so watchers receive a reset.
func (m *Manager) DeletesByQuery(ctx context.Context, cond condition.Condition, configs *domain.Configs) (*domain.DeletesResult, error) {
	if err := m.gate(domain.FeatureQueryDeletes); err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, domain.ErrInvalidParameter{Reason: "require condition"}
	}
	ts, _ := m.now()
	res, err := m.repo.DeletesByQuery(ctx, cond, configs)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return res, nil
	}
	m.advance(ts)
	if len(res.Models) > 0 {
		for _, d := range res.Models {
			m.publish(&ChangeSet{Name: WatchDeleted, Timestamp: ts, ModelID: d.ID(), Before: d})
		}
	} else {
		m.publish(&ChangeSet{Name: WatchReset, Timestamp: ts})
	}
	return res, nil
}

// CountAll counts every stored entity.
func (m *Manager) CountAll(ctx context.Context) (int64, error) {
	if err := m.gate(domain.FeatureStoreCountAll); err != nil {
		return 0, err
	}
	return m.repo.CountAll(ctx)
}

// CountByID counts how many of the given ids exist.
func (m *Manager) CountByID(ctx context.Context, ids []string) (int64, error) {
	if err := m.gate(domain.FeatureStoreCount); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, domain.ErrInvalidParameter{Reason: "require ids"}
	}
	return m.repo.CountByID(ctx, ids)
}

// CountByQuery counts the entities satisfying the condition.
func (m *Manager) CountByQuery(ctx context.Context, cond condition.Condition) (int64, error) {
	if err := m.gate(domain.FeatureQueryCount); err != nil {
		return 0, err
	}
	if cond == nil {
		return 0, domain.ErrInvalidParameter{Reason: "require condition"}
	}
	return m.repo.CountByQuery(ctx, cond)
}

// stampActions appends the metadata timestamp bump to the caller's actions.
func stampActions(actions []update.Action, ts float64) []update.Action {
	stamped := make([]update.Action, 0, len(actions)+1)
	stamped = append(stamped, actions...)
	return append(stamped, update.Set("metadata.timestamp", ts))
}

func updatedID(u domain.UpdateResult) string {
	if u.After != nil {
		return u.After.ID()
	}
	if u.Before != nil {
		return u.Before.ID()
	}
	return ""
}
