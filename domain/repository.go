// Package domain declares the storage-facing contracts of the framework:
// the repository interface, its capability vocabulary, result shapes and
// the error types shared by every adapter.
package domain

import (
	"context"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

// SortRule orders query results by one key path.
type SortRule struct {
	Key       string
	Ascending bool
}

// Ascending builds an ascending sort rule.
func Ascending(key string) SortRule {
	return SortRule{Key: key, Ascending: true}
}

// Descending builds a descending sort rule.
func Descending(key string) SortRule {
	return SortRule{Key: key}
}

// Configs tunes per-call repository behavior. The fast flags trade the
// before and after snapshots of bulk mutations for a single physical
// operation that only reports a count.
type Configs struct {
	FastUpdate bool
	FastRemove bool
}

// ReplaceResult carries the model states around a replace.
type ReplaceResult struct {
	Before *model.Model
	After  *model.Model
}

// UpdateResult carries the model states around a single-document update.
type UpdateResult struct {
	Before *model.Model
	After  *model.Model
}

// UpdatesResult reports a bulk update. Updates is empty in fast mode, Count
// is always the number of updated models.
type UpdatesResult struct {
	Updates []UpdateResult
	Count   int64
}

// DeletesResult reports a bulk delete. Models is empty in fast mode, Count
// is always the number of deleted models.
type DeletesResult struct {
	Models []*model.Model
	Count  int64
}

// Repository is the storage contract every adapter implements. Methods
// covering features outside the adapter's capability set return
// [ErrFeatureNotSupported].
type Repository interface {
	// Schema returns the schema of the stored entity type.
	Schema() *model.Schema
	// Capabilities returns the feature set the adapter implements.
	Capabilities() Capabilities

	// ExistByID reports whether the entity exists.
	ExistByID(ctx context.Context, id string) (bool, error)
	// ExistsByID returns the subset of ids that exist.
	ExistsByID(ctx context.Context, ids []string) ([]string, error)
	// ExistsByQuery returns the ids of entities satisfying the condition.
	ExistsByQuery(ctx context.Context, cond condition.Condition) ([]string, error)

	// GetByID returns the entity, or [ErrModelNotFound].
	GetByID(ctx context.Context, id string) (*model.Model, error)
	// GetsByID returns the entities with the given ids, skipping missing
	// ones.
	GetsByID(ctx context.Context, ids []string, sorts []SortRule) ([]*model.Model, error)
	// GetsByQuery returns the entities satisfying the condition. A zero
	// size means no limit.
	GetsByQuery(ctx context.Context, cond condition.Condition, sorts []SortRule, start, size int64) ([]*model.Model, error)
	// GetAll returns every stored entity. A zero size means no limit.
	GetAll(ctx context.Context, sorts []SortRule, start, size int64) ([]*model.Model, error)

	// Create stores a new entity. Without overwrite an existing identity
	// fails with [ErrDuplicatedKey]; with overwrite it behaves as an
	// idempotent upsert.
	Create(ctx context.Context, m *model.Model, overwrite bool) (*model.Model, error)
	// Replace swaps the stored entity with the same identity. Without
	// autoCreate a missing identity fails with [ErrModelNotFound].
	Replace(ctx context.Context, m *model.Model, autoCreate bool) (*ReplaceResult, error)

	// UpdateByID applies the actions to one entity, returning the before
	// and after states, or [ErrModelNotFound].
	UpdateByID(ctx context.Context, id string, actions []update.Action) (*UpdateResult, error)
	// UpdatesByID applies the actions to every entity in ids.
	UpdatesByID(ctx context.Context, ids []string, actions []update.Action, configs *Configs) (*UpdatesResult, error)
	// UpdatesByQuery applies the actions to every entity satisfying the
	// condition.
	UpdatesByQuery(ctx context.Context, cond condition.Condition, actions []update.Action, configs *Configs) (*UpdatesResult, error)

	// DeleteByID removes one entity, returning its last state, or
	// [ErrModelNotFound].
	DeleteByID(ctx context.Context, id string, configs *Configs) (*model.Model, error)
	// DeletesByID removes every entity in ids.
	DeletesByID(ctx context.Context, ids []string, configs *Configs) (*DeletesResult, error)
	// DeletesByQuery removes every entity satisfying the condition.
	DeletesByQuery(ctx context.Context, cond condition.Condition, configs *Configs) (*DeletesResult, error)

	// CountAll counts every stored entity.
	CountAll(ctx context.Context) (int64, error)
	// CountByID counts how many of the given ids exist.
	CountByID(ctx context.Context, ids []string) (int64, error)
	// CountByQuery counts the entities satisfying the condition.
	CountByQuery(ctx context.Context, cond condition.Condition) (int64, error)
}
