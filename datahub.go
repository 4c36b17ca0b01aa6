// Package datahub provides a database-agnostic data access framework built
// around declarative typed data models.
//
// A [model.Schema] describes an entity type, a [Repository] stores it, and a
// [Manager] created by [New] adds feature gating, metadata stamping and an
// ordered change feed on top. Conditions and updates are expressed with the
// [condition] and [update] algebras, which adapters translate to their
// native query language.
package datahub

import (
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/manager"
)

var (
	// ErrModelNotFound is returned when a replace, update or delete
	// targets an identity that does not exist.
	ErrModelNotFound = domain.ErrModelNotFound
)

// ErrDuplicatedKey is returned by create without overwrite when an entity
// with the same identity or an equal unique-index key already exists.
type ErrDuplicatedKey = domain.ErrDuplicatedKey

// ErrFeatureNotSupported is returned by repository methods the adapter does
// not implement.
type ErrFeatureNotSupported = domain.ErrFeatureNotSupported

// ErrFeatureNotEnabled is returned by the manager when an operation maps to
// a feature outside the enabled set.
type ErrFeatureNotEnabled = domain.ErrFeatureNotEnabled

// ErrInvalidParameter reports a caller-correctable argument problem.
type ErrInvalidParameter = domain.ErrInvalidParameter

// Repository is the storage contract every adapter implements.
type Repository = domain.Repository

// Feature names one repository capability.
type Feature = domain.Feature

// SortRule orders query results by one key path.
type SortRule = domain.SortRule

// Configs tunes per-call repository behavior.
type Configs = domain.Configs

// Manager wraps a [Repository] with feature gating, resource metadata
// stamping and an ordered change feed.
type Manager = manager.Manager

// ChangeSet describes one change observed by a watch.
type ChangeSet = manager.ChangeSet

// New creates a [Manager] over the given repository with the provided
// configuration options:
//
// - [manager.WithLogger]: sets the logger used by the watch machinery.
//
// - [manager.WithTimeGetter]: sets the clock used for metadata stamping.
//
// - [manager.WithEnables]: restricts the manager to the given features.
//
// - [manager.WithWatchQueueLimit]: bounds the backlog of each watch
// subscription.
func New(repo Repository, options ...manager.Option) *Manager {
	return manager.NewManager(repo, options...)
}
