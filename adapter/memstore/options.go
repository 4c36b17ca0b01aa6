package memstore

import (
	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/domain"
)

// WithSorts sets the default sort rules applied when a read passes none.
func WithSorts(sorts ...domain.SortRule) Option {
	return func(s *MemStore) {
		s.sorts = sorts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *MemStore) {
		s.logger = logger
	}
}

// WithIDGenerator sets the generator minting identifiers for models created
// without one.
func WithIDGenerator(idgen domain.IDGenerator) Option {
	return func(s *MemStore) {
		s.idgen = idgen
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*MemStore)
