package mongostore

import (
	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/domain"
)

// WithSorts sets the default sort rules applied when a read passes none.
func WithSorts(sorts ...domain.SortRule) Option {
	return func(s *MongoStore) {
		s.sorts = sorts
	}
}

// WithStrictMerge makes conflicting update actions on the same operator and
// key an error instead of letting the last action win.
func WithStrictMerge() Option {
	return func(s *MongoStore) {
		s.strictMerge = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *MongoStore) {
		s.logger = logger
	}
}

// WithIDGenerator sets the generator minting identifiers for models created
// without one.
func WithIDGenerator(idgen domain.IDGenerator) Option {
	return func(s *MongoStore) {
		s.idgen = idgen
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*MongoStore)
