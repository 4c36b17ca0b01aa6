package manager

import (
	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/domain"
)

// Option configures a [Manager].
type Option func(*Manager)

// WithLogger sets the logger used by the watch machinery. The default is a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithTimeGetter sets the clock used for metadata stamping and change
// timestamps.
func WithTimeGetter(tg domain.TimeGetter) Option {
	return func(m *Manager) { m.timeGetter = tg }
}

// WithEnables restricts the manager to the given features. Operations
// outside the set fail with [domain.ErrFeatureNotEnabled]. Without this
// option every repository capability is enabled.
func WithEnables(features ...domain.Feature) Option {
	return func(m *Manager) {
		m.enables = make(map[domain.Feature]struct{}, len(features))
		for _, f := range features {
			m.enables[f] = struct{}{}
		}
	}
}

// WithWatchQueueLimit bounds the backlog of each watch subscription. When a
// subscriber falls behind the limit its backlog is dropped and replaced by
// a single reset change. Zero means unbounded.
func WithWatchQueueLimit(limit int) Option {
	return func(m *Manager) { m.queueLimit = limit }
}
