// Package timegetter contains the default [domain.TimeGetter] implementation.
package timegetter

import (
	"time"

	"github.com/vinicius-lino-figueiredo/datahub/domain"
)

// TimeGetter implements [domain.TimeGetter].
type TimeGetter struct{}

// NewTimeGetter returns a new implementation of domain.TimeGetter.
func NewTimeGetter() domain.TimeGetter {
	return &TimeGetter{}
}

// GetTime implements [domain.TimeGetter].
func (t *TimeGetter) GetTime() time.Time {
	return time.Now()
}

// FixedTimeGetter implements [domain.TimeGetter] with a pinned instant,
// advanced manually. Useful in tests.
type FixedTimeGetter struct {
	now time.Time
}

// NewFixedTimeGetter returns a TimeGetter pinned at the given instant.
func NewFixedTimeGetter(now time.Time) *FixedTimeGetter {
	return &FixedTimeGetter{now: now}
}

// GetTime implements [domain.TimeGetter].
func (t *FixedTimeGetter) GetTime() time.Time {
	return t.now
}

// Advance moves the pinned instant forward.
func (t *FixedTimeGetter) Advance(d time.Duration) {
	t.now = t.now.Add(d)
}
