package manager

import "github.com/vinicius-lino-figueiredo/datahub/model"

// Change set names.
const (
	// WatchPreserved marks a model that already existed when the watch
	// started.
	WatchPreserved = "preserved"
	// WatchReset marks a discontinuity. Subscribers should rebuild their
	// derived state from a fresh read.
	WatchReset = "reset"
	// WatchCreated marks a newly stored model.
	WatchCreated = "created"
	// WatchReplaced marks a wholesale replacement.
	WatchReplaced = "replaced"
	// WatchUpdated marks an in-place update.
	WatchUpdated = "updated"
	// WatchDeleted marks a removal.
	WatchDeleted = "deleted"
)

// ChangeSet describes one change observed by a watch. Before and After are
// nil when the originating operation ran in a fast mode that skips the
// model snapshots.
type ChangeSet struct {
	Name      string
	Timestamp float64
	ModelID   string
	Before    *model.Model
	After     *model.Model
}
