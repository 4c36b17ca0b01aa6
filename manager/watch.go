package manager

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/pkg/eventqueue"
)

// watcher is one registered subscription. A nil condition receives every
// change.
type watcher struct {
	cond  condition.Condition
	queue *eventqueue.Queue[*ChangeSet]
	limit int
}

// deliver enqueues the change, collapsing the backlog into a single reset
// when the subscriber falls behind the queue limit.
func (w *watcher) deliver(cs *ChangeSet) {
	if w.limit > 0 && w.queue.Len() >= w.limit {
		w.queue.Clear()
		w.queue.Push(&ChangeSet{Name: WatchReset, Timestamp: cs.Timestamp})
		return
	}
	w.queue.Push(cs)
}

// wants reports whether the change is relevant to this subscription. A
// change matches when the condition holds on the side of the change the
// subscriber could have observed: the new state for created and preserved,
// either state for replaced and updated, the old state for deleted. Resets
// always match.
func (w *watcher) wants(cs *ChangeSet) bool {
	if w.cond == nil || cs.Name == WatchReset {
		return true
	}
	switch cs.Name {
	case WatchCreated, WatchPreserved:
		return cs.After != nil && w.cond.Check(cs.After)
	case WatchReplaced, WatchUpdated:
		return (cs.After != nil && w.cond.Check(cs.After)) ||
			(cs.Before != nil && w.cond.Check(cs.Before))
	case WatchDeleted:
		return cs.Before != nil && w.cond.Check(cs.Before)
	}
	return false
}

// publish fans the change out to every matching subscription.
func (m *Manager) publish(cs *ChangeSet) {
	m.mu.Lock()
	targets := make([]*watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		if w.wants(cs) {
			targets = append(targets, w)
		}
	}
	m.mu.Unlock()
	for _, w := range targets {
		w.deliver(cs)
	}
}

// Watch streams changes to entities satisfying the condition, starting with
// a preserved change per entity that already matches. A nil condition
// watches everything. The subscription is registered before the snapshot
// read, so no change is lost in between; changes that the snapshot already
// reflects are filtered out by timestamp. Deletes always pass the filter,
// a delete racing the snapshot may therefore report an entity the consumer
// never saw. Iteration ends when the consumer stops or the context is done.
func (m *Manager) Watch(ctx context.Context, cond condition.Condition) iter.Seq2[*ChangeSet, error] {
	return func(yield func(*ChangeSet, error) bool) {
		id := uuid.NewString()
		w := &watcher{cond: cond, queue: eventqueue.New[*ChangeSet](), limit: m.queueLimit}
		m.mu.Lock()
		m.watchers[id] = w
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
			m.logger.Debug("watch stopped",
				zap.String("namespace", m.repo.Schema().Namespace()),
				zap.String("subscriber", id))
		}()
		m.logger.Debug("watch started",
			zap.String("namespace", m.repo.Schema().Namespace()),
			zap.String("subscriber", id))

		var models []*model.Model
		var err error
		if cond != nil {
			models, err = m.GetsByQuery(ctx, cond, nil, 0, 0)
		} else {
			models, err = m.GetAll(ctx, nil, 0, 0)
		}
		if err != nil {
			yield(nil, err)
			return
		}

		var latest float64
		var haveLatest bool
		for _, mdl := range models {
			// Inclusive comparison: concurrent mutations share the
			// snapshot timestamp exactly.
			ts := model.ResourceTimestamp(mdl)
			if !haveLatest || latest <= ts {
				latest, haveLatest = ts, true
			}
			cs := &ChangeSet{Name: WatchPreserved, Timestamp: ts, ModelID: mdl.ID(), After: mdl}
			if !yield(cs, nil) {
				return
			}
		}

		for {
			cs, err := w.queue.Pop(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			// Deletes pass unconditionally: a delete observed during
			// the snapshot would otherwise be lost, the consumer has
			// to tolerate deletes of entities it never saw.
			if cs.Name != WatchDeleted && haveLatest && cs.Timestamp < latest {
				continue
			}
			if cs.Timestamp > latest {
				latest = cs.Timestamp
			}
			haveLatest = true
			if !yield(cs, nil) {
				return
			}
		}
	}
}
