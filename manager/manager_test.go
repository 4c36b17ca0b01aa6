package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vinicius-lino-figueiredo/datahub/adapter/memstore"
	"github.com/vinicius-lino-figueiredo/datahub/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/pkg/eventqueue"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

type ManagerTestSuite struct {
	suite.Suite
	ctx    context.Context
	schema *model.Schema
	store  *memstore.MemStore
	clock  *timegetter.FixedTimeGetter
	mgr    *Manager
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.schema = model.NewResourceSchema(model.Meta{
		Namespace:        "documents",
		NilForUnassigned: true,
		ContinueOnError:  true,
		AutoInitialize:   true,
	}, nil,
		model.NewField("name", model.String(), model.Required()),
		model.NewField("tags", model.List(model.String())),
	)
	s.store = memstore.NewMemStore(s.schema)
	s.clock = timegetter.NewFixedTimeGetter(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	s.mgr = NewManager(s.store, WithTimeGetter(s.clock))
}

func (s *ManagerTestSuite) create(id, name string) *model.Model {
	m, err := s.schema.Load(map[string]any{"_id": id, "name": name})
	s.Require().NoError(err)
	created, err := s.mgr.Create(s.ctx, m, false)
	s.Require().NoError(err)
	return created
}

// Operations outside the allow-list fail before touching the store.
func (s *ManagerTestSuite) TestFeatureGating() {
	mgr := NewManager(s.store,
		WithTimeGetter(s.clock),
		WithEnables(domain.FeatureStoreCreate, domain.FeatureStoreGet))

	m, err := s.schema.Load(map[string]any{"_id": "d1", "name": "a"})
	s.Require().NoError(err)
	_, err = mgr.Create(s.ctx, m, false)
	s.NoError(err)

	_, err = mgr.DeleteByID(s.ctx, "d1", nil)
	var notEnabled domain.ErrFeatureNotEnabled
	s.Require().ErrorAs(err, &notEnabled)
	s.Equal(domain.FeatureStoreDelete, notEnabled.Feature)

	ok, err := s.store.ExistByID(s.ctx, "d1")
	s.NoError(err)
	s.True(ok)

	s.ElementsMatch(
		[]domain.Feature{domain.FeatureStoreCreate, domain.FeatureStoreGet},
		mgr.Features())
}

// Missing required arguments are rejected up front.
func (s *ManagerTestSuite) TestInvalidParameters() {
	var invalid domain.ErrInvalidParameter

	_, err := s.mgr.GetByID(s.ctx, "")
	s.ErrorAs(err, &invalid)

	_, err = s.mgr.Create(s.ctx, nil, false)
	s.ErrorAs(err, &invalid)

	_, err = s.mgr.UpdateByID(s.ctx, "d1", nil)
	s.ErrorAs(err, &invalid)

	_, err = s.mgr.DeletesByQuery(s.ctx, nil, nil)
	s.ErrorAs(err, &invalid)
}

// Create fills the metadata envelope and raises the high-water timestamp.
func (s *ManagerTestSuite) TestCreateStampsMetadata() {
	created := s.create("d1", "a")

	meta := model.ResourceMetadata(created)
	s.Require().NotNil(meta)
	createTime, err := meta.Get("createTime")
	s.Require().NoError(err)
	s.Equal(s.clock.GetTime(), createTime.(time.Time))

	want := model.Timestamp(s.clock.GetTime())
	s.Equal(want, model.ResourceTimestamp(created))
	s.Equal(want, s.mgr.Timestamp())
}

// Updates bump the metadata timestamp alongside the caller's actions.
func (s *ManagerTestSuite) TestUpdateBumpsTimestamp() {
	s.create("d1", "a")
	s.clock.Advance(time.Second)

	res, err := s.mgr.UpdateByID(s.ctx, "d1", []update.Action{update.Set("name", "b")})
	s.Require().NoError(err)

	name, _ := res.After.Get("name")
	s.Equal("b", name)
	want := model.Timestamp(s.clock.GetTime())
	s.Equal(want, model.ResourceTimestamp(res.After))
	s.Equal(want, s.mgr.Timestamp())
}

// Replace of a missing identity with autoCreate is observed as a create.
func (s *ManagerTestSuite) TestReplaceAutoCreate() {
	events := s.watch(nil, 0)

	m, err := s.schema.Load(map[string]any{"_id": "d1", "name": "a"})
	s.Require().NoError(err)
	res, err := s.mgr.Replace(s.ctx, m, true)
	s.Require().NoError(err)
	s.Nil(res.Before)

	cs := s.next(events)
	s.Equal(WatchCreated, cs.Name)
	s.Equal("d1", cs.ModelID)
}

// A watch yields the existing models as preserved changes, then the live
// created, replaced and deleted changes in order.
func (s *ManagerTestSuite) TestWatchOrdering() {
	s.create("d1", "m1")
	s.create("d2", "m2")

	events := s.watch(nil, 2)

	s.clock.Advance(time.Second)
	s.create("d3", "a")

	s.clock.Advance(time.Second)
	replacement, err := s.schema.Load(map[string]any{"_id": "d3", "name": "b"})
	s.Require().NoError(err)
	_, err = s.mgr.Replace(s.ctx, replacement, false)
	s.Require().NoError(err)

	s.clock.Advance(time.Second)
	_, err = s.mgr.DeleteByID(s.ctx, "d3", nil)
	s.Require().NoError(err)

	cs := s.next(events)
	s.Equal(WatchCreated, cs.Name)
	s.Equal("d3", cs.ModelID)
	name, _ := cs.After.Get("name")
	s.Equal("a", name)

	cs = s.next(events)
	s.Equal(WatchReplaced, cs.Name)
	name, _ = cs.After.Get("name")
	s.Equal("b", name)

	cs = s.next(events)
	s.Equal(WatchDeleted, cs.Name)
	name, _ = cs.Before.Get("name")
	s.Equal("b", name)
}

// A conditional watch only sees changes touching matching models, except
// deletes of matching models which always pass.
func (s *ManagerTestSuite) TestWatchCondition() {
	events := s.watch(condition.KeyValue("name", "b"), 0)

	s.clock.Advance(time.Second)
	s.create("d1", "a")
	s.create("d2", "b")

	cs := s.next(events)
	s.Equal(WatchCreated, cs.Name)
	s.Equal("d2", cs.ModelID)

	// An update moving d1 into the watched set matches on the after state.
	s.clock.Advance(time.Second)
	_, err := s.mgr.UpdateByID(s.ctx, "d1", []update.Action{update.Set("name", "b")})
	s.Require().NoError(err)

	cs = s.next(events)
	s.Equal(WatchUpdated, cs.Name)
	s.Equal("d1", cs.ModelID)

	s.clock.Advance(time.Second)
	_, err = s.mgr.DeleteByID(s.ctx, "d2", nil)
	s.Require().NoError(err)

	cs = s.next(events)
	s.Equal(WatchDeleted, cs.Name)
	s.Equal("d2", cs.ModelID)
}

// Fast bulk updates cannot report which models changed and degrade to a
// reset.
func (s *ManagerTestSuite) TestFastUpdateResets() {
	s.create("d1", "a")

	events := s.watch(nil, 1)

	s.clock.Advance(time.Second)
	res, err := s.mgr.UpdatesByQuery(s.ctx,
		condition.KeyValue("name", "a"),
		[]update.Action{update.Set("name", "z")},
		&domain.Configs{FastUpdate: true})
	s.Require().NoError(err)
	s.Equal(int64(1), res.Count)

	cs := s.next(events)
	s.Equal(WatchReset, cs.Name)
	s.Nil(cs.Before)
	s.Nil(cs.After)
}

// A backlog past the queue limit collapses into a single reset.
func (s *ManagerTestSuite) TestQueueOverflow() {
	w := &watcher{queue: eventqueue.New[*ChangeSet](), limit: 2}
	w.deliver(&ChangeSet{Name: WatchCreated, Timestamp: 1, ModelID: "d1"})
	w.deliver(&ChangeSet{Name: WatchUpdated, Timestamp: 2, ModelID: "d1"})
	w.deliver(&ChangeSet{Name: WatchUpdated, Timestamp: 3, ModelID: "d1"})

	s.Equal(1, w.queue.Len())
	cs, err := w.queue.Pop(s.ctx)
	s.Require().NoError(err)
	s.Equal(WatchReset, cs.Name)
	s.Equal(float64(3), cs.Timestamp)
}

// Cancelling the context ends the stream with the context error.
func (s *ManagerTestSuite) TestWatchCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		var last error
		for _, err := range s.mgr.Watch(ctx, nil) {
			last = err
		}
		done <- last
	}()
	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("watch did not stop on cancel")
	}
}

// watch starts a background subscription, asserts the expected number of
// preserved changes and returns a channel of the live ones.
func (s *ManagerTestSuite) watch(cond condition.Condition, preserved int) <-chan *ChangeSet {
	ctx, cancel := context.WithCancel(s.ctx)
	s.T().Cleanup(cancel)
	events := make(chan *ChangeSet, 32)
	go func() {
		for cs, err := range s.mgr.Watch(ctx, cond) {
			if err != nil {
				return
			}
			events <- cs
		}
	}()
	for range preserved {
		cs := s.next(events)
		s.Require().Equal(WatchPreserved, cs.Name)
	}
	// The subscription registers before the snapshot, wait for it so no
	// mutation below races the registration.
	s.Require().Eventually(func() bool {
		s.mgr.mu.Lock()
		defer s.mgr.mu.Unlock()
		return len(s.mgr.watchers) > 0
	}, time.Second, time.Millisecond)
	return events
}

// next receives one change or fails the test.
func (s *ManagerTestSuite) next(events <-chan *ChangeSet) *ChangeSet {
	select {
	case cs := <-events:
		return cs
	case <-time.After(time.Second):
		s.Require().FailNow("timed out waiting for a change")
		return nil
	}
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

