package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

type MemStoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	schema *model.Schema
	store  *MemStore
}

func (s *MemStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.schema = model.NewIDSchema(model.Meta{
		Namespace:        "users",
		NilForUnassigned: true,
		ContinueOnError:  true,
		AutoInitialize:   true,
		Indices: []model.Index{
			{Keys: []string{"email"}, Unique: true},
		},
	}, nil,
		model.NewField("name", model.String(), model.Required()),
		model.NewField("email", model.String()),
		model.NewField("age", model.Integer()),
		model.NewField("tags", model.List(model.String())),
	)
	s.store = NewMemStore(s.schema)
}

func (s *MemStoreTestSuite) create(raw map[string]any) *model.Model {
	m, err := s.schema.Load(raw)
	s.Require().NoError(err)
	created, err := s.store.Create(s.ctx, m, false)
	s.Require().NoError(err)
	return created
}

func (s *MemStoreTestSuite) TestCreateAndGet() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "age": 30})

	ok, err := s.store.ExistByID(s.ctx, "u1")
	s.NoError(err)
	s.True(ok)

	m, err := s.store.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	name, _ := m.Get("name")
	s.Equal("ana", name)

	_, err = s.store.GetByID(s.ctx, "nope")
	s.ErrorIs(err, domain.ErrModelNotFound)
}

func (s *MemStoreTestSuite) TestCreateDuplicate() {
	s.create(map[string]any{"_id": "u1", "name": "ana"})

	m, err := s.schema.Load(map[string]any{"_id": "u1", "name": "bob"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, m, false)
	s.ErrorAs(err, &domain.ErrDuplicatedKey{})

	// Overwrite behaves as upsert
	_, err = s.store.Create(s.ctx, m, true)
	s.NoError(err)
	stored, err := s.store.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	name, _ := stored.Get("name")
	s.Equal("bob", name)
}

func (s *MemStoreTestSuite) TestUniqueIndex() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "email": "a@x"})

	m, err := s.schema.Load(map[string]any{"_id": "u2", "name": "bob", "email": "a@x"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, m, false)
	s.ErrorAs(err, &domain.ErrDuplicatedKey{})

	// Absent keys never collide
	m2, err := s.schema.Load(map[string]any{"_id": "u3", "name": "carl"})
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, m2, false)
	s.NoError(err)
}

func (s *MemStoreTestSuite) TestReplace() {
	s.create(map[string]any{"_id": "u1", "name": "ana"})

	m, err := s.schema.Load(map[string]any{"_id": "u1", "name": "bob"})
	s.Require().NoError(err)
	res, err := s.store.Replace(s.ctx, m, false)
	s.Require().NoError(err)
	before, _ := res.Before.Get("name")
	s.Equal("ana", before)

	m2, err := s.schema.Load(map[string]any{"_id": "u2", "name": "carl"})
	s.Require().NoError(err)
	_, err = s.store.Replace(s.ctx, m2, false)
	s.ErrorIs(err, domain.ErrModelNotFound)

	res, err = s.store.Replace(s.ctx, m2, true)
	s.Require().NoError(err)
	s.Nil(res.Before)
}

func (s *MemStoreTestSuite) TestQueryReads() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "age": 30})
	s.create(map[string]any{"_id": "u2", "name": "bob", "age": 20})
	s.create(map[string]any{"_id": "u3", "name": "carl", "age": 40})

	models, err := s.store.GetsByQuery(s.ctx, condition.Greater("age", 25),
		[]domain.SortRule{domain.Ascending("age")}, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(models, 2)
	s.Equal("u1", models[0].ID())
	s.Equal("u3", models[1].ID())

	// Pagination over a sorted full scan
	models, err = s.store.GetAll(s.ctx, []domain.SortRule{domain.Descending("age")}, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(models, 1)
	s.Equal("u1", models[0].ID())

	ids, err := s.store.ExistsByQuery(s.ctx, condition.Lesser("age", 35))
	s.NoError(err)
	s.Equal([]string{"u1", "u2"}, ids)

	count, err := s.store.CountByQuery(s.ctx, condition.Exist("age"))
	s.NoError(err)
	s.EqualValues(3, count)
}

func (s *MemStoreTestSuite) TestUpdateByID() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "tags": []any{"a"}})

	res, err := s.store.UpdateByID(s.ctx, "u1", []update.Action{
		update.Set("name", "bob"),
		update.Push("tags", "b"),
	})
	s.Require().NoError(err)

	beforeName, _ := res.Before.Get("name")
	s.Equal("ana", beforeName)
	afterName, _ := res.After.Get("name")
	s.Equal("bob", afterName)
	tags, _ := res.After.Get("tags")
	s.Equal([]any{"a", "b"}, tags)

	_, err = s.store.UpdateByID(s.ctx, "nope", []update.Action{update.Set("name", "x")})
	s.ErrorIs(err, domain.ErrModelNotFound)
}

func (s *MemStoreTestSuite) TestListActions() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "tags": []any{"a", "b", "c"}})

	res, err := s.store.UpdateByID(s.ctx, "u1", []update.Action{
		update.PushAt("tags", "x", 0),
		update.Pop("tags"),
		update.PopTail("tags"),
	})
	s.Require().NoError(err)
	tags, _ := res.After.Get("tags")
	s.Equal([]any{"a", "b"}, tags)

	res, err = s.store.UpdateByID(s.ctx, "u1", []update.Action{update.Clear("tags")})
	s.Require().NoError(err)
	cleared, _ := res.After.Lookup("tags")
	s.Nil(cleared)
}

func (s *MemStoreTestSuite) TestUpdatesByQuery() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "age": 30})
	s.create(map[string]any{"_id": "u2", "name": "bob", "age": 20})
	s.create(map[string]any{"_id": "u3", "name": "carl", "age": 40})

	res, err := s.store.UpdatesByQuery(s.ctx, condition.Greater("age", 25),
		[]update.Action{update.Set("name", "senior")}, nil)
	s.Require().NoError(err)
	s.EqualValues(2, res.Count)
	s.Len(res.Updates, 2)
	for _, one := range res.Updates {
		name, _ := one.After.Get("name")
		s.Equal("senior", name)
	}

	// Fast mode only reports the count
	res, err = s.store.UpdatesByQuery(s.ctx, condition.Exist("age"),
		[]update.Action{update.Set("name", "anyone")}, &domain.Configs{FastUpdate: true})
	s.Require().NoError(err)
	s.EqualValues(3, res.Count)
	s.Empty(res.Updates)
}

func (s *MemStoreTestSuite) TestDeletes() {
	s.create(map[string]any{"_id": "u1", "name": "ana", "age": 30})
	s.create(map[string]any{"_id": "u2", "name": "bob", "age": 20})
	s.create(map[string]any{"_id": "u3", "name": "carl", "age": 40})

	m, err := s.store.DeleteByID(s.ctx, "u1", nil)
	s.Require().NoError(err)
	s.Equal("u1", m.ID())

	_, err = s.store.DeleteByID(s.ctx, "u1", nil)
	s.ErrorIs(err, domain.ErrModelNotFound)

	res, err := s.store.DeletesByQuery(s.ctx, condition.Lesser("age", 35), nil)
	s.Require().NoError(err)
	s.EqualValues(1, res.Count)
	s.Equal("u2", res.Models[0].ID())

	count, err := s.store.CountAll(s.ctx)
	s.NoError(err)
	s.EqualValues(1, count)
}

func (s *MemStoreTestSuite) TestLoggerObservesMutations() {
	core, logs := observer.New(zap.DebugLevel)
	store := NewMemStore(s.schema, WithLogger(zap.New(core)))

	m, err := s.schema.Load(map[string]any{"_id": "u1", "name": "ana"})
	s.Require().NoError(err)
	_, err = store.Create(s.ctx, m, false)
	s.Require().NoError(err)
	_, err = store.DeleteByID(s.ctx, "u1", nil)
	s.Require().NoError(err)

	s.Equal(1, logs.FilterMessage("stored model").Len())
	s.Equal(1, logs.FilterMessage("removed model").Len())
}

func (s *MemStoreTestSuite) TestGeneratedID() {
	m, err := s.schema.Load(map[string]any{"name": "ana"})
	s.Require().NoError(err)

	created, err := s.store.Create(s.ctx, m, false)
	s.Require().NoError(err)
	s.Len(created.ID(), 16)

	got, err := s.store.GetByID(s.ctx, created.ID())
	s.Require().NoError(err)
	name, _ := got.Get("name")
	s.Equal("ana", name)
}

func TestMemStoreTestSuite(t *testing.T) {
	suite.Run(t, new(MemStoreTestSuite))
}
