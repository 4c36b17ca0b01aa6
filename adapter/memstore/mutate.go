package memstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/datahub/condition"
	"github.com/vinicius-lino-figueiredo/datahub/domain"
	"github.com/vinicius-lino-figueiredo/datahub/model"
	"github.com/vinicius-lino-figueiredo/datahub/update"
)

// UpdateByID implements [domain.Repository].
func (s *MemStore) UpdateByID(_ context.Context, id string, actions []update.Action) (*domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, actions)
}

func (s *MemStore) updateLocked(id string, actions []update.Action) (*domain.UpdateResult, error) {
	before, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	after, err := s.applyActions(before, actions)
	if err != nil {
		return nil, err
	}
	s.docs[id] = after
	return &domain.UpdateResult{Before: before, After: after.Clone()}, nil
}

// UpdatesByID implements [domain.Repository].
func (s *MemStore) UpdatesByID(_ context.Context, ids []string, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fast := configs != nil && configs.FastUpdate
	result := &domain.UpdatesResult{}
	for _, id := range ids {
		one, err := s.updateLocked(id, actions)
		if errors.Is(err, domain.ErrModelNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !fast {
			result.Updates = append(result.Updates, *one)
		}
		result.Count++
	}
	return result, nil
}

// UpdatesByQuery implements [domain.Repository].
func (s *MemStore) UpdatesByQuery(_ context.Context, cond condition.Condition, actions []update.Action, configs *domain.Configs) (*domain.UpdatesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fast := configs != nil && configs.FastUpdate
	result := &domain.UpdatesResult{}
	// The order snapshot keeps the loop stable while documents mutate
	ids := append([]string(nil), s.order...)
	for _, id := range ids {
		if !matches(cond, s.docs[id]) {
			continue
		}
		one, err := s.updateLocked(id, actions)
		if err != nil {
			return nil, err
		}
		if !fast {
			result.Updates = append(result.Updates, *one)
		}
		result.Count++
	}
	return result, nil
}

// DeleteByID implements [domain.Repository].
func (s *MemStore) DeleteByID(_ context.Context, id string, configs *domain.Configs) (*model.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	s.remove(id)
	if configs != nil && configs.FastRemove {
		return nil, nil
	}
	return before, nil
}

// DeletesByID implements [domain.Repository].
func (s *MemStore) DeletesByID(_ context.Context, ids []string, configs *domain.Configs) (*domain.DeletesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fast := configs != nil && configs.FastRemove
	result := &domain.DeletesResult{}
	for _, id := range ids {
		before, ok := s.docs[id]
		if !ok {
			continue
		}
		s.remove(id)
		if !fast {
			result.Models = append(result.Models, before)
		}
		result.Count++
	}
	return result, nil
}

// DeletesByQuery implements [domain.Repository].
func (s *MemStore) DeletesByQuery(_ context.Context, cond condition.Condition, configs *domain.Configs) (*domain.DeletesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fast := configs != nil && configs.FastRemove
	result := &domain.DeletesResult{}
	ids := append([]string(nil), s.order...)
	for _, id := range ids {
		if !matches(cond, s.docs[id]) {
			continue
		}
		before := s.docs[id]
		s.remove(id)
		if !fast {
			result.Models = append(result.Models, before)
		}
		result.Count++
	}
	return result, nil
}

// applyActions produces the updated model by applying the actions to the
// dumped document form and loading the result back through the schema.
func (s *MemStore) applyActions(m *model.Model, actions []update.Action) (*model.Model, error) {
	doc, err := m.Dump(&model.DumpContext{})
	if err != nil {
		return nil, err
	}
	for _, action := range actions {
		if err := applyAction(doc, action); err != nil {
			return nil, err
		}
	}
	after, err := s.schema.Load(doc)
	if err != nil {
		return nil, err
	}
	if err := after.Validate(); err != nil {
		return nil, err
	}
	return after, nil
}

func applyAction(doc map[string]any, action update.Action) error {
	switch a := action.(type) {
	case *update.PushAction:
		return pushValues(doc, a.TargetKey, []any{a.Value}, a.Position)
	case *update.PushsAction:
		return pushValues(doc, a.TargetKey, a.Values, a.Position)
	case *update.PopAction:
		return popValue(doc, a.TargetKey, a.Head)
	case *update.SetAction:
		parent, key, err := ensurePath(doc, a.TargetKey)
		if err != nil {
			return err
		}
		parent[key] = a.Value
		return nil
	case *update.ClearAction:
		parent, key, ok := lookupPath(doc, a.TargetKey)
		if ok {
			delete(parent, key)
		}
		return nil
	default:
		return domain.ErrBadValue{Reason: fmt.Sprintf("unknown update action type %T", action)}
	}
}

func pushValues(doc map[string]any, path string, values []any, position *int) error {
	parent, key, err := ensurePath(doc, path)
	if err != nil {
		return err
	}
	list, ok := parent[key].([]any)
	if !ok && parent[key] != nil {
		return domain.ErrBadValue{Reason: fmt.Sprintf("cannot push to non-list key [%s]", path)}
	}
	if position == nil || *position >= len(list) {
		parent[key] = append(list, values...)
		return nil
	}
	at := *position
	if at < 0 {
		at = 0
	}
	out := make([]any, 0, len(list)+len(values))
	out = append(out, list[:at]...)
	out = append(out, values...)
	out = append(out, list[at:]...)
	parent[key] = out
	return nil
}

func popValue(doc map[string]any, path string, head bool) error {
	parent, key, ok := lookupPath(doc, path)
	if !ok {
		return nil
	}
	list, ok := parent[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	if head {
		parent[key] = list[1:]
	} else {
		parent[key] = list[:len(list)-1]
	}
	return nil
}

// ensurePath walks the dot path creating intermediate documents, returning
// the parent document and the final key.
func ensurePath(doc map[string]any, path string) (map[string]any, string, error) {
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return doc, head, nil
	}
	child, exists := doc[head]
	if !exists {
		nested := make(map[string]any)
		doc[head] = nested
		return ensurePath(nested, rest)
	}
	nested, ok := child.(map[string]any)
	if !ok {
		return nil, "", domain.ErrBadValue{Reason: fmt.Sprintf("cannot traverse non-document key [%s]", head)}
	}
	return ensurePath(nested, rest)
}

// lookupPath walks the dot path without creating anything.
func lookupPath(doc map[string]any, path string) (map[string]any, string, bool) {
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return doc, head, true
	}
	nested, ok := doc[head].(map[string]any)
	if !ok {
		return nil, "", false
	}
	return lookupPath(nested, rest)
}
