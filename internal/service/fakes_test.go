package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// memDocs is an in-memory DocumentRepository with the same observable
// behaviour as the PostgreSQL one.
type memDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]model.Document
	revs map[uuid.UUID][]model.DocumentRevision

	failWith error
	writes   int
}

var _ repository.DocumentRepository = (*memDocs)(nil)

func newMemDocs() *memDocs {
	return &memDocs{docs: map[uuid.UUID]model.Document{}, revs: map[uuid.UUID][]model.DocumentRevision{}}
}

func (m *memDocs) Create(_ context.Context, d *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.docs[d.ID]; ok {
		return errs.ErrAlreadyExists
	}
	m.docs[d.ID] = *d
	m.writes++
	return nil
}

func (m *memDocs) Get(_ context.Context, id uuid.UUID) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &d, nil
}

func (m *memDocs) Update(_ context.Context, id uuid.UUID, fn repository.MutateFunc) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	next.ID, next.Owner, next.Created = cur.ID, cur.Owner, cur.Created
	m.revs[id] = append(m.revs[id], model.DocumentRevision{Document: cur, ArchivedAt: next.Updated})
	m.docs[id] = next
	m.writes++
	return &next, nil
}

func (m *memDocs) Delete(_ context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok && d.Owner == owner {
		delete(m.docs, id)
		delete(m.revs, id)
		m.writes++
	}
	return nil
}

func (m *memDocs) filter(owner string, pred func(model.Document) bool) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.Document{}
	for _, d := range m.docs {
		if d.Owner == owner && pred(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Updated.After(out[j].Updated) })
	return out, nil
}

func (m *memDocs) ListByOwner(_ context.Context, owner string) ([]model.Document, error) {
	return m.filter(owner, func(model.Document) bool { return true })
}

func anyTag(d model.Document, tags []string) bool {
	for _, t := range tags {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}

func allTags(d model.Document, tags []string) bool {
	for _, t := range tags {
		if !d.HasTag(t) {
			return false
		}
	}
	return true
}

func containsFold(content, keyword string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(keyword))
}

func (m *memDocs) FindByTags(_ context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error) {
	if matchAll {
		return m.filter(owner, func(d model.Document) bool { return allTags(d, tags) })
	}
	return m.filter(owner, func(d model.Document) bool { return anyTag(d, tags) })
}

func (m *memDocs) FindByContent(_ context.Context, owner, keyword string) ([]model.Document, error) {
	return m.filter(owner, func(d model.Document) bool { return containsFold(d.Content, keyword) })
}

func (m *memDocs) FindByTagsOrContent(_ context.Context, owner string, tags []string, keyword string) ([]model.Document, error) {
	return m.filter(owner, func(d model.Document) bool { return anyTag(d, tags) || containsFold(d.Content, keyword) })
}

func (m *memDocs) FindBacklinks(_ context.Context, owner, target string) ([]model.Document, error) {
	return m.filter(owner, func(d model.Document) bool {
		for _, l := range d.Links {
			if l == target {
				return true
			}
		}
		return false
	})
}

func (m *memDocs) Revisions(_ context.Context, id uuid.UUID) ([]model.DocumentRevision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revs := append([]model.DocumentRevision(nil), m.revs[id]...)
	sort.Slice(revs, func(i, j int) bool { return revs[i].Version > revs[j].Version })
	return revs, nil
}

func (m *memDocs) PruneRevisions(_ context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, revs := range m.revs {
		if len(revs) > keep {
			n += int64(len(revs) - keep)
			m.revs[id] = revs[len(revs)-keep:]
		}
	}
	return n, nil
}

// memHabits implements both HabitRepository and CheckRepository over shared state,
// so cascading deletes are observable through the check side.
type memHabits struct {
	mu     sync.Mutex
	habits map[uuid.UUID]model.Habit
	checks map[uuid.UUID]model.HabitCheck

	failReorderAt int // 1-based index of the write that fails; 0 disables
}

var (
	_ repository.HabitRepository = (*memHabits)(nil)
	_ repository.CheckRepository = (*memHabits)(nil)
)

func newMemHabits() *memHabits {
	return &memHabits{habits: map[uuid.UUID]model.Habit{}, checks: map[uuid.UUID]model.HabitCheck{}}
}

func (m *memHabits) Create(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits[h.ID] = *h
	return nil
}

func (m *memHabits) Get(_ context.Context, id uuid.UUID) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &h, nil
}

func (m *memHabits) ListByOwner(_ context.Context, owner string) ([]model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Habit{}
	for _, h := range m.habits {
		if h.Owner == owner {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memHabits) MaxOrder(_ context.Context, owner string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, h := range m.habits {
		if h.Owner == owner && h.Order > max {
			max = h.Order
		}
	}
	return max, nil
}

func (m *memHabits) Update(_ context.Context, id uuid.UUID, fn func(h *model.Habit) error) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	next := h
	if err := fn(&next); err != nil {
		return nil, err
	}
	h.Name, h.Description, h.Purpose, h.UpdatedAt = next.Name, next.Description, next.Purpose, next.UpdatedAt
	m.habits[id] = h
	return &h, nil
}

func (m *memHabits) Delete(_ context.Context, id uuid.UUID, authorize func(h model.Habit) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok {
		return errs.ErrNotFound
	}
	if err := authorize(h); err != nil {
		return err
	}
	for cid, c := range m.checks {
		if c.Owner == h.Owner && c.HabitID == id {
			delete(m.checks, cid)
		}
	}
	delete(m.habits, id)
	return nil
}

func (m *memHabits) Reorder(_ context.Context, ids []uuid.UUID, authorize func(h model.Habit) error, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		h, ok := m.habits[id]
		if !ok {
			return errs.ErrNotFound
		}
		if err := authorize(h); err != nil {
			return err
		}
	}
	staged := make(map[uuid.UUID]model.Habit, len(ids))
	for i, id := range ids {
		if m.failReorderAt == i+1 {
			return errs.ErrValidation // simulated late failure; nothing was applied
		}
		h := m.habits[id]
		h.Order, h.UpdatedAt = i+1, at
		staged[id] = h
	}
	for id, h := range staged {
		m.habits[id] = h
	}
	return nil
}

func (m *memHabits) Find(_ context.Context, owner string, habitID uuid.UUID, day model.Day) (*model.HabitCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.checks {
		if c.Owner == owner && c.HabitID == habitID && c.Day == day {
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memHabits) Between(_ context.Context, owner string, from, to model.Day) ([]model.HabitCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.HabitCheck{}
	for _, c := range m.checks {
		if c.Owner == owner && !c.Day.Before(from) && !c.Day.After(to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memHabits) Save(_ context.Context, c *model.HabitCheck) (*model.HabitCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ex := range m.checks {
		if ex.Owner == c.Owner && ex.HabitID == c.HabitID && ex.Day == c.Day {
			ex.Completed, ex.Comment, ex.UpdatedAt = c.Completed, c.Comment, c.UpdatedAt
			m.checks[id] = ex
			return &ex, nil
		}
	}
	m.checks[c.ID] = *c
	out := *c
	return &out, nil
}

func (m *memHabits) countChecks(habitID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.checks {
		if c.HabitID == habitID {
			n++
		}
	}
	return n
}

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}
