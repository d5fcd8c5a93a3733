package events

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
)

// Store is an in-memory event collection. Reads share a read lock; every
// mutation runs its whole read-merge-write cycle under the write lock.
type Store struct {
	mu     sync.RWMutex
	events map[string]Event

	now   func() time.Time
	newID func() (string, error)
}

func NewStore() *Store {
	return &Store{
		events: make(map[string]Event),
		now:    time.Now,
		newID:  ids.NewULID,
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// List returns every event, newest date first, then by title and id.
func (s *Store) List(ctx context.Context) []Event {
	s.mu.RLock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.clone())
	}
	s.mu.RUnlock()

	sortEvents(out)
	return out
}

func (s *Store) Get(ctx context.Context, id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e.clone(), nil
}

// Create inserts a new event. A fresh ULID is assigned unless m.ID is set.
func (s *Store) Create(ctx context.Context, m Mutation) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	var id string
	if m.ID != nil {
		id = strings.TrimSpace(*m.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		for {
			generated, err := s.newID()
			if err != nil {
				return Event{}, err
			}
			if _, exists := s.events[generated]; !exists {
				id = generated
				break
			}
		}
	} else if _, exists := s.events[id]; exists {
		return Event{}, ErrConflict
	}

	now := s.now().UTC()
	e := Event{ID: id, CreatedAt: now, UpdatedAt: now}
	e.apply(m)
	s.events[id] = e
	return e.clone(), nil
}

// CreateEmpty inserts an event with no fields set.
func (s *Store) CreateEmpty(ctx context.Context) (Event, error) {
	return s.Create(ctx, Mutation{})
}

// Update merges m onto an existing event. It never creates one.
func (s *Store) Update(ctx context.Context, id string, m Mutation) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	e.apply(m)
	e.UpdatedAt = s.now().UTC()
	s.events[id] = e
	return e.clone(), nil
}

func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) (Event, error) {
	return s.Update(ctx, id, Mutation{Favorite: &favorite})
}

// Delete removes an event and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return false
	}
	delete(s.events, id)
	return true
}

// Search ranks events against query; a blank query is the same as List.
func (s *Store) Search(ctx context.Context, query string) []Event {
	query = strings.TrimSpace(query)
	listed := s.List(ctx)
	if query == "" {
		return listed
	}

	type ranked struct {
		event Event
		rank  int
	}
	matches := make([]ranked, 0, len(listed))
	for _, e := range listed {
		if r := rankEvent(e, query); r > rankNone {
			matches = append(matches, ranked{event: e, rank: r})
		}
	}
	slices.SortStableFunc(matches, func(a, b ranked) int {
		return cmp.Compare(b.rank, a.rank)
	})

	out := make([]Event, len(matches))
	for i, m := range matches {
		out[i] = m.event
	}
	return out
}

func sortEvents(events []Event) {
	slices.SortFunc(events, compareEvents)
}

// compareEvents orders by date descending (undated last), title ascending,
// then id so the order is total.
func compareEvents(a, b Event) int {
	da, aok := eventDate(a)
	db, bok := eventDate(b)
	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case aok && bok && !da.Equal(db):
		return db.Compare(da)
	}
	if c := cmp.Compare(deref(a.Title), deref(b.Title)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func eventDate(e Event) (time.Time, bool) {
	if e.Date == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, *e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
