package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func titles(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = deref(e.Title)
	}
	return out
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	created, err := s.Create(ctx, Mutation{Title: ptr("Launch"), Date: ptr("2024-01-01")})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CreateWithSuppliedID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	created, err := s.Create(ctx, Mutation{ID: ptr("launch")})
	require.NoError(t, err)
	assert.Equal(t, "launch", created.ID)

	_, err = s.Create(ctx, Mutation{ID: ptr("launch"), Title: ptr("other")})
	require.ErrorIs(t, err, ErrConflict)

	got, err := s.Get(ctx, "launch")
	require.NoError(t, err)
	assert.Nil(t, got.Title)
}

func TestStore_CreateRetriesCollidingID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	generated := []string{"dup", "dup", "fresh"}
	s.newID = func() (string, error) {
		id := generated[0]
		generated = generated[1:]
		return id, nil
	}

	first, err := s.CreateEmpty(ctx)
	require.NoError(t, err)
	second, err := s.CreateEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "fresh", second.ID)
}

func TestStore_CreateEmpty(t *testing.T) {
	s := NewStore()
	e, err := s.CreateEmpty(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e.Title)
	assert.Nil(t, e.Date)
	assert.False(t, e.Favorite)
}

func TestStore_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	created, err := s.Create(ctx, Mutation{
		Title:     ptr("Launch"),
		Location:  ptr("Hall"),
		Organizer: ptr("Ops"),
	})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	updated, err := s.Update(ctx, created.ID, Mutation{Title: ptr("Launch party"), Organizer: ptr("")})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, "Launch party", deref(got.Title))
	assert.Equal(t, "Hall", deref(got.Location))
	assert.Nil(t, got.Organizer, "empty string clears the field")
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestStore_UpdateMissingLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Create(ctx, Mutation{Title: ptr("A"), Date: ptr("2024-01-01")})
	require.NoError(t, err)
	before := s.List(ctx)

	_, err = s.Update(ctx, "missing-id", Mutation{Title: ptr("ghost")})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "missing-id")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.List(ctx))
}

func TestStore_IgnoresIDOnUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created, err := s.Create(ctx, Mutation{})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, Mutation{ID: ptr("other"), Title: ptr("x")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	_, err = s.Get(ctx, "other")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created, err := s.Create(ctx, Mutation{Title: ptr("A")})
	require.NoError(t, err)

	assert.True(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.False(t, s.Delete(ctx, created.ID), "second delete is a no-op")
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetFavorite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created, err := s.Create(ctx, Mutation{Title: ptr("A")})
	require.NoError(t, err)

	e, err := s.SetFavorite(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, e.Favorite)
	assert.Equal(t, "A", deref(e.Title))

	e, err = s.SetFavorite(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, e.Favorite)

	_, err = s.SetFavorite(ctx, "missing", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created, err := s.Create(ctx, Mutation{Title: ptr("A")})
	require.NoError(t, err)

	*created.Title = "mutated"
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", deref(got.Title))
}

func TestStore_ListOrdersByDateThenTitle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Create(ctx, Mutation{Title: ptr("A"), Date: ptr("2024-01-01")})
	require.NoError(t, err)
	_, err = s.Create(ctx, Mutation{Title: ptr("B"), Date: ptr("2024-02-01")})
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, titles(s.List(ctx)))
}

func TestStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, m := range []Mutation{
		{Title: ptr("Zulu"), Date: ptr("2024-03-01")},
		{Title: ptr("Alpha"), Date: ptr("2024-03-01")},
		{Title: ptr("Undated")},
		{Title: ptr("Old"), Date: ptr("2023-12-31")},
		{Title: ptr("Garbage date"), Date: ptr("someday")},
		{Title: ptr("New"), Date: ptr("2025-06-01")},
	} {
		_, err := s.Create(ctx, m)
		require.NoError(t, err)
	}

	assert.Equal(t,
		[]string{"New", "Alpha", "Zulu", "Old", "Garbage date", "Undated"},
		titles(s.List(ctx)),
	)
}

func TestStore_ListIsDeterministicForTies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Create(ctx, Mutation{ID: ptr(id), Title: ptr("Same"), Date: ptr("2024-01-01")})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		list := s.List(ctx)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	}
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created, err := s.Create(ctx, Mutation{Title: ptr("shared")})
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = s.Update(ctx, created.ID, Mutation{Location: ptr(fmt.Sprintf("room-%d", i))})
			} else {
				_, _ = s.Update(ctx, created.ID, Mutation{Organizer: ptr(fmt.Sprintf("org-%d", i))})
			}
			_ = s.List(ctx)
			_ = s.Search(ctx, "shared")
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", deref(got.Title))
	assert.NotNil(t, got.Location)
	assert.NotNil(t, got.Organizer)
}

func TestStore_ConcurrentCreatesHaveUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	const workers = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreateEmpty(ctx)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, e := range s.List(ctx) {
		require.False(t, seen[e.ID])
		seen[e.ID] = true
	}
	assert.Len(t, seen, workers)
}

func TestStore_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateEmpty(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}
