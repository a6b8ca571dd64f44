package playlist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingsCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("empty playlist has null counts everywhere except watched", func(t *testing.T) {
		store := new(MockStore)
		srv, _ := newTestServer(t, store, new(MockReplay))

		p := &Playlist{ID: "pl-1", ShortID: "s1", TeamID: "team-1", Filters: json.RawMessage(`{}`)}
		store.On("ListStaticItems", ctx, "pl-1", false).Return([]StaticItem{}, nil)

		counts, err := srv.recordingsCounts(ctx, p, "user-1")
		require.NoError(t, err)

		assert.Nil(t, counts.Collection.Count)
		assert.Equal(t, 0, counts.Collection.WatchedCount)
		assert.Nil(t, counts.SavedFilters.Count)
		assert.Nil(t, counts.SavedFilters.HasMore)
		assert.Nil(t, counts.SavedFilters.WatchedCount)
		assert.Nil(t, counts.SavedFilters.Increased)
		assert.Nil(t, counts.SavedFilters.LastRefreshedAt)
	})

	t.Run("cached snapshot drives saved filter counts", func(t *testing.T) {
		store := new(MockStore)
		srv, _ := newTestServer(t, store, new(MockReplay))

		p := &Playlist{ID: "pl-2", ShortID: "s2", TeamID: "team-1", Filters: json.RawMessage(`{}`)}
		require.NoError(t, srv.cache.Put(ctx, "s2", &CountSnapshot{
			SessionIDs:  []string{"a", "b"},
			HasMore:     false,
			PreviousIDs: []string{"b"},
		}))

		store.On("ListStaticItems", ctx, "pl-2", false).Return([]StaticItem{}, nil)
		store.On("ListViewedSessions", ctx, "team-1", "user-1").Return(map[string]bool{"a": true}, nil)

		counts, err := srv.recordingsCounts(ctx, p, "user-1")
		require.NoError(t, err)

		require.NotNil(t, counts.SavedFilters.Count)
		assert.Equal(t, 2, *counts.SavedFilters.Count)
		require.NotNil(t, counts.SavedFilters.HasMore)
		assert.False(t, *counts.SavedFilters.HasMore)
		require.NotNil(t, counts.SavedFilters.WatchedCount)
		assert.Equal(t, 1, *counts.SavedFilters.WatchedCount)
		require.NotNil(t, counts.SavedFilters.Increased)
		assert.True(t, *counts.SavedFilters.Increased)
		assert.Nil(t, counts.SavedFilters.LastRefreshedAt)
	})

	t.Run("collection counts only live pins and watched intersection", func(t *testing.T) {
		store := new(MockStore)
		srv, _ := newTestServer(t, store, new(MockReplay))

		p := &Playlist{ID: "pl-3", ShortID: "s3", TeamID: "team-1"}
		store.On("ListStaticItems", ctx, "pl-3", false).Return([]StaticItem{
			{SessionID: "x"},
			{SessionID: "y"},
			{SessionID: "z"},
		}, nil)
		store.On("ListViewedSessions", ctx, "team-1", "user-1").Return(map[string]bool{"x": true, "z": true}, nil)

		counts, err := srv.recordingsCounts(ctx, p, "user-1")
		require.NoError(t, err)

		require.NotNil(t, counts.Collection.Count)
		assert.Equal(t, 3, *counts.Collection.Count)
		assert.Equal(t, 2, counts.Collection.WatchedCount)
	})

	t.Run("summary reads are idempotent without intervening writes", func(t *testing.T) {
		store := new(MockStore)
		srv, mr := newTestServer(t, store, new(MockReplay))

		p := &Playlist{ID: "pl-4", ShortID: "s4", TeamID: "team-1", Filters: json.RawMessage(`{}`)}
		refreshedAt := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
		require.NoError(t, srv.cache.Put(ctx, "s4", &CountSnapshot{
			SessionIDs:  []string{"a"},
			PreviousIDs: []string{},
			RefreshedAt: &refreshedAt,
		}))
		before, err := mr.Get(countKeyPrefix + "s4")
		require.NoError(t, err)

		store.On("ListStaticItems", ctx, "pl-4", false).Return([]StaticItem{}, nil)
		store.On("ListViewedSessions", ctx, "team-1", "user-1").Return(map[string]bool{}, nil)

		first, err := srv.recordingsCounts(ctx, p, "user-1")
		require.NoError(t, err)
		second, err := srv.recordingsCounts(ctx, p, "user-1")
		require.NoError(t, err)

		b1, err := json.Marshal(first)
		require.NoError(t, err)
		b2, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, b1, b2)

		// Reading the summary never rewrites the cached snapshot.
		after, err := mr.Get(countKeyPrefix + "s4")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
