package playlist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreatePlaylist(ctx context.Context, p *Playlist) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStore) GetPlaylist(ctx context.Context, teamID, shortID string) (*Playlist, error) {
	args := m.Called(ctx, teamID, shortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Playlist), args.Error(1)
}

func (m *MockStore) UpdatePlaylist(ctx context.Context, p *Playlist) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStore) ListPlaylists(ctx context.Context, teamID string, f ListFilter) ([]Playlist, error) {
	args := m.Called(ctx, teamID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Playlist), args.Error(1)
}

func (m *MockStore) ListStaticItems(ctx context.Context, playlistID string, includeDeleted bool) ([]StaticItem, error) {
	args := m.Called(ctx, playlistID, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StaticItem), args.Error(1)
}

func (m *MockStore) AddStaticItem(ctx context.Context, playlistID, sessionID string) error {
	args := m.Called(ctx, playlistID, sessionID)
	return args.Error(0)
}

func (m *MockStore) RemoveStaticItem(ctx context.Context, playlistID, sessionID string) error {
	args := m.Called(ctx, playlistID, sessionID)
	return args.Error(0)
}

func (m *MockStore) CountStaticItems(ctx context.Context, playlistID string) (int, error) {
	args := m.Called(ctx, playlistID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) GetOrBuildRecording(ctx context.Context, teamID, sessionID string) (*Recording, error) {
	args := m.Called(ctx, teamID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Recording), args.Error(1)
}

func (m *MockStore) InsertPlaylistViewed(ctx context.Context, playlistID, teamID, userID string, viewedAt time.Time) (bool, error) {
	args := m.Called(ctx, playlistID, teamID, userID, viewedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListViewedSessions(ctx context.Context, teamID, userID string) (map[string]bool, error) {
	args := m.Called(ctx, teamID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type MockReplay struct {
	mock.Mock
}

func (m *MockReplay) MatchSessions(ctx context.Context, teamID string, filters json.RawMessage, limit int) ([]string, bool, error) {
	args := m.Called(ctx, teamID, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Bool(1), args.Error(2)
}

func (m *MockReplay) SummarizeSessions(ctx context.Context, teamID string, sessionIDs []string) ([]ReplaySummary, error) {
	args := m.Called(ctx, teamID, sessionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReplaySummary), args.Error(1)
}

// newTestServer wires a Server against mocks and a miniredis-backed cache.
func newTestServer(t *testing.T, store Store, replay ReplayQuerier) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewServer(store, NewCountCache(rdb), replay, nil, Options{}), mr
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
