package playlist

import (
	"context"
	"time"
)

// CollectionCounts summarizes the pinned-items side of a playlist.
// Count is null until the playlist has at least one live pinned item.
type CollectionCounts struct {
	Count        *int `json:"count"`
	WatchedCount int  `json:"watched_count"`
}

// SavedFiltersCounts summarizes the saved-filter side. All fields are null
// until a snapshot has been computed; watched and increased are derived at
// read time and never cached.
type SavedFiltersCounts struct {
	Count           *int       `json:"count"`
	HasMore         *bool      `json:"has_more"`
	WatchedCount    *int       `json:"watched_count"`
	Increased       *bool      `json:"increased"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

type RecordingsCounts struct {
	Collection   CollectionCounts   `json:"collection"`
	SavedFilters SavedFiltersCounts `json:"saved_filters"`
}

// recordingsCounts builds the count summary for one playlist as seen by one
// actor. It only ever reads the cache; refreshes are triggered by recording
// resolution, not by summaries.
func (s *Server) recordingsCounts(ctx context.Context, p *Playlist, userID string) (*RecordingsCounts, error) {
	counts := &RecordingsCounts{}

	items, err := s.store.ListStaticItems(ctx, p.ID, false)
	if err != nil {
		return nil, err
	}

	snap, err := s.cache.Get(ctx, p.ShortID)
	if err != nil {
		return nil, err
	}

	var viewed map[string]bool
	if len(items) > 0 || snap != nil {
		viewed, err = s.store.ListViewedSessions(ctx, p.TeamID, userID)
		if err != nil {
			return nil, err
		}
	}

	if len(items) > 0 {
		n := len(items)
		counts.Collection.Count = &n
		for _, it := range items {
			if viewed[it.SessionID] {
				counts.Collection.WatchedCount++
			}
		}
	}

	if snap != nil {
		n := len(snap.SessionIDs)
		watched := 0
		for _, id := range snap.SessionIDs {
			if viewed[id] {
				watched++
			}
		}
		counts.SavedFilters = SavedFiltersCounts{
			Count:           &n,
			HasMore:         &snap.HasMore,
			WatchedCount:    &watched,
			Increased:       snap.Increased(),
			LastRefreshedAt: snap.RefreshedAt,
		}
	}

	return counts, nil
}
