package playlist

import (
	"context"
	"errors"
	"time"
)

// recordView appends a viewed record for (playlist, actor). A playlist with
// neither a saved filter nor live pinned items has nothing to view and is a
// validation failure. Two requests racing within the same collision bucket
// resolve to a single stored row; the loser still reports success.
func (s *Server) recordView(ctx context.Context, teamID, shortID, userID string) error {
	p, err := s.store.GetPlaylist(ctx, teamID, shortID)
	if errors.Is(err, ErrNotFound) {
		return &notFoundError{msg: "playlist not found"}
	}
	if err != nil {
		return err
	}

	if !p.HasFilters() {
		n, err := s.store.CountStaticItems(ctx, p.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return &validationError{msg: "cannot mark an empty playlist as viewed"}
		}
	}

	viewedAt := time.Now().UTC().Truncate(s.viewBucket)
	_, err = s.store.InsertPlaylistViewed(ctx, p.ID, teamID, userID, viewedAt)
	return err
}
