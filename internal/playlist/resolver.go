package playlist

import (
	"context"
	"log"
	"sort"
	"time"
)

type resolveOptions struct {
	limit        int
	forceRefresh bool
}

// getOrRefreshSnapshot returns the cached saved-filter snapshot, recomputing
// it through the replay querier on a miss or when forced. The previous
// generation's session ids are carried into the new snapshot so readers can
// detect growth. A failed recompute leaves the stored snapshot untouched.
//
// Concurrent refreshes for the same playlist are allowed to race; match
// results are idempotent given the same filter, so last writer wins.
func (s *Server) getOrRefreshSnapshot(ctx context.Context, p *Playlist, force bool) (*CountSnapshot, error) {
	prev, err := s.cache.Get(ctx, p.ShortID)
	if err != nil {
		return nil, err
	}
	if prev != nil && !force {
		return prev, nil
	}

	ids, hasMore, err := s.replay.MatchSessions(ctx, p.TeamID, p.Filters, s.countLimit)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}

	next := &CountSnapshot{
		SessionIDs: ids,
		HasMore:    hasMore,
	}
	if prev != nil {
		next.PreviousIDs = prev.SessionIDs
		if next.PreviousIDs == nil {
			next.PreviousIDs = []string{}
		}
	}
	now := time.Now().UTC()
	next.RefreshedAt = &now

	if err := s.cache.Put(ctx, p.ShortID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// resolveRecordings merges a playlist's static pinned items with its
// saved-filter matches into one ordered list of recording rows.
//
// Static items come first, ordered by recording recency; filter matches
// follow in match order, with duplicates of already pinned sessions dropped.
// Sessions the event stream no longer knows about are misses and are omitted
// rather than failing the whole resolution.
func (s *Server) resolveRecordings(ctx context.Context, p *Playlist, opts resolveOptions) ([]Recording, bool, error) {
	items, err := s.store.ListStaticItems(ctx, p.ID, false)
	if err != nil {
		return nil, false, err
	}

	results := []Recording{}
	seen := map[string]bool{}

	if len(items) > 0 {
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.SessionID)
		}
		pinned, err := s.lookupRecordings(ctx, p.TeamID, ids)
		if err != nil {
			return nil, false, err
		}
		// Pinned recordings surface most-recent-first.
		sort.SliceStable(pinned, func(i, j int) bool {
			a, b := pinned[i].StartTime, pinned[j].StartTime
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return a.After(*b)
		})
		for _, rec := range pinned {
			seen[rec.SessionID] = true
			results = append(results, rec)
		}
	}

	hasMore := false
	if p.HasFilters() {
		snap, err := s.getOrRefreshSnapshot(ctx, p, opts.forceRefresh)
		if err != nil {
			return nil, false, err
		}
		hasMore = snap.HasMore

		matched, err := s.lookupRecordings(ctx, p.TeamID, snap.SessionIDs)
		if err != nil {
			return nil, false, err
		}
		bySession := make(map[string]Recording, len(matched))
		for _, rec := range matched {
			bySession[rec.SessionID] = rec
		}
		for _, id := range snap.SessionIDs {
			if seen[id] {
				continue
			}
			rec, ok := bySession[id]
			if !ok {
				continue
			}
			seen[id] = true
			results = append(results, rec)
		}
	}

	if opts.limit > 0 && len(results) > opts.limit {
		results = results[:opts.limit]
		hasMore = true
	}
	return results, hasMore, nil
}

// lookupRecordings resolves session ids against the live event stream and
// materializes a recording row for each one found. Ids the stream doesn't
// know are logged as misses and skipped.
func (s *Server) lookupRecordings(ctx context.Context, teamID string, sessionIDs []string) ([]Recording, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	summaries, err := s.replay.SummarizeSessions(ctx, teamID, sessionIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[string]ReplaySummary, len(summaries))
	for _, sum := range summaries {
		found[sum.SessionID] = sum
	}

	recordings := make([]Recording, 0, len(summaries))
	for _, id := range sessionIDs {
		sum, ok := found[id]
		if !ok {
			log.Printf("replay-playlist: session %s not found in replay stream, skipping", id)
			continue
		}
		rec, err := s.store.GetOrBuildRecording(ctx, teamID, id)
		if err != nil {
			return nil, err
		}
		rec.StartTime = sum.StartTime
		rec.EndTime = sum.EndTime
		recordings = append(recordings, *rec)
	}
	return recordings, nil
}
