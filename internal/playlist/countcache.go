package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// countKeyPrefix namespaces the per-playlist count snapshots in redis.
const countKeyPrefix = "replay/playlist-counts/"

// CountSnapshot is the cached result of the last saved-filter match
// computation for a playlist. It is derived state: rebuildable at any time,
// and absence simply means "never computed".
//
// PreviousIDs holds the session ids of the one previous generation (null
// when no previous snapshot existed); consumers derive the "increased"
// property from it at read time.
type CountSnapshot struct {
	SessionIDs  []string   `json:"session_ids"`
	HasMore     bool       `json:"has_more"`
	PreviousIDs []string   `json:"previous_ids"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// Increased reports whether the match set grew since the previous
// generation. nil when no previous snapshot existed.
func (s *CountSnapshot) Increased() *bool {
	if s.PreviousIDs == nil {
		return nil
	}
	inc := len(s.SessionIDs) > len(s.PreviousIDs)
	return &inc
}

// CountCache is a process-wide keyed store for count snapshots, backed by
// redis. Entries never expire here; refresh cadence belongs to callers.
type CountCache struct {
	rdb *redis.Client
}

func NewCountCache(rdb *redis.Client) *CountCache {
	return &CountCache{rdb: rdb}
}

func (c *CountCache) key(shortID string) string {
	return countKeyPrefix + shortID
}

// Get returns the stored snapshot, or nil if none was ever computed.
func (c *CountCache) Get(ctx context.Context, shortID string) (*CountSnapshot, error) {
	data, err := c.rdb.Get(ctx, c.key(shortID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap CountSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Put overwrites the snapshot in a single SET. Concurrent refreshers are
// allowed; last writer wins.
func (c *CountCache) Put(ctx context.Context, shortID string, snap *CountSnapshot) error {
	if snap.SessionIDs == nil {
		snap.SessionIDs = []string{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(shortID), data, 0).Err()
}
