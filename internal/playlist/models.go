package playlist

import (
	"bytes"
	"encoding/json"
	"time"
)

// Playlist is a named container of session recordings owned by a team.
// Membership comes from two sources: explicitly pinned items (a "collection")
// and a saved filter whose matches against the replay event stream form the
// dynamic part. A playlist may have both. Playlists are never hard-deleted.
type Playlist struct {
	ID             string          `json:"id"`
	ShortID        string          `json:"short_id"`
	TeamID         string          `json:"-"`
	Name           string          `json:"name"`
	DerivedName    *string         `json:"derived_name"`
	Description    string          `json:"description"`
	Pinned         bool            `json:"pinned"`
	Filters        json.RawMessage `json:"filters"`
	Deleted        bool            `json:"deleted"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	LastModifiedBy string          `json:"last_modified_by"`
	LastModifiedAt time.Time       `json:"last_modified_at"`
}

// HasFilters reports whether the playlist carries a non-empty saved filter.
// The filter spec itself is opaque to this service.
func (p *Playlist) HasFilters() bool {
	f := bytes.TrimSpace(p.Filters)
	return len(f) > 0 && !bytes.Equal(f, []byte("{}")) && !bytes.Equal(f, []byte("null"))
}

// StaticItem pins a single session recording to a playlist. Removal is a
// soft delete; at most one non-deleted row exists per (playlist, session).
type StaticItem struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlist_id"`
	SessionID  string    `json:"session_id"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recording is a lazily materialized row for a session known to the replay
// event stream. It is identified by (team, session) and owned by no playlist.
type Recording struct {
	SessionID string     `json:"id"`
	TeamID    string     `json:"-"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ViewedRecord is the append-only fact that an actor viewed a playlist.
type ViewedRecord struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlist_id"`
	TeamID     string    `json:"team_id"`
	UserID     string    `json:"user_id"`
	ViewedAt   time.Time `json:"viewed_at"`
}

// Classification selectors for the playlist list endpoint.
const (
	typeCollection   = "collection"
	typeSavedFilters = "saved_filters"
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string {
	return e.msg
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

// upstreamError marks a failure of the replay query collaborator. Callers
// surface it as a bad gateway and never retry here.
type upstreamError struct {
	msg string
}

func (e *upstreamError) Error() string {
	return e.msg
}
