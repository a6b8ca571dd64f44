package playlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row does not exist in the requested team
// scope. Cross-team lookups resolve to this too, never to a permission error.
var ErrNotFound = errors.New("not found")

// DB is the subset of *pgxpool.Pool the store needs. pgxmock implements it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ListFilter narrows the playlist list query.
type ListFilter struct {
	// Type is "collection", "saved_filters" or empty (no classification filter).
	Type      string
	Search    string
	Pinned    bool
	CreatedBy string
	Limit     int
}

type Store interface {
	CreatePlaylist(ctx context.Context, p *Playlist) error
	GetPlaylist(ctx context.Context, teamID, shortID string) (*Playlist, error)
	UpdatePlaylist(ctx context.Context, p *Playlist) error
	ListPlaylists(ctx context.Context, teamID string, f ListFilter) ([]Playlist, error)

	ListStaticItems(ctx context.Context, playlistID string, includeDeleted bool) ([]StaticItem, error)
	AddStaticItem(ctx context.Context, playlistID, sessionID string) error
	RemoveStaticItem(ctx context.Context, playlistID, sessionID string) error
	CountStaticItems(ctx context.Context, playlistID string) (int, error)

	GetOrBuildRecording(ctx context.Context, teamID, sessionID string) (*Recording, error)

	InsertPlaylistViewed(ctx context.Context, playlistID, teamID, userID string, viewedAt time.Time) (bool, error)
	ListViewedSessions(ctx context.Context, teamID, userID string) (map[string]bool, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const playlistColumns = `id, short_id, team_id, name, derived_name, description, pinned, filters, deleted,
       created_by, created_at, last_modified_by, last_modified_at`

func scanPlaylist(row pgx.Row, p *Playlist) error {
	return row.Scan(
		&p.ID,
		&p.ShortID,
		&p.TeamID,
		&p.Name,
		&p.DerivedName,
		&p.Description,
		&p.Pinned,
		&p.Filters,
		&p.Deleted,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.LastModifiedBy,
		&p.LastModifiedAt,
	)
}

func (s *PostgresStore) CreatePlaylist(ctx context.Context, p *Playlist) error {
	err := scanPlaylist(s.db.QueryRow(ctx, `
		INSERT INTO playlists (short_id, team_id, name, derived_name, description, pinned, filters, created_by, last_modified_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		RETURNING `+playlistColumns+`
	`, p.ShortID, p.TeamID, p.Name, p.DerivedName, p.Description, p.Pinned, p.Filters, p.CreatedBy), p)
	return err
}

func (s *PostgresStore) GetPlaylist(ctx context.Context, teamID, shortID string) (*Playlist, error) {
	var p Playlist
	err := scanPlaylist(s.db.QueryRow(ctx, `
		SELECT `+playlistColumns+`
		FROM playlists
		WHERE team_id = $1 AND short_id = $2 AND NOT deleted
	`, teamID, shortID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) UpdatePlaylist(ctx context.Context, p *Playlist) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE playlists
		SET name = $2,
			derived_name = $3,
			description = $4,
			pinned = $5,
			filters = $6,
			deleted = $7,
			last_modified_by = $8,
			last_modified_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.DerivedName, p.Description, p.Pinned, p.Filters, p.Deleted, p.LastModifiedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPlaylists(ctx context.Context, teamID string, f ListFilter) ([]Playlist, error) {
	sql := `
		SELECT ` + playlistColumns + `
		FROM playlists p
		WHERE p.team_id = $1 AND NOT p.deleted`
	args := []any{teamID}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := fmt.Sprintf("$%d", len(args))
		sql += ` AND (p.name ILIKE ` + n + ` OR p.derived_name ILIKE ` + n + `)`
	}
	if f.Pinned {
		sql += ` AND p.pinned`
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		sql += fmt.Sprintf(` AND p.created_by = $%d`, len(args))
	}
	switch f.Type {
	case typeCollection:
		sql += ` AND EXISTS (
			SELECT 1 FROM playlist_items i
			WHERE i.playlist_id = p.id AND NOT i.deleted
		)`
	case typeSavedFilters:
		// A playlist with both live pinned items and filters classifies as a
		// collection, not as saved_filters.
		sql += ` AND p.filters::text NOT IN ('{}', 'null') AND NOT EXISTS (
			SELECT 1 FROM playlist_items i
			WHERE i.playlist_id = p.id AND NOT i.deleted
		)`
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	sql += fmt.Sprintf(` ORDER BY p.pinned DESC, p.last_modified_at DESC LIMIT %d`, limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		var p Playlist
		if err := scanPlaylist(rows, &p); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (s *PostgresStore) ListStaticItems(ctx context.Context, playlistID string, includeDeleted bool) ([]StaticItem, error) {
	sql := `
		SELECT id, playlist_id, session_id, deleted, created_at
		FROM playlist_items
		WHERE playlist_id = $1`
	if !includeDeleted {
		sql += ` AND NOT deleted`
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, sql, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []StaticItem{}
	for rows.Next() {
		var it StaticItem
		if err := rows.Scan(&it.ID, &it.PlaylistID, &it.SessionID, &it.Deleted, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddStaticItem pins a session to a playlist. A soft-deleted row for the same
// pair is resurrected instead of duplicated; a live row makes this a no-op.
func (s *PostgresStore) AddStaticItem(ctx context.Context, playlistID, sessionID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var resurrected string
	err = tx.QueryRow(ctx, `
		UPDATE playlist_items
		SET deleted = FALSE, created_at = now()
		WHERE id = (
			SELECT id FROM playlist_items
			WHERE playlist_id = $1 AND session_id = $2 AND deleted
			LIMIT 1
		)
		RETURNING id
	`, playlistID, sessionID).Scan(&resurrected)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO playlist_items (playlist_id, session_id)
			VALUES ($1, $2)
			ON CONFLICT (playlist_id, session_id) WHERE NOT deleted DO NOTHING
		`, playlistID, sessionID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) RemoveStaticItem(ctx context.Context, playlistID, sessionID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE playlist_items
		SET deleted = TRUE
		WHERE playlist_id = $1 AND session_id = $2 AND NOT deleted
	`, playlistID, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountStaticItems(ctx context.Context, playlistID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM playlist_items
		WHERE playlist_id = $1 AND NOT deleted
	`, playlistID).Scan(&n)
	return n, err
}

// GetOrBuildRecording returns the recording row for (team, session), creating
// a minimal placeholder on first access. Safe under concurrent first access.
func (s *PostgresStore) GetOrBuildRecording(ctx context.Context, teamID, sessionID string) (*Recording, error) {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO recordings (team_id, session_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, session_id) DO NOTHING
	`, teamID, sessionID); err != nil {
		return nil, err
	}

	var rec Recording
	err := s.db.QueryRow(ctx, `
		SELECT team_id, session_id, created_at
		FROM recordings
		WHERE team_id = $1 AND session_id = $2
	`, teamID, sessionID).Scan(&rec.TeamID, &rec.SessionID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertPlaylistViewed appends a viewed record. viewedAt must already be
// truncated to the collision bucket; the unique constraint collapses
// concurrent writers racing within the same bucket into a single row.
// Returns whether a new row was created.
func (s *PostgresStore) InsertPlaylistViewed(ctx context.Context, playlistID, teamID, userID string, viewedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO playlist_viewed (playlist_id, team_id, user_id, viewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (playlist_id, user_id, viewed_at) DO NOTHING
	`, playlistID, teamID, userID, viewedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race to a concurrent writer.
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListViewedSessions(ctx context.Context, teamID, userID string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT session_id FROM recording_viewed
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	viewed := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		viewed[strings.TrimSpace(id)] = true
	}
	return viewed, rows.Err()
}
