package playlist

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("replay-playlist: migrate pgcrypto: %v", err)
	}

	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlists (
          id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          short_id         TEXT NOT NULL,
          team_id          TEXT NOT NULL,
          name             TEXT NOT NULL DEFAULT '',
          derived_name     TEXT,
          description      TEXT NOT NULL DEFAULT '',
          pinned           BOOLEAN NOT NULL DEFAULT FALSE,
          filters          JSONB NOT NULL DEFAULT '{}',
          deleted          BOOLEAN NOT NULL DEFAULT FALSE,
          created_by       TEXT NOT NULL DEFAULT '',
          created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
          last_modified_by TEXT NOT NULL DEFAULT '',
          last_modified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (team_id, short_id)
      )
    `)
	if err != nil {
		log.Printf("replay-playlist: migrate playlists: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_items (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          session_id  TEXT NOT NULL,
          deleted     BOOLEAN NOT NULL DEFAULT FALSE,
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	// One live pin per (playlist, session); soft-deleted rows don't count.
	if _, err := pool.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_playlist_items_live
      ON playlist_items(playlist_id, session_id) WHERE NOT deleted
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS recordings (
          team_id    TEXT NOT NULL,
          session_id TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (team_id, session_id)
      )
    `); err != nil {
		return err
	}

	// viewed_at is bucket-truncated before insert; the unique constraint is
	// what collapses same-instant concurrent views into one row.
	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_viewed (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id uuid NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
          team_id     TEXT NOT NULL,
          user_id     TEXT NOT NULL,
          viewed_at   TIMESTAMPTZ NOT NULL,
          UNIQUE (playlist_id, user_id, viewed_at)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS recording_viewed (
          team_id    TEXT NOT NULL,
          user_id    TEXT NOT NULL,
          session_id TEXT NOT NULL,
          viewed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (team_id, user_id, session_id)
      )
    `); err != nil {
		return err
	}

	return nil
}
