package playlist

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCountLimit = 1000
	defaultViewBucket = time.Second
)

// Options carries the knobs the surrounding deployment decides: how many
// filter matches to count before reporting has_more, and how wide the
// same-instant collision window for viewed records is.
type Options struct {
	CountLimit int
	ViewBucket time.Duration
}

type Server struct {
	store  Store
	cache  *CountCache
	replay ReplayQuerier
	rdb    *redis.Client

	countLimit int
	viewBucket time.Duration
}

func NewServer(store Store, cache *CountCache, replay ReplayQuerier, rdb *redis.Client, opts Options) *Server {
	if opts.CountLimit <= 0 {
		opts.CountLimit = defaultCountLimit
	}
	if opts.ViewBucket <= 0 {
		opts.ViewBucket = defaultViewBucket
	}
	return &Server{
		store:      store,
		cache:      cache,
		replay:     replay,
		rdb:        rdb,
		countLimit: opts.CountLimit,
		viewBucket: opts.ViewBucket,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Post("/playlists", s.handleCreatePlaylist)
		r.Get("/playlists", s.handleListPlaylists)
		r.Get("/playlists/{shortId}", s.handleGetPlaylist)
		r.Patch("/playlists/{shortId}", s.handlePatchPlaylist)

		r.Get("/playlists/{shortId}/recordings", s.handleListRecordings)
		r.Post("/playlists/{shortId}/recordings/{sessionId}", s.handleAddRecording)
		r.Delete("/playlists/{shortId}/recordings/{sessionId}", s.handleDeleteRecording)

		r.Post("/playlists/{shortId}/viewed", s.handleMarkViewed)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "replay-playlist-service",
	})
}
