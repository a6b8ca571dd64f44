package playlist

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPlaylist(r.Context(), requestTeam(r), chi.URLParam(r, "shortId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	opts := resolveOptions{
		forceRefresh: r.URL.Query().Get("force_refresh") == "true",
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			opts.limit = v
		}
	}

	recordings, hasMore, err := s.resolveRecordings(r.Context(), p, opts)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":  recordings,
		"has_more": hasMore,
	})
}

func (s *Server) handleAddRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID := requestTeam(r)
	sessionID := chi.URLParam(r, "sessionId")

	p, err := s.store.GetPlaylist(ctx, teamID, chi.URLParam(r, "shortId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	// Materialize the recording row up front so the pin never dangles.
	if _, err := s.store.GetOrBuildRecording(ctx, teamID, sessionID); err != nil {
		writeAPIError(w, err)
		return
	}

	if err := s.store.AddStaticItem(ctx, p.ID, sessionID); err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionId")

	p, err := s.store.GetPlaylist(ctx, requestTeam(r), chi.URLParam(r, "shortId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	if err := s.store.RemoveStaticItem(ctx, p.ID, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "recording not in playlist")
			return
		}
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
