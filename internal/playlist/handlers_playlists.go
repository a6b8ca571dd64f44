package playlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// playlistResponse is the API shape of a playlist, with the per-actor count
// summary embedded the way the listing UI consumes it.
type playlistResponse struct {
	*Playlist
	RecordingsCounts *RecordingsCounts `json:"recordings_counts"`
}

func (s *Server) playlistWithCounts(r *http.Request, p *Playlist) (*playlistResponse, error) {
	counts, err := s.recordingsCounts(r.Context(), p, requestUser(r))
	if err != nil {
		return nil, err
	}
	return &playlistResponse{Playlist: p, RecordingsCounts: counts}, nil
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID := requestTeam(r)
	userID := requestUser(r)
	if teamID == "" {
		writeError(w, http.StatusUnauthorized, "missing team context")
		return
	}

	var body struct {
		Name        string          `json:"name"`
		DerivedName *string         `json:"derived_name"`
		Description string          `json:"description"`
		Pinned      bool            `json:"pinned"`
		Filters     json.RawMessage `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) > 400 {
		writeError(w, http.StatusBadRequest, "name is too long")
		return
	}
	if len(body.Filters) == 0 {
		body.Filters = json.RawMessage("{}")
	}

	p := &Playlist{
		TeamID:      teamID,
		Name:        body.Name,
		DerivedName: body.DerivedName,
		Description: strings.TrimSpace(body.Description),
		Pinned:      body.Pinned,
		Filters:     body.Filters,
		CreatedBy:   userID,
	}

	// Regenerate on the rare short id collision within the team.
	for attempt := 0; ; attempt++ {
		p.ShortID = newShortID()
		err := s.store.CreatePlaylist(ctx, p)
		if err == nil {
			break
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && attempt < 3 {
			continue
		}
		writeAPIError(w, err)
		return
	}

	resp, err := s.playlistWithCounts(r, p)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	s.publishEvent(ctx, "playlist.created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPlaylist(r.Context(), requestTeam(r), chi.URLParam(r, "shortId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	resp, err := s.playlistWithCounts(r, p)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePatchPlaylist updates mutable playlist fields. short_id is
// read-only; patch attempts against it are silently ignored.
func (s *Server) handlePatchPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID := requestTeam(r)
	userID := requestUser(r)

	p, err := s.store.GetPlaylist(ctx, teamID, chi.URLParam(r, "shortId"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	var body struct {
		Name        *string         `json:"name"`
		DerivedName *string         `json:"derived_name"`
		Description *string         `json:"description"`
		Pinned      *bool           `json:"pinned"`
		Filters     json.RawMessage `json:"filters"`
		Deleted     *bool           `json:"deleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if len(name) > 400 {
			writeError(w, http.StatusBadRequest, "name is too long")
			return
		}
		p.Name = name
	}
	if body.DerivedName != nil {
		p.DerivedName = body.DerivedName
	}
	if body.Description != nil {
		p.Description = strings.TrimSpace(*body.Description)
	}
	if body.Pinned != nil {
		p.Pinned = *body.Pinned
	}
	if len(body.Filters) > 0 {
		p.Filters = body.Filters
	}
	if body.Deleted != nil {
		p.Deleted = *body.Deleted
	}
	p.LastModifiedBy = userID

	if err := s.store.UpdatePlaylist(ctx, p); err != nil {
		writeAPIError(w, err)
		return
	}

	// Re-read so last_modified_at reflects the write.
	p, err = s.store.GetPlaylist(ctx, teamID, p.ShortID)
	if errors.Is(err, ErrNotFound) {
		// Soft-deleted by this patch; answer with what we have.
		s.publishEvent(ctx, "playlist.deleted", map[string]any{"short_id": chi.URLParam(r, "shortId")})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeAPIError(w, err)
		return
	}

	resp, err := s.playlistWithCounts(r, p)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	s.publishEvent(ctx, "playlist.updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	teamID := requestTeam(r)
	userID := requestUser(r)

	f := ListFilter{
		Type:   r.URL.Query().Get("type"),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Pinned: r.URL.Query().Get("pinned") == "true",
	}
	if createdBy := r.URL.Query().Get("created_by"); createdBy != "" {
		f.CreatedBy = createdBy
	}
	if r.URL.Query().Get("user") == "true" {
		f.CreatedBy = userID
	}

	playlists, err := s.store.ListPlaylists(r.Context(), teamID, f)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	results := make([]*playlistResponse, 0, len(playlists))
	for i := range playlists {
		resp, err := s.playlistWithCounts(r, &playlists[i])
		if err != nil {
			writeAPIError(w, err)
			return
		}
		results = append(results, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(results),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}
