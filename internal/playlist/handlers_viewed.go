package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	teamID := requestTeam(r)
	userID := requestUser(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	if err := s.recordView(r.Context(), teamID, chi.URLParam(r, "shortId"), userID); err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
