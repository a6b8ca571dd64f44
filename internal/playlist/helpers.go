package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAPIError(w http.ResponseWriter, err error) {
	var nf *notFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.msg)
		return
	}
	var ve *validationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.msg)
		return
	}
	var ue *upstreamError
	if errors.As(err, &ue) {
		log.Printf("replay-playlist: upstream: %v", err)
		writeError(w, http.StatusBadGateway, "replay query failed")
		return
	}
	log.Printf("replay-playlist: internal: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// teamID and userID are injected by the gateway; auth itself happens there.
func requestTeam(r *http.Request) string {
	return r.Header.Get("X-Team-Id")
}

func requestUser(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}

// newShortID generates the opaque short identifier playlists are addressed
// by. Uniqueness per team is enforced by the database.
func newShortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("replay-playlist: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("replay-playlist: publish event: %v", err)
	}
}
