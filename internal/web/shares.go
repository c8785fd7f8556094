package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/store"
)

// shareDTO is the JSON shape of a shared schedule snapshot.
type shareDTO struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Term      string          `json:"term,omitempty"`
	Schedule  json.RawMessage `json:"schedule"`
	ViewCount int             `json:"viewCount"`
	CreatedAt string          `json:"createdAt"`
}

func toShareDTO(s store.Share) shareDTO {
	return shareDTO{
		ID:        s.ID,
		Title:     s.Title,
		Term:      s.Term,
		Schedule:  s.Payload,
		ViewCount: s.ViewCount,
		CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// handleCreateShare publishes a snapshot of the caller's schedule under an
// opaque id. The payload is stored as-is; viewers get exactly what was
// shared even if the live schedule changes afterwards.
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    string          `json:"title"`
		Term     string          `json:"term"`
		Schedule json.RawMessage `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Schedule) == 0 || string(body.Schedule) == "null" {
		writeError(w, http.StatusBadRequest, "schedule payload is required")
		return
	}
	if body.Title == "" {
		body.Title = "My Schedule"
	}

	created, err := s.st.CreateShare(r.Context(), store.Share{
		Title:   body.Title,
		Term:    body.Term,
		Payload: body.Schedule,
	})
	if err != nil {
		appLog.Error("create share failed", err)
		writeError(w, http.StatusInternalServerError, "failed to create share")
		return
	}

	resp := map[string]any{"share": toShareDTO(created)}
	if base := strings.TrimSuffix(s.cfg.ShareBaseURL, "/"); base != "" {
		resp["shareUrl"] = base + "/" + created.ID
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetShare is the public view-by-link endpoint; each fetch increments
// the snapshot's view counter.
func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	share, err := s.st.GetShare(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "shared schedule not found")
		return
	case err != nil:
		appLog.Error("get share failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load shared schedule")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"share": toShareDTO(share)})
}
