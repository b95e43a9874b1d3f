package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/pkg/version"
)

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := s.writeJSON(w, http.StatusOK, version.GetInfo()); err != nil {
		s.logger.WithError(err).Error("Failed to encode version response")
	}
}

// handleStreams returns statistics for every stream.
func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.StreamStats()

	response := struct {
		Streams []interface{} `json:"streams"`
		Count   int           `json:"count"`
	}{
		Streams: make([]interface{}, 0, len(stats)),
		Count:   len(stats),
	}
	for _, st := range stats {
		response.Streams = append(response.Streams, st)
	}

	if err := s.writeJSON(w, http.StatusOK, response); err != nil {
		s.logger.WithError(err).Error("Failed to encode streams response")
	}
}

// handleStream returns statistics for a single stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	for _, st := range s.stats.StreamStats() {
		if st.StreamID == id {
			if err := s.writeJSON(w, http.StatusOK, st); err != nil {
				s.logger.WithError(err).Error("Failed to encode stream response")
			}
			return
		}
	}

	s.errorHandler.HandleError(w, r, errors.NewNotFoundError(fmt.Sprintf("stream %s", id)))
}

// writeJSON is a helper to write JSON responses
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
