package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleBackendStats(w http.ResponseWriter, r *http.Request) {
	stats := s.env.API.Stats()
	if stats == nil {
		jsonError(w, "backend stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.env.API.BaseURL(),
		"stats":   stats.Report(),
	})
}

// handleExportStatus reports a background image save started by a convert page.
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if s.env.Saver == nil {
		jsonError(w, "image export unavailable", http.StatusServiceUnavailable)
		return
	}
	b := s.env.Saver.Batches().Get(chi.URLParam(r, "batchID"))
	if b == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b.Snapshot())
}
