package web

import (
	"net/http"

	"github.com/memoriam-site/memoriam/internal/domain"
)

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.Images(r.Context())
	if err != nil {
		s.logger.Error("list images failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "failed to load catalog")
		return
	}
	s.writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleListCategory(w http.ResponseWriter, r *http.Request) {
	cat := domain.Category(r.PathValue("category"))

	bucket, err := s.service.Bucket(r.Context(), cat)
	if err != nil {
		s.logger.Error("list category failed", "category", cat, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "failed to load catalog")
		return
	}
	s.writeJSON(w, http.StatusOK, bucket)
}

// handleRepair runs the offline category-repair pass: category fields are
// re-derived in place without touching bucket membership.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	corrected, err := s.service.Repair(r.Context())
	if err != nil {
		s.logger.Error("repair failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "repair failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"corrected": corrected})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "media_host_unreachable", "media host is unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
