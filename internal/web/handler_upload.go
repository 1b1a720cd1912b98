package web

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/memoriam-site/memoriam/internal/domain"
	"github.com/memoriam-site/memoriam/internal/mediahost"
)

const maxUploadSize = 100 * 1024 * 1024 // 100 MB across the batch

// uploadResponse reports what happened to each file in the batch: created
// items for the successes, one message per failure.
type uploadResponse struct {
	Items  []domain.Item `json:"items"`
	Errors []string      `json:"errors,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "failed to parse multipart form")
		return
	}

	cat := domain.Category(r.FormValue("category"))
	captions := r.MultipartForm.Value["captions"]
	if len(captions) == 0 {
		if single := r.FormValue("caption"); single != "" {
			captions = []string{single}
		}
	}

	var files [][]byte
	for _, header := range r.MultipartForm.File["files"] {
		data, err := readUpload(header, s.logger)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "failed to read uploaded file")
			return
		}
		files = append(files, data)
	}

	created, failures, err := s.service.Upload(r.Context(), files, cat, captions)
	if err != nil {
		s.serviceError(w, err, "upload failed")
		return
	}

	resp := uploadResponse{Items: created}
	if resp.Items == nil {
		resp.Items = []domain.Item{}
	}
	for _, f := range failures {
		resp.Errors = append(resp.Errors, f.Error())
	}

	status := http.StatusCreated
	if len(failures) > 0 {
		status = http.StatusMultiStatus
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.serviceError(w, err, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serviceError maps service-layer errors onto HTTP statuses with the shared
// error envelope.
func (s *Server) serviceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrNoFiles),
		errors.Is(err, domain.ErrCaptionMismatch):
		s.writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, mediahost.ErrUnavailable):
		s.logger.Error(logMsg, "error", err)
		s.writeError(w, http.StatusBadGateway, "media_host_unreachable", "media host is unreachable")
	default:
		s.logger.Error(logMsg, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// readUpload opens and slurps one multipart file part.
func readUpload(header *multipart.FileHeader, logger *slog.Logger) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("failed to close upload part", "error", err)
		}
	}()
	return io.ReadAll(f)
}
