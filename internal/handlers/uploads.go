package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/storage"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/go-chi/chi/v5"
)

// UploadHandler streams stored listing images back to the client.
type UploadHandler struct {
	images *storage.ImageStore
	logger *slog.Logger
}

func NewUploadHandler(images *storage.ImageStore, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{images: images, logger: logger}
}

func UploadRouter(r chi.Router, h *UploadHandler) {
	r.Get("/uploads/*", h.serve)
}

func (h *UploadHandler) serve(w http.ResponseWriter, r *http.Request) {
	object := chi.URLParam(r, "*")
	if object == "" || path.Clean(object) != object {
		writeError(w, http.StatusBadRequest, "invalid object path")
		return
	}

	reader, err := h.images.Open(r.Context(), object)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		h.logger.Error("image open failed", "object", object, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open image")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(object))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("image stream interrupted", "object", object, "error", err)
	}
}
