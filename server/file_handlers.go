package server

import (
	"errors"
	"io"
	"net/http"

	"tipwave/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FileHandler serves stored blobs back to clients: /files/{filename} for
// downloads, /stream/{filename} for playback. Both are pass-through
// reads from the store.
type FileHandler struct {
	store storage.FileStore
	log   *zap.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(store storage.FileStore, log *zap.Logger) *FileHandler {
	return &FileHandler{store: store, log: log}
}

// ServeFileHandler streams the stored blob as a download.
func (h *FileHandler) ServeFileHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

// StreamHandler streams the stored blob for inline playback.
func (h *FileHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *FileHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	filename := mux.Vars(r)["filename"]

	info, err := h.store.GetFileInfo(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		h.log.Error("failed to stat stored file", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	object, err := h.store.Open(r.Context(), filename)
	if err != nil {
		h.log.Error("failed to open stored file", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", info.MimeType)
	w.Header().Set("Content-Disposition", disposition+"; filename=\""+filename+"\"")
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, object); err != nil {
		h.log.Warn("error serving stored file", zap.String("filename", filename), zap.Error(err))
	}
}
