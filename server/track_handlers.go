package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tipwave/model"
	"tipwave/track"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxUploadSize = 100 << 20 // 100MB

// TrackHandler serves the track API endpoints.
type TrackHandler struct {
	svc *track.Service
	log *zap.Logger
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(svc *track.Service, log *zap.Logger) *TrackHandler {
	return &TrackHandler{svc: svc, log: log}
}

// CreateTrackHandler accepts a multipart upload with the audio file and
// its metadata and creates the track.
func (h *TrackHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.log.Warn("failed to parse upload form", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Failed to parse upload form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	defer file.Close()

	params := track.CreateParams{
		Title:       r.FormValue("title"),
		Artist:      r.FormValue("artist"),
		Album:       r.FormValue("album"),
		Description: r.FormValue("description"),
		Genre:       model.Genre(r.FormValue("genre")),
	}
	if v := r.FormValue("duration"); v != "" {
		if duration, err := strconv.Atoi(v); err == nil {
			params.Duration = &duration
		}
	}
	if v := r.FormValue("isPublic"); v != "" {
		if isPublic, err := strconv.ParseBool(v); err == nil {
			params.IsPublic = isPublic
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := h.svc.Create(r.Context(), params, file, header.Filename, contentType, header.Size)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetTracksHandler lists all tracks.
func (h *TrackHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.FindAll()
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetPublicTracksHandler lists only public tracks.
func (h *TrackHandler) GetPublicTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.FindPublic(r.Context())
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// SearchTracksHandler searches by title, artist or album substring.
func (h *TrackHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	tracks, err := h.svc.Search(query)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTracksByArtistHandler lists tracks with an exact artist match.
func (h *TrackHandler) GetTracksByArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist := mux.Vars(r)["artist"]

	tracks, err := h.svc.FindByArtist(artist)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTracksByGenreHandler lists tracks with the given genre.
func (h *TrackHandler) GetTracksByGenreHandler(w http.ResponseWriter, r *http.Request) {
	genre := model.Genre(mux.Vars(r)["genre"])

	tracks, err := h.svc.FindByGenre(genre)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler returns one track by id.
func (h *TrackHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	t, err := h.svc.FindOne(id)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTrackHandler applies a partial metadata update.
func (h *TrackHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var params track.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// IncrementPlayCountHandler adds one play to the track.
func (h *TrackHandler) IncrementPlayCountHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	updated, err := h.svc.IncrementPlayCount(id)
	if err != nil {
		h.respondTrackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTrackHandler removes the blob and the record.
func (h *TrackHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.svc.Remove(r.Context(), id); err != nil {
		h.respondTrackError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondTrackError translates service errors into HTTP statuses. The
// handlers own this translation; the service only reports what failed.
func (h *TrackHandler) respondTrackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, track.ErrNotFound):
		writeError(w, http.StatusNotFound, "Track not found")
	case errors.Is(err, track.ErrAudioFileRequired),
		errors.Is(err, track.ErrTitleRequired),
		errors.Is(err, track.ErrTitleTooLong),
		errors.Is(err, track.ErrFieldTooLong),
		errors.Is(err, track.ErrInvalidGenre):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("track request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
