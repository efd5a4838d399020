package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tipwave/tips"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TipHandler serves the tip API endpoints.
type TipHandler struct {
	svc *tips.Service
	log *zap.Logger
}

// NewTipHandler creates a new tip handler.
func NewTipHandler(svc *tips.Service, log *zap.Logger) *TipHandler {
	return &TipHandler{svc: svc, log: log}
}

// CreateTipHandler records a tip and triggers the artist notification.
func (h *TipHandler) CreateTipHandler(w http.ResponseWriter, r *http.Request) {
	var params tips.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tip, err := h.svc.Create(params)
	if err != nil {
		h.respondTipError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tip)
}

// GetTipHandler returns one tip by id.
func (h *TipHandler) GetTipHandler(w http.ResponseWriter, r *http.Request) {
	tip, err := h.svc.FindOne(mux.Vars(r)["id"])
	if err != nil {
		h.respondTipError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// GetTipsByArtistHandler lists tips received by an artist.
func (h *TipHandler) GetTipsByArtistHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.FindByArtist(mux.Vars(r)["artistId"])
	if err != nil {
		h.respondTipError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetTipsBySenderHandler lists tips sent by a user.
func (h *TipHandler) GetTipsBySenderHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.FindBySender(mux.Vars(r)["senderId"])
	if err != nil {
		h.respondTipError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *TipHandler) respondTipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tips.ErrTipNotFound):
		writeError(w, http.StatusNotFound, "Tip not found")
	case errors.Is(err, tips.ErrAmountInvalid),
		errors.Is(err, tips.ErrArtistRequired),
		errors.Is(err, tips.ErrSenderRequired),
		errors.Is(err, tips.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("tip request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
