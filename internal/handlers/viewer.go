package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/services"
	"github.com/rs/zerolog"
)

type ViewerHandler struct {
	views *services.ViewService
}

func NewViewerHandler(views *services.ViewService) *ViewerHandler {
	return &ViewerHandler{views: views}
}

type viewResponse struct {
	ID     *uuid.UUID            `json:"id,omitempty"`
	Phase  services.Phase        `json:"phase"`
	Closed bool                  `json:"closed,omitempty"`
	View   services.RenderedView `json:"view"`
	State  services.RenderState  `json:"state"`
}

func newViewResponse(state services.ViewState) viewResponse {
	return viewResponse{
		Phase: state.Phase(),
		View:  services.Render(state),
		State: services.StateOf(state),
	}
}

// Viewer mounts the standalone view for ?url= and responds with its
// terminal state
func (h *ViewerHandler) Viewer(w http.ResponseWriter, r *http.Request) {
	state := h.views.RenderOnce(r.Context(), r.URL.Query())

	if failed, ok := state.(services.Failed); ok {
		zerolog.Ctx(r.Context()).Warn().Str("error", failed.Message).Msg("Standalone view failed")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newViewResponse(state))
}

// OpenView starts a background mount and returns the Loading session
func (h *ViewerHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	session := h.views.Open(r.URL.Query())

	resp := newViewResponse(session.State())
	resp.ID = &session.ID

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/v1/views/"+session.ID.String())
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// GetView returns the current state of a session
func (h *ViewerHandler) GetView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseViewID(w, r)
	if !ok {
		return
	}

	session, err := h.views.Get(id)
	if err != nil {
		writeViewError(w, r, err)
		return
	}

	resp := newViewResponse(session.State())
	resp.ID = &session.ID
	resp.Closed = session.Closed()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CloseView tears a session down
func (h *ViewerHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseViewID(w, r)
	if !ok {
		return
	}

	if err := h.views.Close(id); err != nil {
		writeViewError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseViewID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid view ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeViewError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		http.Error(w, "View not found", http.StatusNotFound)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("View request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
