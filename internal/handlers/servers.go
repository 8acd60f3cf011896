package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/otcheredev/dicom-standalone-viewer/internal/repository"
	"github.com/otcheredev/dicom-standalone-viewer/internal/services"
	"github.com/rs/zerolog/log"
)

type ServerHandler struct {
	serverService *services.ServerService
}

func NewServerHandler(serverService *services.ServerService) *ServerHandler {
	return &ServerHandler{
		serverService: serverService,
	}
}

// CreateServer registers a retrieval server
func (h *ServerHandler) CreateServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ServerConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	server, err := h.serverService.CreateServer(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidServer) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to create server config")
		http.Error(w, "Failed to create server config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(server)
}

// GetServers lists the registered servers
func (h *ServerHandler) GetServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.serverService.GetServers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get server configs")
		http.Error(w, "Failed to get server configs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(servers)
}

// GetServer retrieves a specific server
func (h *ServerHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	serverIDStr := chi.URLParam(r, "id")
	serverID, err := uuid.Parse(serverIDStr)
	if err != nil {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	server, err := h.serverService.GetServer(r.Context(), serverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Server not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("server_id", serverIDStr).Msg("Failed to get server config")
		http.Error(w, "Failed to get server config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(server)
}

// SetDefault makes a server the retrieval default
func (h *ServerHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	serverIDStr := chi.URLParam(r, "id")
	serverID, err := uuid.Parse(serverIDStr)
	if err != nil {
		http.Error(w, "Invalid server ID", http.StatusBadRequest)
		return
	}

	if err := h.serverService.SetDefault(r.Context(), serverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Server not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("server_id", serverIDStr).Msg("Failed to set default server")
		http.Error(w, "Failed to set default server", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
