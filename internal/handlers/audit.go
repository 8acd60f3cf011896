package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/rs/zerolog/log"
)

// AuditLister reads the mount history of a session
type AuditLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audits AuditLister
}

func NewAuditHandler(audits AuditLister) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// GetViewAudit lists the audit entries recorded for a view session
func (h *AuditHandler) GetViewAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseViewID(w, r)
	if !ok {
		return
	}

	entries, err := h.audits.ListBySession(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to list audit logs")
		http.Error(w, "Failed to list audit logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
