package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metadata"
)

// MetadataHandler exposes the study registry and the image-ID index
type MetadataHandler struct {
	studies  *metadata.StudyManager
	provider *metadata.Provider
}

func NewMetadataHandler(studies *metadata.StudyManager, provider *metadata.Provider) *MetadataHandler {
	return &MetadataHandler{
		studies:  studies,
		provider: provider,
	}
}

// ListStudies returns every registered study
func (h *MetadataHandler) ListStudies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.studies.All())
}

// GetStudy returns one registered study
func (h *MetadataHandler) GetStudy(w http.ResponseWriter, r *http.Request) {
	studyUID := chi.URLParam(r, "studyUID")

	study, err := h.studies.Get(studyUID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(w, "Study not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get study", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(study)
}

// GetImageUIDs resolves ?imageId= to its study, series and instance UIDs
func (h *MetadataHandler) GetImageUIDs(w http.ResponseWriter, r *http.Request) {
	imageID := r.URL.Query().Get("imageId")
	if imageID == "" {
		http.Error(w, "imageId is required", http.StatusBadRequest)
		return
	}

	uids, err := h.provider.GetUIDsFromImageID(imageID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uids)
}
