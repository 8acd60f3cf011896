package services

import (
	"context"
	"sync"

	"github.com/otcheredev/dicom-standalone-viewer/internal/extensions"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metadata"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// HandlerSource supplies the sopClassHandlerModule handler set
type HandlerSource interface {
	SOPClassHandlers() []extensions.SOPClassHandler
}

// NormalizeResult holds normalized studies and their unique UIDs
type NormalizeResult struct {
	Studies           []*models.NormalizedStudy
	StudyInstanceUIDs []string
}

// Normalizer turns raw studies into registered, display-ready studies
type Normalizer struct {
	mu       sync.Mutex
	studies  *metadata.StudyManager
	handlers HandlerSource
}

// NewNormalizer creates a new normalizer
func NewNormalizer(studies *metadata.StudyManager, handlers HandlerSource) *Normalizer {
	return &Normalizer{
		studies:  studies,
		handlers: handlers,
	}
}

// NormalizeStudies purges the study registry, then registers every input in
// order. Display sets already present are kept as is; missing ones are
// derived with the registered SOP class handlers. Only one normalization
// runs at a time; the last one to run owns the registry.
func (n *Normalizer) NormalizeStudies(inputs []models.StudyInput) *NormalizeResult {
	result, _ := n.NormalizeStudiesContext(context.Background(), inputs)
	return result
}

// NormalizeStudiesContext is NormalizeStudies for a caller that may go away.
// ctx is checked once the lock is held; a done ctx leaves the registry as it
// was and returns ctx.Err().
func (n *Normalizer) NormalizeStudiesContext(ctx context.Context, inputs []models.StudyInput) (*NormalizeResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.studies.Purge()

	var handlers []extensions.SOPClassHandler
	handlersLoaded := false

	result := &NormalizeResult{
		Studies:           make([]*models.NormalizedStudy, 0, len(inputs)),
		StudyInstanceUIDs: []string{},
	}
	seen := make(map[string]bool)

	for _, in := range inputs {
		raw := in.RawStudy()
		study := &models.NormalizedStudy{
			StudyInstanceUID: raw.StudyInstanceUID,
			Study:            raw,
		}

		if ws, ok := in.(models.WithDisplaySets); ok && len(ws.DisplaySets) > 0 {
			study.DisplaySets = ws.DisplaySets
		} else {
			if !handlersLoaded {
				handlers = n.handlers.SOPClassHandlers()
				handlersLoaded = true
			}
			study.DisplaySets = extensions.CreateDisplaySets(raw, handlers)
			if study.DisplaySets == nil {
				study.DisplaySets = []models.DisplaySet{}
			}
		}

		n.studies.Add(study)
		result.Studies = append(result.Studies, study)

		if !seen[raw.StudyInstanceUID] {
			seen[raw.StudyInstanceUID] = true
			result.StudyInstanceUIDs = append(result.StudyInstanceUIDs, raw.StudyInstanceUID)
		}
	}

	return result, nil
}
