package metadata

import (
	"sort"
	"sync"

	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// StudyManager is the registry of normalized studies for the current view.
// Purge clears it, Add inserts one study.
type StudyManager struct {
	mu      sync.RWMutex
	studies map[string]*models.NormalizedStudy
}

// NewStudyManager creates an empty registry
func NewStudyManager() *StudyManager {
	return &StudyManager{
		studies: make(map[string]*models.NormalizedStudy),
	}
}

// Purge removes every registered study
func (m *StudyManager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studies = make(map[string]*models.NormalizedStudy)
}

// Add registers a study, replacing one with the same StudyInstanceUID
func (m *StudyManager) Add(study *models.NormalizedStudy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studies[study.StudyInstanceUID] = study
}

// Get looks up a study by StudyInstanceUID
func (m *StudyManager) Get(studyUID string) (*models.NormalizedStudy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	study, ok := m.studies[studyUID]
	if !ok {
		return nil, ErrNotFound
	}
	return study, nil
}

// All returns the registered studies ordered by StudyInstanceUID
func (m *StudyManager) All() []*models.NormalizedStudy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.NormalizedStudy, 0, len(m.studies))
	for _, s := range m.studies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StudyInstanceUID < out[j].StudyInstanceUID
	})
	return out
}
