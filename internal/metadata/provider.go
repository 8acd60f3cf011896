package metadata

import (
	"errors"
	"sync"

	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// ErrNotFound is returned for unknown studies, instances or image IDs
var ErrNotFound = errors.New("metadata not found")

// ErrMissingUID is returned when an instance lacks an identifier it is
// indexed by.
var ErrMissingUID = errors.New("instance is missing a required UID")

// Provider stores naturalized instance metadata and the image ID → UID index.
// Entries accumulate for the life of the process.
type Provider struct {
	mu        sync.RWMutex
	instances map[instanceKey]models.Naturalized
	imageUIDs map[string]models.ImageUIDs
}

type instanceKey struct {
	study, series, sop string
}

// NewProvider creates an empty provider
func NewProvider() *Provider {
	return &Provider{
		instances: make(map[instanceKey]models.Naturalized),
		imageUIDs: make(map[string]models.ImageUIDs),
	}
}

// ValidateInstance reports whether AddInstance would accept n. Only the SOP
// instance UID is read from the attributes; study and series UIDs come from
// the hierarchy the instance sits in.
func ValidateInstance(n models.Naturalized) error {
	if n.SOPInstanceUID() == "" {
		return ErrMissingUID
	}
	return nil
}

// AddInstance registers an instance's naturalized attributes under the study
// and series it was extracted from
func (p *Provider) AddInstance(studyUID, seriesUID string, n models.Naturalized) error {
	if studyUID == "" || seriesUID == "" {
		return ErrMissingUID
	}
	if err := ValidateInstance(n); err != nil {
		return err
	}
	key := instanceKey{study: studyUID, series: seriesUID, sop: n.SOPInstanceUID()}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.instances[key] = n
	return nil
}

// AddImageIDToUIDs maps an image ID to its identifier triple
func (p *Provider) AddImageIDToUIDs(imageID string, uids models.ImageUIDs) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageUIDs[imageID] = uids
}

// GetUIDsFromImageID resolves an image ID to its identifier triple
func (p *Provider) GetUIDsFromImageID(imageID string) (models.ImageUIDs, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	uids, ok := p.imageUIDs[imageID]
	if !ok {
		return models.ImageUIDs{}, ErrNotFound
	}
	return uids, nil
}

// GetInstance returns the attributes registered for an instance
func (p *Provider) GetInstance(studyUID, seriesUID, sopUID string) (models.Naturalized, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.instances[instanceKey{studyUID, seriesUID, sopUID}]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// Len returns the number of registered instances and image IDs
func (p *Provider) Len() (instances, imageIDs int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.instances), len(p.imageUIDs)
}
