package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/imageloader"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metrics"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("view session not found")

// Fetcher runs the fetch-and-parse step of a mount
type Fetcher interface {
	FetchAndParse(ctx context.Context, query url.Values) (*FetchResult, error)
}

// AuditStore records mount outcomes
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// ViewConfig tunes session lifetimes
type ViewConfig struct {
	MountTimeout time.Duration
	SessionTTL   time.Duration
}

// ViewService owns view sessions and runs their mount sequence
type ViewService struct {
	fetcher    Fetcher
	normalizer *Normalizer
	audit      AuditStore
	cfg        ViewConfig

	mu       sync.RWMutex
	sessions map[uuid.UUID]*ViewSession
}

// NewViewService creates a new view service. audit may be nil.
func NewViewService(fetcher Fetcher, normalizer *Normalizer, audit AuditStore, cfg ViewConfig) *ViewService {
	if cfg.MountTimeout <= 0 {
		cfg.MountTimeout = time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &ViewService{
		fetcher:    fetcher,
		normalizer: normalizer,
		audit:      audit,
		cfg:        cfg,
		sessions:   make(map[uuid.UUID]*ViewSession),
	}
}

// Open creates a session and mounts it in the background. The returned
// session is Loading until the mount finishes.
func (v *ViewService) Open(query url.Values) *ViewSession {
	v.pruneExpired()

	s := newViewSession(context.Background(), v.cfg.MountTimeout)

	v.mu.Lock()
	v.sessions[s.ID] = s
	v.mu.Unlock()
	metrics.ActiveSessions.Inc()

	go v.mount(s, query)
	return s
}

// Get returns an open session
func (v *ViewService) Get(id uuid.UUID) (*ViewSession, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s, ok := v.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears a session down and forgets it
func (v *ViewService) Close(id uuid.UUID) error {
	v.mu.Lock()
	s, ok := v.sessions[id]
	delete(v.sessions, id)
	v.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Teardown()
	metrics.ActiveSessions.Dec()
	return nil
}

// RenderOnce mounts a short-lived session bound to ctx and returns its
// terminal state. A ctx that ends mid-mount yields Failed.
func (v *ViewService) RenderOnce(ctx context.Context, query url.Values) ViewState {
	s := newViewSession(ctx, v.cfg.MountTimeout)
	defer s.Teardown()

	v.mount(s, query)
	return s.State()
}

// Shutdown tears down every open session
func (v *ViewService) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, s := range v.sessions {
		s.Teardown()
		delete(v.sessions, id)
		metrics.ActiveSessions.Dec()
	}
}

func (v *ViewService) pruneExpired() {
	cutoff := time.Now().Add(-v.cfg.SessionTTL)

	v.mu.Lock()
	defer v.mu.Unlock()

	for id, s := range v.sessions {
		if s.CreatedAt.Before(cutoff) {
			s.Teardown()
			delete(v.sessions, id)
			metrics.ActiveSessions.Dec()
		}
	}
}

// mount runs fetch-and-normalize and applies the resulting transition
func (v *ViewService) mount(s *ViewSession, query url.Values) {
	defer close(s.done)
	start := time.Now()

	next := v.resolve(s.ctx, query)

	outcome := outcomeOf(next)
	if !s.transition(next) {
		outcome = models.AuditOutcomeAbandoned
		log.Debug().Str("session_id", s.ID.String()).Msg("View torn down before mount finished")
	}
	metrics.FetchOutcomes.WithLabelValues(outcome).Inc()

	v.record(s, query, next, outcome, time.Since(start))
}

// resolve computes the terminal state for a mount. Panics become Failed.
func (v *ViewService) resolve(ctx context.Context, query url.Values) (state ViewState) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("error", r).Msg("Panic during view mount")
			state = Failed{Message: fmt.Sprintf("%v", r)}
		}
	}()

	res, err := v.fetcher.FetchAndParse(ctx, query)
	if err != nil {
		return Failed{Message: err.Error()}
	}

	// Don't touch the study registry for a view nobody is waiting on
	if err := ctx.Err(); err != nil {
		return Failed{Message: err.Error()}
	}

	if len(res.Studies) == 0 {
		return ReadyNeedsRetrieval{
			Server:             res.Server,
			StudyInstanceUIDs:  res.StudyInstanceUIDs,
			SeriesInstanceUIDs: res.SeriesInstanceUIDs,
		}
	}

	inputs := make([]models.StudyInput, 0, len(res.Studies))
	for _, study := range res.Studies {
		inputs = append(inputs, models.Unprocessed{Study: study})
	}
	normalized, err := v.normalizer.NormalizeStudiesContext(ctx, inputs)
	if err != nil {
		return Failed{Message: err.Error()}
	}

	return ReadyWithStudies{
		Studies:           normalized.Studies,
		StudyInstanceUIDs: normalized.StudyInstanceUIDs,
	}
}

func (v *ViewService) record(s *ViewSession, query url.Values, state ViewState, outcome string, elapsed time.Duration) {
	if v.audit == nil {
		return
	}

	entry := &models.AuditLog{
		SessionID: s.ID,
		Action:    models.AuditActionViewMount,
		ImageID:   auditImageID(query),
		Outcome:   outcome,
		Duration:  elapsed.Milliseconds(),
	}
	switch st := state.(type) {
	case Failed:
		entry.ErrorMessage = st.Message
	case ReadyWithStudies:
		entry.StudyCount = len(st.Studies)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID.String()).Msg("Failed to write audit log")
	}
}

// auditImageID is the image ID the mount loaded, or "" without a url
func auditImageID(query url.Values) string {
	rawURL := strings.TrimSpace(query.Get("url"))
	if rawURL == "" {
		return ""
	}
	return imageloader.ImageID(imageloader.SchemeDICOMWeb, rawURL)
}

func outcomeOf(state ViewState) string {
	switch state.(type) {
	case ReadyWithStudies:
		return models.AuditOutcomeStudies
	case ReadyNeedsRetrieval:
		return models.AuditOutcomeRetrieval
	default:
		return models.AuditOutcomeError
	}
}
