package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// Phase names a view state
type Phase string

const (
	PhaseLoading             Phase = "loading"
	PhaseError               Phase = "error"
	PhaseReadyWithStudies    Phase = "ready"
	PhaseReadyNeedsRetrieval Phase = "retrieve"
)

// ViewState is one of Loading, Failed, ReadyWithStudies or
// ReadyNeedsRetrieval.
type ViewState interface {
	Phase() Phase
	isViewState()
}

// Loading is the initial state
type Loading struct{}

// Failed is terminal; Message is shown to the user
type Failed struct {
	Message string
}

// ReadyWithStudies binds the viewer to normalized studies
type ReadyWithStudies struct {
	Studies           []*models.NormalizedStudy
	StudyInstanceUIDs []string
}

// ReadyNeedsRetrieval binds the retrieval viewer to identifiers
type ReadyNeedsRetrieval struct {
	Server             *models.ServerConfig
	StudyInstanceUIDs  []string
	SeriesInstanceUIDs []string
}

func (Loading) Phase() Phase             { return PhaseLoading }
func (Failed) Phase() Phase              { return PhaseError }
func (ReadyWithStudies) Phase() Phase    { return PhaseReadyWithStudies }
func (ReadyNeedsRetrieval) Phase() Phase { return PhaseReadyNeedsRetrieval }

func (Loading) isViewState()             {}
func (Failed) isViewState()              {}
func (ReadyWithStudies) isViewState()    {}
func (ReadyNeedsRetrieval) isViewState() {}

// RenderState is the flat state exposed to the rendering layer
type RenderState struct {
	Studies            []*models.NormalizedStudy `json:"studies"`
	Server             *models.ServerConfig      `json:"server"`
	StudyInstanceUIDs  []string                  `json:"studyInstanceUIDs"`
	SeriesInstanceUIDs []string                  `json:"seriesInstanceUIDs"`
	Error              *string                   `json:"error"`
	Loading            bool                      `json:"loading"`
}

// StateOf flattens a ViewState
func StateOf(state ViewState) RenderState {
	switch s := state.(type) {
	case Failed:
		msg := s.Message
		return RenderState{Error: &msg}
	case ReadyWithStudies:
		return RenderState{Studies: s.Studies, StudyInstanceUIDs: s.StudyInstanceUIDs}
	case ReadyNeedsRetrieval:
		return RenderState{
			Server:             s.Server,
			StudyInstanceUIDs:  s.StudyInstanceUIDs,
			SeriesInstanceUIDs: s.SeriesInstanceUIDs,
		}
	default:
		return RenderState{Loading: true}
	}
}

// Views selected by Render
const (
	ViewNotFound              = "not_found"
	ViewViewer                = "viewer"
	ViewViewerRetrieveStudies = "viewer_retrieve_study_data"
)

// RenderedView tells the client which view to show and what to bind it to
type RenderedView struct {
	View               string                    `json:"view"`
	Message            string                    `json:"message,omitempty"`
	ShowGoBackButton   bool                      `json:"showGoBackButton,omitempty"`
	Studies            []*models.NormalizedStudy `json:"studies,omitempty"`
	StudyInstanceUIDs  []string                  `json:"studyInstanceUIDs,omitempty"`
	SeriesInstanceUIDs []string                  `json:"seriesInstanceUIDs,omitempty"`
	Server             *models.ServerConfig      `json:"server,omitempty"`
}

// Render selects the view for a state
func Render(state ViewState) RenderedView {
	switch s := state.(type) {
	case Failed:
		quoted, _ := json.Marshal(s.Message)
		return RenderedView{
			View:             ViewNotFound,
			Message:          "Error: " + string(quoted),
			ShowGoBackButton: true,
		}
	case ReadyWithStudies:
		return RenderedView{
			View:              ViewViewer,
			Studies:           s.Studies,
			StudyInstanceUIDs: s.StudyInstanceUIDs,
		}
	case ReadyNeedsRetrieval:
		return RenderedView{
			View:               ViewViewerRetrieveStudies,
			StudyInstanceUIDs:  s.StudyInstanceUIDs,
			SeriesInstanceUIDs: s.SeriesInstanceUIDs,
			Server:             s.Server,
		}
	default:
		return RenderedView{View: ViewNotFound, Message: "Loading..."}
	}
}

// ViewSession is one mounted view. It starts Loading and takes at most one
// terminal transition; results arriving after Teardown are dropped.
type ViewSession struct {
	ID        uuid.UUID
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	state  ViewState
	closed bool
}

func newViewSession(parent context.Context, timeout time.Duration) *ViewSession {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &ViewSession{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     Loading{},
	}
}

// State returns the current state
func (s *ViewSession) State() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Done is closed once the mount sequence has finished
func (s *ViewSession) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the session was torn down
func (s *ViewSession) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Teardown cancels the pending mount. Safe to call more than once.
func (s *ViewSession) Teardown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// transition applies next if the session is still Loading and mounted
func (s *ViewSession) transition(next ViewState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, loading := s.state.(Loading); !loading {
		return false
	}
	if _, loading := next.(Loading); loading {
		return false
	}
	s.state = next
	return true
}
