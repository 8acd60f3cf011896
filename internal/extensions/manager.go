package extensions

import (
	"fmt"
	"sync"
)

// ModuleType names a capability an extension can provide
type ModuleType string

const ModuleTypeSOPClassHandler ModuleType = "sopClassHandlerModule"

// Extension bundles the modules one plugin contributes
type Extension interface {
	ID() string
	SOPClassHandlers() []SOPClassHandler
}

// Manager holds registered extensions and their modules
type Manager struct {
	mu         sync.RWMutex
	extensions map[string]Extension
	handlers   []SOPClassHandler
}

// NewManager creates an empty extension manager
func NewManager() *Manager {
	return &Manager{
		extensions: make(map[string]Extension),
	}
}

// Register adds an extension. IDs must be unique.
func (m *Manager) Register(ext Extension) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.extensions[ext.ID()]; exists {
		return fmt.Errorf("extension %q already registered", ext.ID())
	}
	m.extensions[ext.ID()] = ext
	m.handlers = append(m.handlers, ext.SOPClassHandlers()...)
	return nil
}

// SOPClassHandlers returns the handlers registered under
// ModuleTypeSOPClassHandler, in registration order.
func (m *Manager) SOPClassHandlers() []SOPClassHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SOPClassHandler, len(m.handlers))
	copy(out, m.handlers)
	return out
}

// ModuleCount returns how many modules of a type are registered
func (m *Manager) ModuleCount(t ModuleType) int {
	if t != ModuleTypeSOPClassHandler {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// DICOMSRExtension contributes the structured report handler
type DICOMSRExtension struct{}

func (DICOMSRExtension) ID() string { return "dicom-sr" }

func (DICOMSRExtension) SOPClassHandlers() []SOPClassHandler {
	return []SOPClassHandler{SRHandler{}}
}
