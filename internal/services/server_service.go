package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// ErrInvalidServer is returned for server requests that fail validation
var ErrInvalidServer = errors.New("invalid server config")

// ServerRepo persists retrieval servers
type ServerRepo interface {
	Create(ctx context.Context, server *models.ServerConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServerConfig, error)
	List(ctx context.Context) ([]models.ServerConfig, error)
	GetDefault(ctx context.Context) (*models.ServerConfig, error)
	SetDefault(ctx context.Context, id uuid.UUID) error
}

// ServerService manages the DICOMweb servers used by the retrieval viewer
type ServerService struct {
	repo ServerRepo
}

// NewServerService creates a new server service
func NewServerService(repo ServerRepo) *ServerService {
	return &ServerService{repo: repo}
}

// CreateServer validates and stores a server. The first server registered
// becomes the default.
func (s *ServerService) CreateServer(ctx context.Context, req *models.ServerConfigRequest) (*models.ServerConfig, error) {
	if err := validateServerRequest(req); err != nil {
		return nil, err
	}

	server := &models.ServerConfig{
		Name:                     strings.TrimSpace(req.Name),
		Type:                     models.ServerTypeDICOMWeb,
		WADORoot:                 strings.TrimRight(req.WADORoot, "/"),
		QIDORoot:                 strings.TrimRight(req.QIDORoot, "/"),
		WADOURIRoot:              strings.TrimRight(req.WADOURIRoot, "/"),
		QIDOSupportsIncludeField: true,
		ImageRendering:           defaultString(req.ImageRendering, "wadors"),
		ThumbnailRendering:       defaultString(req.ThumbnailRendering, "wadors"),
		IsActive:                 true,
	}

	current, err := s.repo.GetDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get default server: %w", err)
	}
	makeDefault := req.IsDefault || current == nil

	if err := s.repo.Create(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to create server config: %w", err)
	}

	if makeDefault {
		if err := s.repo.SetDefault(ctx, server.ID); err != nil {
			return nil, fmt.Errorf("failed to set default server: %w", err)
		}
		server.IsDefault = true
	}

	return server, nil
}

// GetServers lists active servers, default first
func (s *ServerService) GetServers(ctx context.Context) ([]models.ServerConfig, error) {
	servers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get server configs: %w", err)
	}
	return servers, nil
}

// GetServer retrieves one server
func (s *ServerService) GetServer(ctx context.Context, id uuid.UUID) (*models.ServerConfig, error) {
	server, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get server config: %w", err)
	}
	return server, nil
}

// SetDefault makes a server the default for retrieval
func (s *ServerService) SetDefault(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetDefault(ctx, id); err != nil {
		return fmt.Errorf("failed to set default server: %w", err)
	}
	return nil
}

// GetDefault satisfies ServerStore
func (s *ServerService) GetDefault(ctx context.Context) (*models.ServerConfig, error) {
	return s.repo.GetDefault(ctx)
}

func validateServerRequest(req *models.ServerConfigRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidServer)
	}
	for field, raw := range map[string]string{"wadoRoot": req.WADORoot, "qidoRoot": req.QIDORoot} {
		if raw == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidServer, field)
		}
		if err := validateRootURL(raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidServer, field, err)
		}
	}
	if req.WADOURIRoot != "" {
		if err := validateRootURL(req.WADOURIRoot); err != nil {
			return fmt.Errorf("%w: wadoUriRoot: %v", ErrInvalidServer, err)
		}
	}
	return nil
}

func validateRootURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
