package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

type memServerRepo struct {
	servers []*models.ServerConfig
}

func (m *memServerRepo) Create(ctx context.Context, server *models.ServerConfig) error {
	server.ID = uuid.New()
	m.servers = append(m.servers, server)
	return nil
}

func (m *memServerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServerConfig, error) {
	for _, s := range m.servers {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memServerRepo) List(ctx context.Context) ([]models.ServerConfig, error) {
	out := make([]models.ServerConfig, 0, len(m.servers))
	for _, s := range m.servers {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memServerRepo) GetDefault(ctx context.Context) (*models.ServerConfig, error) {
	for _, s := range m.servers {
		if s.IsDefault {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memServerRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	found := false
	for _, s := range m.servers {
		s.IsDefault = s.ID == id
		found = found || s.IsDefault
	}
	if !found {
		return errors.New("not found")
	}
	return nil
}

func TestCreateServerFirstBecomesDefault(t *testing.T) {
	svc := NewServerService(&memServerRepo{})
	ctx := context.Background()

	first, err := svc.CreateServer(ctx, &models.ServerConfigRequest{
		Name:     "orthanc",
		WADORoot: "http://orthanc:8042/dicom-web/",
		QIDORoot: "http://orthanc:8042/dicom-web",
	})
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}
	if !first.IsDefault {
		t.Error("First server should become default")
	}
	if first.WADORoot != "http://orthanc:8042/dicom-web" {
		t.Errorf("Trailing slash should be trimmed, got %s", first.WADORoot)
	}
	if first.ImageRendering != "wadors" {
		t.Errorf("Expected default rendering, got %s", first.ImageRendering)
	}

	second, err := svc.CreateServer(ctx, &models.ServerConfigRequest{
		Name:     "dcm4chee",
		WADORoot: "https://pacs/wado",
		QIDORoot: "https://pacs/qido",
	})
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}
	if second.IsDefault {
		t.Error("Second server should not become default")
	}

	def, _ := svc.GetDefault(ctx)
	if def.ID != first.ID {
		t.Errorf("Default should still be the first server")
	}

	if err := svc.SetDefault(ctx, second.ID); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	def, _ = svc.GetDefault(ctx)
	if def.ID != second.ID {
		t.Errorf("Default should now be the second server")
	}
}

func TestCreateServerValidation(t *testing.T) {
	svc := NewServerService(&memServerRepo{})

	tests := []struct {
		name string
		req  models.ServerConfigRequest
	}{
		{"no name", models.ServerConfigRequest{WADORoot: "http://a", QIDORoot: "http://a"}},
		{"no wado", models.ServerConfigRequest{Name: "x", QIDORoot: "http://a"}},
		{"bad scheme", models.ServerConfigRequest{Name: "x", WADORoot: "ftp://a", QIDORoot: "http://a"}},
		{"no host", models.ServerConfigRequest{Name: "x", WADORoot: "http://", QIDORoot: "http://a"}},
		{"bad wado uri", models.ServerConfigRequest{Name: "x", WADORoot: "http://a", QIDORoot: "http://a", WADOURIRoot: "a/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateServer(context.Background(), &tt.req)
			if !errors.Is(err, ErrInvalidServer) {
				t.Errorf("Expected ErrInvalidServer, got %v", err)
			}
		})
	}
}
