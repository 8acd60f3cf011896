package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/database"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ServerRepository handles retrieval server database operations
type ServerRepository struct{}

// NewServerRepository creates a new server repository
func NewServerRepository() *ServerRepository {
	return &ServerRepository{}
}

// Create creates a new server configuration
func (r *ServerRepository) Create(ctx context.Context, server *models.ServerConfig) error {
	if err := database.DB.WithContext(ctx).Create(server).Error; err != nil {
		return fmt.Errorf("failed to create server config: %w", err)
	}
	return nil
}

// GetByID retrieves a server configuration by ID
func (r *ServerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServerConfig, error) {
	var server models.ServerConfig
	if err := database.DB.WithContext(ctx).Where("id = ?", id).First(&server).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get server config: %w", err)
	}
	return &server, nil
}

// List retrieves all active server configurations
func (r *ServerRepository) List(ctx context.Context) ([]models.ServerConfig, error) {
	var servers []models.ServerConfig
	if err := database.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_default DESC, created_at ASC").
		Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to list server configs: %w", err)
	}
	return servers, nil
}

// GetDefault retrieves the default server. A nil server and nil error means
// none is configured.
func (r *ServerRepository) GetDefault(ctx context.Context) (*models.ServerConfig, error) {
	var server models.ServerConfig
	err := database.DB.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&server).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default server config: %w", err)
	}
	return &server, nil
}

// SetDefault marks a server as the default (and unsets the others)
func (r *ServerRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	tx := database.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.ServerConfig{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to unset default flags: %w", err)
	}

	res := tx.Model(&models.ServerConfig{}).
		Where("id = ?", id).
		Update("is_default", true)
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to set default: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit().Error
}
