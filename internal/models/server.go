package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServerType represents the protocol a retrieval server speaks
type ServerType string

const (
	ServerTypeDICOMWeb ServerType = "dicomweb"
)

// ServerConfig is a DICOMweb server the retrieval viewer can query when no
// studies were extracted from the standalone image.
type ServerConfig struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name                     string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Type                     ServerType `gorm:"type:varchar(50);not null" json:"type"`
	WADORoot                 string     `gorm:"type:varchar(500);not null" json:"wadoRoot"`
	QIDORoot                 string     `gorm:"type:varchar(500);not null" json:"qidoRoot"`
	WADOURIRoot              string     `gorm:"type:varchar(500)" json:"wadoUriRoot,omitempty"`
	QIDOSupportsIncludeField bool       `gorm:"default:true" json:"qidoSupportsIncludeField"`
	ImageRendering           string     `gorm:"type:varchar(50);default:'wadors'" json:"imageRendering"`
	ThumbnailRendering       string     `gorm:"type:varchar(50);default:'wadors'" json:"thumbnailRendering"`
	IsActive                 bool       `gorm:"default:true" json:"isActive"`
	IsDefault                bool       `gorm:"default:false" json:"isDefault"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (ServerConfig) TableName() string {
	return "server_configs"
}

// BeforeCreate hook
func (s *ServerConfig) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ServerConfigRequest represents a request to register a retrieval server
type ServerConfigRequest struct {
	Name               string `json:"name"`
	WADORoot           string `json:"wadoRoot"`
	QIDORoot           string `json:"qidoRoot"`
	WADOURIRoot        string `json:"wadoUriRoot,omitempty"`
	ImageRendering     string `json:"imageRendering,omitempty"`
	ThumbnailRendering string `json:"thumbnailRendering,omitempty"`
	IsDefault          bool   `json:"isDefault"`
}
