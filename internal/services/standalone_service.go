package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/otcheredev/dicom-standalone-viewer/internal/imageloader"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metadata"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metrics"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/suyashkumar/dicom"
)

// ErrMissingURL is returned when the query has no url parameter
var ErrMissingURL = errors.New("no URL was specified, use ?url=$yourURL")

// ImageLoader loads and caches the encoded payload for an image ID
type ImageLoader interface {
	LoadAndCacheImage(ctx context.Context, imageID string) (*imageloader.Image, error)
}

// DatasetParser decodes payloads into datasets and study hierarchies
type DatasetParser interface {
	ExtractDataset(payload []byte, imageID string) (*dicom.Dataset, error)
	ExtractStudies(ds *dicom.Dataset, imageID string) *models.RawStudy
}

// ServerStore looks up the retrieval server for the no-studies path
type ServerStore interface {
	GetDefault(ctx context.Context) (*models.ServerConfig, error)
}

// FetchResult is the outcome of FetchAndParse. Studies is empty when nothing
// could be extracted; the identifiers then feed the retrieval viewer.
type FetchResult struct {
	ImageID            string
	Studies            []*models.RawStudy
	StudyInstanceUIDs  []string
	SeriesInstanceUIDs []string
	Server             *models.ServerConfig
}

// StandaloneService retrieves a single remote image and registers its
// instances with the metadata provider.
type StandaloneService struct {
	loader   ImageLoader
	parser   DatasetParser
	provider *metadata.Provider
	servers  ServerStore
}

// NewStandaloneService creates a new standalone service. servers may be nil.
func NewStandaloneService(
	loader ImageLoader,
	parser DatasetParser,
	provider *metadata.Provider,
	servers ServerStore,
) *StandaloneService {
	return &StandaloneService{
		loader:   loader,
		parser:   parser,
		provider: provider,
		servers:  servers,
	}
}

// FetchAndParse loads the image named by the url query parameter, extracts
// its study and registers every instance. Studies come back unnormalized and
// StudyInstanceUIDs is left empty for the caller to derive.
func (s *StandaloneService) FetchAndParse(ctx context.Context, query url.Values) (*FetchResult, error) {
	rawURL := strings.TrimSpace(query.Get("url"))
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	imageID := imageloader.ImageID(imageloader.SchemeDICOMWeb, rawURL)

	img, err := s.loader.LoadAndCacheImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	ds, err := s.parser.ExtractDataset(img.Data, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	study := s.parser.ExtractStudies(ds, imageID)
	if study == nil {
		log.Info().Str("image_id", imageID).Msg("No studies extracted, falling back to retrieval")
		return s.retrievalResult(ctx, imageID, query)
	}

	studies := []*models.RawStudy{study}
	registered, err := s.registerStudies(studies)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("image_id", imageID).
		Str("study_uid", study.StudyInstanceUID).
		Int("instances", registered).
		Msg("Registered standalone study")

	return &FetchResult{
		ImageID:           imageID,
		Studies:           studies,
		StudyInstanceUIDs: []string{},
	}, nil
}

// registerStudies adds every instance to the provider and the image ID index
// in document order. All instances are validated first so a bad instance
// leaves nothing registered.
func (s *StandaloneService) registerStudies(studies []*models.RawStudy) (int, error) {
	for _, study := range studies {
		if err := validateStudy(study); err != nil {
			return 0, err
		}
	}

	count := 0
	for _, study := range studies {
		for _, series := range study.Series {
			for _, inst := range series.Instances {
				if err := s.provider.AddInstance(study.StudyInstanceUID, series.SeriesInstanceUID, inst.Metadata); err != nil {
					return count, fmt.Errorf("failed to register instance %s: %w", inst.URL, err)
				}
				s.provider.AddImageIDToUIDs(inst.URL, models.ImageUIDs{
					StudyInstanceUID:  study.StudyInstanceUID,
					SeriesInstanceUID: series.SeriesInstanceUID,
					SOPInstanceUID:    inst.Metadata.SOPInstanceUID(),
				})
				count++
			}
		}
	}

	metrics.RegisteredInstances.Add(float64(count))
	return count, nil
}

func validateStudy(study *models.RawStudy) error {
	if study.StudyInstanceUID == "" {
		return fmt.Errorf("study is missing StudyInstanceUID")
	}
	for _, series := range study.Series {
		if series.SeriesInstanceUID == "" {
			return fmt.Errorf("series in study %s is missing SeriesInstanceUID", study.StudyInstanceUID)
		}
		for _, inst := range series.Instances {
			if inst.URL == "" {
				return fmt.Errorf("instance in series %s has no image ID", series.SeriesInstanceUID)
			}
			if err := metadata.ValidateInstance(inst.Metadata); err != nil {
				return fmt.Errorf("instance %s: %w", inst.URL, err)
			}
		}
	}
	return nil
}

func (s *StandaloneService) retrievalResult(ctx context.Context, imageID string, query url.Values) (*FetchResult, error) {
	result := &FetchResult{
		ImageID:            imageID,
		StudyInstanceUIDs:  uidList(query, "StudyInstanceUIDs"),
		SeriesInstanceUIDs: uidList(query, "SeriesInstanceUIDs"),
	}

	if s.servers != nil {
		server, err := s.servers.GetDefault(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get retrieval server: %w", err)
		}
		result.Server = server
	}
	return result, nil
}

// uidList reads a UID list parameter. Keys match case-insensitively and
// values may repeat or be separated by commas or semicolons.
func uidList(query url.Values, key string) []string {
	var out []string
	for k, values := range query {
		if !strings.EqualFold(k, key) {
			continue
		}
		for _, v := range values {
			for _, uid := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
				if uid = strings.TrimSpace(uid); uid != "" {
					out = append(out, uid)
				}
			}
		}
	}
	return out
}
