package imageloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// DICOMWebConfig configures the HTTP image loader
type DICOMWebConfig struct {
	Timeout       time.Duration
	MaxImageBytes int64
	BearerToken   string
	Username      string
	Password      string
}

// DICOMWebLoader fetches single Part 10 objects over HTTP(S)
type DICOMWebLoader struct {
	client   *http.Client
	maxBytes int64
	token    string
	username string
	password string
}

// NewDICOMWebLoader creates a new HTTP image loader
func NewDICOMWebLoader(cfg DICOMWebConfig) *DICOMWebLoader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 512 << 20
	}

	return &DICOMWebLoader{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxBytes: cfg.MaxImageBytes,
		token:    cfg.BearerToken,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// LoadImage retrieves the object behind a dicomweb: or wadouri: image ID
func (d *DICOMWebLoader) LoadImage(ctx context.Context, imageID string) (*Image, error) {
	_, locator, err := SplitImageID(imageID)
	if err != nil {
		return nil, err
	}

	target, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL %q: %w", locator, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("invalid image URL %q: scheme must be http or https", locator)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	d.addAuth(req)
	req.Header.Set("Accept", "application/dicom, application/octet-stream;q=0.9, */*;q=0.1")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("image server returned status %d: %s", resp.StatusCode, string(body))
	}

	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", resp.ContentLength, d.maxBytes)
	}

	// Read one byte past the limit to detect oversized bodies without a length
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("image exceeds limit of %d bytes", d.maxBytes)
	}

	log.Debug().
		Str("image_id", imageID).
		Int("bytes", len(data)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Image retrieved")

	return &Image{
		ImageID:     imageID,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Close closes idle connections
func (d *DICOMWebLoader) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// addAuth adds authentication to the request
func (d *DICOMWebLoader) addAuth(req *http.Request) {
	if d.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.token))
	} else if d.username != "" && d.password != "" {
		req.SetBasicAuth(d.username, d.password)
	}
}
