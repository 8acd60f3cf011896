package imageloader

import (
	"context"
	"errors"
	"strings"
)

// Image ID schemes
const (
	SchemeDICOMWeb = "dicomweb"
	SchemeWADOURI  = "wadouri"
)

var (
	// ErrUnsupportedScheme is returned when no loader handles an image ID
	ErrUnsupportedScheme = errors.New("unsupported image ID scheme")
	// ErrInvalidImageID is returned for image IDs without a scheme prefix
	ErrInvalidImageID = errors.New("invalid image ID")
)

// Image is an encoded payload fetched for an image ID
type Image struct {
	ImageID     string
	ContentType string
	Data        []byte
}

// Loader fetches the encoded payload behind an image ID
type Loader interface {
	LoadImage(ctx context.Context, imageID string) (*Image, error)
	Close() error
}

// SplitImageID splits "scheme:locator" into its parts
func SplitImageID(imageID string) (scheme, locator string, err error) {
	idx := strings.Index(imageID, ":")
	if idx <= 0 || idx == len(imageID)-1 {
		return "", "", ErrInvalidImageID
	}
	return imageID[:idx], imageID[idx+1:], nil
}

// ImageID prefixes a locator with a scheme
func ImageID(scheme, locator string) string {
	return scheme + ":" + locator
}
