package dicomfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrEmptyPayload is returned when there are no bytes to parse
var ErrEmptyPayload = errors.New("empty DICOM payload")

// Parser extracts datasets and studies from Part 10 payloads
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// ExtractDataset parses a Part 10 payload, skipping pixel data
func (p *Parser) ExtractDataset(payload []byte, imageID string) (*dicom.Dataset, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%s: %w", imageID, ErrEmptyPayload)
	}

	ds, err := dicom.Parse(bytes.NewReader(payload), int64(len(payload)), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM %s: %w", imageID, err)
	}
	return &ds, nil
}

// ExtractStudies builds the study → series → instance hierarchy for one
// image. It returns nil when the dataset carries no StudyInstanceUID.
func (p *Parser) ExtractStudies(ds *dicom.Dataset, imageID string) *models.RawStudy {
	if ds == nil {
		return nil
	}

	studyUID := getString(ds, tag.StudyInstanceUID)
	if studyUID == "" {
		return nil
	}

	metadata := Naturalize(ds)
	seriesNumber, _ := metadata.Int("SeriesNumber")

	return &models.RawStudy{
		StudyInstanceUID:       studyUID,
		StudyDate:              getString(ds, tag.StudyDate),
		StudyTime:              getString(ds, tag.StudyTime),
		StudyDescription:       getString(ds, tag.StudyDescription),
		StudyID:                getString(ds, tag.StudyID),
		AccessionNumber:        getString(ds, tag.AccessionNumber),
		ReferringPhysicianName: getString(ds, tag.ReferringPhysicianName),
		PatientName:            getString(ds, tag.PatientName),
		PatientID:              getString(ds, tag.PatientID),
		PatientBirthDate:       getString(ds, tag.PatientBirthDate),
		PatientSex:             getString(ds, tag.PatientSex),
		Series: []models.RawSeries{{
			SeriesInstanceUID: getString(ds, tag.SeriesInstanceUID),
			SeriesDescription: getString(ds, tag.SeriesDescription),
			SeriesNumber:      seriesNumber,
			Modality:          getString(ds, tag.Modality),
			Instances: []models.RawInstance{{
				URL:      imageID,
				Metadata: metadata,
			}},
		}},
	}
}

// getString returns the first string value for a tag, or "" if absent
func getString(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return ""
	}
	if el.Value.ValueType() != dicom.Strings {
		return ""
	}
	vals := el.Value.GetValue().([]string)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
