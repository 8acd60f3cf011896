package extensions

import "github.com/otcheredev/dicom-standalone-viewer/internal/models"

// PluginSR is the viewport plugin for structured reports
const PluginSR = "dicom-html"

// SRHandler gives each structured report instance its own display set
type SRHandler struct{}

func (SRHandler) ID() string { return "dicom-sr" }

func (SRHandler) SOPClassUIDs() []string {
	return []string{
		"1.2.840.10008.5.1.4.1.1.88.11", // Basic Text SR
		"1.2.840.10008.5.1.4.1.1.88.22", // Enhanced SR
		"1.2.840.10008.5.1.4.1.1.88.33", // Comprehensive SR
		"1.2.840.10008.5.1.4.1.1.88.34", // Comprehensive 3D SR
		"1.2.840.10008.5.1.4.1.1.88.59", // Key Object Selection
	}
}

func (SRHandler) DisplaySetsFromSeries(study *models.RawStudy, series *models.RawSeries) []models.DisplaySet {
	out := make([]models.DisplaySet, 0, len(series.Instances))
	for _, inst := range series.Instances {
		ds := newDisplaySet(study, series, inst.Metadata.SOPClassUID(), PluginSR)
		ds.Images = []models.ImageRef{imageRef(inst)}
		out = append(out, ds)
	}
	return out
}
