package extensions

import (
	"sort"

	"github.com/google/uuid"
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
)

// Image storage SOP classes rendered by the default stack viewport
var imageSOPClasses = map[string]bool{
	"1.2.840.10008.5.1.4.1.1.1":     true, // Computed Radiography
	"1.2.840.10008.5.1.4.1.1.1.1":   true, // Digital X-Ray For Presentation
	"1.2.840.10008.5.1.4.1.1.1.1.1": true, // Digital X-Ray For Processing
	"1.2.840.10008.5.1.4.1.1.1.2":   true, // Digital Mammography For Presentation
	"1.2.840.10008.5.1.4.1.1.1.2.1": true, // Digital Mammography For Processing
	"1.2.840.10008.5.1.4.1.1.1.3":   true, // Intra-Oral X-Ray For Presentation
	"1.2.840.10008.5.1.4.1.1.2":     true, // CT
	"1.2.840.10008.5.1.4.1.1.2.1":   true, // Enhanced CT
	"1.2.840.10008.5.1.4.1.1.3.1":   true, // Ultrasound Multi-frame
	"1.2.840.10008.5.1.4.1.1.4":     true, // MR
	"1.2.840.10008.5.1.4.1.1.4.1":   true, // Enhanced MR
	"1.2.840.10008.5.1.4.1.1.6.1":   true, // Ultrasound
	"1.2.840.10008.5.1.4.1.1.7":     true, // Secondary Capture
	"1.2.840.10008.5.1.4.1.1.7.1":   true, // Multi-frame Grayscale Byte SC
	"1.2.840.10008.5.1.4.1.1.7.2":   true, // Multi-frame Grayscale Word SC
	"1.2.840.10008.5.1.4.1.1.7.3":   true, // Multi-frame True Color SC
	"1.2.840.10008.5.1.4.1.1.12.1":  true, // X-Ray Angiographic
	"1.2.840.10008.5.1.4.1.1.12.2":  true, // X-Ray Radiofluoroscopic
	"1.2.840.10008.5.1.4.1.1.20":    true, // Nuclear Medicine
	"1.2.840.10008.5.1.4.1.1.128":   true, // PET
	"1.2.840.10008.5.1.4.1.1.481.1": true, // RT Image
}

// PluginStack is the viewport plugin for default image display sets
const PluginStack = "cornerstone"

// SOPClassHandler derives display sets for the series whose SOP class it
// claims.
type SOPClassHandler interface {
	ID() string
	SOPClassUIDs() []string
	DisplaySetsFromSeries(study *models.RawStudy, series *models.RawSeries) []models.DisplaySet
}

// IsImage reports whether an instance renders in the default stack viewport.
// Instances without a SOP class fall back to the presence of Rows.
func IsImage(n models.Naturalized) bool {
	if sopClass := n.SOPClassUID(); sopClass != "" {
		return imageSOPClasses[sopClass]
	}
	_, hasRows := n["Rows"]
	return hasRows
}

// CreateDisplaySets derives display sets for every series of a study in
// document order. The first handler claiming a series' SOP class wins;
// otherwise multi-frame images get one display set each and single-frame
// images share a stack ordered by InstanceNumber.
func CreateDisplaySets(study *models.RawStudy, handlers []SOPClassHandler) []models.DisplaySet {
	var out []models.DisplaySet
	for i := range study.Series {
		series := &study.Series[i]
		if len(series.Instances) == 0 {
			continue
		}

		if h := findHandler(handlers, series.Instances[0].Metadata.SOPClassUID()); h != nil {
			out = append(out, h.DisplaySetsFromSeries(study, series)...)
			continue
		}
		out = append(out, imageDisplaySets(study, series)...)
	}
	return out
}

func findHandler(handlers []SOPClassHandler, sopClassUID string) SOPClassHandler {
	if sopClassUID == "" {
		return nil
	}
	for _, h := range handlers {
		for _, uid := range h.SOPClassUIDs() {
			if uid == sopClassUID {
				return h
			}
		}
	}
	return nil
}

func imageDisplaySets(study *models.RawStudy, series *models.RawSeries) []models.DisplaySet {
	var out []models.DisplaySet
	var stack []models.RawInstance

	for _, inst := range series.Instances {
		if !IsImage(inst.Metadata) {
			continue
		}
		if frames := inst.Metadata.NumberOfFrames(); frames > 1 {
			ds := newDisplaySet(study, series, inst.Metadata.SOPClassUID(), PluginStack)
			ds.IsMultiFrame = true
			for f := 0; f < frames; f++ {
				ref := imageRef(inst)
				ref.Frame = f
				ds.Images = append(ds.Images, ref)
			}
			out = append(out, ds)
			continue
		}
		stack = append(stack, inst)
	}

	if len(stack) > 0 {
		ds := newDisplaySet(study, series, stack[0].Metadata.SOPClassUID(), PluginStack)
		for _, inst := range stack {
			ds.Images = append(ds.Images, imageRef(inst))
		}
		sort.SliceStable(ds.Images, func(i, j int) bool {
			return ds.Images[i].InstanceNumber < ds.Images[j].InstanceNumber
		})
		out = append(out, ds)
	}
	return out
}

func newDisplaySet(study *models.RawStudy, series *models.RawSeries, sopClassUID, plugin string) models.DisplaySet {
	return models.DisplaySet{
		DisplaySetInstanceUID: uuid.NewString(),
		StudyInstanceUID:      study.StudyInstanceUID,
		SeriesInstanceUID:     series.SeriesInstanceUID,
		SOPClassUID:           sopClassUID,
		Plugin:                plugin,
		Modality:              series.Modality,
		SeriesDescription:     series.SeriesDescription,
		SeriesNumber:          series.SeriesNumber,
	}
}

func imageRef(inst models.RawInstance) models.ImageRef {
	number, _ := inst.Metadata.Int("InstanceNumber")
	return models.ImageRef{
		ImageID:        inst.URL,
		SOPInstanceUID: inst.Metadata.SOPInstanceUID(),
		InstanceNumber: number,
	}
}
