package models

import "strconv"

// Naturalized holds instance attributes keyed by DICOM keyword
// (e.g. "SOPInstanceUID", "PatientName").
type Naturalized map[string]interface{}

// String returns the first string value for a keyword
func (n Naturalized) String(keyword string) string {
	switch v := n[keyword].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Int returns the first integer value for a keyword. IS values are stored as
// strings, so those are parsed too.
func (n Naturalized) Int(keyword string) (int, bool) {
	switch v := n[keyword].(type) {
	case int:
		return v, true
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	case []string:
		if len(v) > 0 {
			i, err := strconv.Atoi(v[0])
			return i, err == nil
		}
	}
	return 0, false
}

func (n Naturalized) SOPInstanceUID() string { return n.String("SOPInstanceUID") }
func (n Naturalized) SOPClassUID() string    { return n.String("SOPClassUID") }

// NumberOfFrames defaults to 1 when the attribute is absent
func (n Naturalized) NumberOfFrames() int {
	if frames, ok := n.Int("NumberOfFrames"); ok && frames > 0 {
		return frames
	}
	return 1
}

// RawStudy is a study as extracted from a decoded payload
type RawStudy struct {
	StudyInstanceUID       string      `json:"StudyInstanceUID"`
	StudyDate              string      `json:"StudyDate,omitempty"`
	StudyTime              string      `json:"StudyTime,omitempty"`
	StudyDescription       string      `json:"StudyDescription,omitempty"`
	StudyID                string      `json:"StudyID,omitempty"`
	AccessionNumber        string      `json:"AccessionNumber,omitempty"`
	ReferringPhysicianName string      `json:"ReferringPhysicianName,omitempty"`
	PatientName            string      `json:"PatientName,omitempty"`
	PatientID              string      `json:"PatientID,omitempty"`
	PatientBirthDate       string      `json:"PatientBirthDate,omitempty"`
	PatientSex             string      `json:"PatientSex,omitempty"`
	Series                 []RawSeries `json:"series"`
}

// RawSeries is one acquisition grouping inside a RawStudy
type RawSeries struct {
	SeriesInstanceUID string        `json:"SeriesInstanceUID"`
	SeriesDescription string        `json:"SeriesDescription,omitempty"`
	SeriesNumber      int           `json:"SeriesNumber,omitempty"`
	Modality          string        `json:"Modality,omitempty"`
	Instances         []RawInstance `json:"instances"`
}

// RawInstance pairs a content locator with its naturalized attributes
type RawInstance struct {
	URL      string      `json:"url"`
	Metadata Naturalized `json:"metadata"`
}

// ImageUIDs is the identifier triple an image ID resolves to
type ImageUIDs struct {
	StudyInstanceUID  string `json:"StudyInstanceUID"`
	SeriesInstanceUID string `json:"SeriesInstanceUID"`
	SOPInstanceUID    string `json:"SOPInstanceUID"`
}

// ImageRef is one renderable image inside a display set
type ImageRef struct {
	ImageID        string `json:"imageId"`
	SOPInstanceUID string `json:"SOPInstanceUID"`
	InstanceNumber int    `json:"InstanceNumber,omitempty"`
	Frame          int    `json:"frame,omitempty"`
}

// DisplaySet is a grouping of instances shown in a single viewport
type DisplaySet struct {
	DisplaySetInstanceUID string     `json:"displaySetInstanceUID"`
	StudyInstanceUID      string     `json:"StudyInstanceUID"`
	SeriesInstanceUID     string     `json:"SeriesInstanceUID"`
	SOPClassUID           string     `json:"SOPClassUID,omitempty"`
	Plugin                string     `json:"plugin"`
	Modality              string     `json:"Modality,omitempty"`
	SeriesDescription     string     `json:"SeriesDescription,omitempty"`
	SeriesNumber          int        `json:"SeriesNumber,omitempty"`
	IsMultiFrame          bool       `json:"isMultiFrame"`
	Images                []ImageRef `json:"images"`
}

// NormalizedStudy wraps a RawStudy with its identity and display sets
type NormalizedStudy struct {
	StudyInstanceUID string       `json:"StudyInstanceUID"`
	Study            *RawStudy    `json:"study"`
	DisplaySets      []DisplaySet `json:"displaySets"`
}

// AsInput feeds a normalized study back into normalization without
// regenerating its display sets.
func (s *NormalizedStudy) AsInput() StudyInput {
	return WithDisplaySets{Study: s.Study, DisplaySets: s.DisplaySets}
}

// StudyInput is either Unprocessed or WithDisplaySets
type StudyInput interface {
	RawStudy() *RawStudy
	isStudyInput()
}

// Unprocessed is a study whose display sets have not been derived yet
type Unprocessed struct {
	Study *RawStudy
}

func (u Unprocessed) RawStudy() *RawStudy { return u.Study }
func (Unprocessed) isStudyInput()         {}

// WithDisplaySets is a study that already carries its display sets
type WithDisplaySets struct {
	Study       *RawStudy
	DisplaySets []DisplaySet
}

func (w WithDisplaySets) RawStudy() *RawStudy { return w.Study }
func (WithDisplaySets) isStudyInput()         {}
