package dicomfile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func newElement(t *testing.T, tg tag.Tag, data interface{}) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, data)
	if err != nil {
		t.Fatalf("NewElement(%s) failed: %v", tg, err)
	}
	return el
}

func testDataset(t *testing.T) *dicom.Dataset {
	return &dicom.Dataset{Elements: []*dicom.Element{
		newElement(t, tag.StudyInstanceUID, []string{"S1"}),
		newElement(t, tag.SeriesInstanceUID, []string{"SE1"}),
		newElement(t, tag.SOPInstanceUID, []string{"I1"}),
		newElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.2"}),
		newElement(t, tag.Modality, []string{"CT"}),
		newElement(t, tag.SeriesNumber, []string{"3"}),
		newElement(t, tag.PatientName, []string{"Doe^Jane"}),
		newElement(t, tag.ImageType, []string{"ORIGINAL", "PRIMARY", "AXIAL"}),
		newElement(t, tag.Rows, []int{512}),
	}}
}

func TestExtractStudies(t *testing.T) {
	p := NewParser()
	imageID := "dicomweb:https://example.org/image.dcm"

	study := p.ExtractStudies(testDataset(t), imageID)
	if study == nil {
		t.Fatal("Expected a study")
	}

	if study.StudyInstanceUID != "S1" {
		t.Errorf("Expected study S1, got %s", study.StudyInstanceUID)
	}
	if study.PatientName != "Doe^Jane" {
		t.Errorf("Unexpected patient name %q", study.PatientName)
	}
	if len(study.Series) != 1 || len(study.Series[0].Instances) != 1 {
		t.Fatalf("Expected one series with one instance, got %+v", study.Series)
	}

	series := study.Series[0]
	if series.SeriesInstanceUID != "SE1" || series.Modality != "CT" || series.SeriesNumber != 3 {
		t.Errorf("Unexpected series %+v", series)
	}

	instance := series.Instances[0]
	if instance.URL != imageID {
		t.Errorf("Expected instance URL %s, got %s", imageID, instance.URL)
	}
	if instance.Metadata.SOPInstanceUID() != "I1" {
		t.Errorf("Expected SOPInstanceUID I1, got %q", instance.Metadata.SOPInstanceUID())
	}
}

func TestExtractStudiesWithoutStudyUID(t *testing.T) {
	p := NewParser()
	ds := &dicom.Dataset{Elements: []*dicom.Element{
		newElement(t, tag.SOPInstanceUID, []string{"I1"}),
	}}

	if study := p.ExtractStudies(ds, "dicomweb:x"); study != nil {
		t.Errorf("Expected nil study, got %+v", study)
	}
	if study := p.ExtractStudies(nil, "dicomweb:x"); study != nil {
		t.Errorf("Expected nil study for nil dataset, got %+v", study)
	}
}

func TestNaturalize(t *testing.T) {
	n := Naturalize(testDataset(t))

	if got := n["Modality"]; got != "CT" {
		t.Errorf("Expected scalar Modality, got %#v", got)
	}
	if got, ok := n["ImageType"].([]string); !ok || len(got) != 3 {
		t.Errorf("Expected multi-valued ImageType, got %#v", n["ImageType"])
	}
	if got := n["Rows"]; got != 512 {
		t.Errorf("Expected Rows 512, got %#v", got)
	}
	if frames := n.NumberOfFrames(); frames != 1 {
		t.Errorf("Expected default NumberOfFrames 1, got %d", frames)
	}
}

func TestExtractDatasetEmptyPayload(t *testing.T) {
	_, err := NewParser().ExtractDataset(nil, "dicomweb:x")
	if !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
}

func TestExtractDatasetGarbage(t *testing.T) {
	_, err := NewParser().ExtractDataset([]byte("not a dicom file"), "dicomweb:x")
	if err == nil {
		t.Error("Expected parse error for garbage payload")
	}
}

// encodePart10 writes elements as a Part 10 file in explicit VR little endian
func encodePart10(t *testing.T, elements ...*dicom.Element) []byte {
	t.Helper()
	meta := []*dicom.Element{
		newElement(t, tag.FileMetaInformationVersion, []byte{0x00, 0x01}),
		newElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.2"}),
		newElement(t, tag.MediaStorageSOPInstanceUID, []string{"I1"}),
		newElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
	}
	ds := dicom.Dataset{Elements: append(meta, elements...)}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		t.Fatalf("dicom.Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDatasetRoundTrip(t *testing.T) {
	payload := encodePart10(t,
		newElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.2"}),
		newElement(t, tag.SOPInstanceUID, []string{"I1"}),
		newElement(t, tag.StudyDate, []string{"20240101"}),
		newElement(t, tag.Modality, []string{"CT"}),
		newElement(t, tag.PatientName, []string{"Doe^Jane"}),
		newElement(t, tag.StudyInstanceUID, []string{"S1"}),
		newElement(t, tag.SeriesInstanceUID, []string{"SE1"}),
		newElement(t, tag.SeriesNumber, []string{"3"}),
		newElement(t, tag.InstanceNumber, []string{"7"}),
		newElement(t, tag.Rows, []int{512}),
	)

	p := NewParser()
	imageID := "dicomweb:https://example.org/image.dcm"

	ds, err := p.ExtractDataset(payload, imageID)
	if err != nil {
		t.Fatalf("ExtractDataset failed: %v", err)
	}

	study := p.ExtractStudies(ds, imageID)
	if study == nil {
		t.Fatal("Expected a study from a decoded file")
	}
	if study.StudyInstanceUID != "S1" || study.StudyDate != "20240101" {
		t.Errorf("Unexpected study %+v", study)
	}

	series := study.Series[0]
	if series.SeriesInstanceUID != "SE1" || series.SeriesNumber != 3 {
		t.Errorf("Unexpected series %+v", series)
	}

	md := series.Instances[0].Metadata
	if md.SOPInstanceUID() != "I1" || md.SOPClassUID() != "1.2.840.10008.5.1.4.1.1.2" {
		t.Errorf("Expected keyword-keyed UIDs, got %v", md)
	}
	if n, ok := md.Int("InstanceNumber"); !ok || n != 7 {
		t.Errorf("Expected InstanceNumber 7, got %v", md["InstanceNumber"])
	}
	if md["Rows"] != 512 {
		t.Errorf("Expected Rows 512, got %#v", md["Rows"])
	}
}

func TestKeyword(t *testing.T) {
	if got := Keyword(tag.SOPInstanceUID); got != "SOPInstanceUID" {
		t.Errorf("Expected SOPInstanceUID, got %q", got)
	}
	private := tag.Tag{Group: 0x0009, Element: 0x1001}
	if got := Keyword(private); got != private.String() {
		t.Errorf("Expected %q for a private tag, got %q", private.String(), got)
	}
}
