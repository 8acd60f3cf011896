package dicomfile

import (
	"github.com/otcheredev/dicom-standalone-viewer/internal/models"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Naturalize maps a dataset's top-level elements to their dictionary
// keywords. Single values collapse to scalars, sequences become lists of
// nested maps, and pixel data is dropped.
func Naturalize(ds *dicom.Dataset) models.Naturalized {
	if ds == nil {
		return models.Naturalized{}
	}
	return naturalizeElements(ds.Elements)
}

func naturalizeElements(elements []*dicom.Element) models.Naturalized {
	out := make(models.Naturalized, len(elements))
	for _, el := range elements {
		if el == nil || el.Value == nil {
			continue
		}
		value, ok := naturalizeValue(el.Value)
		if !ok {
			continue
		}
		out[Keyword(el.Tag)] = value
	}
	return out
}

func naturalizeValue(v dicom.Value) (interface{}, bool) {
	switch v.ValueType() {
	case dicom.Strings:
		return collapse(v.GetValue().([]string))
	case dicom.Ints:
		return collapse(v.GetValue().([]int))
	case dicom.Floats:
		return collapse(v.GetValue().([]float64))
	case dicom.Bytes:
		return v.GetValue(), true
	case dicom.Sequences:
		items := v.GetValue().([]*dicom.SequenceItemValue)
		seq := make([]models.Naturalized, 0, len(items))
		for _, item := range items {
			seq = append(seq, naturalizeElements(item.GetValue().([]*dicom.Element)))
		}
		return seq, true
	default:
		// PixelData and anything unknown
		return nil, false
	}
}

func collapse[T any](values []T) (interface{}, bool) {
	switch len(values) {
	case 0:
		return nil, false
	case 1:
		return values[0], true
	default:
		return values, true
	}
}

// Keyword returns the dictionary keyword for a tag, or its "(gggg,eeee)"
// form for private and unknown tags.
func Keyword(t tag.Tag) string {
	info, err := tag.Find(t)
	if err != nil || info.Keyword == "" {
		return t.String()
	}
	return info.Keyword
}
